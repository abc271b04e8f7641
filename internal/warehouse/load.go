package warehouse

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hopper/internal/faults"
	"hopper/internal/logging"
	"hopper/internal/record"
)

const upsertRow = `
INSERT INTO warehouse_rows (natural_key, source, ingested_at, quality_score, payload_json, loaded_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(natural_key) DO UPDATE SET
    source = excluded.source,
    ingested_at = excluded.ingested_at,
    quality_score = excluded.quality_score,
    payload_json = excluded.payload_json,
    loaded_at = excluded.loaded_at`

// Load persists the batch in chunks. Each chunk commits in one transaction:
// a failing chunk rolls back, its records count as failed, and loading
// continues with the next chunk. An unreachable database or an expired
// context is fatal and stops the remaining chunks.
func (s *Store) Load(ctx context.Context, records []record.Record, opts Options, logger *slog.Logger) (LoadResult, error) {
	logger = logging.NewComponentLogger(logger, "warehouse")
	start := time.Now()
	result := LoadResult{}

	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1000
	}

	if err := s.db.PingContext(ctx); err != nil {
		return result, faults.Wrap(faults.ErrLoadFatal, "load", "ping warehouse", "", err)
	}

	if opts.Mode == ModeReplace {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM warehouse_rows`); err != nil {
			return result, faults.Wrap(faults.ErrLoadFatal, "load", "truncate warehouse", "", err)
		}
	}

	for offset := 0; offset < len(records); offset += opts.ChunkSize {
		if err := ctx.Err(); err != nil {
			result.Elapsed = time.Since(start)
			return result, faults.Wrap(faults.ErrLoadFatal, "load", "chunk loop", "context expired", err)
		}

		end := offset + opts.ChunkSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[offset:end]
		result.Chunks++

		accepted, failed, err := s.loadChunk(ctx, chunk, opts)
		if err != nil {
			result.FailedChunks++
			result.Failed += len(chunk)
			logger.Warn("chunk failed, continuing with next chunk",
				logging.Int("chunk", result.Chunks),
				logging.Int("records", len(chunk)),
				logging.Error(err),
			)
			continue
		}
		result.Accepted += accepted
		result.Failed += failed
	}

	result.Elapsed = time.Since(start)
	logger.Info("load complete",
		logging.Int("accepted", result.Accepted),
		logging.Int("failed", result.Failed),
		logging.Int("chunks", result.Chunks),
		logging.Int("failed_chunks", result.FailedChunks),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// loadChunk commits one chunk all-or-nothing. Records missing their natural
// key are skipped inside the chunk and reported as individually failed; any
// database or serialization error fails the whole chunk.
func (s *Store) loadChunk(ctx context.Context, chunk []record.Record, opts Options) (accepted, failed int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, faults.Wrap(faults.ErrLoadChunk, "load", "begin transaction", "", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, upsertRow)
	if err != nil {
		return 0, 0, faults.Wrap(faults.ErrLoadChunk, "load", "prepare upsert", "", err)
	}
	defer stmt.Close()

	loadedAt := time.Now().UTC().Format(time.RFC3339Nano)
	for i := range chunk {
		rec := &chunk[i]
		key, ok := naturalKey(rec, opts.KeyFields)
		if !ok {
			failed++
			continue
		}
		payload, marshalErr := json.Marshal(payloadFor(rec))
		if marshalErr != nil {
			err = faults.Wrap(faults.ErrLoadChunk, "load", "marshal payload", key, marshalErr)
			return 0, 0, err
		}
		if _, execErr := stmt.ExecContext(ctx, key, string(rec.Source),
			rec.IngestedAt.UTC().Format(time.RFC3339Nano), rec.Score, string(payload), loadedAt); execErr != nil {
			err = faults.Wrap(faults.ErrLoadChunk, "load", "upsert row", key, execErr)
			return 0, 0, err
		}
		accepted++
	}

	if commitErr := tx.Commit(); commitErr != nil {
		err = faults.Wrap(faults.ErrLoadChunk, "load", "commit chunk", "", commitErr)
		return 0, 0, err
	}
	return accepted, failed, nil
}

// naturalKey builds the upsert key from the configured key fields, falling
// back to source+record ID when none are configured.
func naturalKey(rec *record.Record, keyFields []string) (string, bool) {
	if len(keyFields) == 0 {
		if rec.ID == "" {
			return "", false
		}
		return string(rec.Source) + ":" + rec.ID, true
	}
	parts := make([]string, 0, len(keyFields))
	for _, field := range keyFields {
		value, ok := rec.Field(field)
		if !ok {
			return "", false
		}
		parts = append(parts, fmt.Sprint(value))
	}
	return strings.Join(parts, "|"), true
}

type rowPayload struct {
	Fields map[string]any `json:"fields"`
	Flags  []string       `json:"flags,omitempty"`
	Score  float64        `json:"quality_score"`
}

func payloadFor(rec *record.Record) rowPayload {
	return rowPayload{
		Fields: rec.Fields,
		Flags:  rec.SortedFlags(),
		Score:  rec.Score,
	}
}
