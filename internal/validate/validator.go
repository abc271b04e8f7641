package validate

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"hopper/internal/config"
	"hopper/internal/logging"
	"hopper/internal/record"
)

// Validator applies the compiled rule set to one batch at a time. It is
// stateless across batches; the duplicate-key set lives only for the
// duration of a single Apply call.
type Validator struct {
	rules     []compiledRule
	threshold float64
	dupKeys   []string
	workers   int
	logger    *slog.Logger
}

// Outcome is the result of validating one batch.
type Outcome struct {
	// Records holds every input record annotated with flags and score, in
	// input order.
	Records []record.Record
	// Accepted holds the records that passed the rejection threshold, in
	// input order.
	Accepted []record.Record
	// RejectedCount is len(Records) - len(Accepted).
	RejectedCount int
}

// New compiles the configured rule set into a Validator. Malformed rule
// configuration surfaces as an ErrRuleConfig error.
func New(cfg config.Validation, workers int, logger *slog.Logger) (*Validator, error) {
	rules, err := compileRules(cfg.Rules)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}
	return &Validator{
		rules:     rules,
		threshold: cfg.RejectionThreshold,
		dupKeys:   append([]string(nil), cfg.DuplicateKeys...),
		workers:   workers,
		logger:    logging.NewComponentLogger(logger, "validate"),
	}, nil
}

// Apply validates the batch. Duplicate detection runs as a serial pre-pass
// over the batch in input order so "first occurrence wins" stays
// deterministic regardless of worker scheduling; rule evaluation then fans
// out across workers.
func (v *Validator) Apply(ctx context.Context, batch []record.Record) (Outcome, error) {
	duplicates := v.findDuplicates(batch)

	annotated := make([]record.Record, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers)
	for i := range batch {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			annotated[i] = v.scoreRecord(batch[i], duplicates[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{Records: annotated}
	for i := range annotated {
		if annotated[i].Rejected {
			outcome.RejectedCount++
			continue
		}
		outcome.Accepted = append(outcome.Accepted, annotated[i])
	}

	v.logger.Debug("batch validated",
		logging.Int("records", len(annotated)),
		logging.Int("rejected", outcome.RejectedCount),
	)
	return outcome, nil
}

// findDuplicates marks every record after the first occurrence of each
// duplicate key. Index i is true when batch[i] must carry a duplicate flag.
// Records missing any key field do not participate.
func (v *Validator) findDuplicates(batch []record.Record) []bool {
	flagged := make([]bool, len(batch))
	if len(v.dupKeys) == 0 {
		return flagged
	}
	seen := make(map[string]struct{}, len(batch))
	for i := range batch {
		key, ok := duplicateKey(&batch[i], v.dupKeys)
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			flagged[i] = true
			continue
		}
		seen[key] = struct{}{}
	}
	return flagged
}

func duplicateKey(rec *record.Record, keys []string) (string, bool) {
	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		value, ok := rec.Field(field)
		if !ok {
			return "", false
		}
		parts = append(parts, stringValue(value))
	}
	return strings.Join(parts, "\x1f"), true
}

// scoreRecord evaluates every applicable rule and computes the quality
// score. It works on a clone so rule evaluation never observes another
// worker's annotations.
func (v *Validator) scoreRecord(rec record.Record, duplicate bool) record.Record {
	out := rec.Clone()

	applicable := 0
	violations := 0
	for i := range v.rules {
		rule := &v.rules[i]
		if !rule.appliesTo(&out) {
			continue
		}
		applicable++
		code, ok := rule.evaluate(&out)
		if !ok {
			violations++
			out.Flag(code)
		}
	}

	if len(v.dupKeys) > 0 {
		if _, participates := duplicateKey(&out, v.dupKeys); participates {
			applicable++
			if duplicate {
				violations++
				out.Flag(record.ViolationCode(record.CodeDuplicate, strings.Join(v.dupKeys, ",")))
			}
		}
	}

	out.Score = record.QualityScore(violations, applicable)
	if out.Score < v.threshold {
		out.Rejected = true
		out.RejectReason = "quality score below threshold"
	}
	return out
}

// Threshold returns the configured rejection threshold.
func (v *Validator) Threshold() float64 { return v.threshold }
