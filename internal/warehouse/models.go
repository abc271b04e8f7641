package warehouse

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects the load strategy.
type Mode string

const (
	// ModeReplace truncates the warehouse table before loading.
	ModeReplace Mode = "replace"
	// ModeAppend upserts rows by natural key, last write wins.
	ModeAppend Mode = "append"
)

// ParseMode validates a load mode from configuration.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeReplace:
		return ModeReplace, nil
	case ModeAppend:
		return ModeAppend, nil
	default:
		return "", fmt.Errorf("unknown load mode %q", value)
	}
}

// Options configures one Load call.
type Options struct {
	Mode      Mode
	KeyFields []string
	ChunkSize int
}

// LoadResult summarizes one load stage execution.
type LoadResult struct {
	Accepted     int           `json:"accepted"`
	Failed       int           `json:"failed"`
	Chunks       int           `json:"chunks"`
	FailedChunks int           `json:"failed_chunks"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Health captures diagnostic information about the warehouse database.
type Health struct {
	DBPath           string         `json:"db_path"`
	DatabaseExists   bool           `json:"database_exists"`
	DatabaseReadable bool           `json:"database_readable"`
	TableExists      bool           `json:"table_exists"`
	IntegrityCheck   bool           `json:"integrity_check"`
	TotalRows        int            `json:"total_rows"`
	RowsBySource     map[string]int `json:"rows_by_source,omitempty"`
	Error            string         `json:"error,omitempty"`
}
