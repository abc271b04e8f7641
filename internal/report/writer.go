package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hopper/internal/config"
	"hopper/internal/logging"
)

// Writer persists run reports as JSON artifacts in the report directory.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter constructs a report writer for the configured report directory.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	return &Writer{
		dir:    cfg.Paths.ReportDir,
		logger: logging.NewComponentLogger(logger, "report"),
	}
}

// Write serializes the report and returns the artifact path. Writes go
// through a temp file and rename so a crash never leaves a torn artifact.
func (w *Writer) Write(rep *RunReport) (string, error) {
	if rep == nil {
		return "", errors.New("report is nil")
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure report directory: %w", err)
	}

	data, err := Marshal(rep)
	if err != nil {
		return "", err
	}

	path := filepath.Join(w.dir, fmt.Sprintf("run-%s.json", rep.RunID))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("finalize report: %w", err)
	}

	w.logger.Info("report written",
		logging.String(logging.FieldRunID, rep.RunID),
		logging.String("path", path),
	)
	return path, nil
}

// Marshal produces the canonical serialized form of a report. Struct field
// order is fixed and map keys serialize sorted, so equal reports marshal to
// identical bytes.
func Marshal(rep *RunReport) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return buf.Bytes(), nil
}

// Read loads a persisted report artifact.
func Read(path string) (*RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var rep RunReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return &rep, nil
}

// Latest returns the most recently modified report artifact in dir.
func Latest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read report directory: %w", err)
	}
	var candidates []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "run-") || !strings.HasSuffix(name, ".json") {
			continue
		}
		candidates = append(candidates, filepath.Join(dir, name))
	}
	if len(candidates) == 0 {
		return "", errors.New("no report artifacts found")
	}
	sort.Slice(candidates, func(i, j int) bool {
		iInfo, iErr := os.Stat(candidates[i])
		jInfo, jErr := os.Stat(candidates[j])
		if iErr != nil || jErr != nil {
			return candidates[i] < candidates[j]
		}
		return iInfo.ModTime().After(jInfo.ModTime())
	})
	return candidates[0], nil
}
