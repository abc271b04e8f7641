package report_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hopper/internal/logging"
	"hopper/internal/report"
	"hopper/internal/testsupport"
	"hopper/internal/warehouse"
)

func sampleReport() *report.RunReport {
	started := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	return &report.RunReport{
		RunID:            "11111111-2222-3333-4444-555555555555",
		State:            "done",
		StartedAt:        started,
		FinishedAt:       started.Add(3 * time.Second),
		ElapsedMillis:    3000,
		QualityScore:     0.9625,
		TotalRecords:     1800,
		LoadedRecords:    1710,
		RejectedRecords:  90,
		RecordsPerSecond: 600,
		SourceCounts:     map[string]int{"WEB": 500, "API": 300, "DB": 800, "STREAM": 200},
		Stages: []report.StageMetrics{
			report.NewStageMetrics(report.StageExtract, 1800, 1800, 0, 400*time.Millisecond),
			report.NewStageMetrics(report.StageValidate, 1800, 1710, 90, 600*time.Millisecond),
			report.NewStageMetrics(report.StageTransform, 1710, 1710, 0, 800*time.Millisecond),
			report.NewStageMetrics(report.StageLoad, 1710, 1710, 0, 1100*time.Millisecond),
			report.NewStageMetrics(report.StageReport, 0, 0, 0, time.Millisecond),
		},
		Load: warehouse.LoadResult{
			Accepted: 1710,
			Chunks:   2,
			Elapsed:  1100 * time.Millisecond,
		},
		Recommendations: []string{"rejected records present; inspect violation codes before re-running"},
	}
}

func TestMarshalIsStable(t *testing.T) {
	rep := sampleReport()
	first, err := report.Marshal(rep)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := report.Marshal(rep)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("serialization differs between runs:\n%s\n---\n%s", first, again)
		}
	}
}

func TestWriteAndRead(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	writer := report.NewWriter(cfg, logging.NewNop())

	rep := sampleReport()
	path, err := writer.Write(rep)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if filepath.Base(path) != "run-"+rep.RunID+".json" {
		t.Fatalf("unexpected artifact name %q", filepath.Base(path))
	}

	got, err := report.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.RunID != rep.RunID || got.TotalRecords != rep.TotalRecords {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.CountFor("WEB") != 500 {
		t.Fatalf("source counts lost in round trip: %v", got.SourceCounts)
	}
}

func TestWriteLeavesNoTempFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	writer := report.NewWriter(cfg, logging.NewNop())

	if _, err := writer.Write(sampleReport()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	entries, err := os.ReadDir(cfg.Paths.ReportDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestLatest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	writer := report.NewWriter(cfg, logging.NewNop())

	first := sampleReport()
	first.RunID = "aaaaaaaa-0000-0000-0000-000000000001"
	if _, err := writer.Write(first); err != nil {
		t.Fatalf("Write: %v", err)
	}

	second := sampleReport()
	second.RunID = "aaaaaaaa-0000-0000-0000-000000000002"
	path, err := writer.Write(second)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	// Give the second artifact a strictly newer modification time.
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	latest, err := report.Latest(cfg.Paths.ReportDir)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest != path {
		t.Fatalf("Latest = %q, want %q", latest, path)
	}
}

func TestRenderIncludesSummary(t *testing.T) {
	out := report.Render(sampleReport(), false)
	for _, want := range []string{"Run " + sampleReport().RunID, "[DONE]", "extract", "load", "1,800", "Recommendations:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered report missing %q:\n%s", want, out)
		}
	}
}
