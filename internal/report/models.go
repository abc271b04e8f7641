package report

import (
	"time"

	"hopper/internal/record"
	"hopper/internal/warehouse"
)

// Stage names in execution order.
const (
	StageExtract   = "extract"
	StageValidate  = "validate"
	StageTransform = "transform"
	StageLoad      = "load"
	StageReport    = "report"
)

// StageMetrics is an immutable snapshot of one stage execution. It is
// created once when the stage exits and never mutated afterwards.
type StageMetrics struct {
	Stage           string  `json:"stage"`
	RecordsIn       int     `json:"records_in"`
	RecordsOut      int     `json:"records_out"`
	RecordsRejected int     `json:"records_rejected"`
	ElapsedMillis   int64   `json:"elapsed_ms"`
	Throughput      float64 `json:"throughput_per_sec"`
}

// NewStageMetrics builds the snapshot, deriving throughput from records out
// and elapsed time. Throughput is zero when elapsed time is zero so an
// instantaneous stage never divides by zero.
func NewStageMetrics(stage string, in, out, rejected int, elapsed time.Duration) StageMetrics {
	if elapsed < 0 {
		elapsed = 0
	}
	throughput := 0.0
	if elapsed > 0 {
		throughput = float64(out) / elapsed.Seconds()
	}
	return StageMetrics{
		Stage:           stage,
		RecordsIn:       in,
		RecordsOut:      out,
		RecordsRejected: rejected,
		ElapsedMillis:   elapsed.Milliseconds(),
		Throughput:      throughput,
	}
}

// SourceFailure records a source adapter that produced no records.
type SourceFailure struct {
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Error    string `json:"error"`
}

// RunReport aggregates everything one pipeline run produced. The
// orchestrator creates it once at the end of a run; it is immutable
// thereafter.
type RunReport struct {
	RunID            string               `json:"run_id"`
	State            string               `json:"state"`
	FailureReason    string               `json:"failure_reason,omitempty"`
	StartedAt        time.Time            `json:"started_at"`
	FinishedAt       time.Time            `json:"finished_at"`
	ElapsedMillis    int64                `json:"elapsed_ms"`
	QualityScore     float64              `json:"quality_score"`
	TotalRecords     int                  `json:"total_records"`
	LoadedRecords    int                  `json:"loaded_records"`
	RejectedRecords  int                  `json:"rejected_records"`
	RecordsPerSecond float64              `json:"records_per_second"`
	SourceCounts     map[string]int       `json:"source_counts"`
	SourceFailures   []SourceFailure      `json:"source_failures,omitempty"`
	Stages           []StageMetrics       `json:"stages"`
	Load             warehouse.LoadResult `json:"load"`
	Recommendations  []string             `json:"recommendations,omitempty"`
}

// CountFor returns the extracted record count for one source category.
func (r *RunReport) CountFor(id record.SourceID) int {
	return r.SourceCounts[string(id)]
}
