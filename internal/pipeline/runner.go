package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"hopper/internal/config"
	"hopper/internal/faults"
	"hopper/internal/logging"
	"hopper/internal/record"
	"hopper/internal/report"
	"hopper/internal/source"
	"hopper/internal/transform"
	"hopper/internal/validate"
	"hopper/internal/warehouse"
)

// Runner drives one pipeline run through the stage sequence and assembles
// the final report. Construct one per invocation; the validator's
// batch-scoped state is created fresh on every Apply call, so a Runner may
// be reused, but two runs must not share a warehouse concurrently (the run
// lock enforces this).
type Runner struct {
	cfg         *config.Config
	store       *warehouse.Store
	validator   *validate.Validator
	transformer *transform.Transformer
	writer      *report.Writer
	loadMode    warehouse.Mode
	logger      *slog.Logger

	mu    sync.RWMutex
	state State
}

// NewRunner wires the stage components from configuration. Malformed rule
// or transform configuration fails here, before any extraction.
func NewRunner(cfg *config.Config, store *warehouse.Store, logger *slog.Logger) (*Runner, error) {
	validator, err := validate.New(cfg.Validation, cfg.Workflow.WorkerCount, logger)
	if err != nil {
		return nil, err
	}
	transformer, err := transform.New(cfg.Transform, cfg.Workflow.WorkerCount, logger)
	if err != nil {
		return nil, err
	}
	mode, err := warehouse.ParseMode(cfg.Load.Mode)
	if err != nil {
		return nil, faults.Wrap(faults.ErrRuleConfig, "pipeline", "parse load mode", "", err)
	}
	return &Runner{
		cfg:         cfg,
		store:       store,
		validator:   validator,
		transformer: transformer,
		writer:      report.NewWriter(cfg, logger),
		loadMode:    mode,
		logger:      logging.NewComponentLogger(logger, "pipeline"),
		state:       StateIdle,
	}, nil
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *Runner) setState(state State) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
}

// runState accumulates everything a run produces so both the success and
// the best-effort failure paths can assemble a report from it.
type runState struct {
	runID        string
	startedAt    time.Time
	stages       []report.StageMetrics
	sourceCounts map[string]int
	failures     []report.SourceFailure
	totalRecords int
	rejected     int
	qualityScore float64
	loadResult   warehouse.LoadResult
}

// Run executes one complete pipeline run. On failure it still writes a
// best-effort report covering everything gathered up to the failure point
// and returns the report alongside the error.
func (r *Runner) Run(ctx context.Context) (*report.RunReport, string, error) {
	rs := &runState{
		runID:        uuid.NewString(),
		startedAt:    time.Now().UTC(),
		sourceCounts: make(map[string]int),
		qualityScore: 1.0,
	}
	logger := r.logger.With(logging.String(logging.FieldRunID, rs.runID))

	lock := flock.New(filepath.Join(r.cfg.Paths.WarehouseDir, "hopper.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, "", fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, "", fmt.Errorf("another pipeline run holds the warehouse lock")
	}
	defer func() { _ = lock.Unlock() }()

	// Extraction
	r.setState(StateExtracting)
	batch, err := r.extract(ctx, rs, logger)
	if err != nil {
		return r.failRun(rs, logger, err)
	}
	if err := r.checkCancel(ctx); err != nil {
		return r.failRun(rs, logger, err)
	}

	// Validation
	r.setState(StateValidating)
	accepted, err := r.validateBatch(ctx, rs, logger, batch)
	if err != nil {
		return r.failRun(rs, logger, err)
	}
	if err := r.checkCancel(ctx); err != nil {
		return r.failRun(rs, logger, err)
	}

	// Transformation
	r.setState(StateTransforming)
	transformed, err := r.transformBatch(ctx, rs, logger, accepted)
	if err != nil {
		return r.failRun(rs, logger, err)
	}
	if err := r.checkCancel(ctx); err != nil {
		return r.failRun(rs, logger, err)
	}

	// Load
	r.setState(StateLoading)
	if err := r.loadBatch(ctx, rs, logger, transformed); err != nil {
		return r.failRun(rs, logger, err)
	}
	if err := r.checkCancel(ctx); err != nil {
		return r.failRun(rs, logger, err)
	}

	// Reporting
	r.setState(StateReporting)
	rep := r.buildReport(rs, StateDone, "")
	path, err := r.writer.Write(rep)
	if err != nil {
		r.setState(StateFailed)
		return rep, "", fmt.Errorf("write report: %w", err)
	}

	r.setState(StateDone)
	logger.Info("run complete",
		logging.Int("total_records", rep.TotalRecords),
		logging.Int("loaded", rep.LoadedRecords),
		logging.Int("rejected", rep.RejectedRecords),
		logging.Float64("quality_score", rep.QualityScore),
		logging.Duration("elapsed", time.Since(rs.startedAt)),
	)
	return rep, path, nil
}

// extract runs every configured source adapter under its timeout. A failing
// optional source contributes zero records; a failing required source is
// fatal.
func (r *Runner) extract(ctx context.Context, rs *runState, logger *slog.Logger) ([]record.Record, error) {
	started := time.Now()
	var batch []record.Record

	for _, srcCfg := range r.cfg.Sources {
		if _, exists := rs.sourceCounts[sourceKey(srcCfg.Type)]; !exists {
			rs.sourceCounts[sourceKey(srcCfg.Type)] = 0
		}

		records, err := r.extractOne(ctx, srcCfg, logger)
		if err != nil {
			if srcCfg.Required {
				rs.stages = append(rs.stages, report.NewStageMetrics(
					report.StageExtract, len(batch), len(batch), 0, time.Since(started)))
				return nil, faults.Wrap(faults.ErrExtraction, "extract", srcCfg.Type, "required source failed", err)
			}
			logger.Warn("optional source failed, continuing without it",
				logging.String(logging.FieldSource, srcCfg.Type),
				logging.Error(err),
			)
			rs.failures = append(rs.failures, report.SourceFailure{
				Type:     srcCfg.Type,
				Required: false,
				Error:    err.Error(),
			})
			continue
		}
		rs.sourceCounts[sourceKey(srcCfg.Type)] += len(records)
		batch = append(batch, records...)
	}

	rs.totalRecords = len(batch)
	rs.stages = append(rs.stages, report.NewStageMetrics(
		report.StageExtract, len(batch), len(batch), 0, time.Since(started)))
	logger.Info("extraction complete",
		logging.String(logging.FieldStage, report.StageExtract),
		logging.Int("records", len(batch)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return batch, nil
}

func (r *Runner) extractOne(ctx context.Context, srcCfg config.Source, logger *slog.Logger) ([]record.Record, error) {
	adapter, err := source.New(srcCfg.Type)
	if err != nil {
		return nil, faults.Wrap(faults.ErrExtraction, "extract", srcCfg.Type, "resolve adapter", err)
	}

	extractCtx, cancel := context.WithTimeout(ctx, time.Duration(srcCfg.TimeoutSeconds)*time.Second)
	defer cancel()

	records, err := adapter.Extract(extractCtx, srcCfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("source extracted",
		logging.String(logging.FieldSource, srcCfg.Type),
		logging.Int("records", len(records)),
	)
	return records, nil
}

// validateBatch scores the whole batch and computes the run-level quality
// score as the mean over all processed records, rejected ones included.
func (r *Runner) validateBatch(ctx context.Context, rs *runState, logger *slog.Logger, batch []record.Record) ([]record.Record, error) {
	started := time.Now()
	outcome, err := r.validator.Apply(ctx, batch)
	if err != nil {
		rs.stages = append(rs.stages, report.NewStageMetrics(
			report.StageValidate, len(batch), 0, 0, time.Since(started)))
		return nil, faults.Wrap(faults.ErrCanceled, "validate", "apply rules", "", err)
	}

	rs.qualityScore = meanScore(outcome.Records)
	rs.rejected += outcome.RejectedCount
	rs.stages = append(rs.stages, report.NewStageMetrics(
		report.StageValidate, len(batch), len(outcome.Accepted), outcome.RejectedCount, time.Since(started)))
	logger.Info("validation complete",
		logging.String(logging.FieldStage, report.StageValidate),
		logging.Int("records", len(batch)),
		logging.Int("rejected", outcome.RejectedCount),
		logging.Float64("quality_score", rs.qualityScore),
	)
	return outcome.Accepted, nil
}

func (r *Runner) transformBatch(ctx context.Context, rs *runState, logger *slog.Logger, accepted []record.Record) ([]record.Record, error) {
	started := time.Now()
	outcome, err := r.transformer.Apply(ctx, accepted)
	if err != nil {
		rs.stages = append(rs.stages, report.NewStageMetrics(
			report.StageTransform, len(accepted), 0, 0, time.Since(started)))
		return nil, faults.Wrap(faults.ErrCanceled, "transform", "apply", "", err)
	}

	rs.rejected += len(outcome.Failed)
	rs.stages = append(rs.stages, report.NewStageMetrics(
		report.StageTransform, len(accepted), len(outcome.Transformed), len(outcome.Failed), time.Since(started)))
	logger.Info("transformation complete",
		logging.String(logging.FieldStage, report.StageTransform),
		logging.Int("records", len(accepted)),
		logging.Int("failed", len(outcome.Failed)),
	)
	return outcome.Transformed, nil
}

func (r *Runner) loadBatch(ctx context.Context, rs *runState, logger *slog.Logger, transformed []record.Record) error {
	started := time.Now()
	loadCtx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Workflow.LoadTimeout)*time.Second)
	defer cancel()

	result, err := r.store.Load(loadCtx, transformed, warehouse.Options{
		Mode:      r.loadMode,
		KeyFields: r.cfg.Load.KeyFields,
		ChunkSize: r.cfg.Load.ChunkSize,
	}, logger)
	rs.loadResult = result
	rs.stages = append(rs.stages, report.NewStageMetrics(
		report.StageLoad, len(transformed), result.Accepted, result.Failed, time.Since(started)))
	if err != nil {
		return err
	}
	return nil
}

// checkCancel honors the cooperative cancellation signal between stages.
func (r *Runner) checkCancel(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return faults.Wrap(faults.ErrCanceled, "pipeline", "between stages", "", err)
	}
	return nil
}

// failRun transitions to FAILED and writes a best-effort report covering
// all metrics gathered before the failure.
func (r *Runner) failRun(rs *runState, logger *slog.Logger, cause error) (*report.RunReport, string, error) {
	r.setState(StateFailed)
	logger.Error("run failed", logging.Error(cause))

	rep := r.buildReport(rs, StateFailed, cause.Error())
	path, writeErr := r.writer.Write(rep)
	if writeErr != nil {
		logger.Error("best-effort report write failed", logging.Error(writeErr))
		return rep, "", cause
	}
	return rep, path, cause
}

func (r *Runner) buildReport(rs *runState, state State, failureReason string) *report.RunReport {
	reportStart := time.Now()
	finished := time.Now().UTC()
	elapsed := finished.Sub(rs.startedAt)

	recordsPerSecond := 0.0
	if elapsed > 0 {
		recordsPerSecond = float64(rs.totalRecords) / elapsed.Seconds()
	}

	rep := &report.RunReport{
		RunID:            rs.runID,
		State:            string(state),
		FailureReason:    failureReason,
		StartedAt:        rs.startedAt,
		FinishedAt:       finished,
		ElapsedMillis:    elapsed.Milliseconds(),
		QualityScore:     rs.qualityScore,
		TotalRecords:     rs.totalRecords,
		LoadedRecords:    rs.loadResult.Accepted,
		RejectedRecords:  rs.rejected,
		RecordsPerSecond: recordsPerSecond,
		SourceCounts:     rs.sourceCounts,
		SourceFailures:   rs.failures,
		Load:             rs.loadResult,
		Recommendations:  recommendations(rs),
	}
	rep.Stages = append(append([]report.StageMetrics(nil), rs.stages...),
		report.NewStageMetrics(report.StageReport, 0, 0, 0, time.Since(reportStart)))
	return rep
}

// recommendations derives advisory notes from the run outcome, in fixed
// order so report serialization stays stable.
func recommendations(rs *runState) []string {
	var recs []string
	if rs.qualityScore < 0.9 {
		recs = append(recs, "run quality score is below 0.90; review validation rule violations by source")
	}
	if rs.rejected > 0 {
		recs = append(recs, "rejected records present; inspect violation codes before re-running")
	}
	if rs.loadResult.FailedChunks > 0 {
		recs = append(recs, "one or more chunks failed to commit; re-run in append mode to retry missing rows")
	}
	return recs
}

func meanScore(records []record.Record) float64 {
	if len(records) == 0 {
		return 1.0
	}
	sum := 0.0
	for i := range records {
		sum += records[i].Score
	}
	return sum / float64(len(records))
}

func sourceKey(sourceType string) string {
	if id, err := record.ParseSourceID(sourceType); err == nil {
		return string(id)
	}
	return sourceType
}
