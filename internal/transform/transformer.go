package transform

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"hopper/internal/config"
	"hopper/internal/faults"
	"hopper/internal/logging"
	"hopper/internal/record"
)

// Fields whose canonical string values are normalized to title case so the
// warehouse never ends up with "paypal" and "PayPal" as distinct groups.
var titleCasedFields = []string{"category", "availability"}

// Transformer rewrites records into the canonical schema. It is stateless
// and safe for concurrent use.
type Transformer struct {
	mapping     map[record.SourceID]map[string]string
	types       map[string]string
	tolerance   float64
	derivations []namedDerivation
	workers     int
	titleCaser  cases.Caser
	logger      *slog.Logger
}

type namedDerivation struct {
	name string
	fn   derivation
}

// Outcome is the result of transforming one batch.
type Outcome struct {
	// Transformed holds successfully rewritten records, in input order.
	Transformed []record.Record
	// Failed holds records whose coercion failed; they carry a rejection
	// annotation and a coerce_failed violation code.
	Failed []record.Record
}

// New builds a Transformer from configuration. Unknown derivation names are
// rule-configuration errors and fail startup.
func New(cfg config.Transform, workers int, logger *slog.Logger) (*Transformer, error) {
	mapping := make(map[record.SourceID]map[string]string, len(cfg.Mapping))
	for sourceType, fields := range cfg.Mapping {
		id, err := record.ParseSourceID(sourceType)
		if err != nil {
			return nil, faults.Wrap(faults.ErrRuleConfig, "transform", "compile mapping", "", err)
		}
		mapping[id] = fields
	}

	named := make([]namedDerivation, 0, len(cfg.Derive))
	for _, name := range cfg.Derive {
		fn, err := derivationByName(name)
		if err != nil {
			return nil, faults.Wrap(faults.ErrRuleConfig, "transform", "compile derivations", "", err)
		}
		named = append(named, namedDerivation{name: name, fn: fn})
	}

	if workers < 1 {
		workers = 1
	}
	return &Transformer{
		mapping:     mapping,
		types:       cfg.Types,
		tolerance:   cfg.Tolerance,
		derivations: named,
		workers:     workers,
		titleCaser:  cases.Title(language.English),
		logger:      logging.NewComponentLogger(logger, "transform"),
	}, nil
}

// Apply transforms the batch across the worker pool. Per-record failures are
// collected, never propagated; the returned error is only a context
// cancellation.
func (t *Transformer) Apply(ctx context.Context, batch []record.Record) (Outcome, error) {
	results := make([]record.Record, len(batch))
	failed := make([]bool, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)
	for i := range batch {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, ok := t.transformRecord(batch[i])
			results[i] = rec
			failed[i] = !ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{}
	for i := range results {
		if failed[i] {
			outcome.Failed = append(outcome.Failed, results[i])
			continue
		}
		outcome.Transformed = append(outcome.Transformed, results[i])
	}

	t.logger.Debug("batch transformed",
		logging.Int("records", len(batch)),
		logging.Int("failed", len(outcome.Failed)),
	)
	return outcome, nil
}

// transformRecord runs the three fixed steps on a clone of the input. The
// bool result is false when coercion failed and the record must be routed
// back as rejected.
func (t *Transformer) transformRecord(rec record.Record) (record.Record, bool) {
	out := rec.Clone()

	t.standardize(&out)

	if field, err := t.coerceFields(&out); err != nil {
		out.Flag(record.ViolationCode(record.CodeCoerceFailed, field))
		out.Rejected = true
		out.RejectReason = faults.Wrap(faults.ErrTransform, "transform", "coerce", field, err).Error()
		return out, false
	}

	t.derive(&out)
	return out, true
}

// standardize replaces the source-specific field set with canonical names.
// Unmapped fields are dropped; missing canonical fields are left absent,
// never invented.
func (t *Transformer) standardize(rec *record.Record) {
	fields, ok := t.mapping[rec.Source]
	if !ok {
		return
	}
	canonical := make(map[string]any, len(fields))
	for rawName, canonicalName := range fields {
		if value, present := rec.Field(rawName); present {
			canonical[canonicalName] = value
		}
	}
	rec.Fields = canonical
}

func (t *Transformer) coerceFields(rec *record.Record) (string, error) {
	for field, typeName := range t.types {
		value, present := rec.Field(field)
		if !present {
			continue
		}
		coerced, err := coerce(value, typeName, t.tolerance)
		if err != nil {
			return field, err
		}
		rec.SetField(field, coerced)
	}
	for _, field := range titleCasedFields {
		if value, present := rec.Field(field); present {
			if s, ok := value.(string); ok {
				rec.SetField(field, t.titleCaser.String(strings.ToLower(s)))
			}
		}
	}
	return "", nil
}

func (t *Transformer) derive(rec *record.Record) {
	for _, d := range t.derivations {
		value, skip, err := d.fn(rec)
		if err != nil {
			rec.Flag(record.ViolationCode(record.CodeDeriveFailed, d.name))
			continue
		}
		if skip {
			continue
		}
		rec.SetField(d.name, value)
	}
}
