package transform

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hopper/internal/config"
	"hopper/internal/faults"
	"hopper/internal/logging"
	"hopper/internal/record"
)

func newRecord(t *testing.T, id string, src record.SourceID, fields map[string]any) record.Record {
	t.Helper()
	rec := record.New(id, src, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	for name, value := range fields {
		rec.SetField(name, value)
	}
	return rec
}

func newTransformer(t *testing.T, cfg config.Transform) *Transformer {
	t.Helper()
	if cfg.Tolerance == 0 {
		cfg.Tolerance = 1e-6
	}
	tr, err := New(cfg, 4, logging.NewNop())
	require.NoError(t, err)
	return tr
}

func TestStandardizeRenamesAndDrops(t *testing.T) {
	tr := newTransformer(t, config.Transform{
		Mapping: map[string]map[string]string{
			"web": {
				"product_id": "record_key",
				"price":      "amount",
			},
		},
		Types: map[string]string{"record_key": "string", "amount": "float"},
	})

	rec := newRecord(t, "P1", record.SourceWeb, map[string]any{
		"product_id": "PROD_1",
		"price":      12.5,
		"scratch":    "dropped",
	})
	outcome, err := tr.Apply(context.Background(), []record.Record{rec})
	require.NoError(t, err)
	require.Len(t, outcome.Transformed, 1)

	got := outcome.Transformed[0]
	key, _ := got.Field("record_key")
	assert.Equal(t, "PROD_1", key)
	amount, _ := got.Field("amount")
	assert.Equal(t, 12.5, amount)
	_, present := got.Field("scratch")
	assert.False(t, present, "unmapped fields must be dropped")
	_, present = got.Field("price")
	assert.False(t, present, "raw names must not survive standardization")
}

func TestCoercion(t *testing.T) {
	tr := newTransformer(t, config.Transform{
		Mapping: map[string]map[string]string{
			"db": {
				"quantity":         "quantity",
				"total":            "amount",
				"transaction_date": "occurred_at",
			},
		},
		Types: map[string]string{
			"quantity":    "int",
			"amount":      "float",
			"occurred_at": "time",
		},
	})

	rec := newRecord(t, "T1", record.SourceDB, map[string]any{
		"quantity":         3.0,
		"total":            "19.99",
		"transaction_date": "2026-03-14T09:00:00Z",
	})
	outcome, err := tr.Apply(context.Background(), []record.Record{rec})
	require.NoError(t, err)
	require.Len(t, outcome.Transformed, 1)

	got := outcome.Transformed[0]
	quantity, _ := got.Field("quantity")
	assert.Equal(t, int64(3), quantity)
	amount, _ := got.Field("amount")
	assert.Equal(t, 19.99, amount)
	occurred, _ := got.Field("occurred_at")
	ts, ok := occurred.(time.Time)
	require.True(t, ok)
	assert.Equal(t, 2026, ts.Year())
}

func TestCoercionFailureRejectsRecord(t *testing.T) {
	tr := newTransformer(t, config.Transform{
		Mapping: map[string]map[string]string{
			"db": {"quantity": "quantity"},
		},
		Types: map[string]string{"quantity": "int"},
	})

	good := newRecord(t, "T1", record.SourceDB, map[string]any{"quantity": 2})
	bad := newRecord(t, "T2", record.SourceDB, map[string]any{"quantity": "plenty"})

	outcome, err := tr.Apply(context.Background(), []record.Record{good, bad})
	require.NoError(t, err, "per-record failures must not fail the batch")
	require.Len(t, outcome.Transformed, 1)
	require.Len(t, outcome.Failed, 1)

	failed := outcome.Failed[0]
	assert.True(t, failed.Rejected)
	assert.Contains(t, failed.Flags, "coerce_failed:quantity")
	assert.NotEmpty(t, failed.RejectReason)
}

func TestFractionalIntCoercionRespectsTolerance(t *testing.T) {
	tr := newTransformer(t, config.Transform{
		Mapping: map[string]map[string]string{"db": {"quantity": "quantity"}},
		Types:   map[string]string{"quantity": "int"},
	})

	outcome, err := tr.Apply(context.Background(), []record.Record{
		newRecord(t, "T1", record.SourceDB, map[string]any{"quantity": 3.0000001}),
		newRecord(t, "T2", record.SourceDB, map[string]any{"quantity": 3.5}),
	})
	require.NoError(t, err)
	require.Len(t, outcome.Transformed, 1)
	require.Len(t, outcome.Failed, 1)

	quantity, _ := outcome.Transformed[0].Field("quantity")
	assert.Equal(t, int64(3), quantity)
	assert.Contains(t, outcome.Failed[0].Flags, "coerce_failed:quantity")
}

func TestTitleCasing(t *testing.T) {
	tr := newTransformer(t, config.Transform{
		Mapping: map[string]map[string]string{
			"web": {"payment": "category", "stock": "availability"},
		},
		Types: map[string]string{"category": "string", "availability": "string"},
	})

	rec := newRecord(t, "P1", record.SourceWeb, map[string]any{
		"payment": "credit CARD",
		"stock":   "in stock",
	})
	outcome, err := tr.Apply(context.Background(), []record.Record{rec})
	require.NoError(t, err)
	require.Len(t, outcome.Transformed, 1)

	category, _ := outcome.Transformed[0].Field("category")
	assert.Equal(t, "Credit Card", category)
	availability, _ := outcome.Transformed[0].Field("availability")
	assert.Equal(t, "In Stock", availability)
}

func TestDerivations(t *testing.T) {
	tr := newTransformer(t, config.Transform{
		Mapping: map[string]map[string]string{
			"api": {
				"amount":      "amount",
				"rating":      "rating",
				"likes":       "likes",
				"shares":      "shares",
				"comments":    "comments",
				"sentiment":   "sentiment",
				"occurred_at": "occurred_at",
				"conversion":  "conversion_value",
			},
		},
		Types: map[string]string{
			"amount": "float", "rating": "float",
			"likes": "int", "shares": "int", "comments": "int",
			"sentiment": "float", "occurred_at": "time", "conversion_value": "float",
		},
		Derive: []string{
			"price_category", "rating_category", "engagement_score",
			"sentiment_category", "day_of_week", "hour_of_day", "conversion_flag",
		},
	})

	rec := newRecord(t, "P1", record.SourceAPI, map[string]any{
		"amount":      120.0,
		"rating":      4.6,
		"likes":       10,
		"shares":      4,
		"comments":    2,
		"sentiment":   0.5,
		"occurred_at": "2026-03-13T17:30:00Z", // a Friday
		"conversion":  12.0,
	})
	outcome, err := tr.Apply(context.Background(), []record.Record{rec})
	require.NoError(t, err)
	require.Len(t, outcome.Transformed, 1)
	got := outcome.Transformed[0]

	want := map[string]any{
		"price_category":     "Mid-range",
		"rating_category":    "Excellent",
		"engagement_score":   10.0 + 4.0*2 + 2.0*3,
		"sentiment_category": "Positive",
		"day_of_week":        "Friday",
		"hour_of_day":        int64(17),
		"conversion_flag":    int64(1),
	}
	for name, expected := range want {
		value, present := got.Field(name)
		require.True(t, present, "derived field %s missing", name)
		assert.Equal(t, expected, value, "derived field %s", name)
	}
}

func TestDerivationSkipsAbsentInputs(t *testing.T) {
	tr := newTransformer(t, config.Transform{
		Mapping: map[string]map[string]string{"stream": {"id": "record_key"}},
		Types:   map[string]string{"record_key": "string"},
		Derive:  []string{"price_category", "engagement_score"},
	})

	rec := newRecord(t, "E1", record.SourceStream, map[string]any{"id": "EVENT_1"})
	outcome, err := tr.Apply(context.Background(), []record.Record{rec})
	require.NoError(t, err)
	require.Len(t, outcome.Transformed, 1)

	got := outcome.Transformed[0]
	_, present := got.Field("price_category")
	assert.False(t, present, "derivation with absent inputs must not invent a value")
	assert.Empty(t, got.Flags)
}

func TestDerivationFailureFlagsWithoutRejecting(t *testing.T) {
	tr := newTransformer(t, config.Transform{
		Mapping: map[string]map[string]string{"web": {"price": "amount"}},
		Types:   map[string]string{"amount": "float"},
		Derive:  []string{"price_category"},
	})

	rec := newRecord(t, "P1", record.SourceWeb, map[string]any{"price": -5.0})
	outcome, err := tr.Apply(context.Background(), []record.Record{rec})
	require.NoError(t, err)
	require.Len(t, outcome.Transformed, 1, "derivation failures never reject the record")

	got := outcome.Transformed[0]
	assert.Contains(t, got.Flags, "derive_failed:price_category")
	assert.False(t, got.Rejected)
	_, present := got.Field("price_category")
	assert.False(t, present)
}

func TestUnknownDerivationFailsConstruction(t *testing.T) {
	_, err := New(config.Transform{
		Tolerance: 1e-6,
		Derive:    []string{"lunar_phase"},
	}, 1, logging.NewNop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, faults.ErrRuleConfig))
}

func TestUnmappedSourceKeepsFields(t *testing.T) {
	tr := newTransformer(t, config.Transform{
		Mapping: map[string]map[string]string{"web": {"price": "amount"}},
		Types:   map[string]string{"amount": "float"},
	})

	rec := newRecord(t, "T1", record.SourceDB, map[string]any{"total_amount": 9.0})
	outcome, err := tr.Apply(context.Background(), []record.Record{rec})
	require.NoError(t, err)
	require.Len(t, outcome.Transformed, 1)
	value, present := outcome.Transformed[0].Field("total_amount")
	assert.True(t, present, "records from a source without a mapping pass through unchanged")
	assert.Equal(t, 9.0, value)
}
