package transform

import (
	"fmt"
	"time"

	"hopper/internal/record"
)

// A derivation computes one feature from canonical fields. Implementations
// are pure: they read existing fields and return the derived value. A
// derivation whose inputs are absent reports skip=true; invalid inputs
// return an error that flags the record without failing it.
type derivation func(rec *record.Record) (value any, skip bool, err error)

var derivations = map[string]derivation{
	"price_category":     derivePriceCategory,
	"rating_category":    deriveRatingCategory,
	"engagement_score":   deriveEngagementScore,
	"sentiment_category": deriveSentimentCategory,
	"day_of_week":        deriveDayOfWeek,
	"hour_of_day":        deriveHourOfDay,
	"conversion_flag":    deriveConversionFlag,
}

func derivationByName(name string) (derivation, error) {
	d, ok := derivations[name]
	if !ok {
		return nil, fmt.Errorf("unknown derivation %q", name)
	}
	return d, nil
}

func floatField(rec *record.Record, name string) (float64, bool, error) {
	value, ok := rec.Field(name)
	if !ok {
		return 0, false, nil
	}
	switch v := value.(type) {
	case float64:
		return v, true, nil
	case int64:
		return float64(v), true, nil
	case int:
		return float64(v), true, nil
	default:
		return 0, true, fmt.Errorf("field %s is not numeric", name)
	}
}

func timeField(rec *record.Record, name string) (time.Time, bool, error) {
	value, ok := rec.Field(name)
	if !ok {
		return time.Time{}, false, nil
	}
	t, ok := value.(time.Time)
	if !ok {
		return time.Time{}, true, fmt.Errorf("field %s is not a time", name)
	}
	return t, true, nil
}

func derivePriceCategory(rec *record.Record) (any, bool, error) {
	amount, present, err := floatField(rec, "amount")
	if !present || err != nil {
		return nil, !present, err
	}
	switch {
	case amount < 0:
		return nil, false, fmt.Errorf("amount %v is negative", amount)
	case amount <= 50:
		return "Budget", false, nil
	case amount <= 200:
		return "Mid-range", false, nil
	case amount <= 1000:
		return "Premium", false, nil
	default:
		return "Luxury", false, nil
	}
}

func deriveRatingCategory(rec *record.Record) (any, bool, error) {
	rating, present, err := floatField(rec, "rating")
	if !present || err != nil {
		return nil, !present, err
	}
	switch {
	case rating < 0 || rating > 5:
		return nil, false, fmt.Errorf("rating %v out of range", rating)
	case rating <= 2:
		return "Poor", false, nil
	case rating <= 3:
		return "Fair", false, nil
	case rating <= 4:
		return "Good", false, nil
	default:
		return "Excellent", false, nil
	}
}

func deriveEngagementScore(rec *record.Record) (any, bool, error) {
	likes, likesPresent, err := floatField(rec, "likes")
	if err != nil {
		return nil, false, err
	}
	shares, sharesPresent, err := floatField(rec, "shares")
	if err != nil {
		return nil, false, err
	}
	comments, commentsPresent, err := floatField(rec, "comments")
	if err != nil {
		return nil, false, err
	}
	if !likesPresent || !sharesPresent || !commentsPresent {
		return nil, true, nil
	}
	return likes + shares*2 + comments*3, false, nil
}

func deriveSentimentCategory(rec *record.Record) (any, bool, error) {
	sentiment, present, err := floatField(rec, "sentiment")
	if !present || err != nil {
		return nil, !present, err
	}
	switch {
	case sentiment < -1 || sentiment > 1:
		return nil, false, fmt.Errorf("sentiment %v out of range", sentiment)
	case sentiment < -0.3:
		return "Negative", false, nil
	case sentiment <= 0.3:
		return "Neutral", false, nil
	default:
		return "Positive", false, nil
	}
}

func deriveDayOfWeek(rec *record.Record) (any, bool, error) {
	occurred, present, err := timeField(rec, "occurred_at")
	if !present || err != nil {
		return nil, !present, err
	}
	return occurred.Weekday().String(), false, nil
}

func deriveHourOfDay(rec *record.Record) (any, bool, error) {
	occurred, present, err := timeField(rec, "occurred_at")
	if !present || err != nil {
		return nil, !present, err
	}
	return int64(occurred.Hour()), false, nil
}

func deriveConversionFlag(rec *record.Record) (any, bool, error) {
	value, present, err := floatField(rec, "conversion_value")
	if !present || err != nil {
		return nil, !present, err
	}
	if value > 0 {
		return int64(1), false, nil
	}
	return int64(0), false, nil
}
