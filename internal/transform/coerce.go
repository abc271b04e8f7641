package transform

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// coerce converts a raw field value to its declared canonical type. Lossy
// conversions beyond tolerance are refused rather than silently truncated.
func coerce(value any, typeName string, tolerance float64) (any, error) {
	switch typeName {
	case "string":
		if s, ok := value.(string); ok {
			return s, nil
		}
		return fmt.Sprint(value), nil

	case "int":
		return coerceInt(value, tolerance)

	case "float":
		return coerceFloat(value)

	case "time":
		return coerceTime(value)
	}
	return nil, fmt.Errorf("unknown canonical type %q", typeName)
}

func coerceInt(value any, tolerance float64) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return floatToInt(v, tolerance)
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as int", v)
		}
		return floatToInt(f, tolerance)
	default:
		return 0, fmt.Errorf("cannot coerce %T to int", value)
	}
}

func floatToInt(f, tolerance float64) (int64, error) {
	rounded := math.Round(f)
	if math.Abs(f-rounded) > tolerance {
		return 0, fmt.Errorf("lossy conversion of %v to int exceeds tolerance", f)
	}
	return int64(rounded), nil
}

func coerceFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as float", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot coerce %T to float", value)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func coerceTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot parse %q as time", v)
	default:
		return time.Time{}, fmt.Errorf("cannot coerce %T to time", value)
	}
}
