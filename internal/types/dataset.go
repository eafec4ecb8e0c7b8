package types

import "strconv"

// Row is one dataset row: a mapping from column name to value. Row order is
// carried by the slice position in the store's ReadAll result.
type Row map[string]any

// Standard price columns present in every market dataset. The pipeline always
// projects these into the execution record shape alongside any computed
// columns.
const (
	ColumnDate   = "date"
	ColumnOpen   = "open"
	ColumnHigh   = "high"
	ColumnLow    = "low"
	ColumnClose  = "close"
	ColumnVolume = "volume"
)

// PriceColumns returns the fixed price fields in their canonical order.
func PriceColumns() []string {
	return []string{ColumnDate, ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnVolume}
}

// NumericValue coerces a row value to a float64 pointer. Non-numeric values
// (and unparseable strings) coerce to nil, matching the null handling of the
// execution engine's record shape.
func NumericValue(v any) *float64 {
	switch value := v.(type) {
	case nil:
		return nil
	case float64:
		return &value
	case float32:
		f := float64(value)

		return &f
	case int:
		f := float64(value)

		return &f
	case int32:
		f := float64(value)

		return &f
	case int64:
		f := float64(value)

		return &f
	case uint64:
		f := float64(value)

		return &f
	case bool:
		f := 0.0
		if value {
			f = 1.0
		}

		return &f
	case string:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil
		}

		return &f
	case *float64:
		return value
	default:
		return nil
	}
}
