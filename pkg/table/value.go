package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mc2-center/mc2-data-models/pkg/constants"
)

// Value is a single cell. After normalization it is one of nil, string,
// int64, float64 or bool.
type Value = any

// Normalize converts v to one of the canonical cell types.
func Normalize(v any) Value {
	switch x := v.(type) {
	case nil, string, int64, bool:
		return x
	case float64:
		if math.IsNaN(x) {
			return nil
		}
		return x
	case float32:
		return Normalize(float64(x))
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// IsNull reports whether v is an absent value.
func IsNull(v Value) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	}
	return false
}

// Format returns the display form of v. Null formats as the empty string.
func Format(v Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// Canonical returns the string representation used to compare values.
// Null maps to constants.NullSentinel so it never equals a legitimate
// empty string.
func Canonical(v Value) string {
	if IsNull(v) {
		return constants.NullSentinel
	}
	return Format(v)
}

// Float returns v as a number. Strings are trimmed and parsed; ok is false
// for null, booleans and unparsable strings.
func Float(v Value) (f float64, ok bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		return x, !math.IsNaN(x)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(parsed) {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}
