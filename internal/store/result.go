package store

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ResultKind identifies which shape a Result carries.
type ResultKind int

const (
	// KindNothing means no row, or a single value normalized away.
	KindNothing ResultKind = iota
	// KindScalar is a single coerced value from a one-column row.
	KindScalar
	// KindRow is the ordered values of a multi-column row.
	KindRow
	// KindChunks is the regrouped values of a chunked select.
	KindChunks
)

func (k ResultKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindRow:
		return "row"
	case KindChunks:
		return "chunks"
	default:
		return "nothing"
	}
}

// Result is the outcome of Select. It is a plain value; nothing in it
// refers back to the database.
//
// Scalar holds int64, float64 (only without legacy coercion), string,
// or time.Time. Row and Chunks hold the same types plus nil for NULL.
type Result struct {
	Kind   ResultKind
	Scalar any
	Row    []any
	Chunks [][]any
}

// Nothing is the empty Result.
var Nothing = Result{Kind: KindNothing}

// IsNothing reports whether the result carries no value.
func (r Result) IsNothing() bool {
	return r.Kind == KindNothing
}

// Int returns the scalar as an integer.
func (r Result) Int() (int64, bool) {
	if r.Kind != KindScalar {
		return 0, false
	}
	v, ok := r.Scalar.(int64)
	return v, ok
}

// Text returns the scalar as text.
func (r Result) Text() (string, bool) {
	if r.Kind != KindScalar {
		return "", false
	}
	v, ok := r.Scalar.(string)
	return v, ok
}

// Value returns the payload of the result in its natural Go shape:
// nil, the scalar, the row slice or the chunk slices.
func (r Result) Value() any {
	switch r.Kind {
	case KindScalar:
		return r.Scalar
	case KindRow:
		return r.Row
	case KindChunks:
		return r.Chunks
	default:
		return nil
	}
}

// noneText is the legacy marker for an absent value stored as text.
const noneText = "None"

// normalizeScalar applies the legacy single-value conventions.
// It is the only place those conventions live.
func normalizeScalar(v any) (any, bool) {
	switch x := nativeValue(v).(type) {
	case nil:
		return nil, false
	case int64:
		return x, true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return strconv.FormatFloat(x, 'g', -1, 64), true
		}
		if x >= math.MinInt64 && x < 1<<63 {
			return int64(x), true
		}
		// Integral but too wide for int64: keep every digit as text.
		return strconv.FormatFloat(x, 'f', 0, 64), true
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return n, true
		}
		if x == noneText {
			return nil, false
		}
		return x, true
	case bool:
		if x {
			return int64(1), true
		}
		return int64(0), true
	default:
		return x, true
	}
}

// nativeValue maps driver values to the types a Result exposes.
func nativeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	case time.Time:
		return x
	default:
		return x
	}
}

// chunk regroups a flat row-major value sequence into windows of width.
// The final window may be shorter when the values do not divide evenly.
func chunk(values []any, width int) [][]any {
	width = max(1, width)
	out := make([][]any, 0, (len(values)+width-1)/width)
	for i := 0; i < len(values); i += width {
		end := min(i+width, len(values))
		out = append(out, values[i:end:end])
	}
	return out
}
