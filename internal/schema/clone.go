package schema

import (
	"math"
	"reflect"
)

// tolerance for Equal on numbers; matches the nine-decimal rounding that
// Degrees applies.
const tolerance = 1e-9

// Clone returns a deep structural copy of a property value. Maps and slices
// are copied recursively; scalars and vector structs are returned as is.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return map[string]any(nil)
		}
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Clone(e)
		}
		return out
	case []any:
		if t == nil {
			return []any(nil)
		}
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	case []float64:
		return append([]float64(nil), t...)
	case []string:
		return append([]string(nil), t...)
	case []int:
		return append([]int(nil), t...)
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, e := range t {
			out[k] = e
		}
		return out
	case *Vector3:
		if t == nil {
			return t
		}
		c := *t
		return &c
	case *Vector2:
		if t == nil {
			return t
		}
		c := *t
		return &c
	}
	return v
}

// CloneMap deep-copies a free-form bag.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return Clone(m).(map[string]any)
}

// Equal compares two property values structurally. Numbers of any Go kind
// compare by value within a small tolerance, and numeric slices compare
// equal to the vector struct of the same components.
func Equal(a, b any) bool {
	a, b = canonical(a), canonical(b)
	if fa, ok := Number(a); ok && !isString(a) {
		fb, ok := Number(b)
		return ok && !isString(b) && math.Abs(fa-fb) <= tolerance
	}
	switch ta := a.(type) {
	case nil:
		return b == nil
	case map[string]any:
		tb, ok := b.(map[string]any)
		if !ok || len(ta) != len(tb) {
			return false
		}
		for k, va := range ta {
			vb, ok := tb[k]
			if !ok || !Equal(va, vb) {
				return false
			}
		}
		return true
	case []any:
		tb, ok := b.([]any)
		if !ok || len(ta) != len(tb) {
			return false
		}
		for i := range ta {
			if !Equal(ta[i], tb[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// IsZero reports whether v is nil, an empty string, or an empty collection.
func IsZero(v any) bool {
	switch t := canonical(v).(type) {
	case nil:
		return true
	case string:
		return t == ""
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

// canonical folds the typed collections Clone knows about into []any and
// map[string]any so Equal only has to handle the generic shapes.
func canonical(v any) any {
	switch t := v.(type) {
	case Vector2:
		return []any{t.X, t.Y}
	case *Vector2:
		if t == nil {
			return nil
		}
		return []any{t.X, t.Y}
	case Vector3:
		return []any{t.X, t.Y, t.Z}
	case *Vector3:
		if t == nil {
			return nil
		}
		return []any{t.X, t.Y, t.Z}
	case []float64:
		out := make([]any, len(t))
		for i, f := range t {
			out[i] = f
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []int:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = n
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out
	}
	return v
}
