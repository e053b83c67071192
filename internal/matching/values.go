package matching

import (
	"encoding/json"
	"reflect"
)

// Equal compares two values for equality, handling type coercion.
// Supports comparing:
//   - nil
//   - numbers of any Go numeric type and json.Number
//   - strings and booleans
//   - sequences, element-wise
//   - mappings with string keys, key-wise
//   - sets, as unordered collections
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if an, ok := toFloat64(a); ok {
		bn, ok := toFloat64(b)
		return ok && an == bn
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case Set:
		return setEqual(av, b)
	case *Set:
		if av == nil {
			return false
		}
		return setEqual(*av, b)
	}

	if am, ok := asMap(a); ok {
		bm, ok := asMap(b)
		if !ok || len(am) != len(bm) {
			return false
		}
		for k, av := range am {
			bv, ok := bm[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}

	if as, ok := asSlice(a); ok {
		bs, ok := asSlice(b)
		if !ok || len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !Equal(as[i], bs[i]) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(a, b)
}

func setEqual(s Set, other any) bool {
	var o Set
	switch ov := other.(type) {
	case Set:
		o = ov
	case *Set:
		if ov == nil {
			return false
		}
		o = *ov
	default:
		return false
	}
	if s.Len() != o.Len() {
		return false
	}
	for _, item := range s.items {
		if !o.Has(item) {
			return false
		}
	}
	return true
}

// toFloat64 attempts to convert a value to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int8:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint8:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// asMap returns v as a map[string]any when v is a mapping with string keys.
// map[string]any is returned as-is; other map types are copied.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, true
	case map[string][]string:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := iter.Key()
		if key.Kind() == reflect.Interface {
			key = key.Elem()
		}
		if key.Kind() != reflect.String {
			return nil, false
		}
		out[key.String()] = iter.Value().Interface()
	}
	return out, true
}

// asSlice returns the elements of v when v is a sequence or a Set.
// Strings and byte slices are scalars, not sequences.
func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case Set:
		return s.items, true
	case *Set:
		if s == nil {
			return nil, false
		}
		return s.items, true
	case []byte:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// IsMapping reports whether v is a mapping with string keys.
func IsMapping(v any) bool {
	_, ok := asMap(v)
	return ok
}

// IsSequence reports whether v is a sequence (slice, array or Set).
func IsSequence(v any) bool {
	_, ok := asSlice(v)
	return ok
}
