package reactive

import "reflect"

// identical reports whether two values are the same by ordinary equality:
// value equality for comparable types, reference identity for slices, maps,
// functions and pointers. It never panics on uncomparable dynamic types.
func identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	// Fast paths for the common primitive kinds.
	switch av := a.(type) {
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}

	ra := reflect.ValueOf(a)
	rb := reflect.ValueOf(b)
	if ra.Type() != rb.Type() {
		return false
	}

	switch ra.Kind() {
	case reflect.Slice:
		return ra.Len() == rb.Len() && ra.UnsafePointer() == rb.UnsafePointer()
	case reflect.Map, reflect.Chan, reflect.Func, reflect.Pointer, reflect.UnsafePointer:
		return ra.UnsafePointer() == rb.UnsafePointer()
	default:
		if ra.Type().Comparable() {
			return a == b
		}
		return false
	}
}

// selfUnequal reports whether a value compares unequal to itself, i.e. a
// NaN-like float. Writing one such value over another is treated as a
// non-change so NaN stores do not fire spurious notifications.
func selfUnequal(v any) bool {
	switch n := v.(type) {
	case float64:
		return n != n
	case float32:
		return n != n
	}
	return false
}

// sameValue is the write-path change check: ordinary identity, with the
// exception that two self-unequal values count as equal.
func sameValue(a, b any) bool {
	if identical(a, b) {
		return true
	}
	return selfUnequal(a) && selfUnequal(b)
}
