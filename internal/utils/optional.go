package utils

// ValueOr dereferences v, falling back when v is nil or holds the zero value.
func ValueOr[T comparable](v *T, fallback T) T {
	var zero T
	if v == nil || *v == zero {
		return fallback
	}
	return *v
}

// Positive reports the value behind an optional count, treating nil and
// non-positive values as unset.
func Positive(v *int) (int, bool) {
	n := ValueOr(v, 0)
	return n, n > 0
}
