package common

// Coalesce returns the first of values that is not the zero value of T, or the zero value when there is none.
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
