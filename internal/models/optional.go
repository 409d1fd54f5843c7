package models

// Optional distinguishes a value that was supplied (possibly empty) from one
// that was not supplied at all.
type Optional[T any] struct {
	value T
	set   bool
}

// Some wraps a supplied value.
func Some[T any](value T) Optional[T] {
	return Optional[T]{value: value, set: true}
}

// None returns an absent value.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it was supplied.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

