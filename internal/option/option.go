// This package provides an optional data type, similar to Rust's `Option<T>` (and Haskell's `Maybe a`).
package option

// Option is defined over *T rather than as a struct so that a Some value can be handed
// directly to APIs that take an optional pointer (eg, a related activity ID).
// This means that methods cannot be defined on [Option].

// Option carries either a value of type T, or nothing.
type Option[T any] *T

func Some[T any](v T) Option[T] { return Option[T](&v) }
func None[T any]() Option[T]    { return Option[T](nil) }

func IsNone[T any](o Option[T]) bool { return o == nil }
func IsSome[T any](o Option[T]) bool { return !IsNone(o) }

// Ptr returns the Option's value as a pointer, which is nil if the Option [IsNone].
//
// The pointer aliases the Option's storage.
func Ptr[T any](o Option[T]) *T { return (*T)(o) }

// UnwrapOr returns the Option's value if it [IsSome], or v otherwise.
func UnwrapOr[T any](o Option[T], v T) T {
	if IsNone(o) {
		return v
	}
	return *o
}

// UnwrapOrDefault returns the Option's value if it [IsSome], or the type's default value otherwise.
func UnwrapOrDefault[T any](o Option[T]) T {
	return UnwrapOr(o, *new(T))
}

// Map applies f to the Option's value if it [IsSome], or returns a [None[U]] otherwise.
func Map[T, U any](o Option[T], f func(T) U) Option[U] {
	if IsNone(o) {
		return None[U]()
	}
	return Some(f(*o))
}
