package arena

import (
	"iter"
	"slices"

	"github.com/pkg/errors"
)

// Secondary attaches optional values to keys owned by a primary arena.
type Secondary[T any] struct {
	vals map[Key]T
}

// NewSecondary returns an empty secondary arena.
func NewSecondary[T any]() *Secondary[T] {
	return &Secondary[T]{vals: make(map[Key]T)}
}

// Set stores v for k. Each key is set at most once; a second Set panics
// with a DuplicateKeyError.
func (s *Secondary[T]) Set(k Key, v T) {
	if _, ok := s.vals[k]; ok {
		panic(errors.WithStack(&DuplicateKeyError{Key: k}))
	}
	s.vals[k] = v
}

// Get returns the value stored for k, if any.
func (s *Secondary[T]) Get(k Key) (T, bool) {
	v, ok := s.vals[k]
	return v, ok
}

// At is Get for keys that must be present.
func (s *Secondary[T]) At(k Key) T {
	v, ok := s.vals[k]
	if !ok {
		panic(errors.WithStack(&MissingKeyError{Key: k}))
	}
	return v
}

// Has reports whether k has a value.
func (s *Secondary[T]) Has(k Key) bool {
	_, ok := s.vals[k]
	return ok
}

// Len returns the number of populated keys.
func (s *Secondary[T]) Len() int {
	return len(s.vals)
}

// Keys returns the populated keys in increasing order.
func (s *Secondary[T]) Keys() []Key {
	keys := make([]Key, 0, len(s.vals))
	for k := range s.vals {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// All iterates over populated entries in key order.
func (s *Secondary[T]) All() iter.Seq2[Key, T] {
	return func(yield func(Key, T) bool) {
		for _, k := range s.Keys() {
			if !yield(k, s.vals[k]) {
				return
			}
		}
	}
}

// MapSecondary transforms every populated entry.
func MapSecondary[T, U any](s *Secondary[T], f func(Key, T) U) *Secondary[U] {
	out := &Secondary[U]{vals: make(map[Key]U, len(s.vals))}
	for k, v := range s.vals {
		out.vals[k] = f(k, v)
	}
	return out
}
