package arena

import (
	"fmt"
	"iter"

	"github.com/pkg/errors"
)

// MissingKeyError is raised when a key is looked up in an arena that does
// not own it. It always indicates a compiler bug.
type MissingKeyError struct {
	Key Key
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("arena: key %s not present", e.Key)
}

// DuplicateKeyError is raised when a key that already holds a value is
// given a second one.
type DuplicateKeyError struct {
	Key Key
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("arena: key %s already defined", e.Key)
}

// Arena stores values of T under keys drawn from a shared generator.
// Iteration follows insertion order, which is also key order.
type Arena[T any] struct {
	gen   *Keys
	keys  []Key
	data  []T
	index map[Key]int
}

// New creates an arena drawing keys from gen. A nil gen gets a private
// generator.
func New[T any](gen *Keys) *Arena[T] {
	if gen == nil {
		gen = &Keys{}
	}
	return &Arena[T]{gen: gen, index: make(map[Key]int)}
}

// Generator returns the key generator shared by this arena.
func (a *Arena[T]) Generator() *Keys {
	return a.gen
}

// Insert stores v under a fresh key.
func (a *Arena[T]) Insert(v T) Key {
	return a.InsertWith(func(Key) T { return v })
}

// InsertWith stores the value built by f, which receives the key it will be
// stored under.
func (a *Arena[T]) InsertWith(f func(Key) T) Key {
	k := a.gen.Next()
	a.put(k, f(k))
	return k
}

// put stores v under an externally issued key. Keys must arrive in
// increasing order.
func (a *Arena[T]) put(k Key, v T) {
	if n := len(a.keys); n > 0 && a.keys[n-1] >= k {
		panic(errors.WithStack(fmt.Errorf("arena: key %s inserted out of order after %s", k, a.keys[n-1])))
	}
	a.index[k] = len(a.data)
	a.keys = append(a.keys, k)
	a.data = append(a.data, v)
}

// Get returns the value stored under k, if any.
func (a *Arena[T]) Get(k Key) (T, bool) {
	i, ok := a.index[k]
	if !ok {
		var zero T
		return zero, false
	}
	return a.data[i], true
}

// At is Get for keys that must be present.
func (a *Arena[T]) At(k Key) T {
	v, ok := a.Get(k)
	if !ok {
		panic(errors.WithStack(&MissingKeyError{Key: k}))
	}
	return v
}

// Has reports whether k is stored in a.
func (a *Arena[T]) Has(k Key) bool {
	_, ok := a.index[k]
	return ok
}

// Set overwrites the value of an existing key.
func (a *Arena[T]) Set(k Key, v T) {
	i, ok := a.index[k]
	if !ok {
		panic(errors.WithStack(&MissingKeyError{Key: k}))
	}
	a.data[i] = v
}

// Len returns the number of stored values.
func (a *Arena[T]) Len() int {
	return len(a.data)
}

// Keys returns the stored keys in order. Do not modify the result.
func (a *Arena[T]) Keys() []Key {
	return a.keys
}

// All iterates over entries in key order.
func (a *Arena[T]) All() iter.Seq2[Key, T] {
	return func(yield func(Key, T) bool) {
		for i, k := range a.keys {
			if !yield(k, a.data[i]) {
				return
			}
		}
	}
}

// Map builds an arena with the same keys and generator whose values are
// f applied to a's values.
func Map[T, U any](a *Arena[T], f func(Key, T) U) *Arena[U] {
	out := &Arena[U]{
		gen:   a.gen,
		keys:  append([]Key(nil), a.keys...),
		data:  make([]U, len(a.data)),
		index: make(map[Key]int, len(a.index)),
	}
	for i, k := range a.keys {
		out.data[i] = f(k, a.data[i])
		out.index[k] = i
	}
	return out
}
