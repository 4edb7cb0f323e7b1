package arena

import (
	"errors"
	"slices"
	"testing"
)

func TestSharedGeneratorKeysAreUnique(t *testing.T) {
	var gen Keys
	outer := New[string](&gen)
	inner := New[string](&gen)

	a := outer.Insert("a")
	b := inner.Insert("b")
	c := outer.Insert("c")

	if a == b || b == c || a == c {
		t.Fatalf("keys collide: %v %v %v", a, b, c)
	}
	if outer.Has(b) || inner.Has(a) {
		t.Fatalf("arena reports a key it does not own")
	}
	if got := outer.Keys(); !slices.Equal(got, []Key{a, c}) {
		t.Errorf("outer keys = %v", got)
	}
	if gen.Issued() != 3 {
		t.Errorf("Issued = %d, want 3", gen.Issued())
	}
}

func TestInsertWithSeesOwnKey(t *testing.T) {
	a := New[Key](nil)
	k := a.InsertWith(func(k Key) Key { return k })
	if a.At(k) != k {
		t.Fatalf("InsertWith stored %v under %v", a.At(k), k)
	}
	if !k.IsValid() || NoKey.IsValid() {
		t.Fatalf("key validity broken")
	}
}

func TestAtPanicsOnMissingKey(t *testing.T) {
	a := New[int](nil)
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok {
			t.Fatalf("expected error panic, got %v", r)
		}
		var missing *MissingKeyError
		if !errors.As(err, &missing) || missing.Key != 42 {
			t.Fatalf("unexpected panic %v", err)
		}
	}()
	a.At(42)
}

func TestMapPreservesKeys(t *testing.T) {
	a := New[int](nil)
	k1 := a.Insert(1)
	k2 := a.Insert(2)
	m := Map(a, func(_ Key, v int) string { return string(rune('a' + v)) })
	if m.At(k1) != "b" || m.At(k2) != "c" {
		t.Fatalf("Map values wrong")
	}
	if m.Generator() != a.Generator() {
		t.Errorf("Map must keep the generator")
	}
	var seen []Key
	for k := range m.All() {
		seen = append(seen, k)
	}
	if !slices.Equal(seen, []Key{k1, k2}) {
		t.Errorf("All order = %v", seen)
	}
}

func TestSecondary(t *testing.T) {
	a := New[string](nil)
	k1 := a.Insert("x")
	k2 := a.Insert("y")
	s := NewSecondary[int]()
	s.Set(k2, 20)
	if s.Has(k1) {
		t.Errorf("absent entry reported present")
	}
	if v, ok := s.Get(k2); !ok || v != 20 {
		t.Errorf("Get = %d, %v", v, ok)
	}
	m := MapSecondary(s, func(_ Key, v int) int { return v * 2 })
	if m.At(k2) != 40 || m.Len() != 1 {
		t.Errorf("MapSecondary wrong: %v", m.Keys())
	}
}

func TestSecondarySetTwicePanics(t *testing.T) {
	a := New[string](nil)
	k := a.Insert("x")
	s := NewSecondary[int]()
	s.Set(k, 1)
	defer func() {
		err, ok := recover().(error)
		var dup *DuplicateKeyError
		if !ok || !errors.As(err, &dup) || dup.Key != k {
			t.Fatalf("recovered %v, want DuplicateKeyError for %s", err, k)
		}
		if s.At(k) != 1 {
			t.Errorf("first definition was replaced")
		}
	}()
	s.Set(k, 2)
}
