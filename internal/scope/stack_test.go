package scope

import (
	"errors"
	"testing"

	"dslc/internal/arena"
	"dslc/internal/ir"
)

func TestInnermostFirstAndPop(t *testing.T) {
	var gen arena.Keys
	outer := ir.NewScope[ir.Type](&gen)
	inner := ir.NewScope[ir.Type](&gen)

	x := outer.Ids.InsertWith(func(k arena.Key) ir.Avis[ir.Type] {
		return ir.Avis[ir.Type]{Name: "x", Type: ir.ScalarOf(ir.BaseU32), Role: ir.Var[ir.Type](k)}
	})
	outer.SSA.Set(x, &ir.U32[ir.Type]{Value: 1})
	iv := inner.Ids.InsertWith(func(k arena.Key) ir.Avis[ir.Type] {
		return ir.Avis[ir.Type]{Name: "i", Type: ir.ScalarOf(ir.BaseU32), Role: ir.IndexVector[ir.Type](k)}
	})

	s := New[ir.Type](nil)
	s.PushScope(outer)
	s.PushScope(inner)

	if s.Depth(x) != 0 || s.Depth(iv) != 1 {
		t.Fatalf("depths: x=%d iv=%d", s.Depth(x), s.Depth(iv))
	}
	if s.FindKey(x).Name != "x" {
		t.Errorf("outer key not visible from inner level")
	}
	if _, ok := s.FindSSA(iv); ok {
		t.Errorf("index vector must have no definition")
	}
	if e, ok := s.FindSSA(x); !ok || e.Kind() != ir.ExprU32 {
		t.Errorf("FindSSA(x) = %v, %v", e, ok)
	}

	popped := s.PopScope()
	if !popped.Ids.Has(iv) {
		t.Errorf("PopScope returned the wrong level")
	}
	if _, ok := s.Lookup(iv); ok {
		t.Errorf("index vector still resolvable after pop")
	}
}

func TestFindKeyPanicsOnUndeclared(t *testing.T) {
	s := New[ir.MaybeType](nil)
	s.PushScope(ir.NewScope[ir.MaybeType](nil))
	err := func() (err error) {
		defer ir.Recover(&err, "f")
		s.FindKey(arena.Key(99))
		return nil
	}()
	var ie *ir.InternalError
	if !errors.As(err, &ie) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestFindIDArg(t *testing.T) {
	args := []ir.Avis[ir.Type]{
		{Name: "a", Type: ir.ScalarOf(ir.BaseU32), Role: ir.Arg[ir.Type](0)},
		{Name: "b", Type: ir.ScalarOf(ir.BaseBool), Role: ir.Arg[ir.Type](1)},
	}
	s := New(args)
	if got := s.FindID(ir.Arg[ir.Type](1)); got.Name != "b" {
		t.Errorf("FindID(arg1) = %+v", got)
	}
}
