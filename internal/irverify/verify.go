// Package irverify checks the structural invariants of scoped SSA programs.
//
// A program is well formed when every identifier key is unique within its
// function, every Var key has exactly one definition and that definition
// lives in the scope declaring the key, index vectors have no definition,
// and every reference reachable from a return value resolves through the
// scopes open at the point of use.
package irverify

import (
	"go.uber.org/multierr"

	"dslc/internal/arena"
	"dslc/internal/ir"
	"dslc/internal/traverse"
)

// Check verifies every function of p. Violations are reported as
// *ir.InternalError, one per broken function.
func Check[T ir.Meta](p *ir.Program[T]) error {
	var errs error
	for _, f := range p.Fundefs {
		errs = multierr.Append(errs, CheckFundef(f))
	}
	return errs
}

// CheckFundef verifies one function.
func CheckFundef[T ir.Meta](f *ir.Fundef[T]) (err error) {
	defer ir.Recover(&err, f.Name)

	for i, a := range f.Args {
		if !a.Role.IsArg() || a.Role.Pos != i {
			ir.Bug("irverify: argument %d (%s) has role %s", i, a.Name, a.Role)
		}
	}
	owner := make(map[arena.Key]int)
	checkScope(f.Scope, 0, owner)

	// Walking every definition, not only the reachable ones, proves that
	// dead code also resolves in its own scope.
	v := &traverse.Visitor[T, struct{}]{
		Once: true,
		// resolving the argument is the check
		Arg: func(*traverse.Walker[T, struct{}], int, ir.Avis[T]) struct{} {
			return struct{}{}
		},
		IndexVector: func(_ *traverse.Walker[T, struct{}], k arena.Key, avis ir.Avis[T]) struct{} {
			if avis.Role != ir.IndexVector[T](k) {
				ir.Bug("irverify: index vector %s has role %s", k, avis.Role)
			}
			return struct{}{}
		},
		Var: func(w *traverse.Walker[T, struct{}], k arena.Key, avis ir.Avis[T], e ir.Expr[T]) struct{} {
			if avis.Role != ir.Var[T](k) {
				ir.Bug("irverify: var %s has role %s", k, avis.Role)
			}
			if d := w.Scopes.Depth(k); owner[k] != d {
				ir.Bug("irverify: var %s declared at depth %d resolved at depth %d", k, owner[k], d)
			}
			return w.Expr(e)
		},
		Fundef: func(w *traverse.Walker[T, struct{}], f *ir.Fundef[T]) struct{} {
			w.Scopes.PushScope(f.Scope)
			w.Ref(f.Ret)
			sweep(w, f.Scope)
			w.Scopes.PopScope()
			return struct{}{}
		},
		Tensor: func(w *traverse.Walker[T, struct{}], t *ir.Tensor[T]) struct{} {
			w.Ref(t.Lower)
			w.Ref(t.Upper)
			w.Scopes.PushScope(t.Scope)
			w.Ref(t.Ret)
			sweep(w, t.Scope)
			w.Scopes.PopScope()
			return struct{}{}
		},
	}
	v.VisitFundef(f)
	return nil
}

func sweep[T ir.Meta](w *traverse.Walker[T, struct{}], sc ir.Scope[T]) {
	for _, k := range sc.SSA.Keys() {
		w.Ref(ir.Var[T](k))
	}
}

// checkScope verifies the tables of sc, declared at depth d, and of every
// comprehension nested in it.
func checkScope[T ir.Meta](sc ir.Scope[T], d int, owner map[arena.Key]int) {
	for k, avis := range sc.Ids.All() {
		if prev, dup := owner[k]; dup {
			ir.Bug("irverify: key %s declared at depths %d and %d", k, prev, d)
		}
		owner[k] = d
		_, hasDef := sc.SSA.Get(k)
		switch avis.Role.Kind {
		case ir.RefVar:
			if !hasDef {
				ir.Bug("irverify: var %s (%s) has no definition", k, avis.Name)
			}
		case ir.RefIndexVector:
			if hasDef {
				ir.Bug("irverify: index vector %s (%s) has a definition", k, avis.Name)
			}
		default:
			ir.Bug("irverify: %s declared in a scope with role %s", k, avis.Role)
		}
	}
	for k, e := range sc.SSA.All() {
		if !sc.Ids.Has(k) {
			ir.Bug("irverify: definition of %s outside the scope declaring it", k)
		}
		t, ok := e.(*ir.Tensor[T])
		if !ok {
			continue
		}
		checkScope(t.Scope, d+1, owner)
		if iv, ok := t.Ids.Get(t.IV); !ok || !iv.Role.IsIV() {
			ir.Bug("irverify: comprehension %s does not declare its index vector %s", k, t.IV)
		}
	}
}
