package cgen

import (
	"fmt"
	"strconv"
	"strings"

	"dslc/internal/arena"
	"dslc/internal/ir"
	"dslc/internal/traverse"
)

const indent = "    "

type walker = traverse.Walker[ir.Type, string]

type funcEmitter struct {
	emitter *Emitter
	f       *ir.Fundef[ir.Type]
	args    []string
	// names holds the C name of every hoisted definition and loop index.
	names map[arena.Key]string
	used  map[string]bool
	// hoist[d] collects the statements of the scope at depth d of the
	// walker's stack.
	hoist [][]string
	err   error
}

func (e *Emitter) emitFunction(f *ir.Fundef[ir.Type]) (text string, err error) {
	defer ir.Recover(&err, f.Name)

	fe := &funcEmitter{
		emitter: e,
		f:       f,
		args:    ParamNames(f),
		names:   make(map[arena.Key]string),
		used:    make(map[string]bool),
	}
	for _, a := range fe.args {
		fe.used[a] = true
	}

	v := &traverse.Visitor[ir.Type, string]{
		Fundef: func(w *walker, f *ir.Fundef[ir.Type]) string {
			fe.open(w, f.Scope)
			ret := fe.root(w, f.Ret)
			body := fe.close(w)
			return fe.function(body, ret)
		},
		Arg: func(_ *walker, pos int, _ ir.Avis[ir.Type]) string {
			return fe.args[pos]
		},
		IndexVector: func(_ *walker, k arena.Key, avis ir.Avis[ir.Type]) string {
			name, ok := fe.names[k]
			if !ok {
				ir.Bug("cgen: index %s (%s) used outside its loop", k, avis.Name)
			}
			return name
		},
		Var:    fe.defVar,
		Binary: fe.binary,
		Unary:  fe.unary,
	}
	text = v.VisitFundef(f)
	if fe.err != nil {
		return "", fe.err
	}
	return text, nil
}

func (fe *funcEmitter) function(body []string, ret string) string {
	var sb strings.Builder
	sb.WriteString(Signature(fe.f, fe.emitter.opts.Prefix))
	sb.WriteString(" {\n")
	for _, line := range body {
		sb.WriteString(indent + line + "\n")
	}
	fmt.Fprintf(&sb, "%sreturn %s;\n}\n", indent, ret)
	return sb.String()
}

func (fe *funcEmitter) open(w *walker, sc ir.Scope[ir.Type]) {
	w.Scopes.PushScope(sc)
	fe.hoist = append(fe.hoist, nil)
}

func (fe *funcEmitter) close(w *walker) []string {
	w.Scopes.PopScope()
	n := len(fe.hoist) - 1
	lines := fe.hoist[n]
	fe.hoist = fe.hoist[:n]
	return lines
}

func (fe *funcEmitter) emit(depth int, lines ...string) {
	fe.hoist[depth] = append(fe.hoist[depth], lines...)
}

func (fe *funcEmitter) fail(sp ir.Expr[ir.Type], format string, args ...any) {
	if fe.err == nil {
		fe.err = &Error{Func: fe.f.Name, Span: sp.Pos(), Msg: fmt.Sprintf(format, args...)}
	}
}

// root compiles the value a scope returns. A plain computed value is
// inlined instead of hoisted because nothing else in the scope can use it.
func (fe *funcEmitter) root(w *walker, r ir.ArgOrVar[ir.Type]) string {
	if !r.IsVar() {
		return w.Ref(r)
	}
	if _, done := fe.names[r.Key]; done {
		return w.Ref(r)
	}
	e, ok := w.Scopes.FindSSA(r.Key)
	if !ok {
		ir.Bug("cgen: var %s has no definition", r.Key)
	}
	switch e.Kind() {
	case ir.ExprBinary, ir.ExprUnary:
		return w.Expr(e)
	}
	return w.Ref(r)
}

func (fe *funcEmitter) defVar(w *walker, k arena.Key, avis ir.Avis[ir.Type], e ir.Expr[ir.Type]) string {
	if name, ok := fe.names[k]; ok {
		return name
	}
	switch e := e.(type) {
	case *ir.U32[ir.Type]:
		return strconv.FormatUint(uint64(e.Value), 10)
	case *ir.Bool[ir.Type]:
		return strconv.FormatBool(e.Value)
	case *ir.Tensor[ir.Type]:
		name := fe.tensor(w, k, avis, e)
		fe.names[k] = name
		return name
	}
	rhs := w.Expr(e)
	name := Ident(avis.Name)
	fe.used[name] = true
	fe.emit(w.Scopes.Depth(k), Decl(avis.Type, name)+" = "+rhs+";")
	fe.names[k] = name
	return name
}

func (fe *funcEmitter) tensor(w *walker, k arena.Key, avis ir.Avis[ir.Type], t *ir.Tensor[ir.Type]) string {
	lb := w.Ref(t.Lower)
	ub := w.Ref(t.Upper)

	res := unique(fe.used, "res")
	iv := unique(fe.used, Ident(t.Ids.At(t.IV).Name))
	fe.names[t.IV] = iv

	fe.open(w, t.Scope)
	elem := fe.root(w, t.Ret)
	body := fe.close(w)

	elemType := ir.Type{Base: avis.Type.Base, Shape: ir.Shape{Rank: avis.Type.Shape.Rank - 1}}
	lines := make([]string, 0, len(body)+4)
	lines = append(lines,
		fmt.Sprintf("%s = malloc(%s * sizeof(%s));", Decl(avis.Type, res), ub, CType(elemType)),
		fmt.Sprintf("for (size_t %s = %s; %s < %s; %s += 1) {", iv, lb, iv, ub, iv),
	)
	for _, line := range body {
		lines = append(lines, indent+line)
	}
	lines = append(lines,
		fmt.Sprintf("%s%s[%s] = %s;", indent, res, iv, elem),
		"}",
	)
	fe.emit(w.Scopes.Depth(k), lines...)
	return res
}

func (fe *funcEmitter) scalarOperand(w *walker, e ir.Expr[ir.Type], op fmt.Stringer, r ir.ArgOrVar[ir.Type]) {
	if t := w.Scopes.FindID(r).Type; !t.IsScalar() {
		fe.fail(e, "element-wise `%s` on `%s` is not supported by the C backend", op, t)
	}
}

func (fe *funcEmitter) binary(w *walker, e *ir.Binary[ir.Type]) string {
	fe.scalarOperand(w, e, e.Op, e.L)
	fe.scalarOperand(w, e, e.Op, e.R)
	return w.Ref(e.L) + " " + e.Op.String() + " " + w.Ref(e.R)
}

func (fe *funcEmitter) unary(w *walker, e *ir.Unary[ir.Type]) string {
	fe.scalarOperand(w, e, e.Op, e.R)
	return e.Op.String() + w.Ref(e.R)
}
