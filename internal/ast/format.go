package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Format renders p as DSL source. Parentheses are emitted only where the
// operator table requires them, so parsing the output yields the same tree.
func Format(p *Program) string {
	var sb strings.Builder
	for i, f := range p.Fundefs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		writeFundef(&sb, f)
	}
	return sb.String()
}

// Fprint writes Format(p) to w.
func Fprint(w io.Writer, p *Program) error {
	_, err := io.WriteString(w, Format(p))
	return err
}

func writeFundef(sb *strings.Builder, f *Fundef) {
	fmt.Fprintf(sb, "fn %s(", f.Name)
	for i, a := range f.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "%s %s", a.Type, a.Name)
	}
	fmt.Fprintf(sb, ") -> %s {\n", f.RetType)
	for _, st := range f.Body {
		if as, ok := st.(*Assign); ok {
			fmt.Fprintf(sb, "    %s = %s;\n", as.Name, FormatExpr(as.Expr))
		}
	}
	if f.Return != nil {
		fmt.Fprintf(sb, "    return %s;\n", FormatExpr(f.Return))
	}
	sb.WriteString("}\n")
}

// FormatExpr renders a single expression.
func FormatExpr(e Expr) string {
	var sb strings.Builder
	writeExpr(&sb, e)
	return sb.String()
}

func writeExpr(sb *strings.Builder, e Expr) {
	switch e := e.(type) {
	case *Identifier:
		sb.WriteString(e.Name)
	case *U32:
		sb.WriteString(strconv.FormatUint(uint64(e.Value), 10))
	case *Bool:
		sb.WriteString(strconv.FormatBool(e.Value))
	case *Unary:
		sb.WriteString(e.Op.String())
		writeOperand(sb, e.R, !isAtom(e.R))
	case *Binary:
		prec := e.Op.Precedence()
		writeOperand(sb, e.L, needsParens(e.L, prec, false))
		fmt.Fprintf(sb, " %s ", e.Op)
		writeOperand(sb, e.R, needsParens(e.R, prec, true))
	case *Tensor:
		sb.WriteString("{ ")
		writeExpr(sb, e.Body)
		sb.WriteString(" | ")
		writeOperand(sb, e.Lower, needsParens(e.Lower, Le.Precedence(), false))
		fmt.Fprintf(sb, " <= %s < ", e.IV)
		writeOperand(sb, e.Upper, needsParens(e.Upper, Lt.Precedence(), true))
		sb.WriteString(" }")
	default:
		sb.WriteString("<?>")
	}
}

func writeOperand(sb *strings.Builder, e Expr, parens bool) {
	if parens {
		sb.WriteByte('(')
	}
	writeExpr(sb, e)
	if parens {
		sb.WriteByte(')')
	}
}

func isAtom(e Expr) bool {
	switch e.(type) {
	case *Identifier, *U32, *Bool, *Tensor:
		return true
	}
	return false
}

func needsParens(child Expr, parentPrec int, right bool) bool {
	b, ok := child.(*Binary)
	if !ok {
		return false
	}
	p := b.Op.Precedence()
	switch {
	case p < parentPrec:
		return true
	case p > parentPrec:
		return false
	case !b.Op.Associative():
		return true
	default:
		return right
	}
}
