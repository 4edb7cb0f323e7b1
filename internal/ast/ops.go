package ast

// BinOp is a binary operator.
type BinOp uint8

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
)

var binOpText = [...]string{
	Add: "+", Sub: "-", Mul: "*", Div: "/",
	Eq: "==", Ne: "!=", Lt: "<", Le: "<=", Gt: ">", Ge: ">=",
}

func (op BinOp) String() string {
	if int(op) < len(binOpText) {
		return binOpText[op]
	}
	return "?"
}

// Precedence: higher binds tighter.
func (op BinOp) Precedence() int {
	switch op {
	case Eq, Ne:
		return 2
	case Lt, Le, Gt, Ge:
		return 3
	case Add, Sub:
		return 4
	case Mul, Div:
		return 5
	}
	return 0
}

// Associative reports whether chains like a op b op c are accepted
// (left-associative). Comparisons are not.
func (op BinOp) Associative() bool {
	return op.Precedence() >= 4
}

// UnOp is a unary operator.
type UnOp uint8

const (
	Neg UnOp = iota
	Not
)

func (op UnOp) String() string {
	if op == Not {
		return "!"
	}
	return "-"
}
