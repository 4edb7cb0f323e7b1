package ir

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

// IsArith reports + - * /.
func (op BinOp) IsArith() bool { return op <= Div }

// IsCompare reports every operator producing bool.
func (op BinOp) IsCompare() bool { return op >= Eq && op <= Ge }

// IsOrdering reports < <= > >=.
func (op BinOp) IsOrdering() bool { return op >= Lt && op <= Ge }

// UnOp is a unary operator.
type UnOp uint8

const (
	Neg UnOp = iota
	Not
)

func (op UnOp) String() string {
	switch op {
	case Neg:
		return "-"
	case Not:
		return "!"
	}
	return "?"
}
