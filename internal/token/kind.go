package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	Ident
	IntLit

	KwFn     // fn
	KwReturn // return
	KwTrue   // true
	KwFalse  // false
	KwU32    // u32
	KwBool   // bool

	Plus      // +
	Minus     // -
	Star      // *
	Slash     // /
	Bang      // !
	EqEq      // ==
	BangEq    // !=
	Lt        // <
	LtEq      // <=
	Gt        // >
	GtEq      // >=
	Assign    // =
	Arrow     // ->
	Pipe      // |
	Colon     // :
	Semicolon // ;
	Comma     // ,
	Dot       // .
	LParen    // (
	RParen    // )
	LBrace    // {
	RBrace    // }
	LBracket  // [
	RBracket  // ]
)

var kindNames = [...]string{
	Invalid:   "Invalid",
	EOF:       "EOF",
	Ident:     "Ident",
	IntLit:    "IntLit",
	KwFn:      "KwFn",
	KwReturn:  "KwReturn",
	KwTrue:    "KwTrue",
	KwFalse:   "KwFalse",
	KwU32:     "KwU32",
	KwBool:    "KwBool",
	Plus:      "Plus",
	Minus:     "Minus",
	Star:      "Star",
	Slash:     "Slash",
	Bang:      "Bang",
	EqEq:      "EqEq",
	BangEq:    "BangEq",
	Lt:        "Lt",
	LtEq:      "LtEq",
	Gt:        "Gt",
	GtEq:      "GtEq",
	Assign:    "Assign",
	Arrow:     "Arrow",
	Pipe:      "Pipe",
	Colon:     "Colon",
	Semicolon: "Semicolon",
	Comma:     "Comma",
	Dot:       "Dot",
	LParen:    "LParen",
	RParen:    "RParen",
	LBrace:    "LBrace",
	RBrace:    "RBrace",
	LBracket:  "LBracket",
	RBracket:  "RBracket",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Kind(?)"
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool {
	return k >= KwFn && k <= KwBool
}

// IsOperator reports operators usable in expressions.
func (k Kind) IsOperator() bool {
	return k >= Plus && k <= GtEq
}
