package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Lexical
	LexInfo        Code = 1000
	LexUnknownChar Code = 1001
	LexBadNumber   Code = 1004

	// Syntax
	SynInfo               Code = 2000
	SynUnexpectedToken    Code = 2001
	SynUnclosedParen      Code = 2006
	SynUnclosedBrace      Code = 2007
	SynExpectSemicolon    Code = 2012
	SynExpectIdentifier   Code = 2102
	SynExpectType         Code = 2202
	SynExpectExpression   Code = 2203
	SynNonAssociative     Code = 2210
	SynBadComprehension   Code = 2211
	SynUnexpectedTopLevel Code = 2101

	// Semantic
	SemaInfo           Code = 3000
	SemaMissingReturn  Code = 3001
	SemaUnresolvedName Code = 3005
	SemaTypeMismatch   Code = 3010
	SemaShapeMismatch  Code = 3011
	SemaBoundNotScalar Code = 3012
	SemaReturnMismatch Code = 3013
	SemaDuplicateFn    Code = 3014
	SemaDuplicateParam Code = 3015

	// IO
	IOLoadFileError Code = 4001

	// Project
	ProjInfo            Code = 5000
	ProjInvalidManifest Code = 5001

	// Code generation
	GenInfo        Code = 6000
	GenUnsupported Code = 6001

	// Compiler bugs
	InternalInvariant Code = 9001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:           "Unknown error",
		LexInfo:               "Lexical information",
		LexUnknownChar:        "Unknown character",
		LexBadNumber:          "Bad number literal",
		SynInfo:               "Syntax information",
		SynUnexpectedToken:    "Unexpected token",
		SynUnclosedParen:      "Unclosed parenthesis",
		SynUnclosedBrace:      "Unclosed brace",
		SynExpectSemicolon:    "Expected semicolon",
		SynExpectIdentifier:   "Expected identifier",
		SynExpectType:         "Expected type",
		SynExpectExpression:   "Expected expression",
		SynNonAssociative:     "Non-associative operators cannot be chained",
		SynBadComprehension:   "Malformed tensor comprehension",
		SynUnexpectedTopLevel: "Unexpected top-level item",
		SemaInfo:              "Semantic information",
		SemaMissingReturn:     "Missing return statement",
		SemaUnresolvedName:    "Unresolved name",
		SemaTypeMismatch:      "Type mismatch",
		SemaShapeMismatch:     "Shape mismatch",
		SemaBoundNotScalar:    "Comprehension bound must be a u32 scalar",
		SemaReturnMismatch:    "Return type mismatch",
		SemaDuplicateFn:       "Duplicate function",
		SemaDuplicateParam:    "Duplicate parameter",
		IOLoadFileError:       "I/O load file error",
		ProjInfo:              "Project information",
		ProjInvalidManifest:   "Invalid project manifest",
		GenInfo:               "Code generation information",
		GenUnsupported:        "Unsupported construct in code generation",
		InternalInvariant:     "Internal compiler error",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("GEN%04d", ic)
	case ic >= 9000 && ic < 10000:
		return fmt.Sprintf("ICE%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
