package token

var keywords = map[string]Kind{
	"fn":     KwFn,
	"return": KwReturn,
	"true":   KwTrue,
	"false":  KwFalse,
	"u32":    KwU32,
	"bool":   KwBool,
}

// LookupKeyword reports whether ident is a keyword. Matching is case
// sensitive.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
