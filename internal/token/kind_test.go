package token

import "testing"

func TestKindNames(t *testing.T) {
	for k := Invalid; k <= RBracket; k++ {
		if k.String() == "Kind(?)" {
			t.Errorf("kind %d has no name", k)
		}
	}
	if Kind(200).String() != "Kind(?)" {
		t.Errorf("out-of-range kind should not have a name")
	}
}

func TestKeywords(t *testing.T) {
	for word, kind := range keywords {
		got, ok := LookupKeyword(word)
		if !ok || got != kind {
			t.Errorf("LookupKeyword(%q) = %v, %v", word, got, ok)
		}
		if !kind.IsKeyword() {
			t.Errorf("%s not classified as keyword", kind)
		}
	}
	if _, ok := LookupKeyword("Fn"); ok {
		t.Errorf("keywords must be case sensitive")
	}
	if !EqEq.IsOperator() || Assign.IsOperator() {
		t.Errorf("operator classification wrong")
	}
}
