package diag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"

	"dslc/internal/source"
)

func TestBagLimitAndMerge(t *testing.T) {
	b := NewBag(2)
	for i := range 3 {
		b.Add(NewError(SemaTypeMismatch, source.Span{Start: uint32(i)}, "x"))
	}
	if b.Len() != 2 || b.Dropped() != 1 {
		t.Fatalf("len=%d dropped=%d", b.Len(), b.Dropped())
	}

	other := NewBag(4)
	other.Add(NewError(LexUnknownChar, source.Span{}, "y"))
	b.Merge(other)
	if b.Len() != 3 {
		t.Errorf("merge: len=%d, want 3", b.Len())
	}
	if !b.HasErrors() {
		t.Errorf("HasErrors = false")
	}
}

func TestBagSortDedup(t *testing.T) {
	b := NewBag(10)
	b.Add(NewError(SemaTypeMismatch, source.Span{Start: 5, End: 6}, "b"))
	b.Add(New(SevWarning, SemaInfo, source.Span{Start: 1, End: 2}, "a"))
	b.Add(NewError(SemaTypeMismatch, source.Span{Start: 5, End: 6}, "b"))
	b.Dedup()
	b.Sort()

	var got []string
	for _, d := range b.Items() {
		got = append(got, d.Message)
	}
	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

type codedErr struct {
	code Code
	fn   string
}

func (e *codedErr) Error() string         { return fmt.Sprintf("%s failed", e.fn) }
func (e *codedErr) DiagCode() Code        { return e.code }
func (e *codedErr) DiagSpan() source.Span { return source.Span{Start: 7, End: 9} }
func (e *codedErr) FuncName() string      { return e.fn }

func TestToDiagnostics(t *testing.T) {
	err := multierr.Combine(
		&codedErr{code: SemaMissingReturn, fn: "f"},
		fmt.Errorf("wrapped: %w", &codedErr{code: SemaTypeMismatch, fn: "g"}),
		errors.New("plain"),
	)
	ds := ToDiagnostics(err, source.Span{Start: 1})
	if len(ds) != 3 {
		t.Fatalf("got %d diagnostics", len(ds))
	}
	want := []Code{SemaMissingReturn, SemaTypeMismatch, InternalInvariant}
	for i, d := range ds {
		if d.Code != want[i] {
			t.Errorf("[%d] code = %s, want %s", i, d.Code.ID(), want[i].ID())
		}
	}
	if ds[1].Func != "g" || ds[1].Primary.Start != 7 {
		t.Errorf("wrapped error lost context: %+v", ds[1])
	}
	if ds[2].Primary.Start != 1 {
		t.Errorf("fallback span not used: %+v", ds[2].Primary)
	}
}

func TestCodeID(t *testing.T) {
	cases := map[Code]string{
		LexUnknownChar:    "LEX1001",
		SemaTypeMismatch:  "SEM3010",
		GenUnsupported:    "GEN6001",
		InternalInvariant: "ICE9001",
	}
	for c, want := range cases {
		if c.ID() != want {
			t.Errorf("%d.ID() = %s, want %s", c, c.ID(), want)
		}
	}
}

func TestOnceDropsRepeats(t *testing.T) {
	bag := NewBag(0)
	r := Once(BagReporter{Bag: bag})
	sp := source.Span{Start: 3, End: 4}
	r.Report(NewError(SynExpectExpression, sp, "expected expression"))
	r.Report(NewError(SynExpectExpression, sp, "expected expression"))
	r.Report(NewError(SynExpectExpression, source.Span{Start: 5, End: 6}, "expected expression"))
	if bag.Len() != 2 {
		t.Fatalf("len = %d, want 2", bag.Len())
	}
	Discard.Report(NewError(SynExpectExpression, sp, "ignored"))
}
