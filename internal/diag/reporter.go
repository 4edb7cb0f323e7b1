package diag

import "dslc/internal/source"

// Reporter receives diagnostics from the lexer and parser as they are
// found.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Diagnostic)

func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// BagReporter writes into a *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag != nil {
		r.Bag.Add(d)
	}
}

// Discard drops everything.
var Discard Reporter = ReporterFunc(func(Diagnostic) {})

type seenKey struct {
	code       Code
	file       source.FileID
	start, end uint32
	msg        string
}

// Once forwards each distinct (code, span, message) to next a single time.
// Parser error recovery can otherwise report the same token twice.
func Once(next Reporter) Reporter {
	seen := make(map[seenKey]struct{})
	return ReporterFunc(func(d Diagnostic) {
		key := seenKey{d.Code, d.Primary.File, d.Primary.Start, d.Primary.End, d.Message}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		if next != nil {
			next.Report(d)
		}
	})
}
