package lexer

import (
	"fmt"

	"fortio.org/safecast"

	"dslc/internal/source"
)

// reader walks the bytes of one file. Out-of-range reads yield 0.
type reader struct {
	file *source.File
	pos  uint32
	end  uint32
}

func newReader(f *source.File) reader {
	end, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("source %s too large: %w", f.Path, err))
	}
	return reader{file: f, end: end}
}

func (r *reader) done() bool { return r.pos >= r.end }

// at returns the byte n positions ahead.
func (r *reader) at(n uint32) byte {
	if r.pos+n >= r.end {
		return 0
	}
	return r.file.Content[r.pos+n]
}

func (r *reader) next() byte {
	b := r.at(0)
	if !r.done() {
		r.pos++
	}
	return b
}

// skip advances while pred holds and reports how many bytes it consumed.
func (r *reader) skip(pred func(byte) bool) uint32 {
	from := r.pos
	for !r.done() && pred(r.file.Content[r.pos]) {
		r.pos++
	}
	return r.pos - from
}

// accept consumes s if the input continues with it.
func (r *reader) accept(s string) bool {
	for i := range len(s) {
		if r.at(uint32(i)) != s[i] {
			return false
		}
	}
	r.pos += uint32(len(s))
	return true
}

func (r *reader) spanFrom(start uint32) source.Span {
	return source.Span{File: r.file.ID, Start: start, End: r.pos}
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' }

// skipTrivia consumes whitespace and // line comments.
func (r *reader) skipTrivia() {
	for {
		r.skip(isSpace)
		if !r.accept("//") {
			return
		}
		r.skip(func(b byte) bool { return b != '\n' })
	}
}
