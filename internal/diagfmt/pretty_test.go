package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"dslc/internal/diag"
	"dslc/internal/source"
)

func sampleBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	src := "fn f(u32 a, bool b) -> u32 {\n    return a + b;\n}\n"
	id := fs.AddVirtual("/home/user/project/src/k.dsl", []byte(src))
	start := uint32(strings.Index(src, "a + b"))

	bag := diag.NewBag(10)
	d := diag.NewError(diag.SemaTypeMismatch, source.Span{File: id, Start: start, End: start + 5},
		"mismatched operands for `+`: `u32` and `bool`")
	d.Func = "f"
	bag.Add(d.WithNote(source.Span{File: id, Start: 12, End: 18}, "b declared here"))
	return bag, fs
}

func TestPrettySnippet(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: PathModeRelative, BaseDir: "/home/user/project", ShowNotes: true})

	want := strings.Join([]string{
		"src/k.dsl:2:12: ERROR SEM3010: mismatched operands for `+`: `u32` and `bool` (in fn f)",
		"1 | fn f(u32 a, bool b) -> u32 {",
		"2 |     return a + b;",
		"  |            ^~~~~",
		"  note: src/k.dsl:1:13: b declared here",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestPrettyPathModes(t *testing.T) {
	bag, fs := sampleBag(t)
	tests := []struct {
		mode PathMode
		want string
	}{
		{PathModeAbsolute, "/home/user/project/src/k.dsl:2:12"},
		{PathModeRelative, "src/k.dsl:2:12"},
		{PathModeBasename, "k.dsl:2:12"},
		{PathModeAuto, "src/k.dsl:2:12"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		Pretty(&buf, bag, fs, PrettyOpts{PathMode: tt.mode, BaseDir: "/home/user/project"})
		if !strings.HasPrefix(buf.String(), tt.want+":") {
			t.Errorf("mode %d: got %q", tt.mode, buf.String())
		}
	}
}

func TestPrettyWithoutSource(t *testing.T) {
	bag := diag.NewBag(0)
	bag.Add(diag.NewError(diag.InternalInvariant, source.Span{File: 3}, "boom"))
	var buf bytes.Buffer
	Pretty(&buf, bag, source.NewFileSet(), PrettyOpts{Color: true})
	if !strings.Contains(buf.String(), "<unknown>") || !strings.Contains(buf.String(), "boom") {
		t.Errorf("got %q", buf.String())
	}
}

func TestPad(t *testing.T) {
	if got := pad("\tx世"); got != "\t   " {
		t.Errorf("pad = %q", got)
	}
}
