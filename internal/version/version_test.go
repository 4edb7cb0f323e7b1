package version

import (
	"testing"

	"github.com/fatih/color"
)

func withVersion(t *testing.T, v, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	})
	Version, GitCommit, BuildDate = v, commit, date
}

func TestStringPlain(t *testing.T) {
	withVersion(t, "1.2.3", "abc123", "2024-01-15")
	if got, want := String(false), "dslc 1.2.3 (abc123) built 2024-01-15"; got != want {
		t.Errorf("String(false) = %q, want %q", got, want)
	}
}

func TestColoredKeepsText(t *testing.T) {
	withVersion(t, "1.2.3-dev", "", "")
	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = orig })

	if got := Colored(); got != "1.2.3-dev" {
		t.Errorf("Colored() = %q", got)
	}
	if got := String(true); got != "dslc 1.2.3-dev" {
		t.Errorf("String(true) = %q", got)
	}
}

func TestColoredOddVersion(t *testing.T) {
	withVersion(t, "nightly", "", "")
	if got := Colored(); got != "nightly" {
		t.Errorf("Colored() = %q", got)
	}
}
