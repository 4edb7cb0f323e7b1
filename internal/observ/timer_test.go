package observ

import (
	"strings"
	"testing"
	"time"
)

func fakeClock(step time.Duration) func() time.Time {
	at := time.Unix(0, 0)
	return func() time.Time {
		at = at.Add(step)
		return at
	}
}

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	tm.now = fakeClock(2 * time.Millisecond)
	tm.Time("parse", func() string { return "2 fns" })
	tm.Time("ssa", func() string { return "" })

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("phases = %d, want 2", len(r.Phases))
	}
	if r.Phases[0] != (Phase{Name: "parse", DurationMS: 2, Note: "2 fns"}) {
		t.Errorf("first phase = %+v", r.Phases[0])
	}
	if r.TotalMS != 4 {
		t.Errorf("total = %v, want 4", r.TotalMS)
	}

	r.Phases[0].Name = "changed"
	if tm.Report().Phases[0].Name != "parse" {
		t.Errorf("Report shares its slice with the timer")
	}

	var sb strings.Builder
	if err := tm.Report().WriteTo(&sb, "  "); err != nil {
		t.Fatal(err)
	}
	want := "  parse         2.00 ms  // 2 fns\n" +
		"  ssa           2.00 ms\n" +
		"  total         4.00 ms\n"
	if sb.String() != want {
		t.Errorf("WriteTo:\n%s\nwant:\n%s", sb.String(), want)
	}
}

func TestEmptyTimer(t *testing.T) {
	if r := NewTimer().Report(); r.TotalMS != 0 || len(r.Phases) != 0 {
		t.Errorf("empty report = %+v", r)
	}
}
