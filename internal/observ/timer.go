// Package observ records per-phase wall time of one compilation.
package observ

import (
	"fmt"
	"io"
	"time"
)

// Phase is one timed step. Durations are in milliseconds so reports can be
// cached and printed without conversion.
type Phase struct {
	Name       string  `json:"name" msgpack:"name"`
	DurationMS float64 `json:"duration_ms" msgpack:"duration_ms"`
	Note       string  `json:"note,omitempty" msgpack:"note,omitempty"`
}

// Report lists phases in the order they ran.
type Report struct {
	TotalMS float64 `json:"total_ms" msgpack:"total_ms"`
	Phases  []Phase `json:"phases" msgpack:"phases"`
}

// Timer accumulates a Report. Each compilation owns one; it is not safe
// for concurrent use.
type Timer struct {
	now    func() time.Time
	report Report
}

func NewTimer() *Timer { return &Timer{now: time.Now} }

// Time runs fn as phase name. The string fn returns becomes the phase note.
func (t *Timer) Time(name string, fn func() string) {
	start := t.now()
	note := fn()
	ms := millis(t.now().Sub(start))
	t.report.Phases = append(t.report.Phases, Phase{Name: name, DurationMS: ms, Note: note})
	t.report.TotalMS += ms
}

// Report returns a copy of the phases recorded so far.
func (t *Timer) Report() Report {
	r := t.report
	r.Phases = append([]Phase(nil), r.Phases...)
	return r
}

// WriteTo prints one aligned line per phase followed by the total, each
// line prefixed by indent.
func (r Report) WriteTo(w io.Writer, indent string) error {
	line := func(name string, ms float64, note string) error {
		if note != "" {
			note = "  // " + note
		}
		_, err := fmt.Fprintf(w, "%s%-10s %7.2f ms%s\n", indent, name, ms, note)
		return err
	}
	for _, p := range r.Phases {
		if err := line(p.Name, p.DurationMS, p.Note); err != nil {
			return err
		}
	}
	return line("total", r.TotalMS, "")
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
