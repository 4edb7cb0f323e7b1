package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
)

// Tracer stores events. Implementations are safe for concurrent use.
type Tracer interface {
	Record(ev Event)
	Level() Level
	Close() error
}

// Mode selects where events go.
type Mode uint8

const (
	_          Mode = iota
	ModeStream      // written as they happen
	ModeRing        // kept in memory, dumped on panic
	ModeBoth
)

var modeNames = []string{"", "stream", "ring", "both"}

func (m Mode) String() string { return nameOf(modeNames, int(m)) }

// ParseMode converts a flag value to a Mode.
func ParseMode(s string) (Mode, error) { return parseName[Mode]("trace mode", modeNames, s) }

// Config describes a tracer built by New.
type Config struct {
	Level  Level
	Mode   Mode
	Format Format
	// Path is the output file; "" or "-" selects stderr. Output, when set,
	// takes precedence.
	Path     string
	Output   io.Writer
	RingSize int
}

const defaultRingSize = 4096

// New builds the tracer described by cfg.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	if cfg.Format == FormatAuto {
		cfg.Format = FormatText
		if strings.HasSuffix(cfg.Path, ".ndjson") || strings.HasSuffix(cfg.Path, ".json") {
			cfg.Format = FormatNDJSON
		}
	}
	if cfg.Mode == ModeRing {
		return NewRing(cfg.RingSize, cfg.Level), nil
	}
	w, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}
	switch cfg.Mode {
	case ModeStream:
		return NewWriter(w, cfg.Level, cfg.Format), nil
	case ModeBoth:
		return NewTee(cfg.Level, NewWriter(w, cfg.Level, cfg.Format), NewRing(cfg.RingSize, cfg.Level)), nil
	}
	return nil, fmt.Errorf("unknown trace mode %d", cfg.Mode)
}

func openOutput(cfg Config) (io.Writer, error) {
	switch {
	case cfg.Output != nil:
		return cfg.Output, nil
	case cfg.Path == "" || cfg.Path == "-":
		return struct{ io.Writer }{os.Stderr}, nil
	}
	f, err := os.Create(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open trace output: %w", err)
	}
	return f, nil
}

var seq atomic.Uint64

// Writer encodes every event to w as soon as it is recorded.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	level  Level
	format Format
}

func NewWriter(w io.Writer, level Level, format Format) *Writer {
	return &Writer{w: w, level: level, format: format}
}

func (t *Writer) Record(ev Event) {
	if !keep(t.level, ev) {
		return
	}
	ev.Seq = seq.Add(1)
	line := Encode(ev, t.format)
	t.mu.Lock()
	defer t.mu.Unlock()
	// trace output is best effort
	_, _ = t.w.Write(line)
}

func (t *Writer) Level() Level { return t.level }

// Close closes the underlying writer if it is an io.Closer.
func (t *Writer) Close() error {
	if c, ok := t.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Ring keeps the most recent events in a fixed-size buffer.
type Ring struct {
	mu    sync.Mutex
	buf   []Event
	next  int
	count int
	level Level
}

// NewRing returns a ring of the given capacity; non-positive sizes use the
// default of 4096 events.
func NewRing(size int, level Level) *Ring {
	if size <= 0 {
		size = defaultRingSize
	}
	return &Ring{buf: make([]Event, size), level: level}
}

func (r *Ring) Record(ev Event) {
	if !keep(r.level, ev) {
		return
	}
	ev.Seq = seq.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = ev
	r.next = (r.next + 1) % len(r.buf)
	r.count = min(r.count+1, len(r.buf))
}

// Events returns the buffered events, oldest first.
func (r *Ring) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, 0, r.count)
	start := (r.next - r.count + len(r.buf)) % len(r.buf)
	for i := range r.count {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}

// WriteTo encodes the buffered events to w.
func (r *Ring) WriteTo(w io.Writer, format Format) error {
	for _, ev := range r.Events() {
		if _, err := w.Write(Encode(ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Ring) Level() Level { return r.level }

func (r *Ring) Close() error { return nil }

// Tee records every event into each of its tracers.
type Tee struct {
	tracers []Tracer
	level   Level
}

func NewTee(level Level, tracers ...Tracer) *Tee {
	return &Tee{tracers: tracers, level: level}
}

func (t *Tee) Record(ev Event) {
	for _, tr := range t.tracers {
		tr.Record(ev)
	}
}

func (t *Tee) Level() Level { return t.level }

func (t *Tee) Close() error {
	var err error
	for _, tr := range t.tracers {
		err = multierr.Append(err, tr.Close())
	}
	return err
}

// RingOf returns the in-memory buffer of t, looking inside a Tee.
func RingOf(t Tracer) (*Ring, bool) {
	switch t := t.(type) {
	case *Ring:
		return t, true
	case *Tee:
		for _, tr := range t.tracers {
			if r, ok := RingOf(tr); ok {
				return r, true
			}
		}
	}
	return nil, false
}

func keep(level Level, ev Event) bool {
	return ev.Kind == KindHeartbeat || level.Allows(ev.Scope)
}

type nopTracer struct{}

func (nopTracer) Record(Event) {}
func (nopTracer) Level() Level { return LevelOff }
func (nopTracer) Close() error { return nil }

// Nop discards everything.
var Nop Tracer = nopTracer{}
