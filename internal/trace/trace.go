// Package trace is the compiler's structured event log.
//
// Passes open spans through a Tracer carried in the context:
//
//	span, ctx := trace.Start(ctx, trace.ScopePass, "typeinfer")
//	defer span.End("")
//
// Level picks how fine-grained the log is. Phase shows driver and pass
// boundaries, detail adds one span per DSL function and debug adds
// node-level points. Events are written as they happen (Writer), kept in
// memory for crash dumps (Ring), or both (Tee).
package trace

import (
	"fmt"
	"strings"
	"time"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // only crash dumps
	LevelPhase        // driver and pass boundaries
	LevelDetail       // plus one span per DSL function
	LevelDebug        // everything
)

var levelNames = []string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string { return nameOf(levelNames, int(l)) }

// ParseLevel converts a flag value to a Level.
func ParseLevel(s string) (Level, error) { return parseName[Level]("trace level", levelNames, s) }

// Allows reports whether events of scope pass this level.
func (l Level) Allows(scope Scope) bool {
	switch l {
	case LevelPhase:
		return scope <= ScopePass
	case LevelDetail:
		return scope <= ScopeFunc
	case LevelDebug:
		return true
	}
	return false
}

// Scope is the granularity of an event; lower values are coarser.
type Scope uint8

const (
	_           Scope = iota
	ScopeDriver       // CLI command, one file
	ScopePass         // one pass over one file
	ScopeFunc         // one DSL function inside a pass
	ScopeNode         // single IR node
)

var scopeNames = []string{"", "driver", "pass", "func", "node"}

func (s Scope) String() string { return nameOf(scopeNames, int(s)) }

// Kind tells span boundaries from instant events.
type Kind uint8

const (
	_ Kind = iota
	KindBegin
	KindEnd
	KindPoint
	KindHeartbeat
)

var kindNames = []string{"", "begin", "end", "point", "heartbeat"}

func (k Kind) String() string { return nameOf(kindNames, int(k)) }

// Attr is one key/value annotation on an end or point event.
type Attr struct {
	Key, Value string
}

// Event is a single trace record. Seq is assigned by the tracer that
// stores it.
type Event struct {
	Seq    uint64
	Time   time.Time
	Kind   Kind
	Scope  Scope
	Span   uint64
	Parent uint64
	Name   string // "parse", "ssa", "fn:add"
	Detail string
	// Dur is set on end events.
	Dur   time.Duration
	Attrs []Attr
}

func nameOf(names []string, i int) string {
	if i < 0 || i >= len(names) || names[i] == "" {
		return "unknown"
	}
	return names[i]
}

func parseName[T ~uint8](what string, names []string, s string) (T, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n != "" && n == s {
			return T(i), nil
		}
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q (expected: %s)", what, s, strings.Join(nonEmpty(names), "|"))
}

func nonEmpty(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}
