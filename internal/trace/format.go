package trace

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Format is the line encoding of a Writer.
type Format uint8

const (
	FormatAuto   Format = iota // chosen from the output path
	FormatText                 // aligned human-readable lines
	FormatNDJSON               // one JSON object per line
)

var formatNames = []string{"auto", "text", "ndjson"}

func (f Format) String() string { return nameOf(formatNames, int(f)) }

// ParseFormat converts a flag value to a Format. "json" is accepted for
// ndjson and "" for auto.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "":
		return FormatAuto, nil
	case "json":
		return FormatNDJSON, nil
	}
	return parseName[Format]("trace format", formatNames, s)
}

// Encode renders ev as a single newline-terminated line.
func Encode(ev Event, format Format) []byte {
	if format == FormatNDJSON {
		return encodeJSON(ev)
	}
	return encodeText(ev)
}

type wireEvent struct {
	Seq    uint64            `json:"seq"`
	Time   string            `json:"time"`
	Kind   string            `json:"kind"`
	Scope  string            `json:"scope"`
	Span   uint64            `json:"span,omitempty"`
	Parent uint64            `json:"parent,omitempty"`
	Name   string            `json:"name"`
	Detail string            `json:"detail,omitempty"`
	DurUS  int64             `json:"dur_us,omitempty"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

func encodeJSON(ev Event) []byte {
	w := wireEvent{
		Seq:    ev.Seq,
		Time:   ev.Time.UTC().Format("2006-01-02T15:04:05.000000Z"),
		Kind:   ev.Kind.String(),
		Scope:  ev.Scope.String(),
		Span:   ev.Span,
		Parent: ev.Parent,
		Name:   ev.Name,
		Detail: ev.Detail,
		DurUS:  ev.Dur.Microseconds(),
	}
	if len(ev.Attrs) > 0 {
		w.Attrs = make(map[string]string, len(ev.Attrs))
		for _, a := range ev.Attrs {
			w.Attrs[a.Key] = a.Value
		}
	}
	data, err := json.Marshal(w)
	if err != nil {
		data = fmt.Appendf(nil, `{"kind":"error","detail":%q}`, err.Error())
	}
	return append(data, '\n')
}

var textMarks = [...]string{KindBegin: "+", KindEnd: "-", KindPoint: "*", KindHeartbeat: "~"}

// encodeText renders "seq scope  <indent>mark name [detail] k=v (dur)".
func encodeText(ev Event) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%6d %-6s ", ev.Seq, ev.Scope)
	if ev.Scope > ScopeDriver {
		sb.WriteString(strings.Repeat("  ", int(ev.Scope-ScopeDriver)))
	}
	if int(ev.Kind) < len(textMarks) && textMarks[ev.Kind] != "" {
		sb.WriteString(textMarks[ev.Kind])
		sb.WriteByte(' ')
	}
	sb.WriteString(ev.Name)
	if ev.Detail != "" {
		fmt.Fprintf(&sb, " [%s]", ev.Detail)
	}
	for _, a := range ev.Attrs {
		fmt.Fprintf(&sb, " %s=%s", a.Key, a.Value)
	}
	if ev.Kind == KindEnd {
		fmt.Fprintf(&sb, " (%s)", ev.Dur.Round(time.Microsecond))
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}
