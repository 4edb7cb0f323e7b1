package trace

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"
)

type tracerKey struct{}

type spanKey struct{}

var spanIDs atomic.Uint64

// now is replaced in tests.
var now = time.Now

// WithTracer attaches t to ctx. A nil t detaches tracing.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey{}, t)
}

// FromContext returns the tracer attached to ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx != nil {
		if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
			return t
		}
	}
	return Nop
}

func parentOf(ctx context.Context) uint64 {
	if ctx != nil {
		if id, ok := ctx.Value(spanKey{}).(uint64); ok {
			return id
		}
	}
	return 0
}

// Span is an open begin/end pair. The zero-value Span, returned when the
// tracer filters the scope out, ignores every call.
type Span struct {
	t       Tracer
	id      uint64
	parent  uint64
	scope   Scope
	name    string
	started time.Time
	attrs   []Attr
}

// Start opens a span nested under the current one and returns a context
// in which it is current.
func Start(ctx context.Context, scope Scope, name string) (*Span, context.Context) {
	t := FromContext(ctx)
	if !t.Level().Allows(scope) {
		return &Span{}, ctx
	}
	s := &Span{
		t:       t,
		id:      spanIDs.Add(1),
		parent:  parentOf(ctx),
		scope:   scope,
		name:    name,
		started: now(),
	}
	t.Record(Event{Time: s.started, Kind: KindBegin, Scope: scope, Span: s.id, Parent: s.parent, Name: name})
	return s, context.WithValue(ctx, spanKey{}, s.id)
}

// Attr annotates the end event.
func (s *Span) Attr(key, value string) *Span {
	if s != nil && s.t != nil {
		s.attrs = append(s.attrs, Attr{Key: key, Value: value})
	}
	return s
}

// AttrInt is Attr for counters.
func (s *Span) AttrInt(key string, value int) *Span {
	return s.Attr(key, strconv.Itoa(value))
}

// End records the end event and returns the span's duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.t == nil {
		return 0
	}
	at := now()
	dur := at.Sub(s.started)
	s.t.Record(Event{
		Time:   at,
		Kind:   KindEnd,
		Scope:  s.scope,
		Span:   s.id,
		Parent: s.parent,
		Name:   s.name,
		Detail: detail,
		Dur:    dur,
		Attrs:  s.attrs,
	})
	return dur
}

// ID is zero for spans that were filtered out.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point records an instant event under the current span.
func Point(ctx context.Context, scope Scope, name, detail string) {
	t := FromContext(ctx)
	if !t.Level().Allows(scope) {
		return
	}
	t.Record(Event{Time: now(), Kind: KindPoint, Scope: scope, Parent: parentOf(ctx), Name: name, Detail: detail})
}

// Heartbeat records a heartbeat event every interval until ctx is done or
// the returned stop function is called. A stalled build keeps producing
// heartbeats after its spans stop ending.
func Heartbeat(ctx context.Context, t Tracer, every time.Duration) (stop func()) {
	if t == nil || t.Level() == LevelOff || every <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		tick := time.NewTicker(every)
		defer tick.Stop()
		for n := 1; ; n++ {
			select {
			case <-ctx.Done():
				return
			case at := <-tick.C:
				t.Record(Event{Time: at, Kind: KindHeartbeat, Scope: ScopeDriver, Name: "heartbeat", Detail: "#" + strconv.Itoa(n)})
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
