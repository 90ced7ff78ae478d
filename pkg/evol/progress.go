package evol

import (
	"log/slog"
	"sync"
	"time"
)

// EventType classifies progress events for filtering and routing.
type EventType string

const (
	EventPhaseStart    EventType = "phase_start"
	EventStep          EventType = "step"
	EventSuccess       EventType = "success"
	EventWarning       EventType = "warning"
	EventError         EventType = "error"
	EventPhaseComplete EventType = "phase_complete"
	EventComplete      EventType = "complete"
)

// Event is a single observation from a pipeline run. Events are
// advisory: losing one never changes the run outcome. The Details map is
// the forward-compatible extension point.
type Event struct {
	Type    EventType      `json:"type"`
	Phase   Phase          `json:"phase"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Observer receives events during a pipeline run. Single-method design
// (like http.Handler) so adding new event types never breaks existing
// observers.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// MultiObserver fans out events to multiple observers.
type MultiObserver []Observer

func (m MultiObserver) OnEvent(e Event) {
	for _, obs := range m {
		obs.OnEvent(e)
	}
}

// LogObserver writes pipeline events as structured slog lines.
type LogObserver struct {
	Logger *slog.Logger
}

func (o *LogObserver) OnEvent(e Event) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []slog.Attr{
		slog.String("event", string(e.Type)),
		slog.String("phase", string(e.Phase)),
	}
	if e.Message != "" {
		attrs = append(attrs, slog.String("message", e.Message))
	}
	for k, v := range e.Details {
		attrs = append(attrs, slog.Any(k, v))
	}

	level := slog.LevelInfo
	switch e.Type {
	case EventWarning:
		level = slog.LevelWarn
	case EventError:
		level = slog.LevelError
	}
	logger.LogAttrs(nil, level, "pipeline", attrs...)
}

// TraceCollector accumulates events in memory for post-run analysis.
// Safe for concurrent use.
type TraceCollector struct {
	mu     sync.Mutex
	events []Event
}

func (t *TraceCollector) OnEvent(e Event) {
	t.mu.Lock()
	t.events = append(t.events, e)
	t.mu.Unlock()
}

// Events returns a copy of all collected events.
func (t *TraceCollector) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, len(t.events))
	copy(out, t.events)
	return out
}

// Reset clears collected events.
func (t *TraceCollector) Reset() {
	t.mu.Lock()
	t.events = nil
	t.mu.Unlock()
}

// EventsOfType returns only events matching the given type.
func (t *TraceCollector) EventsOfType(typ EventType) []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Event
	for _, e := range t.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// Broadcaster fans events out to dynamically attached subscribers over
// buffered channels. Delivery is at-most-once: when a subscriber's buffer
// is full the event is dropped for that subscriber rather than blocking
// the pipeline. A slow SSE client never stalls a run.
type Broadcaster struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

// NewBroadcaster returns an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Event)}
}

// Subscribe attaches a new subscriber with the given channel buffer.
// The returned cancel func detaches the subscriber and closes its channel;
// it is safe to call more than once.
func (b *Broadcaster) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// OnEvent implements Observer. The send never blocks.
func (b *Broadcaster) OnEvent(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// SubscriberCount reports how many subscribers are attached.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// emitEvent safely emits an event to a possibly-nil observer.
func emitEvent(obs Observer, e Event) {
	if obs != nil {
		obs.OnEvent(e)
	}
}

// timedPhase wraps start/complete event emission around a stage.
func timedPhase(obs Observer, phase Phase, fn func() error) error {
	start := time.Now()
	emitEvent(obs, Event{Type: EventPhaseStart, Phase: phase, Message: "phase started"})
	if err := fn(); err != nil {
		return err
	}
	emitEvent(obs, Event{
		Type:    EventPhaseComplete,
		Phase:   phase,
		Message: "phase complete",
		Details: map[string]any{"elapsed": time.Since(start).Seconds()},
	})
	return nil
}
