package evol

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBroadcasterDeliversInOrder(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe(10)
	defer cancel()

	for i := 0; i < 5; i++ {
		b.OnEvent(Event{Type: EventStep, Message: fmt.Sprintf("m%d", i)})
	}

	for i := 0; i < 5; i++ {
		e := <-ch
		assert.Equal(t, fmt.Sprintf("m%d", i), e.Message)
	}
}

func TestBroadcasterDropsWhenBufferFull(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe(2)
	defer cancel()

	// Third event has nowhere to go and must be dropped, not block.
	for i := 0; i < 3; i++ {
		b.OnEvent(Event{Type: EventStep, Message: fmt.Sprintf("m%d", i)})
	}

	assert.Equal(t, "m0", (<-ch).Message)
	assert.Equal(t, "m1", (<-ch).Message)
	select {
	case e := <-ch:
		t.Fatalf("unexpected event %q", e.Message)
	default:
	}
}

func TestBroadcasterUnsubscribe(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe(4)
	assert.Equal(t, 1, b.SubscriberCount())

	cancel()
	assert.Equal(t, 0, b.SubscriberCount())

	// Events after cancel go nowhere; channel is closed.
	b.OnEvent(Event{Type: EventStep})
	_, ok := <-ch
	assert.False(t, ok)

	// Double cancel is a no-op.
	cancel()
}

func TestBroadcasterIndependentSubscribers(t *testing.T) {
	b := NewBroadcaster()
	fast, cancelFast := b.Subscribe(10)
	defer cancelFast()
	slow, cancelSlow := b.Subscribe(1)
	defer cancelSlow()

	for i := 0; i < 3; i++ {
		b.OnEvent(Event{Type: EventStep, Message: fmt.Sprintf("m%d", i)})
	}

	// The fast subscriber sees everything even though the slow one
	// dropped two events.
	assert.Len(t, fast, 3)
	assert.Len(t, slow, 1)
}

func TestTraceCollector(t *testing.T) {
	tc := &TraceCollector{}
	tc.OnEvent(Event{Type: EventPhaseStart, Phase: PhaseSeedGeneration})
	tc.OnEvent(Event{Type: EventStep, Phase: PhaseSeedGeneration})
	tc.OnEvent(Event{Type: EventPhaseComplete, Phase: PhaseSeedGeneration})

	assert.Len(t, tc.Events(), 3)
	assert.Len(t, tc.EventsOfType(EventStep), 1)

	tc.Reset()
	assert.Empty(t, tc.Events())
}

func TestMultiObserverFansOut(t *testing.T) {
	var a, b TraceCollector
	m := MultiObserver{&a, &b}
	m.OnEvent(Event{Type: EventStep})

	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
}
