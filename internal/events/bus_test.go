package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlersSeeEventsInOrder(t *testing.T) {
	bus := NewEventBus(16)

	var mu sync.Mutex
	var states []string
	bus.Subscribe(EventTypeStateChanged, func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, ProgressOf(e).State)
	})

	for _, s := range []string{"a", "b", "c", "d"} {
		bus.Publish(NewStateChangedEvent(Progress{State: s}))
	}
	bus.Stop()

	assert.Equal(t, []string{"a", "b", "c", "d"}, states)
}

func TestOnlyMatchingTypeIsDelivered(t *testing.T) {
	bus := NewEventBus(4)

	written := 0
	bus.Subscribe(EventTypeRecordWritten, func(Event) { written++ })

	bus.Publish(NewStateChangedEvent(Progress{}))
	bus.Publish(NewRecordWrittenEvent(Progress{Written: 1}))
	bus.Stop()

	assert.Equal(t, 1, written)
	assert.Equal(t, 1, bus.SubscriberCount(EventTypeRecordWritten))
}

func TestUnsubscribe(t *testing.T) {
	bus := NewEventBus(4)

	calls := 0
	id := bus.Subscribe(EventTypeStateChanged, func(Event) { calls++ })
	bus.Unsubscribe(id)

	bus.Publish(NewStateChangedEvent(Progress{}))
	bus.Stop()

	assert.Zero(t, calls)
	assert.Zero(t, bus.SubscriberCount(EventTypeStateChanged))
}

func TestPanickingHandlerDoesNotStopBus(t *testing.T) {
	bus := NewEventBus(4)

	calls := 0
	bus.Subscribe(EventTypeExtractionFailed, func(Event) { panic("boom") })
	bus.Subscribe(EventTypeExtractionFailed, func(Event) { calls++ })

	bus.Publish(NewExtractionFailedEvent(Progress{Failed: 1}))
	bus.Publish(NewExtractionFailedEvent(Progress{Failed: 2}))
	bus.Stop()

	assert.Equal(t, 2, calls)
}

func TestPublishAfterStopIsDropped(t *testing.T) {
	bus := NewEventBus(1)
	bus.Stop()
	bus.Stop()

	bus.Publish(NewStateChangedEvent(Progress{}))
	assert.Zero(t, bus.QueueSize())
}

func TestSessionFinishedCarriesOutcome(t *testing.T) {
	e := NewSessionFinishedEvent("id", "error", "loading wait failed", Progress{Iteration: 2, Total: 5})
	assert.Equal(t, "error", e.Text("outcome"))
	assert.Equal(t, 5, ProgressOf(e).Total)
}
