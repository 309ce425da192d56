package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	// Run events
	EventTypeStateChanged    EventType = "run.state_changed"
	EventTypeSessionFinished EventType = "run.session_finished"

	// Extraction events
	EventTypeRecordWritten    EventType = "extraction.record_written"
	EventTypeExtractionFailed EventType = "extraction.failed"
)

// Event represents a system event with metadata
type Event struct {
	Type      EventType              // Type of event
	Source    string                 // Component that emitted event (e.g., "controller", "worker")
	Timestamp time.Time              // When the event occurred
	Data      map[string]interface{} // Event-specific data
}

// Int returns an integer field of Data, or 0
func (e Event) Int(key string) int {
	v, _ := e.Data[key].(int)
	return v
}

// Text returns a string field of Data, or ""
func (e Event) Text(key string) string {
	v, _ := e.Data[key].(string)
	return v
}

// EventHandler is a function that processes an event
type EventHandler func(Event)

// SubscriptionID uniquely identifies a subscription
type SubscriptionID int64

// Publisher is the sending side of a bus
type Publisher interface {
	Publish(event Event)
}

// EventBus defines the interface for event pub/sub
type EventBus interface {
	Publisher

	// Subscribe registers a handler for a specific event type
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID

	// Unsubscribe removes a subscription by ID
	Unsubscribe(id SubscriptionID)

	// Stop stops the event bus and drains remaining events
	Stop()
}

// Progress is the counter set carried by run events
type Progress struct {
	Iteration   int
	Total       int
	State       string
	Screenshots int
	Written     int
	Failed      int
}

func (p Progress) data() map[string]interface{} {
	return map[string]interface{}{
		"iteration":   p.Iteration,
		"total":       p.Total,
		"state":       p.State,
		"screenshots": p.Screenshots,
		"written":     p.Written,
		"failed":      p.Failed,
	}
}

// ProgressOf reads the counters back from an event
func ProgressOf(e Event) Progress {
	return Progress{
		Iteration:   e.Int("iteration"),
		Total:       e.Int("total"),
		State:       e.Text("state"),
		Screenshots: e.Int("screenshots"),
		Written:     e.Int("written"),
		Failed:      e.Int("failed"),
	}
}

// NewStateChangedEvent creates a state change event
func NewStateChangedEvent(p Progress) Event {
	return Event{
		Type:      EventTypeStateChanged,
		Source:    "controller",
		Timestamp: time.Now(),
		Data:      p.data(),
	}
}

// NewRecordWrittenEvent creates an event for a stored score record
func NewRecordWrittenEvent(p Progress) Event {
	return Event{
		Type:      EventTypeRecordWritten,
		Source:    "worker",
		Timestamp: time.Now(),
		Data:      p.data(),
	}
}

// NewExtractionFailedEvent creates an event for a skipped capture
func NewExtractionFailedEvent(p Progress) Event {
	return Event{
		Type:      EventTypeExtractionFailed,
		Source:    "worker",
		Timestamp: time.Now(),
		Data:      p.data(),
	}
}

// NewSessionFinishedEvent creates the final event of a run
func NewSessionFinishedEvent(sessionID, outcome, reason string, p Progress) Event {
	data := p.data()
	data["session_id"] = sessionID
	data["outcome"] = outcome
	data["reason"] = reason
	return Event{
		Type:      EventTypeSessionFinished,
		Source:    "runner",
		Timestamp: time.Now(),
		Data:      data,
	}
}
