package event

import "time"

// EventType identifies the kind of lifecycle event.
type EventType string

const (
	// Extraction lifecycle
	ExtractStarted   EventType = "extract.started"
	ExtractCompleted EventType = "extract.completed"
	ExtractFailed    EventType = "extract.failed"

	// Namespace fetches
	NamespaceFetched EventType = "namespace.fetched"
	NamespaceFailed  EventType = "namespace.failed"

	// Search fallback
	SearchHit EventType = "search.hit"

	// State
	RunSaved EventType = "run.saved"
)

// KnownTypes lists every event type memex emits.
var KnownTypes = []EventType{
	ExtractStarted,
	ExtractCompleted,
	ExtractFailed,
	NamespaceFetched,
	NamespaceFailed,
	SearchHit,
	RunSaved,
}

// Event carries data about a lifecycle occurrence.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(t EventType, data map[string]interface{}) Event {
	return Event{
		Type:      t,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// IsKnown reports whether t is an event type memex emits.
func IsKnown(t EventType) bool {
	for _, k := range KnownTypes {
		if k == t {
			return true
		}
	}
	return false
}
