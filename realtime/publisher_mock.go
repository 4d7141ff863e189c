package realtime

import "sync"

// PublishedEvent records one Publish call for test assertions
type PublishedEvent struct {
	Group   string
	Event   string
	Payload interface{}
}

// MockPublisher is a mock implementation of Publisher for testing
type MockPublisher struct {
	events []PublishedEvent
	mu     sync.RWMutex
}

// NewMockPublisher creates a new mock publisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish records the event instead of delivering it
func (m *MockPublisher) Publish(group, event string, payload interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, PublishedEvent{Group: group, Event: event, Payload: payload})
}

// Events returns all recorded events in publish order
func (m *MockPublisher) Events() []PublishedEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]PublishedEvent, len(m.events))
	copy(out, m.events)
	return out
}

// EventsFor returns the recorded events published to one group
func (m *MockPublisher) EventsFor(group string) []PublishedEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []PublishedEvent
	for _, e := range m.events {
		if e.Group == group {
			out = append(out, e)
		}
	}
	return out
}

// Clear removes all recorded events
func (m *MockPublisher) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
