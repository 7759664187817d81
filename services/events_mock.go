package services

import (
	"context"
	"sync"
)

// MockEventPublisher records published events in memory for testing
type MockEventPublisher struct {
	events []Event
	err    error
	mu     sync.RWMutex
}

// NewMockEventPublisher creates an empty recording publisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// FailWith makes subsequent Publish calls return err
func (m *MockEventPublisher) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *MockEventPublisher) Publish(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *MockEventPublisher) Close() error {
	return nil
}

// Events returns a copy of everything published so far
func (m *MockEventPublisher) Events() []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]Event, len(m.events))
	copy(events, m.events)
	return events
}

// Types returns the type of every published event in order
func (m *MockEventPublisher) Types() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	types := make([]string, len(m.events))
	for i, e := range m.events {
		types[i] = e.Type
	}
	return types
}
