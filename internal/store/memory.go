package store

import (
	"sort"
	"sync"
)

// subscriberBuffer is sized to hold a full default catalog burst.
const subscriberBuffer = 256

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore provides thread-safe storage with a publish-subscribe mechanism
// for real-time updates. Outcomes are keyed by node, with new outcomes
// replacing previous values.
//
// Updates are sent to subscribers non-blocking; if a subscriber's buffer is
// full, the update is dropped for that subscriber.
type MemoryStore struct {
	mu          sync.RWMutex
	outcomes    map[string]NodeOutcome
	subscribers map[chan NodeOutcome]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		outcomes:    make(map[string]NodeOutcome),
		subscribers: make(map[chan NodeOutcome]struct{}),
	}
}

// Update stores a [NodeOutcome] and notifies all subscribers.
func (m *MemoryStore) Update(outcome NodeOutcome) {
	m.mu.Lock()
	m.outcomes[outcome.Node] = outcome
	m.mu.Unlock()

	m.notifySubscribers(outcome)
}

// GetAll returns a snapshot of all stored outcomes, ordered by node.
func (m *MemoryStore) GetAll() []NodeOutcome {
	m.mu.RLock()
	results := make([]NodeOutcome, 0, len(m.outcomes))
	for _, o := range m.outcomes {
		results = append(results, o)
	}
	m.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool { return results[i].Node < results[j].Node })
	return results
}

// Subscribe creates a new subscription and returns a channel for receiving updates.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan NodeOutcome {
	ch := make(chan NodeOutcome, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan NodeOutcome) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

func (m *MemoryStore) notifySubscribers(outcome NodeOutcome) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- outcome:
		default:
			// subscriber is slow, drop the message
		}
	}
}
