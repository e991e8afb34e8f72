package webhook

import (
	"encoding/json"
	"sync"
)

const (
	// DefaultCapacity is the number of webhooks kept in memory
	DefaultCapacity = 100
	// PageSize is the number of records returned by the list endpoint
	PageSize = 20
)

// Store is a bounded, insertion-ordered buffer with FIFO eviction.
// Reads never change the order.
type Store struct {
	mu       sync.RWMutex
	records  []Record
	capacity int
}

// NewStore creates an empty store holding at most capacity records.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		records:  make([]Record, 0, capacity),
		capacity: capacity,
	}
}

// Append inserts the record at the tail and evicts from the head until
// the store is back within capacity.
func (s *Store) Append(record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
	if over := len(s.records) - s.capacity; over > 0 {
		// shift in place so the backing array does not grow without bound
		n := copy(s.records, s.records[over:])
		clear(s.records[n:])
		s.records = s.records[:n]
	}
	return nil
}

func (s *Store) Snapshot() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecords(s.records)
}

func (s *Store) Recent(n int) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 {
		return []Record{}
	}
	start := len(s.records) - n
	if start < 0 {
		start = 0
	}
	return cloneRecords(s.records[start:])
}

// Tail returns a copy of the last n records together with the total
// count, both read under one lock
func (s *Store) Tail(n int) ([]Record, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.records) - max(n, 0)
	if start < 0 {
		start = 0
	}
	return cloneRecords(s.records[start:]), len(s.records)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Capacity returns the maximum number of retained records.
func (s *Store) Capacity() int {
	return s.capacity
}

// cloneRecords copies the slice and each payload so callers cannot reach
// the live buffer through the result.
func cloneRecords(src []Record) []Record {
	out := make([]Record, len(src))
	for i, r := range src {
		if r.Data != nil {
			r.Data = append([]byte(nil), r.Data...)
		}
		if raw, ok := r.Event.(json.RawMessage); ok {
			r.Event = append(json.RawMessage(nil), raw...)
		}
		out[i] = r
	}
	return out
}
