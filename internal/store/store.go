package store

import (
	"sync"

	"github.com/orderpulse/orderpulse/internal/order"
)

// Store is the current-state order book. Upsert replaces whatever was held
// for the record's identity key, so two raw rows with the same
// case-normalized tuple collapse into one stored record.
type Store interface {
	Upsert(rec order.Record) error
	Get(key string) (order.Record, bool, error)
	Range(fn func(rec order.Record) bool) error
	Len() int
	Close() error
}

// Memory is a thread-safe map store. It is the default backend and the one
// tests run against.
type Memory struct {
	mu   sync.RWMutex
	data map[string]order.Record
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]order.Record)}
}

func (s *Memory) Upsert(rec order.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[rec.Key] = rec
	return nil
}

func (s *Memory) Get(key string) (order.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.data[key]
	return rec, ok, nil
}

// Range visits records in no particular order and stops early when fn
// returns false. Writers block for the duration of the walk, so callers
// doing slow per-record work should snapshot instead.
func (s *Memory) Range(fn func(rec order.Record) bool) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.data {
		if !fn(rec) {
			return nil
		}
	}
	return nil
}

func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *Memory) Close() error { return nil }
