// Package memstore implements the payment state store in process memory.
// Used by tests and as a fallback when no Redis address is configured.
package memstore

import (
	"context"
	"sync"

	"github.com/infobot/infobot/internal/domain/payment"
)

// Store is a mutex-guarded in-memory payment.Store.
type Store struct {
	mu   sync.Mutex
	data map[payment.Collection]map[string][]byte
}

// New creates an empty store.
func New() *Store {
	return &Store{data: make(map[payment.Collection]map[string][]byte)}
}

func (s *Store) collection(c payment.Collection) map[string][]byte {
	m, ok := s.data[c]
	if !ok {
		m = make(map[string][]byte)
		s.data[c] = m
	}
	return m
}

func (s *Store) Get(_ context.Context, c payment.Collection, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.collection(c)[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, true, nil
}

func (s *Store) Set(_ context.Context, c payment.Collection, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	s.collection(c)[key] = stored
	return nil
}

func (s *Store) Delete(_ context.Context, c payment.Collection, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collection(c), key)
	return nil
}

// Transact applies every op under one lock acquisition.
func (s *Store) Transact(_ context.Context, ops []payment.Op) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range ops {
		if op.Delete {
			delete(s.collection(op.Collection), op.Key)
			continue
		}
		stored := make([]byte, len(op.Value))
		copy(stored, op.Value)
		s.collection(op.Collection)[op.Key] = stored
	}
	return true, nil
}
