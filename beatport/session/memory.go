package session

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mux  sync.Mutex
	sess Session
}

func NewMemoryStore(initial Session) *MemoryStore {
	return &MemoryStore{mux: sync.Mutex{}, sess: initial}
}

func (s *MemoryStore) Load(context.Context) (*Session, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	sess := s.sess
	return &sess, nil
}

func (s *MemoryStore) Save(_ context.Context, sess Session) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	s.sess = sess
	return nil
}

func (s *MemoryStore) Delete(context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	s.sess = Session{} //nolint:exhaustruct
	return nil
}
