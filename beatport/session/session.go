package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/xeptore/beatportdl/redact"
)

type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// IsAnonymous reports whether the session cannot be refreshed and must be
// re-acquired through the anonymous token path.
func (s Session) IsAnonymous() bool {
	return s.RefreshToken == ""
}

func (s Session) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("access_token", redact.String(s.AccessToken)).
		Str("refresh_token", redact.String(s.RefreshToken)).
		Time("expires_at", s.ExpiresAt)
}

func (s Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type Store interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context) error
}

// State is the process-owned session shared by the authenticator and the
// request dispatcher. Every Write is checkpointed to the backing store.
type State struct {
	store   Store
	mux     sync.Mutex
	current atomic.Pointer[Session]
}

func Restore(ctx context.Context, store Store) (*State, error) {
	sess, err := store.Load(ctx)
	if nil != err {
		return nil, fmt.Errorf("load session: %w", err)
	}

	s := &State{
		store:   store,
		mux:     sync.Mutex{},
		current: atomic.Pointer[Session]{},
	}
	s.current.Store(sess)

	return s, nil
}

func (s *State) Read() Session {
	return *s.current.Load()
}

// Write replaces the whole session. The in-memory value is updated even if
// persisting it fails.
func (s *State) Write(ctx context.Context, sess Session) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	s.current.Store(&sess)
	if err := s.store.Save(ctx, sess); nil != err {
		return fmt.Errorf("save session: %w", err)
	}

	return nil
}

func (s *State) Clear(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	s.current.Store(&Session{}) //nolint:exhaustruct
	if err := s.store.Delete(ctx); nil != err {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}
