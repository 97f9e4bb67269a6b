package service

import (
	"sync"
	"time"

	"github.com/joeblew999/lithium-map/internal/concession"
	"github.com/joeblew999/lithium-map/internal/metrics"
)

// DefaultSessionTTL is how long an untouched session is kept.
const DefaultSessionTTL = 30 * time.Minute

type session struct {
	view *concession.ViewState
	seen time.Time
}

// SessionStore holds one view state per browser session. A session only
// exists once something changed its view.
type SessionStore struct {
	views map[string]*session
	mu    sync.RWMutex
	now   func() time.Time
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{views: make(map[string]*session), now: time.Now}
}

// Get returns a copy of the session's view state. Unknown sessions are empty.
func (s *SessionStore) Get(id string) concession.ViewState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.views[id]
	if !ok {
		return concession.ViewState{}
	}
	return sess.view.Clone()
}

// Update runs fn against the session's view state under the store lock.
// An unknown session is stored only when fn reports a change.
func (s *SessionStore) Update(id string, fn func(v *concession.ViewState) bool) (concession.ViewState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.views[id]
	if !ok {
		sess = &session{view: &concession.ViewState{}}
	}
	changed := fn(sess.view)
	if !ok && !changed {
		return sess.view.Clone(), false
	}

	sess.seen = s.now()
	if !ok {
		s.views[id] = sess
		metrics.Sessions.Set(float64(len(s.views)))
	}
	return sess.view.Clone(), changed
}

// Delete drops a session.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.views, id)
	metrics.Sessions.Set(float64(len(s.views)))
}

// Evict drops sessions not updated within maxIdle and returns how many went.
func (s *SessionStore) Evict(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxIdle)
	n := 0
	for id, sess := range s.views {
		if sess.seen.Before(cutoff) {
			delete(s.views, id)
			n++
		}
	}
	metrics.Sessions.Set(float64(len(s.views)))
	return n
}

// Len returns the number of sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views)
}
