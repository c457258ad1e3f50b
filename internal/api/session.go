package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/icplatform/dashboard/internal/dashboard"
)

// session is one browser tab's dashboard.
type session struct {
	id       string
	app      *dashboard.App
	launches *dashboard.LaunchQueue

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// AppFactory builds the App of a new session. Launches queued on opener are
// returned to the browser with the next action response.
type AppFactory func(opener dashboard.Opener) *dashboard.App

// SessionStore maps session cookies to dashboards and evicts idle ones.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	newApp   AppFactory
	now      func() time.Time

	// OnCreate and OnEvict, when set, observe the session lifecycle.
	OnCreate func(s *session)
	OnEvict  func(s *session)
}

// NewSessionStore creates a store whose sessions expire after ttl without
// requests.
func NewSessionStore(ttl time.Duration, newApp AppFactory) *SessionStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &SessionStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
		newApp:   newApp,
		now:      time.Now,
	}
}

// Get returns the live session with id and marks it used.
func (st *SessionStore) Get(id string) (*session, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	st.mu.Lock()
	s, ok := st.sessions[id]
	st.mu.Unlock()
	if !ok {
		return nil, false
	}
	s.touch(st.now())
	return s, true
}

// Create starts a new session with a fresh App.
func (st *SessionStore) Create() *session {
	q := &dashboard.LaunchQueue{}
	s := &session{
		id:       uuid.NewString(),
		app:      st.newApp(q),
		launches: q,
		lastSeen: st.now(),
	}

	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()

	if st.OnCreate != nil {
		st.OnCreate(s)
	}
	return s
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
// were removed.
func (st *SessionStore) Sweep() int {
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	var expired []*session
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.app.Close()
		if st.OnEvict != nil {
			st.OnEvict(s)
		}
	}
	return len(expired)
}

// Len reports the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Close evicts every session.
func (st *SessionStore) Close() {
	st.mu.Lock()
	all := make([]*session, 0, len(st.sessions))
	for id, s := range st.sessions {
		all = append(all, s)
		delete(st.sessions, id)
	}
	st.mu.Unlock()

	for _, s := range all {
		s.app.Close()
		if st.OnEvict != nil {
			st.OnEvict(s)
		}
	}
}
