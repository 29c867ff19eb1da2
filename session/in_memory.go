package session

import (
	"errors"
	"sync"
	"time"

	"github.com/hupe1980/rolemesh/society"
)

// ErrNotFound is returned by Get for unknown run ids.
var ErrNotFound = errors.New("session not found")

// Session is the recorded transcript of one run.
type Session struct {
	ID         string               `json:"id"`
	Task       string               `json:"task"`
	ToolNames  []string             `json:"tool_names,omitempty"`
	RoundLimit int                  `json:"round_limit"`
	Rounds     []society.RoundEvent `json:"rounds"`
	Result     *society.Result      `json:"result,omitempty"` // nil while running
	Error      string               `json:"error,omitempty"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at,omitzero"`
}

// Finished reports whether the run has ended.
func (s *Session) Finished() bool { return s.Result != nil }

// Clone returns a copy that shares no slices with s.
func (s *Session) Clone() *Session {
	c := *s
	c.ToolNames = append([]string(nil), s.ToolNames...)
	c.Rounds = append([]society.RoundEvent(nil), s.Rounds...)
	if s.Result != nil {
		r := *s.Result
		r.History = append(r.History[:0:0], s.Result.History...)
		c.Result = &r
	}
	return &c
}

// Store persists sessions.
type Store interface {
	society.Observer
	Get(runID string) (*Session, error)
	List() []*Session
}

// InMemoryStore is a volatile Store keeping sessions in a process local map.
// It is safe for concurrent access. Returned sessions are clones.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string
	now      func() time.Time
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*Session), now: time.Now}
}

// RunStarted implements society.Observer.
func (s *InMemoryStore) RunStarted(info society.RunInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[info.RunID]; !ok {
		s.order = append(s.order, info.RunID)
	}
	s.sessions[info.RunID] = &Session{
		ID:         info.RunID,
		Task:       info.Task,
		ToolNames:  append([]string(nil), info.ToolNames...),
		RoundLimit: info.RoundLimit,
		StartedAt:  s.now(),
	}
}

// RoundCompleted implements society.Observer.
func (s *InMemoryStore) RoundCompleted(ev society.RoundEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(ev.RunID)
	sess.Rounds = append(sess.Rounds, ev)
}

// RunFinished implements society.Observer.
func (s *InMemoryStore) RunFinished(info society.RunInfo, res society.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(info.RunID)
	sess.Result = &res
	sess.FinishedAt = s.now()
	if err != nil {
		sess.Error = err.Error()
	}
}

// Get returns a clone of the session recorded for runID.
func (s *InMemoryStore) Get(runID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[runID]
	if !ok {
		return nil, ErrNotFound
	}
	return sess.Clone(), nil
}

// List returns clones of all sessions in start order.
func (s *InMemoryStore) List() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Session, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.sessions[id].Clone())
	}
	return out
}

// getOrCreateLocked tolerates events for runs that started before the store
// was attached; caller must hold the write lock.
func (s *InMemoryStore) getOrCreateLocked(runID string) *Session {
	sess, ok := s.sessions[runID]
	if !ok {
		sess = &Session{ID: runID, StartedAt: s.now()}
		s.sessions[runID] = sess
		s.order = append(s.order, runID)
	}
	return sess
}
