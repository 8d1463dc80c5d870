// Package bot implements the conversation state machine driving the
// credential-collection dialogue and the authorized menu.
package bot

import (
	"sync"
	"time"
)

// Step is the position of a conversation in the onboarding dialogue.
type Step int

const (
	StepNone Step = iota
	StepWaitingContract
	StepWaitingAccount
	StepAuthorized
	StepBanned
)

// Session is the ephemeral per-conversation state. It lives in process
// memory only; a lost session is rehydrated from the users table.
type Session struct {
	Step            Step
	PendingContract string
	LinkedSecretID  string
	UpdatedAt       time.Time
}

// SessionStore keeps sessions keyed by Telegram user id. Session fields
// are only safe to touch while holding the per-user lock from Acquire.
type SessionStore struct {
	mu    sync.Mutex
	m     map[int64]*Session
	locks map[int64]*sync.Mutex
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		m:     make(map[int64]*Session),
		locks: make(map[int64]*sync.Mutex),
	}
}

// Acquire serializes update handling for one user: Telegram may deliver
// duplicate or concurrent webhooks for the same chat. The returned
// function releases the lock.
func (s *SessionStore) Acquire(userID int64) func() {
	s.mu.Lock()
	l := s.locks[userID]
	if l == nil {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Get returns the session for userID, creating a StepNone one if absent.
func (s *SessionStore) Get(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.m[userID]
	if st == nil {
		st = &Session{Step: StepNone, UpdatedAt: time.Now()}
		s.m[userID] = st
	}
	return st
}

// Reset discards any existing session for userID and returns a fresh one.
func (s *SessionStore) Reset(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &Session{Step: StepNone, UpdatedAt: time.Now()}
	s.m[userID] = st
	return st
}
