// Package session tracks the one-time initialization handshake between a
// plugin instance and the memory worker.
//
// A Sequencer moves from UNINITIALIZED to INITIALIZED at most once per
// process. Exactly one initialization attempt is ever made: a failed attempt
// is final, and a later recovery of the worker does not re-trigger it.
package session

import (
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	idAlphabet     = "0123456789abcdefghijklmnopqrstuvwxyz"
	idSuffixLength = 9
)

// Status is the sequencer state.
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusInitialized   Status = "initialized"
)

// State is a point-in-time copy of a Sequencer.
type State struct {
	SessionID       string `json:"sessionId"`
	Status          Status `json:"status"`
	Attempted       bool   `json:"attempted"`
	Initialized     bool   `json:"initialized"`
	RemoteSessionID *int64 `json:"remoteSessionId,omitempty"`
}

// Sequencer owns the session state of one plugin instance.
type Sequencer struct {
	mu sync.Mutex

	sessionID       string
	attempted       bool
	initialized     bool
	remoteSessionID *int64
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(s *Sequencer) {
		if id != "" {
			s.sessionID = id
		}
	}
}

// New creates an uninitialized Sequencer with a freshly generated session id.
func New(opts ...Option) *Sequencer {
	s := &Sequencer{}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessionID == "" {
		s.sessionID = NewID()
	}
	return s
}

// NewID returns a session id made of the current unix millis and a random
// lowercase suffix, e.g. "1760832000000-k3j9x0a2b".
func NewID() string {
	suffix, err := gonanoid.Generate(idAlphabet, idSuffixLength)
	if err != nil {
		// crypto/rand failure; nanoseconds keep ids unique within the process.
		suffix = fmt.Sprintf("%09d", time.Now().Nanosecond())
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), suffix)
}

// SessionID returns the locally generated session id.
func (s *Sequencer) SessionID() string {
	return s.sessionID
}

// BeginInit claims the single initialization attempt. It returns true for
// the first caller only; every later call returns false, whether or not the
// first attempt succeeded.
func (s *Sequencer) BeginInit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attempted {
		return false
	}
	s.attempted = true
	return true
}

// CompleteInit transitions to INITIALIZED and records the worker-assigned
// session id when present. Calls after the first transition are ignored.
func (s *Sequencer) CompleteInit(remoteID *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return
	}
	s.initialized = true
	s.attempted = true
	if remoteID != nil {
		id := *remoteID
		s.remoteSessionID = &id
	}
}

// Initialized reports whether the handshake completed.
func (s *Sequencer) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// RemoteSessionID returns the worker-assigned session id, if any.
func (s *Sequencer) RemoteSessionID() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.remoteSessionID == nil {
		return 0, false
	}
	return *s.remoteSessionID, true
}

// Snapshot returns a copy of the current state.
func (s *Sequencer) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		SessionID:   s.sessionID,
		Status:      StatusUninitialized,
		Attempted:   s.attempted,
		Initialized: s.initialized,
	}
	if s.initialized {
		st.Status = StatusInitialized
	}
	if s.remoteSessionID != nil {
		id := *s.remoteSessionID
		st.RemoteSessionID = &id
	}
	return st
}
