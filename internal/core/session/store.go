// Package session keeps the in-memory registry of active call sessions.
// Lifecycle is explicit: register on call start, evict when teardown
// completes. Nothing is persisted.
package session

import (
	"fmt"
	"strings"
	"sync"
)

// CallSession is the lifetime-bound state for one telephone call, from
// setup notification to teardown. It is shared between the inbound call
// handler and the bridge session, so mutable fields sit behind a mutex.
type CallSession struct {
	CallID string

	// Metadata captures the original call-setup parameters opaquely.
	// Read-only after creation.
	Metadata map[string]string

	mu           sync.Mutex
	callerNumber string
	streamSID    string
	greeting     string
	transcript   []string
}

// NewCallSession creates a session for a call identifier.
func NewCallSession(callID, callerNumber, greeting string, metadata map[string]string) *CallSession {
	return &CallSession{
		CallID:       callID,
		Metadata:     metadata,
		callerNumber: callerNumber,
		greeting:     greeting,
	}
}

// SetStreamContext records the context supplied by the media stream's
// start event: the assigned stream SID plus the caller number and
// greeting carried as custom parameters.
func (s *CallSession) SetStreamContext(streamSID, callerNumber, greeting string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamSID = streamSID
	if callerNumber != "" {
		s.callerNumber = callerNumber
	}
	if greeting != "" {
		s.greeting = greeting
	}
}

// CallerNumber returns the caller number, or "Unknown" when never supplied.
func (s *CallSession) CallerNumber() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.callerNumber == "" {
		return "Unknown"
	}
	return s.callerNumber
}

// StreamSID returns the media stream identifier, empty until the stream starts.
func (s *CallSession) StreamSID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamSID
}

// Greeting returns the initial utterance text for this call.
func (s *CallSession) Greeting() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.greeting
}

// AppendAgentLine appends a completed agent turn to the transcript.
func (s *CallSession) AppendAgentLine(text string) {
	s.appendLine("Agent", text)
}

// AppendUserLine appends a recognized caller utterance to the transcript.
func (s *CallSession) AppendUserLine(text string) {
	s.appendLine("User", text)
}

func (s *CallSession) appendLine(tag, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, fmt.Sprintf("%s: %s", tag, text))
}

// Transcript returns the accumulated tagged lines in arrival order.
func (s *CallSession) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.transcript) == 0 {
		return ""
	}
	return strings.Join(s.transcript, "\n") + "\n"
}

// Store maps call identifiers to their sessions. Distinct calls never
// share state; at most one session exists per call identifier.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*CallSession
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*CallSession),
	}
}

// Create registers a session, replacing any previous entry for the same call.
func (st *Store) Create(s *CallSession) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.CallID] = s
}

// Get looks up a session. Absence is an expected case: the media stream
// may connect before, or independently of, call-setup bookkeeping.
func (st *Store) Get(callID string) (*CallSession, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[callID]
	return s, ok
}

// GetOrCreate returns the existing session or registers an empty default.
func (st *Store) GetOrCreate(callID string) *CallSession {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[callID]; ok {
		return s
	}
	s := NewCallSession(callID, "", "", nil)
	st.sessions[callID] = s
	return s
}

// Delete evicts a session. Deleting an absent key is a no-op.
func (st *Store) Delete(callID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, callID)
}

// Count returns the number of active sessions.
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
