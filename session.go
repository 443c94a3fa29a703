package main

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// session owns everything one user builds up in a visit: the last form
// submission with its derived goals and report, and the chat history.
// A new form submission replaces input, goals, report and pdf as a unit and
// starts a new generation of the history.
type session struct {
	mu         sync.Mutex
	id         string
	createdAt  time.Time
	lastSeen   time.Time
	generation int
	input      *biometricInput
	goals      *goalResult
	report     *reportDocument
	pdf        []byte
	history    []chatMessage
}

// view snapshots the session for JSON responses.
func (s *session) view() sessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]chatMessage, len(s.history))
	copy(history, s.history)
	return sessionView{
		ID:         s.id,
		CreatedAt:  s.createdAt,
		Generation: s.generation,
		Input:      s.input,
		Goals:      s.goals,
		HasReport:  s.pdf != nil,
		History:    history,
	}
}

// profile returns the coach context, or nil before the form is submitted.
func (s *session) profile() *coachProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.input == nil || s.goals == nil {
		return nil
	}
	return &coachProfile{Input: *s.input, Goals: *s.goals}
}

// submit stores a fresh submission, bumps the generation and resets the
// history to the welcome message. Returns a copy of the new history.
func (s *session) submit(in biometricInput, goals goalResult, doc reportDocument, pdf []byte, now time.Time) []chatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.input = &in
	s.goals = &goals
	s.report = &doc
	s.pdf = pdf
	s.history = []chatMessage{{Speaker: speakerCoach, Text: welcomeMessage(in, goals), At: now}}

	history := make([]chatMessage, len(s.history))
	copy(history, s.history)
	return history
}

// appendExchange records a user message and the coach reply, returning the
// index of the reply.
func (s *session) appendExchange(userText, reply, route string, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history,
		chatMessage{Speaker: speakerUser, Text: userText, At: now},
		chatMessage{Speaker: speakerCoach, Text: reply, Route: route, At: now},
	)
	return len(s.history) - 1
}

// ratableReply returns the coach reply at index in the current history along
// with the generation it belongs to. The welcome message at index 0 and user
// messages cannot be rated.
func (s *session) ratableReply(index int) (chatMessage, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index <= 0 || index >= len(s.history) {
		return chatMessage{}, 0, false
	}
	msg := s.history[index]
	if msg.Speaker != speakerCoach {
		return chatMessage{}, 0, false
	}
	return msg, s.generation, true
}

func (s *session) reportPDF() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pdf
}

/* ─── Store ──────────────────────────────────────────────────────────── */

// sessionStore holds live sessions in memory. Sessions end on explicit
// removal or after idleTTL without a request.
type sessionStore struct {
	mu          sync.Mutex
	sessions    map[string]*session
	idleTTL     time.Duration
	now         func() time.Time
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

func newSessionStore(idleTTL time.Duration) *sessionStore {
	return &sessionStore{
		sessions:    make(map[string]*session),
		idleTTL:     idleTTL,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
}

// startCleanup sweeps idle sessions every interval until close is called.
func (st *sessionStore) startCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := st.sweep(); n > 0 {
					log.Printf("[sessionStore] expired %d idle session(s)", n)
				}
			case <-st.stopCleanup:
				return
			}
		}
	}()
}

func (st *sessionStore) close() {
	st.stopOnce.Do(func() { close(st.stopCleanup) })
}

func (st *sessionStore) create() *session {
	now := st.now()
	s := &session{id: uuid.NewString(), createdAt: now, lastSeen: now}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.id] = s
	return s
}

// get returns the session and marks it as seen.
func (st *sessionStore) get(id string) (*session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	s.lastSeen = st.now()
	s.mu.Unlock()
	return s, true
}

func (st *sessionStore) remove(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return false
	}
	delete(st.sessions, id)
	return true
}

// sweep removes sessions idle for longer than idleTTL and returns how many
// were removed.
func (st *sessionStore) sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	removed := 0
	for id, s := range st.sessions {
		s.mu.Lock()
		idle := now.Sub(s.lastSeen)
		s.mu.Unlock()
		if idle > st.idleTTL {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
