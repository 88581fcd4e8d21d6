package session

import (
	"crypto/rand"
	"encoding/binary"
	"strconv"
	"sync"
	"time"

	"relay/cmd/internal/metrics"
)

// mintAttempts bounds id regeneration on collision with a live session.
const mintAttempts = 32

// Session is one live login, bound to exactly one user. A user may hold any
// number of concurrent sessions; they are independent of each other.
type Session struct {
	UserID       int64
	LastActivity time.Time
}

// Store is the authoritative session_id -> Session table.
//
// All state lives behind one exclusive lock; no other component reads or
// writes session state directly. The zero value is not usable, construct
// with NewStore.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]Session
}

// NewStore constructs an empty session table.
func NewStore() *Store {
	return &Store{sessions: make(map[int64]Session)}
}

// Insert mints a new session id, binds it to userID with the given activity
// timestamp, and returns the id.
//
// Ids are random 63-bit integers. A collision with a live session triggers
// regeneration rather than an overwrite; after mintAttempts tries the insert
// fails with ErrMintExhausted.
func (s *Store) Insert(userID int64, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for range mintAttempts {
		id, err := randomID()
		if err != nil {
			return 0, err
		}
		if _, taken := s.sessions[id]; taken {
			continue
		}
		s.sessions[id] = Session{UserID: userID, LastActivity: now}
		metrics.SessionsLive.Set(float64(len(s.sessions)))
		return id, nil
	}
	return 0, ErrMintExhausted
}

// ValidateString resolves a caller-supplied textual session id to its owning
// user. Text that does not parse as a decimal integer means "no such
// session", never an error.
func (s *Store) ValidateString(text string) (int64, bool) {
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, false
	}
	return s.Validate(id)
}

// Validate returns the owning user of a live session.
func (s *Store) Validate(id int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return 0, false
	}
	return sess.UserID, true
}

// Touch refreshes the session's activity timestamp and returns the owning
// user. Touching an absent session is a silent no-op-failure.
func (s *Store) Touch(id int64, now time.Time) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return 0, false
	}
	sess.LastActivity = now
	s.sessions[id] = sess
	return sess.UserID, true
}

// Remove deletes a session. Removing an absent id is not an error.
func (s *Store) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	metrics.SessionsLive.Set(float64(len(s.sessions)))
}

// ActiveForUser reports whether any live session belongs to userID.
//
// Cost is linear in the number of outstanding sessions. If this path gets
// hot with many concurrent sessions, add a secondary index keyed by user id.
func (s *Store) ActiveForUser(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		if sess.UserID == userID {
			return true
		}
	}
	return false
}

// SweepExpired removes every session idle longer than ttl and returns the
// removed ids.
//
// The sweep is two-phase under a single lock acquisition: collect the expired
// set, then delete all of it, so no concurrent Validate observes a partial
// removal. Holding the lock for the full sweep briefly blocks concurrent
// operations; the delete phase is proportional to the expired count only.
func (s *Store) SweepExpired(now time.Time, ttl time.Duration) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []int64
	for id, sess := range s.sessions {
		if now.Sub(sess.LastActivity) > ttl {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(s.sessions, id)
	}

	if len(expired) > 0 {
		metrics.SessionsReaped.Add(float64(len(expired)))
		metrics.SessionsLive.Set(float64(len(s.sessions)))
	}
	return expired
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func randomID() (int64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b[:]) >> 1), nil
}
