package auth

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/jtoledo/betriebsportal/internal"
)

// Store is the in-memory session store: opaque token -> session with a
// sliding idle deadline. Sessions do not survive a restart; the only durable
// state in this system lives in the spreadsheets.
type Store struct {
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	user     internal.SessionUser
	deadline time.Time
}

func NewStore(idleTimeout time.Duration) *Store {
	if idleTimeout <= 0 {
		idleTimeout = internal.DefaultSessionIdleTimeout
	}
	return &Store{
		idleTimeout: idleTimeout,
		now:         time.Now,
		sessions:    make(map[string]*session),
	}
}

func (s *Store) IdleTimeout() time.Duration {
	return s.idleTimeout
}

// Create registers a new session and returns its opaque token.
func (s *Store) Create(user internal.SessionUser) (string, error) {
	token, err := GenerateRandomToken()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = &session{
		user:     user,
		deadline: s.now().Add(s.idleTimeout),
	}
	s.sweepLocked()
	return token, nil
}

// Get resolves a token to its session user and slides the idle deadline.
// Expired sessions are evicted on access.
func (s *Store) Get(token string) (*internal.SessionUser, bool) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	if !now.Before(sess.deadline) {
		delete(s.sessions, token)
		return nil, false
	}

	sess.deadline = now.Add(s.idleTimeout)
	user := sess.user
	return &user, true
}

// Update replaces the stored user (refreshed permissions) without touching
// the deadline beyond the usual slide.
func (s *Store) Update(token string, user internal.SessionUser) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return false
	}
	sess.user = user
	sess.deadline = s.now().Add(s.idleTimeout)
	return true
}

func (s *Store) Destroy(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// sweepLocked evicts expired sessions so the map does not grow with stale
// logins.
func (s *Store) sweepLocked() {
	now := s.now()
	for token, sess := range s.sessions {
		if !now.Before(sess.deadline) {
			delete(s.sessions, token)
		}
	}
}

// GenerateRandomToken generates a cryptographically secure random token.
func GenerateRandomToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
