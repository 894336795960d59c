package auth

import (
	"context"
	"sync"
	"time"

	dom "github.com/Trust-Mwendabai/CDIMS/internal/domain"
)

// MemoryStore is an in-process Store used in tests and single-node dev runs.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	remember map[string]rememberEntry
}

type memorySession struct {
	sess Session
	csrf string
}

type rememberEntry struct {
	userID    int64
	expiresAt time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memorySession),
		remember: make(map[string]rememberEntry),
	}
}

func (s *MemoryStore) Anonymous(ctx context.Context) (string, error) {
	id, err := newToken(16)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &memorySession{sess: Session{ID: id}}
	return id, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.sessions[id]
	if !ok {
		return Session{}, false, nil
	}
	return m.sess, true, nil
}

func (s *MemoryStore) Establish(ctx context.Context, oldID string, userID int64, username string, role dom.Role) (string, error) {
	id, err := newToken(16)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, oldID)
	s.sessions[id] = &memorySession{sess: Session{
		ID:       id,
		UserID:   userID,
		Username: username,
		Role:     role,
	}}
	return id, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) IssueCSRF(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.sessions[id]
	if !ok {
		return "", nil
	}
	if m.csrf != "" {
		return m.csrf, nil
	}
	token, err := newToken(32)
	if err != nil {
		return "", err
	}
	m.csrf = token
	return token, nil
}

func (s *MemoryStore) ValidateCSRF(ctx context.Context, id, candidate string) (bool, error) {
	if id == "" || candidate == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.sessions[id]
	if !ok || m.csrf == "" {
		return false, nil
	}
	if !tokensEqual(m.csrf, candidate) {
		return false, nil
	}
	m.csrf = ""
	return true, nil
}

func (s *MemoryStore) IssueRemember(ctx context.Context, userID int64) (string, error) {
	token, err := newToken(32)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remember[digest(token)] = rememberEntry{
		userID:    userID,
		expiresAt: time.Now().Add(30 * 24 * time.Hour),
	}
	return token, nil
}

func (s *MemoryStore) ConsumeRemember(ctx context.Context, token string) (int64, bool, error) {
	if token == "" {
		return 0, false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := digest(token)
	e, ok := s.remember[key]
	if !ok {
		return 0, false, nil
	}
	delete(s.remember, key)
	if time.Now().After(e.expiresAt) {
		return 0, false, nil
	}
	return e.userID, true, nil
}
