package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/gamebot/backend/internal/apperr"
	"github.com/zhouzirui/gamebot/backend/internal/model/chat"
)

var _ chat.SessionStore = (*SessionStore)(nil)

// SessionStore holds one session per user.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]chat.Session)}
}

func (s *SessionStore) Create(_ context.Context, session *chat.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.UserID]; ok {
		return fmt.Errorf("%w: session for user %q", apperr.ErrConflict, session.UserID)
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	stored := *session
	stored.Messages = append(make([]chat.Message, 0, 16), session.Messages...)
	s.sessions[session.UserID] = stored
	return nil
}

func (s *SessionStore) GetByUser(_ context.Context, userID string) (*chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[userID]
	if !ok {
		return nil, fmt.Errorf("%w: session for user %q", apperr.ErrNotFound, userID)
	}
	session.Messages = append([]chat.Message(nil), session.Messages...)
	return &session, nil
}

func (s *SessionStore) AppendMessage(_ context.Context, userID string, message chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return fmt.Errorf("%w: session for user %q", apperr.ErrNotFound, userID)
	}
	session.Messages = append(session.Messages, message)
	s.sessions[userID] = session
	return nil
}

func (s *SessionStore) DeleteByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
	return nil
}
