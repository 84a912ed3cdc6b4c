package chat

import (
	"context"
	"time"
)

// Session is one user's ongoing game. Messages are append-only and kept in
// conversation order.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user"`
	PromptName string    `json:"prompt_name"`
	Messages   []Message `json:"messages"`
	CreatedAt  time.Time `json:"created_at"`
}

// SessionStore persists sessions keyed by their owning user.
//
// Create fails with apperr.ErrConflict when the user already owns a session.
// GetByUser and AppendMessage fail with apperr.ErrNotFound when it does not.
// DeleteByUser succeeds whether or not a session exists.
type SessionStore interface {
	Create(ctx context.Context, session *Session) error
	GetByUser(ctx context.Context, userID string) (*Session, error)
	AppendMessage(ctx context.Context, userID string, message Message) error
	DeleteByUser(ctx context.Context, userID string) error
}
