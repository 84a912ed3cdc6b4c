package user

import (
	"context"
	"time"
)

// User is a player account. Only the bcrypt hash of the password is kept.
type User struct {
	ID           string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// Store persists users keyed by their unique name.
type Store interface {
	// Create fails with apperr.ErrConflict when the name is taken.
	Create(ctx context.Context, u *User) error
	// GetByName fails with apperr.ErrNotFound for unknown names.
	GetByName(ctx context.Context, name string) (*User, error)
}
