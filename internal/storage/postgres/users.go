package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/gamebot/backend/internal/apperr"
	"github.com/zhouzirui/gamebot/backend/internal/model/user"
)

var _ user.Store = (*UserStore)(nil)

type UserStore struct {
	db     DBTX
	logger *zap.Logger
}

func NewUserStore(db DBTX, logger *zap.Logger) *UserStore {
	return &UserStore{db: db, logger: logger.Named("PgUserStore")}
}

// Create inserts a user and fills ID and CreatedAt.
func (s *UserStore) Create(ctx context.Context, u *user.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	query := `INSERT INTO users (id, name, password_hash) VALUES ($1, $2, $3) RETURNING created_at`
	err := s.db.QueryRow(ctx, query, u.ID, u.Name, u.PasswordHash).Scan(&u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			s.logger.Warn("Attempted to create duplicate user", zap.String("name", u.Name))
			return fmt.Errorf("%w: user %q", apperr.ErrConflict, u.Name)
		}
		s.logger.Error("Failed to create user", zap.Error(err), zap.String("name", u.Name))
		return fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("User created", zap.String("userID", u.ID), zap.String("name", u.Name))
	return nil
}

func (s *UserStore) GetByName(ctx context.Context, name string) (*user.User, error) {
	query := `SELECT id, name, password_hash, created_at FROM users WHERE name = $1`
	var u user.User
	err := s.db.QueryRow(ctx, query, name).Scan(&u.ID, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %q", apperr.ErrNotFound, name)
		}
		s.logger.Error("Failed to get user by name", zap.Error(err), zap.String("name", name))
		return nil, fmt.Errorf("failed to get user by name: %w", err)
	}
	return &u, nil
}
