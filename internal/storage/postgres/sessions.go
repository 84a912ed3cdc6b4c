package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/gamebot/backend/internal/apperr"
	"github.com/zhouzirui/gamebot/backend/internal/model/chat"
)

var _ chat.SessionStore = (*SessionStore)(nil)

type SessionStore struct {
	db     DBTX
	logger *zap.Logger
}

func NewSessionStore(db DBTX, logger *zap.Logger) *SessionStore {
	return &SessionStore{db: db, logger: logger.Named("PgSessionStore")}
}

func (s *SessionStore) Create(ctx context.Context, session *chat.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.Messages == nil {
		session.Messages = []chat.Message{}
	}
	messages, err := json.Marshal(session.Messages)
	if err != nil {
		return fmt.Errorf("failed to encode session messages: %w", err)
	}

	query := `
        INSERT INTO game_sessions (id, user_id, prompt_name, messages)
        VALUES ($1, $2, $3, $4::jsonb)
        RETURNING created_at`
	err = s.db.QueryRow(ctx, query, session.ID, session.UserID, session.PromptName, messages).Scan(&session.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			s.logger.Warn("User already has a session", zap.String("userID", session.UserID))
			return fmt.Errorf("%w: session for user %q", apperr.ErrConflict, session.UserID)
		}
		s.logger.Error("Failed to create session", zap.Error(err), zap.String("userID", session.UserID))
		return fmt.Errorf("failed to create session: %w", err)
	}
	s.logger.Info("Session created", zap.String("sessionID", session.ID), zap.String("userID", session.UserID))
	return nil
}

func (s *SessionStore) GetByUser(ctx context.Context, userID string) (*chat.Session, error) {
	query := `SELECT id, user_id, prompt_name, messages, created_at FROM game_sessions WHERE user_id = $1`
	var (
		session chat.Session
		raw     []byte
	)
	err := s.db.QueryRow(ctx, query, userID).Scan(&session.ID, &session.UserID, &session.PromptName, &raw, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: session for user %q", apperr.ErrNotFound, userID)
		}
		s.logger.Error("Failed to get session", zap.Error(err), zap.String("userID", userID))
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if err := json.Unmarshal(raw, &session.Messages); err != nil {
		return nil, fmt.Errorf("failed to decode session messages: %w", err)
	}
	return &session, nil
}

// AppendMessage pushes one message onto the end of the embedded array.
func (s *SessionStore) AppendMessage(ctx context.Context, userID string, message chat.Message) error {
	encoded, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	query := `UPDATE game_sessions SET messages = messages || jsonb_build_array($2::jsonb) WHERE user_id = $1`
	tag, err := s.db.Exec(ctx, query, userID, encoded)
	if err != nil {
		s.logger.Error("Failed to append message", zap.Error(err), zap.String("userID", userID))
		return fmt.Errorf("failed to append message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: session for user %q", apperr.ErrNotFound, userID)
	}
	return nil
}

func (s *SessionStore) DeleteByUser(ctx context.Context, userID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM game_sessions WHERE user_id = $1`, userID)
	if err != nil {
		s.logger.Error("Failed to delete session", zap.Error(err), zap.String("userID", userID))
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.logger.Info("Session deleted", zap.String("userID", userID), zap.Int64("rowsAffected", tag.RowsAffected()))
	return nil
}
