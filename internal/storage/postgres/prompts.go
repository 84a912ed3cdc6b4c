package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/gamebot/backend/internal/apperr"
	"github.com/zhouzirui/gamebot/backend/internal/model/prompt"
)

var _ prompt.Store = (*PromptStore)(nil)

const promptFields = `name, prompt, first_user_message, created_at`

type PromptStore struct {
	db     DBTX
	logger *zap.Logger
}

func NewPromptStore(db DBTX, logger *zap.Logger) *PromptStore {
	return &PromptStore{db: db, logger: logger.Named("PgPromptStore")}
}

func (s *PromptStore) Create(ctx context.Context, p *prompt.Prompt) error {
	query := `INSERT INTO prompts (name, prompt, first_user_message) VALUES ($1, $2, $3) RETURNING created_at`
	err := s.db.QueryRow(ctx, query, p.Name, p.Template, p.FirstUserMessage).Scan(&p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: prompt %q", apperr.ErrConflict, p.Name)
		}
		s.logger.Error("Failed to create prompt", zap.Error(err), zap.String("name", p.Name))
		return fmt.Errorf("failed to create prompt: %w", err)
	}
	s.logger.Info("Prompt created", zap.String("name", p.Name))
	return nil
}

func (s *PromptStore) Get(ctx context.Context, name string) (*prompt.Prompt, error) {
	query := `SELECT ` + promptFields + ` FROM prompts WHERE name = $1`
	var p prompt.Prompt
	err := s.db.QueryRow(ctx, query, name).Scan(&p.Name, &p.Template, &p.FirstUserMessage, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: prompt %q", apperr.ErrNotFound, name)
		}
		s.logger.Error("Failed to get prompt", zap.Error(err), zap.String("name", name))
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}
	return &p, nil
}

func (s *PromptStore) List(ctx context.Context) ([]prompt.Prompt, error) {
	query := `SELECT ` + promptFields + ` FROM prompts ORDER BY id`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		s.logger.Error("Failed to list prompts", zap.Error(err))
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	defer rows.Close()

	prompts := make([]prompt.Prompt, 0)
	for rows.Next() {
		var p prompt.Prompt
		if err := rows.Scan(&p.Name, &p.Template, &p.FirstUserMessage, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prompt row: %w", err)
		}
		prompts = append(prompts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during prompt rows iteration: %w", err)
	}
	return prompts, nil
}

// Update overwrites only the columns whose patch field is set.
func (s *PromptStore) Update(ctx context.Context, name string, upd prompt.Update) error {
	query := `
        UPDATE prompts SET
            name = COALESCE($2, name),
            prompt = COALESCE($3, prompt),
            first_user_message = COALESCE($4, first_user_message)
        WHERE name = $1`
	tag, err := s.db.Exec(ctx, query, name, upd.Name, upd.Template, upd.FirstUserMessage)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: prompt %q", apperr.ErrConflict, *upd.Name)
		}
		s.logger.Error("Failed to update prompt", zap.Error(err), zap.String("name", name))
		return fmt.Errorf("failed to update prompt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: prompt %q", apperr.ErrNotFound, name)
	}
	s.logger.Info("Prompt updated", zap.String("name", name))
	return nil
}

// Delete is idempotent: removing a missing prompt is not an error.
func (s *PromptStore) Delete(ctx context.Context, name string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM prompts WHERE name = $1`, name)
	if err != nil {
		s.logger.Error("Failed to delete prompt", zap.Error(err), zap.String("name", name))
		return fmt.Errorf("failed to delete prompt: %w", err)
	}
	s.logger.Info("Prompt deleted", zap.String("name", name), zap.Int64("rowsAffected", tag.RowsAffected()))
	return nil
}
