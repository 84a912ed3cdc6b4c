package prompt

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zhouzirui/gamebot/backend/internal/apperr"
	"github.com/zhouzirui/gamebot/backend/internal/model/prompt"
)

// Service manages the prompt catalogue. Writes are admin-only; the handler
// layer enforces that.
type Service struct {
	store  prompt.Store
	logger *zap.Logger
}

func NewService(store prompt.Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger.Named("prompt")}
}

// Create stores a new prompt. Duplicate names fail with apperr.ErrConflict.
func (s *Service) Create(ctx context.Context, p prompt.Prompt) (*prompt.Prompt, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, fmt.Errorf("%w: prompt name is required", apperr.ErrValidation)
	}
	if strings.TrimSpace(p.Template) == "" {
		return nil, fmt.Errorf("%w: prompt text is required", apperr.ErrValidation)
	}

	if err := s.store.Create(ctx, &p); err != nil {
		return nil, err
	}
	s.logger.Info("prompt created", zap.String("name", p.Name))
	return &p, nil
}

func (s *Service) Get(ctx context.Context, name string) (*prompt.Prompt, error) {
	return s.store.Get(ctx, name)
}

// List returns the prompt names in creation order.
func (s *Service) List(ctx context.Context) ([]prompt.Summary, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]prompt.Summary, 0, len(items))
	for _, p := range items {
		out = append(out, prompt.Summary{Name: p.Name})
	}
	return out, nil
}

// Update applies a partial patch and returns the resulting prompt.
func (s *Service) Update(ctx context.Context, name string, upd prompt.Update) (*prompt.Prompt, error) {
	if upd.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", apperr.ErrValidation)
	}
	if upd.Name != nil {
		trimmed := strings.TrimSpace(*upd.Name)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: prompt name cannot be empty", apperr.ErrValidation)
		}
		upd.Name = &trimmed
	}
	if upd.Template != nil && strings.TrimSpace(*upd.Template) == "" {
		return nil, fmt.Errorf("%w: prompt text cannot be empty", apperr.ErrValidation)
	}

	if err := s.store.Update(ctx, name, upd); err != nil {
		return nil, err
	}

	current := name
	if upd.Name != nil {
		current = *upd.Name
	}
	s.logger.Info("prompt updated", zap.String("name", name), zap.String("current_name", current))
	return s.store.Get(ctx, current)
}

// Delete removes the prompt. Missing names are not an error. Sessions that
// still point at it keep the stale name.
func (s *Service) Delete(ctx context.Context, name string) error {
	if err := s.store.Delete(ctx, name); err != nil {
		return err
	}
	s.logger.Info("prompt deleted", zap.String("name", name))
	return nil
}
