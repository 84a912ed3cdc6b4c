// Package memory implements the stores in process memory. It backs the
// "memory" storage driver used for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zhouzirui/gamebot/backend/internal/apperr"
	"github.com/zhouzirui/gamebot/backend/internal/model/prompt"
)

var _ prompt.Store = (*PromptStore)(nil)

// PromptStore keeps prompts in insertion order.
type PromptStore struct {
	mu    sync.RWMutex
	items []prompt.Prompt
}

// NewPromptStore returns a PromptStore preloaded with the supplied prompts.
func NewPromptStore(items ...prompt.Prompt) *PromptStore {
	return &PromptStore{items: append([]prompt.Prompt(nil), items...)}
}

func (s *PromptStore) Create(_ context.Context, p *prompt.Prompt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(p.Name) >= 0 {
		return fmt.Errorf("%w: prompt %q", apperr.ErrConflict, p.Name)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.items = append(s.items, clonePrompt(*p))
	return nil
}

func (s *PromptStore) Get(_ context.Context, name string) (*prompt.Prompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: prompt %q", apperr.ErrNotFound, name)
	}
	p := clonePrompt(s.items[idx])
	return &p, nil
}

func (s *PromptStore) List(_ context.Context) ([]prompt.Prompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]prompt.Prompt, 0, len(s.items))
	for _, p := range s.items {
		out = append(out, clonePrompt(p))
	}
	return out, nil
}

func (s *PromptStore) Update(_ context.Context, name string, upd prompt.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(name)
	if idx < 0 {
		return fmt.Errorf("%w: prompt %q", apperr.ErrNotFound, name)
	}
	if upd.Renames(name) && s.indexOf(*upd.Name) >= 0 {
		return fmt.Errorf("%w: prompt %q", apperr.ErrConflict, *upd.Name)
	}
	upd.Apply(&s.items[idx])
	return nil
}

func (s *PromptStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOf(name); idx >= 0 {
		s.items = append(s.items[:idx], s.items[idx+1:]...)
	}
	return nil
}

func (s *PromptStore) indexOf(name string) int {
	for i, item := range s.items {
		if item.Name == name {
			return i
		}
	}
	return -1
}

func clonePrompt(p prompt.Prompt) prompt.Prompt {
	if p.FirstUserMessage != nil {
		v := *p.FirstUserMessage
		p.FirstUserMessage = &v
	}
	return p
}
