package prompt

import "context"

// Store persists prompts keyed by name.
//
// Create fails with apperr.ErrConflict on a duplicate name, Get and Update
// with apperr.ErrNotFound when the name is unknown. Delete is idempotent.
// List returns prompts in creation order.
type Store interface {
	Create(ctx context.Context, p *Prompt) error
	Get(ctx context.Context, name string) (*Prompt, error)
	List(ctx context.Context) ([]Prompt, error)
	Update(ctx context.Context, name string, upd Update) error
	Delete(ctx context.Context, name string) error
}
