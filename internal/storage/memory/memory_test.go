package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/gamebot/backend/internal/apperr"
	"github.com/zhouzirui/gamebot/backend/internal/model/chat"
	"github.com/zhouzirui/gamebot/backend/internal/model/prompt"
	"github.com/zhouzirui/gamebot/backend/internal/model/user"
)

func strPtr(s string) *string { return &s }

func TestPromptStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewPromptStore()

	require.NoError(t, store.Create(ctx, &prompt.Prompt{Name: "b", Template: "tb"}))
	require.NoError(t, store.Create(ctx, &prompt.Prompt{Name: "a", Template: "ta", FirstUserMessage: strPtr("hi")}))
	assert.ErrorIs(t, store.Create(ctx, &prompt.Prompt{Name: "a"}), apperr.ErrConflict)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].Name)
	assert.Equal(t, "a", list[1].Name)

	require.NoError(t, store.Update(ctx, "a", prompt.Update{Template: strPtr("new")}))
	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Template)
	assert.Equal(t, "hi", *got.FirstUserMessage)

	assert.ErrorIs(t, store.Update(ctx, "a", prompt.Update{Name: strPtr("b")}), apperr.ErrConflict)
	assert.ErrorIs(t, store.Update(ctx, "zzz", prompt.Update{Template: strPtr("x")}), apperr.ErrNotFound)

	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "a"))
	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPromptStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewPromptStore(prompt.Prompt{Name: "a", Template: "t", FirstUserMessage: strPtr("x")})

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	*got.FirstUserMessage = "mutated"

	again, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "x", *again.FirstUserMessage)
}

func TestUserStoreUniqueName(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore()

	u := &user.User{Name: "ada", PasswordHash: "h"}
	require.NoError(t, store.Create(ctx, u))
	assert.NotEmpty(t, u.ID)

	assert.ErrorIs(t, store.Create(ctx, &user.User{Name: "ada"}), apperr.ErrConflict)

	got, err := store.GetByName(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = store.GetByName(ctx, "bob")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSessionStoreOnePerUser(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	require.NoError(t, store.Create(ctx, &chat.Session{UserID: "u1", PromptName: "p"}))
	assert.ErrorIs(t, store.Create(ctx, &chat.Session{UserID: "u1", PromptName: "p"}), apperr.ErrConflict)

	require.NoError(t, store.AppendMessage(ctx, "u1", chat.NewMessage(chat.RoleUser, "one")))
	require.NoError(t, store.AppendMessage(ctx, "u1", chat.NewMessage(chat.RoleAssistant, "two")))

	got, err := store.GetByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "one", got.Messages[0].Content)
	assert.Equal(t, "two", got.Messages[1].Content)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.CreatedAt.IsZero())

	assert.ErrorIs(t, store.AppendMessage(ctx, "u2", chat.NewMessage(chat.RoleUser, "x")), apperr.ErrNotFound)

	require.NoError(t, store.DeleteByUser(ctx, "u1"))
	require.NoError(t, store.DeleteByUser(ctx, "u1"))
	_, err = store.GetByUser(ctx, "u1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
