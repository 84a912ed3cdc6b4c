//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/zhouzirui/gamebot/backend/internal/apperr"
	"github.com/zhouzirui/gamebot/backend/internal/model/chat"
	"github.com/zhouzirui/gamebot/backend/internal/model/prompt"
	"github.com/zhouzirui/gamebot/backend/internal/model/user"
	"github.com/zhouzirui/gamebot/backend/internal/storage/postgres"
)

type StoreSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool

	users    *postgres.UserStore
	prompts  *postgres.PromptStore
	sessions *postgres.SessionStore
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := tcpostgres.Run(s.ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("gamebot"),
		tcpostgres.WithUsername("gamebot"),
		tcpostgres.WithPassword("gamebot"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2*time.Minute),
		),
	)
	require.NoError(s.T(), err, "failed to start postgres container")
	s.container = container

	url, err := container.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)

	require.NoError(s.T(), postgres.Migrate(url))
	// running twice must be a no-op
	require.NoError(s.T(), postgres.Migrate(url))

	s.pool, err = postgres.Connect(s.ctx, url, 4)
	require.NoError(s.T(), err)

	logger := zap.NewNop()
	s.users = postgres.NewUserStore(s.pool, logger)
	s.prompts = postgres.NewPromptStore(s.pool, logger)
	s.sessions = postgres.NewSessionStore(s.pool, logger)
}

func (s *StoreSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *StoreSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, `TRUNCATE users, prompts, game_sessions`)
	s.Require().NoError(err)
}

func (s *StoreSuite) TestUsers() {
	u := &user.User{Name: "ada", PasswordHash: "hash"}
	s.Require().NoError(s.users.Create(s.ctx, u))
	s.NotEmpty(u.ID)
	s.False(u.CreatedAt.IsZero())

	s.ErrorIs(s.users.Create(s.ctx, &user.User{Name: "ada", PasswordHash: "x"}), apperr.ErrConflict)

	got, err := s.users.GetByName(s.ctx, "ada")
	s.Require().NoError(err)
	s.Equal(u.ID, got.ID)
	s.Equal("hash", got.PasswordHash)

	_, err = s.users.GetByName(s.ctx, "nobody")
	s.ErrorIs(err, apperr.ErrNotFound)
}

func (s *StoreSuite) TestPrompts() {
	first := "Where am I?"
	s.Require().NoError(s.prompts.Create(s.ctx, &prompt.Prompt{Name: "dungeon", Template: "You are {{ name }}'s DM", FirstUserMessage: &first}))
	s.Require().NoError(s.prompts.Create(s.ctx, &prompt.Prompt{Name: "castle", Template: "castle"}))
	s.ErrorIs(s.prompts.Create(s.ctx, &prompt.Prompt{Name: "dungeon", Template: "dup"}), apperr.ErrConflict)

	list, err := s.prompts.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("dungeon", list[0].Name)
	s.Equal("castle", list[1].Name)

	newText := "new text"
	s.Require().NoError(s.prompts.Update(s.ctx, "dungeon", prompt.Update{Template: &newText}))
	got, err := s.prompts.Get(s.ctx, "dungeon")
	s.Require().NoError(err)
	s.Equal("new text", got.Template)
	s.Require().NotNil(got.FirstUserMessage)
	s.Equal(first, *got.FirstUserMessage)

	taken := "castle"
	s.ErrorIs(s.prompts.Update(s.ctx, "dungeon", prompt.Update{Name: &taken}), apperr.ErrConflict)
	s.ErrorIs(s.prompts.Update(s.ctx, "missing", prompt.Update{Template: &newText}), apperr.ErrNotFound)

	s.Require().NoError(s.prompts.Delete(s.ctx, "dungeon"))
	s.Require().NoError(s.prompts.Delete(s.ctx, "dungeon"))
	_, err = s.prompts.Get(s.ctx, "dungeon")
	s.ErrorIs(err, apperr.ErrNotFound)
}

func (s *StoreSuite) TestSessions() {
	session := &chat.Session{UserID: "u1", PromptName: "dungeon"}
	s.Require().NoError(s.sessions.Create(s.ctx, session))
	s.NotEmpty(session.ID)
	s.ErrorIs(s.sessions.Create(s.ctx, &chat.Session{UserID: "u1", PromptName: "dungeon"}), apperr.ErrConflict)

	img := "https://cdn.example.com/scene.png"
	s.Require().NoError(s.sessions.AppendMessage(s.ctx, "u1", chat.NewMessage(chat.RoleUser, "look")))
	s.Require().NoError(s.sessions.AppendMessage(s.ctx, "u1", chat.Message{Role: chat.RoleAssistant, Content: "a room", Image: &img}))
	s.ErrorIs(s.sessions.AppendMessage(s.ctx, "u2", chat.NewMessage(chat.RoleUser, "x")), apperr.ErrNotFound)

	got, err := s.sessions.GetByUser(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal("dungeon", got.PromptName)
	s.Require().Len(got.Messages, 2)
	s.Equal(chat.RoleUser, got.Messages[0].Role)
	s.Equal("look", got.Messages[0].Content)
	s.Nil(got.Messages[0].Image)
	s.Require().NotNil(got.Messages[1].Image)
	s.Equal(img, *got.Messages[1].Image)

	s.Require().NoError(s.sessions.DeleteByUser(s.ctx, "u1"))
	s.Require().NoError(s.sessions.DeleteByUser(s.ctx, "u1"))
	_, err = s.sessions.GetByUser(s.ctx, "u1")
	s.ErrorIs(err, apperr.ErrNotFound)
}
