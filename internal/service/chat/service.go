package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/zhouzirui/gamebot/backend/internal/apperr"
	"github.com/zhouzirui/gamebot/backend/internal/model/chat"
	"github.com/zhouzirui/gamebot/backend/internal/model/prompt"
)

// Completer runs one blocking language model round trip.
type Completer interface {
	Complete(ctx context.Context, messages []*schema.Message) (string, error)
}

// Reply is the result of one chat turn. Media is never generated, so Audio
// and Image are always nil.
type Reply struct {
	Message    string   `json:"message"`
	Selections []string `json:"selections"`
	Audio      *string  `json:"audio"`
	Image      *string  `json:"image"`
}

// Service runs game sessions on top of the session and prompt stores.
type Service struct {
	sessions chat.SessionStore
	prompts  prompt.Store
	llm      Completer
	logger   *zap.Logger
}

func NewService(sessions chat.SessionStore, prompts prompt.Store, llm Completer, logger *zap.Logger) *Service {
	return &Service{
		sessions: sessions,
		prompts:  prompts,
		llm:      llm,
		logger:   logger.Named("chat"),
	}
}

// CreateSession starts a game for userID on the named prompt. A user owns
// at most one session.
func (s *Service) CreateSession(ctx context.Context, userID, promptName string) (*chat.Session, error) {
	if promptName == "" {
		return nil, fmt.Errorf("%w: prompt_name is required", apperr.ErrValidation)
	}

	if _, err := s.prompts.Get(ctx, promptName); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: prompt not found: %s", apperr.ErrNotFound, promptName)
		}
		return nil, err
	}

	session := &chat.Session{
		UserID:     userID,
		PromptName: promptName,
		Messages:   []chat.Message{},
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, fmt.Errorf("%w: a session already exists for this user", apperr.ErrConflict)
		}
		return nil, err
	}

	s.logger.Info("session created",
		zap.String("user_id", userID),
		zap.String("session_id", session.ID),
		zap.String("prompt", promptName))
	return session, nil
}

// DeleteSession ends the user's game. It succeeds when there is none.
func (s *Service) DeleteSession(ctx context.Context, userID string) error {
	if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("session deleted", zap.String("user_id", userID))
	return nil
}

// History returns the stored conversation with selections derived afresh.
// A prompt that has since been deleted degrades to its name.
func (s *Service) History(ctx context.Context, userID string) (chat.History, error) {
	session, err := s.sessions.GetByUser(ctx, userID)
	if err != nil {
		return chat.History{}, noSession(err)
	}

	p, err := s.prompts.Get(ctx, session.PromptName)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return chat.History{}, err
		}
		s.logger.Warn("session prompt no longer exists",
			zap.String("user_id", userID),
			zap.String("prompt", session.PromptName))
		p = nil
	}

	return chat.NewHistory(session, p), nil
}

// Chat runs one turn. content may be nil to let the model speak without new
// player input. The user turn is persisted before the model is called and
// stays persisted if the call fails.
func (s *Service) Chat(ctx context.Context, userID string, content *string, vars map[string]any) (*Reply, error) {
	session, err := s.sessions.GetByUser(ctx, userID)
	if err != nil {
		return nil, noSession(err)
	}

	p, err := s.prompts.Get(ctx, session.PromptName)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: session prompt %q no longer exists", apperr.ErrValidation, session.PromptName)
		}
		return nil, err
	}

	system := chat.NewMessage(chat.RoleSystem, p.Template)
	if err := system.Render(vars); err != nil {
		return nil, err
	}

	// TODO: the whole history is sent on every turn; cap it once a token budget is chosen.
	payload := make([]*schema.Message, 0, len(session.Messages)+2)
	payload = append(payload, system.ToSchema())
	for _, m := range session.Messages {
		payload = append(payload, m.ToSchema())
	}

	if content != nil {
		userMsg := chat.NewMessage(chat.RoleUser, *content)
		if err := userMsg.Render(vars); err != nil {
			return nil, err
		}
		payload = append(payload, userMsg.ToSchema())
		if err := s.sessions.AppendMessage(ctx, userID, userMsg); err != nil {
			return nil, err
		}
	}

	text, err := s.llm.Complete(ctx, payload)
	if err != nil {
		s.logger.Error("chat turn failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	if err := s.sessions.AppendMessage(ctx, userID, chat.NewMessage(chat.RoleAssistant, text)); err != nil {
		return nil, err
	}

	extracted := chat.ExtractSelections(text)
	s.logger.Debug("chat turn completed",
		zap.String("user_id", userID),
		zap.Int("history", len(payload)),
		zap.Int("selections", len(extracted.Selections)))

	return &Reply{
		Message:    extracted.Message,
		Selections: extracted.Selections,
	}, nil
}

func noSession(err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("%w: no session found, please create a new session", apperr.ErrNotFound)
	}
	return err
}
