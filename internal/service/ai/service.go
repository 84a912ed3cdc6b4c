package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/zhouzirui/gamebot/backend/internal/apperr"
	"github.com/zhouzirui/gamebot/backend/internal/config"
)

// Generator produces one assistant message for an ordered conversation.
// The Ark chat model satisfies it directly.
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Service performs a single blocking completion against the configured
// provider. It never retries.
type Service struct {
	gen      Generator
	provider string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewService builds the provider selected by cfg.Provider.
func NewService(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (*Service, error) {
	var (
		gen Generator
		err error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		gen, err = NewOpenAIGenerator(cfg)
	default:
		gen, err = cfg.NewChatModel(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s chat model: %w", cfg.Provider, err)
	}

	svc := NewServiceWithGenerator(gen, cfg.Provider, logger)
	svc.timeout = cfg.Timeout
	return svc, nil
}

// NewServiceWithGenerator wraps an existing generator.
func NewServiceWithGenerator(gen Generator, provider string, logger *zap.Logger) *Service {
	return &Service{
		gen:      gen,
		provider: provider,
		logger:   logger.Named("ai").With(zap.String("provider", provider)),
	}
}

// Complete sends messages to the model and returns the reply text. Every
// failure is reported as apperr.ErrExternal.
func (s *Service) Complete(ctx context.Context, messages []*schema.Message) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := s.gen.Generate(ctx, messages)
	duration := time.Since(start)
	llmRequestDuration.WithLabelValues(s.provider).Observe(duration.Seconds())

	if err == nil && reply == nil {
		err = errors.New("model returned no message")
	}
	if err != nil {
		llmRequestsTotal.WithLabelValues(s.provider, "error").Inc()
		s.logger.Error("completion failed",
			zap.Int("messages", len(messages)),
			zap.Duration("duration", duration),
			zap.Error(err))
		return "", fmt.Errorf("%w: language model call failed: %v", apperr.ErrExternal, err)
	}

	llmRequestsTotal.WithLabelValues(s.provider, "success").Inc()
	s.logger.Debug("completion finished",
		zap.Int("messages", len(messages)),
		zap.Int("reply_length", len(reply.Content)),
		zap.Duration("duration", duration))
	return reply.Content, nil
}
