package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openaigo "github.com/sashabaranov/go-openai"

	"github.com/zhouzirui/gamebot/backend/internal/config"
)

// OpenAIGenerator adapts the OpenAI chat completion API to Generator.
type OpenAIGenerator struct {
	client      *openaigo.Client
	model       string
	temperature float32
	topP        float32
	maxTokens   int
}

// NewOpenAIGenerator creates a client for OPENAI_BASE_URL (or the public API).
func NewOpenAIGenerator(cfg config.AIConfig) (*OpenAIGenerator, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is required for the openai provider")
	}

	clientCfg := openaigo.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}

	g := &OpenAIGenerator{
		client: openaigo.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
	if cfg.Temperature != nil {
		g.temperature = float32(*cfg.Temperature)
	}
	if cfg.TopP != nil {
		g.topP = float32(*cfg.TopP)
	}
	if cfg.MaxTokens != nil {
		g.maxTokens = *cfg.MaxTokens
	}
	return g, nil
}

// Generate implements Generator. Options are ignored; sampling comes from
// the configuration.
func (g *OpenAIGenerator) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	messages := make([]openaigo.ChatCompletionMessage, 0, len(input))
	for _, m := range input {
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	resp, err := g.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: g.temperature,
		TopP:        g.topP,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	return schema.AssistantMessage(resp.Choices[0].Message.Content, nil), nil
}
