package openai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"

	"certmap/pkg/config"
)

// Generator implements ai.Generator using an OpenAI-compatible chat API.
type Generator struct {
	client *openai.LLM
	logger *zap.Logger
}

func NewGenerator(cfg *config.OpenAIConfig, logger *zap.Logger) (*Generator, error) {
	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(cfg.Token),
		openai.WithModel(cfg.ChatModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat client: %w", err)
	}

	return &Generator{
		client: client,
		logger: logger,
	}, nil
}

func (g *Generator) Generate(ctx context.Context, model, prompt string) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}

	opts := []llms.CallOption{llms.WithTemperature(0.2)}
	if model != "" {
		opts = append(opts, llms.WithModel(model))
	}

	resp, err := g.client.GenerateContent(ctx, content, opts...)
	if err != nil {
		g.logger.Error("Failed to generate content", zap.String("model", model), zap.Error(err))
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from model")
	}

	return resp.Choices[0].Content, nil
}
