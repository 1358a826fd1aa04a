package openai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"certmap/pkg/config"
)

// Embedder implements ai.Embedder using an OpenAI-compatible embeddings API.
type Embedder struct {
	embedder embeddings.Embedder
	logger   *zap.Logger
}

func NewEmbedder(cfg *config.OpenAIConfig, logger *zap.Logger) (*Embedder, error) {
	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(cfg.Token),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &Embedder{
		embedder: embedder,
		logger:   logger,
	}, nil
}

func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("Failed to generate embedding", zap.Int("length", len(text)), zap.Error(err))
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedding provider returned no vectors")
	}
	return vectors[0], nil
}

func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("Failed to generate embeddings", zap.Int("count", len(texts)), zap.Error(err))
		return nil, err
	}
	return vectors, nil
}
