package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"certmap/internal/ai"
)

// maxEmbeddingChars is the deterministic truncation limit applied before any
// embedding request, approximating the provider's token limit at 4 characters
// per token.
const (
	maxEmbeddingTokens = 8191
	maxEmbeddingChars  = maxEmbeddingTokens * 4
)

// EmbeddingService wraps the embedding provider with input validation and
// truncation. All stored vectors in the system go through this service.
type EmbeddingService struct {
	provider ai.Embedder
	logger   *zap.Logger
}

func NewEmbeddingService(provider ai.Embedder, logger *zap.Logger) *EmbeddingService {
	return &EmbeddingService{
		provider: provider,
		logger:   logger,
	}
}

// Embed generates an embedding for a single text. Blank text fails with
// ErrEmptyInput; over-limit text is truncated before the call.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: cannot embed blank text", ErrEmptyInput)
	}

	if len(text) > maxEmbeddingChars {
		s.logger.Debug("Truncating embedding input",
			zap.Int("original_length", len(text)),
			zap.Int("truncated_length", maxEmbeddingChars),
		)
		text = text[:maxEmbeddingChars]
	}

	return s.provider.EmbedText(ctx, text)
}

// EmbedBatch generates embeddings for multiple texts in one provider call.
// Blank entries are filtered out before the call, so the result aligns with
// the filtered set, not the raw input. Fails with ErrEmptyInput if nothing
// remains after filtering.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	filtered := make([]string, 0, len(texts))
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if len(text) > maxEmbeddingChars {
			text = text[:maxEmbeddingChars]
		}
		filtered = append(filtered, text)
	}

	if len(filtered) == 0 {
		return nil, fmt.Errorf("%w: no non-blank texts to embed", ErrEmptyInput)
	}

	vectors, err := s.provider.EmbedTexts(ctx, filtered)
	if err != nil {
		return nil, err
	}

	if len(vectors) != len(filtered) {
		return nil, fmt.Errorf("embedding provider returned %d vectors for %d texts", len(vectors), len(filtered))
	}

	return vectors, nil
}
