package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEmbed_BlankInput(t *testing.T) {
	svc := NewEmbeddingService(&fakeEmbedder{}, zap.NewNop())

	for _, input := range []string{"", "   ", "\n\t  "} {
		_, err := svc.Embed(context.Background(), input)
		assert.ErrorIs(t, err, ErrEmptyInput)
	}
}

func TestEmbed_TruncatesOversizedInput(t *testing.T) {
	provider := &fakeEmbedder{defaultVector: unitVector(1)}
	svc := NewEmbeddingService(provider, zap.NewNop())

	oversized := strings.Repeat("a", maxEmbeddingChars+500)
	_, err := svc.Embed(context.Background(), oversized)
	require.NoError(t, err)

	require.Len(t, provider.calls, 1)
	require.Len(t, provider.calls[0], 1)
	assert.Len(t, provider.calls[0][0], maxEmbeddingChars)
}

func TestEmbed_PassesTextThrough(t *testing.T) {
	provider := &fakeEmbedder{vectors: map[string][]float32{
		"network security": unitVector(0.9),
	}}
	svc := NewEmbeddingService(provider, zap.NewNop())

	vector, err := svc.Embed(context.Background(), "  network security  ")
	require.NoError(t, err)
	assert.Equal(t, unitVector(0.9), vector)
}

func TestEmbedBatch_FiltersBlanks(t *testing.T) {
	provider := &fakeEmbedder{defaultVector: unitVector(1)}
	svc := NewEmbeddingService(provider, zap.NewNop())

	vectors, err := svc.EmbedBatch(context.Background(), []string{"first", "", "  ", "second"})
	require.NoError(t, err)
	assert.Len(t, vectors, 2)

	require.Len(t, provider.calls, 1)
	assert.Equal(t, []string{"first", "second"}, provider.calls[0])
}

func TestEmbedBatch_AllBlank(t *testing.T) {
	provider := &fakeEmbedder{defaultVector: unitVector(1)}
	svc := NewEmbeddingService(provider, zap.NewNop())

	_, err := svc.EmbedBatch(context.Background(), []string{"", "   "})
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Empty(t, provider.calls)
}

func TestEmbedBatch_ProviderError(t *testing.T) {
	providerErr := errors.New("rate limited")
	svc := NewEmbeddingService(&fakeEmbedder{err: providerErr}, zap.NewNop())

	_, err := svc.EmbedBatch(context.Background(), []string{"text"})
	assert.ErrorIs(t, err, providerErr)
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	// A provider that drops results must not be trusted.
	svc := NewEmbeddingService(&shortEmbedder{}, zap.NewNop())

	_, err := svc.EmbedBatch(context.Background(), []string{"one", "two"})
	assert.Error(t, err)
}

type shortEmbedder struct{}

func (s *shortEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return unitVector(1), nil
}

func (s *shortEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return [][]float32{unitVector(1)}, nil
}
