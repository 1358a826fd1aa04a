package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity
// search. Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates embeddings for multiple texts in one call. The
	// returned slice is in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces free-form completions from a generative model. The model
// identifier is chosen per call so callers can honor the active-model
// selection.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}
