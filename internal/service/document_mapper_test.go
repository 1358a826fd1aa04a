package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"certmap/internal/models"
)

type documentMapperFixture struct {
	mapper     *DocumentMapper
	generator  *fakeGenerator
	documentID uuid.UUID
	certID     uuid.UUID
	tree       []*models.Domain
}

func newDocumentMapperFixture(t *testing.T, documentText string, generator *fakeGenerator, selector *fakeModelSelector) *documentMapperFixture {
	t.Helper()

	document := &models.Document{
		ID:         uuid.New(),
		Title:      "Hashing study guide",
		FileName:   "guide.txt",
		StorageKey: "docs/guide.txt",
		MimeType:   "text/plain",
	}
	tree := securityTree()
	certID := uuid.New()

	content := &fakeContentStore{documents: map[uuid.UUID]*models.Document{document.ID: document}}
	hierarchy := &fakeHierarchyStore{certificationID: certID, tree: tree}
	store := &fakeObjectStore{objects: map[string][]byte{document.StorageKey: []byte(documentText)}}
	extraction := NewExtractionService(store, zap.NewNop())

	mapper := NewDocumentMapper(content, hierarchy, extraction, generator, selector, "gpt-4o-mini", 0.6, 5, 50000, zap.NewNop())
	return &documentMapperFixture{
		mapper:     mapper,
		generator:  generator,
		documentID: document.ID,
		certID:     certID,
		tree:       tree,
	}
}

func TestDocumentSuggest_ParsesFencedResponse(t *testing.T) {
	generator := &fakeGenerator{}
	fx := newDocumentMapperFixture(t, "All about salting and peppering passwords.", generator, &fakeModelSelector{identifier: "gpt-4o"})
	subID := fx.tree[0].Objectives[0].Bullets[0].SubBullets[0].ID
	generator.response = fmt.Sprintf("```json\n[{\"subBulletId\": %q, \"confidence\": 0.85, \"reason\": \"covers salting directly\"}]\n```", subID)

	suggestions, err := fx.mapper.Suggest(context.Background(), fx.documentID, fx.certID)
	require.NoError(t, err)

	require.Len(t, suggestions, 1)
	got := suggestions[0]
	assert.Equal(t, models.NodeRef{Level: models.LevelSubBullet, ID: subID}, got.Node)
	assert.InDelta(t, 0.85, got.Confidence, 1e-9)
	assert.Equal(t, "covers salting directly", got.Reason)
	assert.True(t, got.IsPrimarySuggestion)
	assert.Equal(t, "Cryptography", got.DomainName)
	assert.Equal(t, "Explain salting and peppering", got.SubBulletText)
	assert.Equal(t, "gpt-4o", fx.generator.lastModel)
}

func TestDocumentSuggest_ParsesProseWrappedArray(t *testing.T) {
	generator := &fakeGenerator{}
	fx := newDocumentMapperFixture(t, "Firewall configuration walkthrough.", generator, &fakeModelSelector{identifier: "gpt-4o"})
	objectiveID := fx.tree[1].Objectives[0].ID
	generator.response = fmt.Sprintf("Here are the matches I found:\n[{\"objectiveId\": %q, \"confidence\": 0.7, \"reason\": \"network focus\"}]\nLet me know if you need more.", objectiveID)

	suggestions, err := fx.mapper.Suggest(context.Background(), fx.documentID, fx.certID)
	require.NoError(t, err)

	require.Len(t, suggestions, 1)
	assert.Equal(t, objectiveID, suggestions[0].Node.ID)
}

func TestDocumentSuggest_DropsHallucinatedAndMalformedMatches(t *testing.T) {
	generator := &fakeGenerator{}
	fx := newDocumentMapperFixture(t, "Mixed content.", generator, &fakeModelSelector{identifier: "gpt-4o"})
	realBulletID := fx.tree[0].Objectives[0].Bullets[0].ID
	generator.response = fmt.Sprintf(`[
		{"bulletId": %q, "confidence": 0.9, "reason": "real"},
		{"bulletId": %q, "confidence": 0.95, "reason": "invented id"},
		{"objectiveId": %q, "confidence": 0.9, "reason": "right id, wrong level"},
		{"objectiveId": %q, "bulletId": %q, "confidence": 0.9, "reason": "two ids"},
		{"subBulletId": "not-a-uuid", "confidence": 0.9, "reason": "garbage id"},
		{"confidence": 0.9, "reason": "no id at all"}
	]`, realBulletID, uuid.New(), realBulletID, fx.tree[0].Objectives[0].ID, realBulletID)

	suggestions, err := fx.mapper.Suggest(context.Background(), fx.documentID, fx.certID)
	require.NoError(t, err)

	require.Len(t, suggestions, 1)
	assert.Equal(t, realBulletID, suggestions[0].Node.ID)
	assert.Equal(t, "real", suggestions[0].Reason)
}

func TestDocumentSuggest_DeduplicatesAndRefilters(t *testing.T) {
	generator := &fakeGenerator{}
	fx := newDocumentMapperFixture(t, "Hashing content.", generator, &fakeModelSelector{identifier: "gpt-4o"})
	bulletID := fx.tree[0].Objectives[0].Bullets[0].ID
	subID := fx.tree[0].Objectives[0].Bullets[0].SubBullets[0].ID
	generator.response = fmt.Sprintf(`[
		{"bulletId": %q, "confidence": 0.8, "reason": "first"},
		{"bulletId": %q, "confidence": 0.7, "reason": "repeat of first"},
		{"subBulletId": %q, "confidence": 0.4, "reason": "model ignored the threshold"}
	]`, bulletID, bulletID, subID)

	suggestions, err := fx.mapper.Suggest(context.Background(), fx.documentID, fx.certID)
	require.NoError(t, err)

	require.Len(t, suggestions, 1)
	assert.Equal(t, bulletID, suggestions[0].Node.ID)
	assert.Equal(t, "first", suggestions[0].Reason)
}

func TestDocumentSuggest_EmptyDocumentSkipsModel(t *testing.T) {
	generator := &fakeGenerator{response: "[]"}
	fx := newDocumentMapperFixture(t, "   \n  ", generator, &fakeModelSelector{identifier: "gpt-4o"})

	suggestions, err := fx.mapper.Suggest(context.Background(), fx.documentID, fx.certID)
	require.NoError(t, err)

	assert.Empty(t, suggestions)
	assert.Equal(t, 0, generator.calls, "blank documents must not reach the model")
}

func TestDocumentSuggest_ModelFailureDegrades(t *testing.T) {
	generator := &fakeGenerator{err: errors.New("model overloaded")}
	fx := newDocumentMapperFixture(t, "Some text.", generator, &fakeModelSelector{identifier: "gpt-4o"})

	suggestions, err := fx.mapper.Suggest(context.Background(), fx.documentID, fx.certID)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestDocumentSuggest_UnparseableResponseDegrades(t *testing.T) {
	for _, response := range []string{
		"I could not find any matches, sorry.",
		"{\"not\": \"an array\"}",
		"[{broken json",
	} {
		generator := &fakeGenerator{response: response}
		fx := newDocumentMapperFixture(t, "Some text.", generator, &fakeModelSelector{identifier: "gpt-4o"})

		suggestions, err := fx.mapper.Suggest(context.Background(), fx.documentID, fx.certID)
		require.NoError(t, err)
		assert.Empty(t, suggestions)
	}
}

func TestDocumentSuggest_ExtractionFailureDegrades(t *testing.T) {
	generator := &fakeGenerator{response: "[]"}
	fx := newDocumentMapperFixture(t, "irrelevant", generator, &fakeModelSelector{identifier: "gpt-4o"})

	// Swap the document's MIME type to something unsupported.
	content := &fakeContentStore{documents: map[uuid.UUID]*models.Document{
		fx.documentID: {ID: fx.documentID, StorageKey: "docs/clip.mp4", MimeType: "video/mp4"},
	}}
	hierarchy := &fakeHierarchyStore{certificationID: fx.certID, tree: fx.tree}
	extraction := NewExtractionService(&fakeObjectStore{}, zap.NewNop())
	mapper := NewDocumentMapper(content, hierarchy, extraction, generator, &fakeModelSelector{identifier: "gpt-4o"}, "gpt-4o-mini", 0.6, 5, 50000, zap.NewNop())

	suggestions, err := mapper.Suggest(context.Background(), fx.documentID, fx.certID)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
	assert.Equal(t, 0, generator.calls)
}

func TestDocumentSuggest_ModelSelectorFallback(t *testing.T) {
	t.Run("no active model uses default", func(t *testing.T) {
		generator := &fakeGenerator{response: "[]"}
		fx := newDocumentMapperFixture(t, "Some text.", generator, &fakeModelSelector{err: models.ErrNotFound})

		_, err := fx.mapper.Suggest(context.Background(), fx.documentID, fx.certID)
		require.NoError(t, err)
		assert.Equal(t, "gpt-4o-mini", generator.lastModel)
	})

	t.Run("selector failure uses default", func(t *testing.T) {
		generator := &fakeGenerator{response: "[]"}
		fx := newDocumentMapperFixture(t, "Some text.", generator, &fakeModelSelector{err: errors.New("db down")})

		_, err := fx.mapper.Suggest(context.Background(), fx.documentID, fx.certID)
		require.NoError(t, err)
		assert.Equal(t, "gpt-4o-mini", generator.lastModel)
	})
}

func TestDocumentSuggest_PromptCarriesOutlineAndText(t *testing.T) {
	generator := &fakeGenerator{response: "[]"}
	fx := newDocumentMapperFixture(t, "Salting passwords before hashing.", generator, &fakeModelSelector{identifier: "gpt-4o"})

	_, err := fx.mapper.Suggest(context.Background(), fx.documentID, fx.certID)
	require.NoError(t, err)

	subID := fx.tree[0].Objectives[0].Bullets[0].SubBullets[0].ID
	assert.Contains(t, generator.lastPrompt, "Salting passwords before hashing.")
	assert.Contains(t, generator.lastPrompt, fmt.Sprintf("subBulletId=%s", subID))
	assert.Contains(t, generator.lastPrompt, "Domain: Cryptography")
}

func TestDocumentSuggest_UnknownDocument(t *testing.T) {
	generator := &fakeGenerator{response: "[]"}
	fx := newDocumentMapperFixture(t, "text", generator, &fakeModelSelector{identifier: "gpt-4o"})

	_, err := fx.mapper.Suggest(context.Background(), uuid.New(), fx.certID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
