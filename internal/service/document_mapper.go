package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"certmap/internal/ai"
	"certmap/internal/models"
)

// DocumentMapper suggests hierarchy mappings for a document by sending its
// extracted text plus the full content tree to a generative model and
// re-validating the structured response. Unlike the video path, this path
// needs no pre-computed embeddings.
type DocumentMapper struct {
	content          ContentStore
	hierarchy        HierarchyStore
	extraction       *ExtractionService
	generator        ai.Generator
	modelSelector    ModelSelector
	defaultModel     string
	threshold        float64
	maxSuggestions   int
	maxDocumentChars int
	logger           *zap.Logger
}

func NewDocumentMapper(
	content ContentStore,
	hierarchy HierarchyStore,
	extraction *ExtractionService,
	generator ai.Generator,
	modelSelector ModelSelector,
	defaultModel string,
	threshold float64,
	maxSuggestions int,
	maxDocumentChars int,
	logger *zap.Logger,
) *DocumentMapper {
	return &DocumentMapper{
		content:          content,
		hierarchy:        hierarchy,
		extraction:       extraction,
		generator:        generator,
		modelSelector:    modelSelector,
		defaultModel:     defaultModel,
		threshold:        threshold,
		maxSuggestions:   maxSuggestions,
		maxDocumentChars: maxDocumentChars,
		logger:           logger,
	}
}

// llmMatch is the shape each element of the model's JSON array must have.
// Exactly one of the three ID fields may be populated.
type llmMatch struct {
	ObjectiveID string  `json:"objectiveId"`
	BulletID    string  `json:"bulletId"`
	SubBulletID string  `json:"subBulletId"`
	Confidence  float64 `json:"confidence"`
	Reason      string  `json:"reason"`
}

// nodeContext locates a hierarchy node and carries its display snapshot.
type nodeContext struct {
	level         models.NodeLevel
	domainName    string
	objectiveCode string
	objectiveText string
	bulletText    string
	subBulletText string
}

// Suggest returns ranked mapping suggestions for the document. Model
// failures, malformed responses, and unextractable documents all degrade to
// an empty list with a logged diagnostic; only missing records and store
// failures surface as errors.
func (m *DocumentMapper) Suggest(ctx context.Context, documentID, certificationID uuid.UUID) ([]models.MappingSuggestion, error) {
	var (
		document *models.Document
		tree     []*models.Domain
	)

	// The document row and the content tree are independent reads.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		document, err = m.content.GetDocument(gctx, documentID)
		return err
	})
	g.Go(func() error {
		var err error
		tree, err = m.hierarchy.GetCertificationTree(gctx, certificationID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	text, err := m.extraction.ExtractText(ctx, document.StorageKey, document.MimeType)
	if err != nil {
		m.logger.Error("Document extraction failed, returning no suggestions",
			zap.String("document_id", documentID.String()),
			zap.Error(err),
		)
		return []models.MappingSuggestion{}, nil
	}

	text = Truncate(text, m.maxDocumentChars)
	if strings.TrimSpace(text) == "" {
		m.logger.Info("Document has no extractable text, skipping suggestions",
			zap.String("document_id", documentID.String()),
		)
		return []models.MappingSuggestion{}, nil
	}

	model := m.activeModel(ctx)
	prompt := buildMappingPrompt(text, tree, m.threshold, m.maxSuggestions)

	raw, err := m.generator.Generate(ctx, model, prompt)
	if err != nil {
		m.logger.Error("Generative model call failed, returning no suggestions",
			zap.String("document_id", documentID.String()),
			zap.String("model", model),
			zap.Error(err),
		)
		return []models.MappingSuggestion{}, nil
	}

	matches, ok := m.parseMatches(raw)
	if !ok {
		return []models.MappingSuggestion{}, nil
	}

	index := indexTree(tree)
	suggestions := m.reconcile(matches, index)
	suggestions = rankSuggestions(suggestions, m.maxSuggestions)

	m.logger.Info("Document mapping suggestions generated",
		zap.String("document_id", documentID.String()),
		zap.String("model", model),
		zap.Int("count", len(suggestions)),
	)

	return suggestions, nil
}

// activeModel consults the model selector once per call, falling back to the
// configured default when no active model row exists.
func (m *DocumentMapper) activeModel(ctx context.Context) string {
	identifier, err := m.modelSelector.ActiveModel(ctx)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			m.logger.Warn("Active model lookup failed, using default", zap.Error(err))
		}
		return m.defaultModel
	}
	return identifier
}

// parseMatches treats the model output as untrusted: it strips optional
// markdown code fences, slices out the outermost JSON array, and tolerates
// nothing else. Any parse failure means no suggestions.
func (m *DocumentMapper) parseMatches(raw string) ([]llmMatch, bool) {
	content := strings.TrimSpace(raw)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	jsonStart := strings.Index(content, "[")
	jsonEnd := strings.LastIndex(content, "]")
	if jsonStart == -1 || jsonEnd == -1 || jsonEnd < jsonStart {
		m.logger.Warn("Model response contains no JSON array", zap.String("response", Preview(content, 50)))
		return nil, false
	}

	var matches []llmMatch
	if err := json.Unmarshal([]byte(content[jsonStart:jsonEnd+1]), &matches); err != nil {
		m.logger.Warn("Failed to parse model response", zap.Error(err))
		return nil, false
	}

	return matches, true
}

// reconcile validates each match against the known tree, silently dropping
// hallucinated or malformed entries, and attaches hierarchy context for
// display. Duplicate node references keep only the first occurrence.
func (m *DocumentMapper) reconcile(matches []llmMatch, index map[uuid.UUID]nodeContext) []models.MappingSuggestion {
	var suggestions []models.MappingSuggestion
	seen := make(map[uuid.UUID]bool)

	for _, match := range matches {
		ref, ok := parseMatchRef(match)
		if !ok {
			m.logger.Warn("Dropping malformed match from model response")
			continue
		}

		nodeCtx, known := index[ref.ID]
		if !known || nodeCtx.level != ref.Level {
			m.logger.Warn("Dropping hallucinated node reference",
				zap.String("node_id", ref.ID.String()),
				zap.String("level", string(ref.Level)),
			)
			continue
		}

		if match.Confidence < m.threshold || seen[ref.ID] {
			continue
		}
		seen[ref.ID] = true

		suggestions = append(suggestions, models.MappingSuggestion{
			Node:          ref,
			Confidence:    match.Confidence,
			Reason:        match.Reason,
			DomainName:    nodeCtx.domainName,
			ObjectiveCode: nodeCtx.objectiveCode,
			ObjectiveText: nodeCtx.objectiveText,
			BulletText:    nodeCtx.bulletText,
			SubBulletText: nodeCtx.subBulletText,
		})
	}

	return suggestions
}

func parseMatchRef(match llmMatch) (models.NodeRef, bool) {
	ids := map[models.NodeLevel]string{
		models.LevelObjective: strings.TrimSpace(match.ObjectiveID),
		models.LevelBullet:    strings.TrimSpace(match.BulletID),
		models.LevelSubBullet: strings.TrimSpace(match.SubBulletID),
	}

	var ref models.NodeRef
	count := 0
	for level, raw := range ids {
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return models.NodeRef{}, false
		}
		ref = models.NodeRef{Level: level, ID: id}
		count++
	}

	if count != 1 {
		return models.NodeRef{}, false
	}
	return ref, true
}

func indexTree(tree []*models.Domain) map[uuid.UUID]nodeContext {
	index := make(map[uuid.UUID]nodeContext)
	for _, domain := range tree {
		for _, objective := range domain.Objectives {
			index[objective.ID] = nodeContext{
				level:         models.LevelObjective,
				domainName:    domain.Name,
				objectiveCode: objective.Code,
				objectiveText: objective.Description,
			}
			for _, bullet := range objective.Bullets {
				index[bullet.ID] = nodeContext{
					level:         models.LevelBullet,
					domainName:    domain.Name,
					objectiveCode: objective.Code,
					objectiveText: objective.Description,
					bulletText:    bullet.Text,
				}
				for _, subBullet := range bullet.SubBullets {
					index[subBullet.ID] = nodeContext{
						level:         models.LevelSubBullet,
						domainName:    domain.Name,
						objectiveCode: objective.Code,
						objectiveText: objective.Description,
						bulletText:    bullet.Text,
						subBulletText: subBullet.Text,
					}
				}
			}
		}
	}
	return index
}

// buildMappingPrompt serializes the content tree with node IDs and instructs
// the model to return a strict JSON array of matches, preferring the lowest
// hierarchy level it can justify.
func buildMappingPrompt(text string, tree []*models.Domain, threshold float64, maxMatches int) string {
	var outline strings.Builder
	for _, domain := range tree {
		outline.WriteString(fmt.Sprintf("Domain: %s\n", domain.Name))
		for _, objective := range domain.Objectives {
			outline.WriteString(fmt.Sprintf("  Objective [objectiveId=%s] %s: %s\n", objective.ID, objective.Code, objective.Description))
			for _, bullet := range objective.Bullets {
				outline.WriteString(fmt.Sprintf("    Bullet [bulletId=%s] %s\n", bullet.ID, bullet.Text))
				for _, subBullet := range bullet.SubBullets {
					outline.WriteString(fmt.Sprintf("      Sub-bullet [subBulletId=%s] %s\n", subBullet.ID, subBullet.Text))
				}
			}
		}
	}

	return fmt.Sprintf(`You are an expert in certification exam content. Analyze the document text below against the exam content outline and identify which outline entries the document teaches.

IMPORTANT: Return ONLY a valid JSON array, with no extra commentary.

Exam content outline:
%s

Document text:
%s

Return a JSON array of at most %d matches in this format:
[
  {
    "objectiveId": "" ,
    "bulletId": "",
    "subBulletId": "",
    "confidence": 0.0,
    "reason": "one sentence explaining the match"
  }
]

RULES:
- Populate EXACTLY ONE of objectiveId, bulletId, subBulletId per match, copying the ID from the outline verbatim; leave the other two as empty strings
- Always prefer the most specific level: a sub-bullet over its bullet, a bullet over its objective
- Only include matches with confidence %.1f or higher
- If the document matches nothing, return an empty array: []
- Return ONLY the JSON array, without markdown fences or comments`, outline.String(), text, maxMatches, threshold)
}
