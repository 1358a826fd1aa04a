package service

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"certmap/internal/models"
)

// VideoMapper suggests hierarchy mappings for a video by comparing its
// transcript embedding against cached node embeddings. Suggestions prefer the
// most specific hierarchy level: once a sub-bullet matches, its parent bullet
// is not suggested, and once anything under an objective matches, the
// objective itself is not.
type VideoMapper struct {
	content        ContentStore
	hierarchy      HierarchyStore
	embeddings     *EmbeddingService
	threshold      float64
	maxSuggestions int
	logger         *zap.Logger
}

func NewVideoMapper(
	content ContentStore,
	hierarchy HierarchyStore,
	embeddings *EmbeddingService,
	threshold float64,
	maxSuggestions int,
	logger *zap.Logger,
) *VideoMapper {
	return &VideoMapper{
		content:        content,
		hierarchy:      hierarchy,
		embeddings:     embeddings,
		threshold:      threshold,
		maxSuggestions: maxSuggestions,
		logger:         logger,
	}
}

// Suggest returns ranked mapping suggestions for the video. A video without a
// completed transcript yields an empty list, not an error. Upstream embedding
// failures also degrade to an empty list with a logged diagnostic.
func (m *VideoMapper) Suggest(ctx context.Context, videoID, certificationID uuid.UUID) ([]models.MappingSuggestion, error) {
	video, err := m.content.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	transcript := strings.TrimSpace(video.Transcript)
	if video.TranscriptionStatus != models.TranscriptionCompleted || transcript == "" {
		m.logger.Info("Video has no usable transcript, skipping suggestions",
			zap.String("video_id", videoID.String()),
			zap.String("status", string(video.TranscriptionStatus)),
		)
		return []models.MappingSuggestion{}, nil
	}

	tree, err := m.hierarchy.GetCertificationTree(ctx, certificationID)
	if err != nil {
		return nil, err
	}

	transcriptVector, err := m.embeddings.Embed(ctx, transcript)
	if err != nil {
		m.logger.Error("Failed to embed transcript, returning no suggestions",
			zap.String("video_id", videoID.String()),
			zap.Error(err),
		)
		return []models.MappingSuggestion{}, nil
	}

	var suggestions []models.MappingSuggestion
	matchedBullets := make(map[uuid.UUID]bool)
	matchedObjectives := make(map[uuid.UUID]bool)

	// Pass 1: sub-bullets, the most specific level.
	for _, domain := range tree {
		for _, objective := range domain.Objectives {
			for _, bullet := range objective.Bullets {
				for _, subBullet := range bullet.SubBullets {
					confidence, ok := m.similarity(transcriptVector, subBullet.Embedding)
					if !ok || confidence < m.threshold {
						continue
					}
					suggestions = append(suggestions, models.MappingSuggestion{
						Node:          models.NodeRef{Level: models.LevelSubBullet, ID: subBullet.ID},
						Confidence:    confidence,
						DomainName:    domain.Name,
						ObjectiveCode: objective.Code,
						ObjectiveText: objective.Description,
						BulletText:    bullet.Text,
						SubBulletText: subBullet.Text,
					})
					matchedBullets[bullet.ID] = true
					matchedObjectives[objective.ID] = true
				}
			}
		}
	}

	// Pass 2: bullets whose sub-bullets produced nothing.
	for _, domain := range tree {
		for _, objective := range domain.Objectives {
			for _, bullet := range objective.Bullets {
				if matchedBullets[bullet.ID] {
					continue
				}
				confidence, ok := m.similarity(transcriptVector, bullet.Embedding)
				if !ok || confidence < m.threshold {
					continue
				}
				suggestions = append(suggestions, models.MappingSuggestion{
					Node:          models.NodeRef{Level: models.LevelBullet, ID: bullet.ID},
					Confidence:    confidence,
					DomainName:    domain.Name,
					ObjectiveCode: objective.Code,
					ObjectiveText: objective.Description,
					BulletText:    bullet.Text,
				})
				matchedObjectives[objective.ID] = true
			}
		}
	}

	// Pass 3: objectives with no matched descendants.
	for _, domain := range tree {
		for _, objective := range domain.Objectives {
			if matchedObjectives[objective.ID] {
				continue
			}
			confidence, ok := m.similarity(transcriptVector, objective.Embedding)
			if !ok || confidence < m.threshold {
				continue
			}
			suggestions = append(suggestions, models.MappingSuggestion{
				Node:          models.NodeRef{Level: models.LevelObjective, ID: objective.ID},
				Confidence:    confidence,
				DomainName:    domain.Name,
				ObjectiveCode: objective.Code,
				ObjectiveText: objective.Description,
			})
		}
	}

	suggestions = rankSuggestions(suggestions, m.maxSuggestions)

	m.logger.Info("Video mapping suggestions generated",
		zap.String("video_id", videoID.String()),
		zap.Int("count", len(suggestions)),
	)

	return suggestions, nil
}

// similarity decodes a cached node embedding and scores it against the query
// vector. Nodes without an embedding are not indexed yet and report no match.
func (m *VideoMapper) similarity(query []float32, stored []byte) (float64, bool) {
	if stored == nil {
		return 0, false
	}
	nodeVector, err := VectorFromBytes(stored)
	if err != nil {
		m.logger.Warn("Skipping node with corrupt embedding", zap.Error(err))
		return 0, false
	}
	confidence, err := CosineSimilarity(query, nodeVector)
	if err != nil {
		m.logger.Warn("Skipping node with incompatible embedding", zap.Error(err))
		return 0, false
	}
	return confidence, true
}

// rankSuggestions sorts by confidence descending, caps the list, and marks
// the single top suggestion as primary. Ties keep traversal order.
func rankSuggestions(suggestions []models.MappingSuggestion, max int) []models.MappingSuggestion {
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})

	if max > 0 && len(suggestions) > max {
		suggestions = suggestions[:max]
	}

	if len(suggestions) > 0 {
		suggestions[0].IsPrimarySuggestion = true
	}

	return suggestions
}
