package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"certmap/internal/models"
)

// GenerateStats reports how many embeddings a generator run produced per
// hierarchy level. Failures lists nodes that could not be embedded; a run
// with failures is a partial success, recoverable by re-invocation because
// only nodes still lacking an embedding are retried.
type GenerateStats struct {
	Domains    int
	Objectives int
	Bullets    int
	SubBullets int
	Failures   []NodeError
}

type NodeError struct {
	NodeID uuid.UUID
	Level  models.NodeLevel
	Err    error
}

// HierarchyEmbedder walks a certification's content tree and populates cached
// embeddings for nodes that lack one. Re-running is safe: nodes that already
// carry an embedding are skipped.
type HierarchyEmbedder struct {
	hierarchy  HierarchyStore
	embeddings *EmbeddingService
	batchSize  int
	logger     *zap.Logger
}

func NewHierarchyEmbedder(hierarchy HierarchyStore, embeddings *EmbeddingService, batchSize int, logger *zap.Logger) *HierarchyEmbedder {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &HierarchyEmbedder{
		hierarchy:  hierarchy,
		embeddings: embeddings,
		batchSize:  batchSize,
		logger:     logger,
	}
}

// pendingNode is a hierarchy node awaiting an embedding, with the composite
// text to embed and the column writer for its level.
type pendingNode struct {
	id    uuid.UUID
	level models.NodeLevel
	text  string
	save  func(ctx context.Context, id uuid.UUID, embedding []byte) error
}

// Generate embeds every node under the certification that has no cached
// embedding yet. Domains are embedded one call each; objectives, bullets and
// sub-bullets are batched. A failed batch is recorded and skipped, and the
// remaining batches still run.
func (g *HierarchyEmbedder) Generate(ctx context.Context, certificationID uuid.UUID) (*GenerateStats, error) {
	tree, err := g.hierarchy.GetCertificationTree(ctx, certificationID)
	if err != nil {
		return nil, err
	}

	stats := &GenerateStats{}

	// Domains carry only their name; small cardinality, no batching needed.
	for _, domain := range tree {
		if domain.Embedding != nil {
			continue
		}
		vector, err := g.embeddings.Embed(ctx, domain.Name)
		if err != nil {
			stats.Failures = append(stats.Failures, NodeError{NodeID: domain.ID, Level: models.LevelDomain, Err: err})
			continue
		}
		if err := g.hierarchy.UpdateDomainEmbedding(ctx, domain.ID, VectorToBytes(vector)); err != nil {
			stats.Failures = append(stats.Failures, NodeError{NodeID: domain.ID, Level: models.LevelDomain, Err: err})
			continue
		}
		stats.Domains++
	}

	pending := collectPendingNodes(tree, g.hierarchy)

	for start := 0; start < len(pending); start += g.batchSize {
		end := start + g.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		texts := make([]string, len(batch))
		for i, node := range batch {
			texts[i] = node.text
		}

		vectors, err := g.embeddings.EmbedBatch(ctx, texts)
		if err != nil {
			g.logger.Error("Embedding batch failed, skipping",
				zap.Int("batch_start", start),
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
			for _, node := range batch {
				stats.Failures = append(stats.Failures, NodeError{NodeID: node.id, Level: node.level, Err: err})
			}
			continue
		}

		for i, node := range batch {
			if err := node.save(ctx, node.id, VectorToBytes(vectors[i])); err != nil {
				stats.Failures = append(stats.Failures, NodeError{NodeID: node.id, Level: node.level, Err: err})
				continue
			}
			switch node.level {
			case models.LevelObjective:
				stats.Objectives++
			case models.LevelBullet:
				stats.Bullets++
			case models.LevelSubBullet:
				stats.SubBullets++
			}
		}
	}

	g.logger.Info("Hierarchy embedding generation completed",
		zap.String("certification_id", certificationID.String()),
		zap.Int("domains", stats.Domains),
		zap.Int("objectives", stats.Objectives),
		zap.Int("bullets", stats.Bullets),
		zap.Int("sub_bullets", stats.SubBullets),
		zap.Int("failures", len(stats.Failures)),
	)

	return stats, nil
}

// collectPendingNodes gathers objectives, bullets, and sub-bullets still
// lacking an embedding, in traversal order. Each node's text includes its
// ancestor context so the vector captures where it sits in the outline, not
// just the leaf wording.
func collectPendingNodes(tree []*models.Domain, store HierarchyStore) []pendingNode {
	var pending []pendingNode

	for _, domain := range tree {
		for _, objective := range domain.Objectives {
			objectiveText := objectiveEmbeddingText(objective)
			if objective.Embedding == nil {
				pending = append(pending, pendingNode{
					id:    objective.ID,
					level: models.LevelObjective,
					text:  objectiveText,
					save:  store.UpdateObjectiveEmbedding,
				})
			}

			for _, bullet := range objective.Bullets {
				bulletText := fmt.Sprintf("%s - %s", objectiveText, bullet.Text)
				if bullet.Embedding == nil {
					pending = append(pending, pendingNode{
						id:    bullet.ID,
						level: models.LevelBullet,
						text:  bulletText,
						save:  store.UpdateBulletEmbedding,
					})
				}

				for _, subBullet := range bullet.SubBullets {
					if subBullet.Embedding != nil {
						continue
					}
					pending = append(pending, pendingNode{
						id:    subBullet.ID,
						level: models.LevelSubBullet,
						text:  fmt.Sprintf("%s - %s", bulletText, subBullet.Text),
						save:  store.UpdateSubBulletEmbedding,
					})
				}
			}
		}
	}

	return pending
}

func objectiveEmbeddingText(objective *models.Objective) string {
	return fmt.Sprintf("%s: %s", objective.Code, objective.Description)
}
