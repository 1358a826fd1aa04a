package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"certmap/internal/models"
)

// ApplyEntry is one confirmed suggestion to persist. Exactly one hierarchy ID
// must be populated.
type ApplyEntry struct {
	ObjectiveID *uuid.UUID
	BulletID    *uuid.UUID
	SubBulletID *uuid.UUID
	Confidence  float64
	IsPrimary   bool
}

// MappingSummary aggregates a content item's mappings, primary first, then
// the rest by confidence descending.
type MappingSummary struct {
	TotalMappings int
	Primary       *models.ContentMapping
	Others        []*models.ContentMapping
}

// MappingService validates mapping writes and upholds the mapping invariants:
// exactly one hierarchy level per row, at most one primary per content item,
// no duplicate (content item, node) pairs, and confidence 1.0 for manual
// mappings. Atomicity of the clear-primary-then-write sequence is delegated
// to the MappingStore.
type MappingService struct {
	mappings MappingStore
	logger   *zap.Logger
}

func NewMappingService(mappings MappingStore, logger *zap.Logger) *MappingService {
	return &MappingService{
		mappings: mappings,
		logger:   logger,
	}
}

// ApplySuggestions persists a batch of confirmed suggestions. Validation is
// all-or-nothing: one malformed entry rejects the whole batch before any
// write. Returns the number of mappings created.
func (s *MappingService) ApplySuggestions(ctx context.Context, contentID uuid.UUID, entries []ApplyEntry) (int, error) {
	if len(entries) == 0 {
		return 0, fmt.Errorf("%w: no mappings to apply", models.ErrValidation)
	}

	now := time.Now()
	rows := make([]*models.ContentMapping, 0, len(entries))
	primaries := 0

	for i, entry := range entries {
		ref, err := models.NewNodeRef(entry.ObjectiveID, entry.BulletID, entry.SubBulletID)
		if err != nil {
			return 0, fmt.Errorf("mapping %d: %w", i, err)
		}
		if entry.Confidence < 0 || entry.Confidence > 1 {
			return 0, fmt.Errorf("%w: mapping %d: confidence %v outside [0,1]", models.ErrValidation, i, entry.Confidence)
		}
		if entry.IsPrimary {
			primaries++
		}

		rows = append(rows, &models.ContentMapping{
			ID:         uuid.New(),
			ContentID:  contentID,
			Node:       ref,
			IsPrimary:  entry.IsPrimary,
			Confidence: entry.Confidence,
			Source:     models.SourceAIConfirmed,
			CreatedAt:  now,
		})
	}

	if primaries > 1 {
		return 0, fmt.Errorf("%w: batch marks %d mappings as primary, at most one allowed", models.ErrValidation, primaries)
	}

	if err := s.mappings.InsertBatch(ctx, contentID, rows, primaries > 0); err != nil {
		return 0, err
	}

	s.logger.Info("Mapping suggestions applied",
		zap.String("content_id", contentID.String()),
		zap.Int("count", len(rows)),
	)

	return len(rows), nil
}

// AddManualMapping persists one human-created mapping with confidence 1.0.
// Fails with models.ErrDuplicateMapping if the content item is already mapped
// to the same node.
func (s *MappingService) AddManualMapping(ctx context.Context, contentID uuid.UUID, objectiveID, bulletID, subBulletID *uuid.UUID, isPrimary bool) (uuid.UUID, error) {
	ref, err := models.NewNodeRef(objectiveID, bulletID, subBulletID)
	if err != nil {
		return uuid.Nil, err
	}

	exists, err := s.mappings.ExistsForNode(ctx, contentID, ref)
	if err != nil {
		return uuid.Nil, err
	}
	if exists {
		return uuid.Nil, fmt.Errorf("%w: content item is already mapped to %s %s", models.ErrDuplicateMapping, ref.Level, ref.ID)
	}

	mapping := &models.ContentMapping{
		ID:         uuid.New(),
		ContentID:  contentID,
		Node:       ref,
		IsPrimary:  isPrimary,
		Confidence: 1.0,
		Source:     models.SourceManual,
		CreatedAt:  time.Now(),
	}

	if err := s.mappings.InsertBatch(ctx, contentID, []*models.ContentMapping{mapping}, isPrimary); err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("Manual mapping added",
		zap.String("content_id", contentID.String()),
		zap.String("level", string(ref.Level)),
		zap.String("node_id", ref.ID.String()),
	)

	return mapping.ID, nil
}

// RemoveMapping deletes the mapping row. No cascading side effects.
func (s *MappingService) RemoveMapping(ctx context.Context, mappingID uuid.UUID) error {
	return s.mappings.Delete(ctx, mappingID)
}

// SetPrimary makes the given mapping the content item's single primary. The
// store performs the demote-then-promote sequence in one transaction.
func (s *MappingService) SetPrimary(ctx context.Context, contentID, mappingID uuid.UUID) error {
	return s.mappings.SetPrimary(ctx, contentID, mappingID)
}

// GetSummary returns the content item's mappings, primary first, remainder by
// confidence descending.
func (s *MappingService) GetSummary(ctx context.Context, contentID uuid.UUID) (*MappingSummary, error) {
	all, err := s.mappings.ListByContent(ctx, contentID)
	if err != nil {
		return nil, err
	}

	summary := &MappingSummary{TotalMappings: len(all)}
	for _, mapping := range all {
		if mapping.IsPrimary && summary.Primary == nil {
			summary.Primary = mapping
			continue
		}
		summary.Others = append(summary.Others, mapping)
	}

	sort.SliceStable(summary.Others, func(i, j int) bool {
		return summary.Others[i].Confidence > summary.Others[j].Confidence
	})

	return summary, nil
}
