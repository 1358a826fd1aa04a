package service

import (
	"context"

	"github.com/google/uuid"

	"certmap/internal/models"
)

// HierarchyStore reads and updates a certification's content outline. The
// mapping engines treat the hierarchy as read-only except for embedding
// columns.
type HierarchyStore interface {
	// GetCertificationTree returns the full domain tree, ordered by position
	// at every level, with nested objectives, bullets, and sub-bullets.
	// Fails with models.ErrNotFound for an unknown certification.
	GetCertificationTree(ctx context.Context, certificationID uuid.UUID) ([]*models.Domain, error)

	UpdateDomainEmbedding(ctx context.Context, id uuid.UUID, embedding []byte) error
	UpdateObjectiveEmbedding(ctx context.Context, id uuid.UUID, embedding []byte) error
	UpdateBulletEmbedding(ctx context.Context, id uuid.UUID, embedding []byte) error
	UpdateSubBulletEmbedding(ctx context.Context, id uuid.UUID, embedding []byte) error
}

// ContentStore reads content items.
type ContentStore interface {
	GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error)
}

// MappingStore persists content mappings. Implementations must make
// InsertBatch and SetPrimary atomic: clearing an old primary and writing the
// new one commit together or not at all.
type MappingStore interface {
	ListByContent(ctx context.Context, contentID uuid.UUID) ([]*models.ContentMapping, error)
	ExistsForNode(ctx context.Context, contentID uuid.UUID, node models.NodeRef) (bool, error)

	// InsertBatch inserts all mappings in one transaction. When clearPrimary
	// is set, any existing primary mapping for the content item is demoted
	// first, inside the same transaction. A (content item, node) collision
	// fails the whole batch with models.ErrDuplicateMapping.
	InsertBatch(ctx context.Context, contentID uuid.UUID, mappings []*models.ContentMapping, clearPrimary bool) error

	// Delete removes a mapping row. Fails with models.ErrNotFound if absent.
	Delete(ctx context.Context, mappingID uuid.UUID) error

	// SetPrimary atomically demotes the current primary for the content item
	// and promotes the given mapping.
	SetPrimary(ctx context.Context, contentID, mappingID uuid.UUID) error
}

// ModelSelector resolves the currently active generative model identifier.
// Fails with models.ErrNotFound when no active model row exists.
type ModelSelector interface {
	ActiveModel(ctx context.Context) (string, error)
}
