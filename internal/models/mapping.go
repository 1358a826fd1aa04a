package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type NodeLevel string

const (
	// LevelDomain appears in hierarchy walks and stats only; mappings never
	// reference domains directly.
	LevelDomain    NodeLevel = "domain"
	LevelObjective NodeLevel = "objective"
	LevelBullet    NodeLevel = "bullet"
	LevelSubBullet NodeLevel = "sub_bullet"
)

type MappingSource string

const (
	SourceAISuggested MappingSource = "ai_suggested"
	SourceAIConfirmed MappingSource = "ai_confirmed"
	SourceManual      MappingSource = "manual"
)

// NodeRef points at exactly one node in the content hierarchy. Construct it
// with NewNodeRef so the exactly-one-level rule holds everywhere a ref exists.
type NodeRef struct {
	Level NodeLevel
	ID    uuid.UUID
}

// NewNodeRef builds a NodeRef from the three optional hierarchy IDs. Exactly
// one must be set; zero or more than one fails with ErrValidation.
func NewNodeRef(objectiveID, bulletID, subBulletID *uuid.UUID) (NodeRef, error) {
	var ref NodeRef
	count := 0

	if objectiveID != nil {
		ref = NodeRef{Level: LevelObjective, ID: *objectiveID}
		count++
	}
	if bulletID != nil {
		ref = NodeRef{Level: LevelBullet, ID: *bulletID}
		count++
	}
	if subBulletID != nil {
		ref = NodeRef{Level: LevelSubBullet, ID: *subBulletID}
		count++
	}

	if count != 1 {
		return NodeRef{}, fmt.Errorf("%w: mapping must reference exactly one hierarchy level, got %d", ErrValidation, count)
	}

	return ref, nil
}

// ContentMapping is a persisted association between a content item and one
// hierarchy node. At most one mapping per content item is primary.
type ContentMapping struct {
	ID         uuid.UUID     `db:"id"`
	ContentID  uuid.UUID     `db:"content_id"`
	Node       NodeRef       `db:"-"`
	IsPrimary  bool          `db:"is_primary"`
	Confidence float64       `db:"confidence"`
	Source     MappingSource `db:"source"`
	CreatedAt  time.Time     `db:"created_at"`
}

// MappingSuggestion is an ephemeral, ranked mapping proposal. It is not
// persisted until the caller applies it. The hierarchy snapshot fields are
// denormalized for display.
type MappingSuggestion struct {
	Node                NodeRef
	Confidence          float64
	IsPrimarySuggestion bool
	Reason              string

	DomainName     string
	ObjectiveCode  string
	ObjectiveText  string
	BulletText     string
	SubBulletText  string
}
