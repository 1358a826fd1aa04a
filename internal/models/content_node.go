package models

import (
	"time"

	"github.com/google/uuid"
)

// Certification is the root of an exam content outline.
type Certification struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Code      string    `db:"code"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Domain is a weighted top-level section of a certification outline.
// The embedding columns hold float32 vectors encoded by service.VectorToBytes;
// a NULL embedding means the node has not been indexed yet and is excluded
// from similarity search.
type Domain struct {
	ID                 uuid.UUID  `db:"id"`
	CertificationID    uuid.UUID  `db:"certification_id"`
	Name               string     `db:"name"`
	Weight             float64    `db:"weight"`
	Position           int        `db:"position"`
	Embedding          []byte     `db:"embedding"`
	EmbeddingUpdatedAt *time.Time `db:"embedding_updated_at"`

	Objectives []*Objective `db:"-"`
}

type Objective struct {
	ID                 uuid.UUID  `db:"id"`
	DomainID           uuid.UUID  `db:"domain_id"`
	Code               string     `db:"code"`
	Description        string     `db:"description"`
	Position           int        `db:"position"`
	Embedding          []byte     `db:"embedding"`
	EmbeddingUpdatedAt *time.Time `db:"embedding_updated_at"`

	Bullets []*Bullet `db:"-"`
}

type Bullet struct {
	ID                 uuid.UUID  `db:"id"`
	ObjectiveID        uuid.UUID  `db:"objective_id"`
	Text               string     `db:"text"`
	Position           int        `db:"position"`
	Embedding          []byte     `db:"embedding"`
	EmbeddingUpdatedAt *time.Time `db:"embedding_updated_at"`

	SubBullets []*SubBullet `db:"-"`
}

type SubBullet struct {
	ID                 uuid.UUID  `db:"id"`
	BulletID           uuid.UUID  `db:"bullet_id"`
	Text               string     `db:"text"`
	Position           int        `db:"position"`
	Embedding          []byte     `db:"embedding"`
	EmbeddingUpdatedAt *time.Time `db:"embedding_updated_at"`
}
