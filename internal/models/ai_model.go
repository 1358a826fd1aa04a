package models

import (
	"time"

	"github.com/google/uuid"
)

// AIModel is a row in the ai_models table. The single active row selects the
// generative model used by the document mapping path.
type AIModel struct {
	ID         uuid.UUID `db:"id"`
	Identifier string    `db:"identifier"`
	IsActive   bool      `db:"is_active"`
	CreatedAt  time.Time `db:"created_at"`
}
