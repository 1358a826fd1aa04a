package models

import (
	"time"

	"github.com/google/uuid"
)

type TranscriptionStatus string

const (
	TranscriptionPending    TranscriptionStatus = "pending"
	TranscriptionProcessing TranscriptionStatus = "processing"
	TranscriptionCompleted  TranscriptionStatus = "completed"
	TranscriptionFailed     TranscriptionStatus = "failed"
	TranscriptionSkipped    TranscriptionStatus = "skipped"
)

// Video is a content item whose text is its transcript, populated by an
// external transcription worker.
type Video struct {
	ID                  uuid.UUID           `db:"id"`
	Title               string              `db:"title"`
	Transcript          string              `db:"transcript"`
	TranscriptionStatus TranscriptionStatus `db:"transcription_status"`
	StorageKey          string              `db:"storage_key"`
	MimeType            string              `db:"mime_type"`
	CreatedAt           time.Time           `db:"created_at"`
	UpdatedAt           time.Time           `db:"updated_at"`
}

// Document is a content item whose text is extracted on demand from object
// storage.
type Document struct {
	ID         uuid.UUID `db:"id"`
	Title      string    `db:"title"`
	FileName   string    `db:"file_name"`
	FileSize   int64     `db:"file_size"`
	StorageKey string    `db:"storage_key"`
	MimeType   string    `db:"mime_type"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}
