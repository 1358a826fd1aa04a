package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"certmap/internal/models"
)

type ContentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewContentRepository(db *pgxpool.Pool, logger *zap.Logger) *ContentRepository {
	return &ContentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ContentRepository) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	query := squirrel.Select("id", "title", "transcript", "transcription_status", "storage_key", "mime_type", "created_at", "updated_at").
		From("videos").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var v models.Video
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&v.ID, &v.Title, &v.Transcript, &v.TranscriptionStatus, &v.StorageKey, &v.MimeType, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: video %s", models.ErrNotFound, id)
		}
		return nil, err
	}

	return &v, nil
}

func (r *ContentRepository) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	query := squirrel.Select("id", "title", "file_name", "file_size", "storage_key", "mime_type", "created_at", "updated_at").
		From("documents").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var d models.Document
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&d.ID, &d.Title, &d.FileName, &d.FileSize, &d.StorageKey, &d.MimeType, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: document %s", models.ErrNotFound, id)
		}
		return nil, err
	}

	return &d, nil
}
