package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"certmap/internal/models"
)

// ModelRepository resolves the active generative model from the ai_models
// table.
type ModelRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewModelRepository(db *pgxpool.Pool, logger *zap.Logger) *ModelRepository {
	return &ModelRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ModelRepository) ActiveModel(ctx context.Context) (string, error) {
	query := squirrel.Select("identifier").
		From("ai_models").
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("created_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return "", err
	}

	var identifier string
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&identifier); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: no active model", models.ErrNotFound)
		}
		return "", err
	}

	return identifier, nil
}

func (r *ModelRepository) Create(ctx context.Context, model *models.AIModel) error {
	query := squirrel.Insert("ai_models").
		Columns("id", "identifier", "is_active", "created_at").
		Values(model.ID, model.Identifier, model.IsActive, model.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
