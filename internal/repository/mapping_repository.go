package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"certmap/internal/models"
)

const pgUniqueViolation = "23505"

type MappingRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewMappingRepository(db *pgxpool.Pool, logger *zap.Logger) *MappingRepository {
	return &MappingRepository{
		db:     db,
		logger: logger,
	}
}

var mappingColumns = []string{"id", "content_id", "objective_id", "bullet_id", "sub_bullet_id", "is_primary", "confidence", "source", "created_at"}

func (r *MappingRepository) ListByContent(ctx context.Context, contentID uuid.UUID) ([]*models.ContentMapping, error) {
	query := squirrel.Select(mappingColumns...).
		From("content_mappings").
		Where(squirrel.Eq{"content_id": contentID}).
		OrderBy("is_primary DESC", "confidence DESC", "created_at ASC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []*models.ContentMapping
	for rows.Next() {
		mapping, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, mapping)
	}

	return mappings, rows.Err()
}

func (r *MappingRepository) ExistsForNode(ctx context.Context, contentID uuid.UUID, node models.NodeRef) (bool, error) {
	column, err := nodeColumn(node.Level)
	if err != nil {
		return false, err
	}

	query := squirrel.Select("1").
		From("content_mappings").
		Where(squirrel.Eq{"content_id": contentID, column: node.ID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return false, err
	}

	var one int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// InsertBatch writes all mappings in one transaction. With clearPrimary set,
// the content item's existing primary is demoted first so the
// at-most-one-primary invariant holds even under concurrent writers.
func (r *MappingRepository) InsertBatch(ctx context.Context, contentID uuid.UUID, mappings []*models.ContentMapping, clearPrimary bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if clearPrimary {
		if err := clearPrimaryMapping(ctx, tx, contentID); err != nil {
			return err
		}
	}

	insert := squirrel.Insert("content_mappings").
		Columns(mappingColumns...).
		PlaceholderFormat(squirrel.Dollar)

	for _, m := range mappings {
		objectiveID, bulletID, subBulletID := nodeColumnsValues(m.Node)
		insert = insert.Values(m.ID, m.ContentID, objectiveID, bulletID, subBulletID, m.IsPrimary, m.Confidence, m.Source, m.CreatedAt)
	}

	sql, args, err := insert.ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: %v", models.ErrDuplicateMapping, err)
		}
		return err
	}

	return tx.Commit(ctx)
}

func (r *MappingRepository) Delete(ctx context.Context, mappingID uuid.UUID) error {
	query := squirrel.Delete("content_mappings").
		Where(squirrel.Eq{"id": mappingID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: mapping %s", models.ErrNotFound, mappingID)
	}

	return nil
}

// SetPrimary demotes the current primary and promotes the given mapping in a
// single transaction.
func (r *MappingRepository) SetPrimary(ctx context.Context, contentID, mappingID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := clearPrimaryMapping(ctx, tx, contentID); err != nil {
		return err
	}

	query := squirrel.Update("content_mappings").
		Set("is_primary", true).
		Where(squirrel.Eq{"id": mappingID, "content_id": contentID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: mapping %s for content %s", models.ErrNotFound, mappingID, contentID)
	}

	return tx.Commit(ctx)
}

func clearPrimaryMapping(ctx context.Context, tx pgx.Tx, contentID uuid.UUID) error {
	query := squirrel.Update("content_mappings").
		Set("is_primary", false).
		Where(squirrel.Eq{"content_id": contentID, "is_primary": true}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, sql, args...)
	return err
}

func nodeColumn(level models.NodeLevel) (string, error) {
	switch level {
	case models.LevelObjective:
		return "objective_id", nil
	case models.LevelBullet:
		return "bullet_id", nil
	case models.LevelSubBullet:
		return "sub_bullet_id", nil
	default:
		return "", fmt.Errorf("%w: unknown hierarchy level %q", models.ErrValidation, level)
	}
}

func nodeColumnsValues(node models.NodeRef) (objectiveID, bulletID, subBulletID *uuid.UUID) {
	id := node.ID
	switch node.Level {
	case models.LevelObjective:
		objectiveID = &id
	case models.LevelBullet:
		bulletID = &id
	case models.LevelSubBullet:
		subBulletID = &id
	}
	return objectiveID, bulletID, subBulletID
}

func scanMapping(rows pgx.Rows) (*models.ContentMapping, error) {
	var (
		m           models.ContentMapping
		objectiveID *uuid.UUID
		bulletID    *uuid.UUID
		subBulletID *uuid.UUID
	)

	if err := rows.Scan(&m.ID, &m.ContentID, &objectiveID, &bulletID, &subBulletID, &m.IsPrimary, &m.Confidence, &m.Source, &m.CreatedAt); err != nil {
		return nil, err
	}

	ref, err := models.NewNodeRef(objectiveID, bulletID, subBulletID)
	if err != nil {
		return nil, fmt.Errorf("corrupt mapping row %s: %w", m.ID, err)
	}
	m.Node = ref

	return &m, nil
}
