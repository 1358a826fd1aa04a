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

type HierarchyRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewHierarchyRepository(db *pgxpool.Pool, logger *zap.Logger) *HierarchyRepository {
	return &HierarchyRepository{
		db:     db,
		logger: logger,
	}
}

// GetCertificationTree loads the full outline under a certification, ordered
// by position at every level.
func (r *HierarchyRepository) GetCertificationTree(ctx context.Context, certificationID uuid.UUID) ([]*models.Domain, error) {
	if err := r.certificationExists(ctx, certificationID); err != nil {
		return nil, err
	}

	domains, err := r.listDomains(ctx, certificationID)
	if err != nil {
		return nil, err
	}

	objectivesByDomain, err := r.listObjectives(ctx, certificationID)
	if err != nil {
		return nil, err
	}

	bulletsByObjective, err := r.listBullets(ctx, certificationID)
	if err != nil {
		return nil, err
	}

	subBulletsByBullet, err := r.listSubBullets(ctx, certificationID)
	if err != nil {
		return nil, err
	}

	for _, domain := range domains {
		domain.Objectives = objectivesByDomain[domain.ID]
		for _, objective := range domain.Objectives {
			objective.Bullets = bulletsByObjective[objective.ID]
			for _, bullet := range objective.Bullets {
				bullet.SubBullets = subBulletsByBullet[bullet.ID]
			}
		}
	}

	return domains, nil
}

func (r *HierarchyRepository) certificationExists(ctx context.Context, certificationID uuid.UUID) error {
	query := squirrel.Select("id").
		From("certifications").
		Where(squirrel.Eq{"id": certificationID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	var id uuid.UUID
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: certification %s", models.ErrNotFound, certificationID)
		}
		return err
	}

	return nil
}

func (r *HierarchyRepository) listDomains(ctx context.Context, certificationID uuid.UUID) ([]*models.Domain, error) {
	query := squirrel.Select("id", "certification_id", "name", "weight", "position", "embedding", "embedding_updated_at").
		From("domains").
		Where(squirrel.Eq{"certification_id": certificationID}).
		OrderBy("position ASC").
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

	var domains []*models.Domain
	for rows.Next() {
		var d models.Domain
		if err := rows.Scan(&d.ID, &d.CertificationID, &d.Name, &d.Weight, &d.Position, &d.Embedding, &d.EmbeddingUpdatedAt); err != nil {
			return nil, err
		}
		domains = append(domains, &d)
	}

	return domains, rows.Err()
}

func (r *HierarchyRepository) listObjectives(ctx context.Context, certificationID uuid.UUID) (map[uuid.UUID][]*models.Objective, error) {
	query := squirrel.Select("o.id", "o.domain_id", "o.code", "o.description", "o.position", "o.embedding", "o.embedding_updated_at").
		From("objectives o").
		Join("domains d ON o.domain_id = d.id").
		Where(squirrel.Eq{"d.certification_id": certificationID}).
		OrderBy("d.position ASC", "o.position ASC").
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

	result := make(map[uuid.UUID][]*models.Objective)
	for rows.Next() {
		var o models.Objective
		if err := rows.Scan(&o.ID, &o.DomainID, &o.Code, &o.Description, &o.Position, &o.Embedding, &o.EmbeddingUpdatedAt); err != nil {
			return nil, err
		}
		result[o.DomainID] = append(result[o.DomainID], &o)
	}

	return result, rows.Err()
}

func (r *HierarchyRepository) listBullets(ctx context.Context, certificationID uuid.UUID) (map[uuid.UUID][]*models.Bullet, error) {
	query := squirrel.Select("b.id", "b.objective_id", "b.text", "b.position", "b.embedding", "b.embedding_updated_at").
		From("bullets b").
		Join("objectives o ON b.objective_id = o.id").
		Join("domains d ON o.domain_id = d.id").
		Where(squirrel.Eq{"d.certification_id": certificationID}).
		OrderBy("o.position ASC", "b.position ASC").
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

	result := make(map[uuid.UUID][]*models.Bullet)
	for rows.Next() {
		var b models.Bullet
		if err := rows.Scan(&b.ID, &b.ObjectiveID, &b.Text, &b.Position, &b.Embedding, &b.EmbeddingUpdatedAt); err != nil {
			return nil, err
		}
		result[b.ObjectiveID] = append(result[b.ObjectiveID], &b)
	}

	return result, rows.Err()
}

func (r *HierarchyRepository) listSubBullets(ctx context.Context, certificationID uuid.UUID) (map[uuid.UUID][]*models.SubBullet, error) {
	query := squirrel.Select("sb.id", "sb.bullet_id", "sb.text", "sb.position", "sb.embedding", "sb.embedding_updated_at").
		From("sub_bullets sb").
		Join("bullets b ON sb.bullet_id = b.id").
		Join("objectives o ON b.objective_id = o.id").
		Join("domains d ON o.domain_id = d.id").
		Where(squirrel.Eq{"d.certification_id": certificationID}).
		OrderBy("b.position ASC", "sb.position ASC").
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

	result := make(map[uuid.UUID][]*models.SubBullet)
	for rows.Next() {
		var sb models.SubBullet
		if err := rows.Scan(&sb.ID, &sb.BulletID, &sb.Text, &sb.Position, &sb.Embedding, &sb.EmbeddingUpdatedAt); err != nil {
			return nil, err
		}
		result[sb.BulletID] = append(result[sb.BulletID], &sb)
	}

	return result, rows.Err()
}

func (r *HierarchyRepository) UpdateDomainEmbedding(ctx context.Context, id uuid.UUID, embedding []byte) error {
	return r.updateEmbedding(ctx, "domains", id, embedding)
}

func (r *HierarchyRepository) UpdateObjectiveEmbedding(ctx context.Context, id uuid.UUID, embedding []byte) error {
	return r.updateEmbedding(ctx, "objectives", id, embedding)
}

func (r *HierarchyRepository) UpdateBulletEmbedding(ctx context.Context, id uuid.UUID, embedding []byte) error {
	return r.updateEmbedding(ctx, "bullets", id, embedding)
}

func (r *HierarchyRepository) UpdateSubBulletEmbedding(ctx context.Context, id uuid.UUID, embedding []byte) error {
	return r.updateEmbedding(ctx, "sub_bullets", id, embedding)
}

func (r *HierarchyRepository) CreateCertification(ctx context.Context, cert *models.Certification) error {
	query := squirrel.Insert("certifications").
		Columns("id", "name", "code", "created_at", "updated_at").
		Values(cert.ID, cert.Name, cert.Code, cert.CreatedAt, cert.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *HierarchyRepository) GetCertificationIDByCode(ctx context.Context, code string) (uuid.UUID, error) {
	query := squirrel.Select("id").
		From("certifications").
		Where(squirrel.Eq{"code": code}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("%w: certification code %s", models.ErrNotFound, code)
		}
		return uuid.Nil, err
	}

	return id, nil
}

func (r *HierarchyRepository) CreateDomain(ctx context.Context, domain *models.Domain) error {
	query := squirrel.Insert("domains").
		Columns("id", "certification_id", "name", "weight", "position").
		Values(domain.ID, domain.CertificationID, domain.Name, domain.Weight, domain.Position).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *HierarchyRepository) CreateObjective(ctx context.Context, objective *models.Objective) error {
	query := squirrel.Insert("objectives").
		Columns("id", "domain_id", "code", "description", "position").
		Values(objective.ID, objective.DomainID, objective.Code, objective.Description, objective.Position).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *HierarchyRepository) CreateBullet(ctx context.Context, bullet *models.Bullet) error {
	query := squirrel.Insert("bullets").
		Columns("id", "objective_id", "text", "position").
		Values(bullet.ID, bullet.ObjectiveID, bullet.Text, bullet.Position).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *HierarchyRepository) CreateSubBullet(ctx context.Context, subBullet *models.SubBullet) error {
	query := squirrel.Insert("sub_bullets").
		Columns("id", "bullet_id", "text", "position").
		Values(subBullet.ID, subBullet.BulletID, subBullet.Text, subBullet.Position).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *HierarchyRepository) updateEmbedding(ctx context.Context, table string, id uuid.UUID, embedding []byte) error {
	query := squirrel.Update(table).
		Set("embedding", embedding).
		Set("embedding_updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
