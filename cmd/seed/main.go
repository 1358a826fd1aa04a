package main

import (
	"context"
	"errors"
	"log"
	"time"

	"certmap/internal/models"
	"certmap/internal/repository"
	"certmap/pkg/config"
	"certmap/pkg/logger"
	"certmap/pkg/postgres"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	seedCertificationCode = "SEC-101"
	seedCertificationName = "Security Fundamentals"
	seedModelIdentifier   = "gpt-4o-mini"
)

type seedSubBullet struct {
	text string
}

type seedBullet struct {
	text       string
	subBullets []seedSubBullet
}

type seedObjective struct {
	code        string
	description string
	bullets     []seedBullet
}

type seedDomain struct {
	name       string
	weight     float64
	objectives []seedObjective
}

var seedDomains = []seedDomain{
	{
		name:   "Identity and Access Management",
		weight: 0.4,
		objectives: []seedObjective{
			{
				code:        "1.1",
				description: "Explain authentication concepts and credential storage",
				bullets: []seedBullet{
					{
						text: "Password storage and verification",
						subBullets: []seedSubBullet{
							{text: "Explain password hashing"},
							{text: "Explain salting and peppering"},
						},
					},
					{
						text: "Multi-factor authentication methods",
						subBullets: []seedSubBullet{
							{text: "Compare TOTP and hardware tokens"},
						},
					},
				},
			},
			{
				code:        "1.2",
				description: "Configure role-based access control",
				bullets: []seedBullet{
					{text: "Principle of least privilege"},
					{text: "Role and permission modeling"},
				},
			},
		},
	},
	{
		name:   "Network Security",
		weight: 0.6,
		objectives: []seedObjective{
			{
				code:        "2.1",
				description: "Describe secure network protocols and their use cases",
				bullets: []seedBullet{
					{
						text: "TLS handshake and certificate validation",
						subBullets: []seedSubBullet{
							{text: "Explain certificate chains of trust"},
						},
					},
					{text: "VPN tunneling protocols"},
				},
			},
		},
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	hierarchyRepo := repository.NewHierarchyRepository(db, appLogger)
	modelRepo := repository.NewModelRepository(db, appLogger)

	appLogger.Info("Starting database seeding")

	if err := seedCertification(ctx, hierarchyRepo, appLogger); err != nil {
		appLogger.Fatal("Failed to seed certification", zap.Error(err))
	}

	if err := seedActiveModel(ctx, modelRepo, appLogger); err != nil {
		appLogger.Fatal("Failed to seed active model", zap.Error(err))
	}

	appLogger.Info("Database seeding completed")
}

func seedCertification(ctx context.Context, repo *repository.HierarchyRepository, appLogger *zap.Logger) error {
	if id, err := repo.GetCertificationIDByCode(ctx, seedCertificationCode); err == nil {
		appLogger.Info("Certification already seeded, skipping",
			zap.String("code", seedCertificationCode),
			zap.String("id", id.String()),
		)
		return nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	now := time.Now()
	cert := &models.Certification{
		ID:        uuid.New(),
		Name:      seedCertificationName,
		Code:      seedCertificationCode,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateCertification(ctx, cert); err != nil {
		return err
	}

	for domainPos, sd := range seedDomains {
		domain := &models.Domain{
			ID:              uuid.New(),
			CertificationID: cert.ID,
			Name:            sd.name,
			Weight:          sd.weight,
			Position:        domainPos,
		}
		if err := repo.CreateDomain(ctx, domain); err != nil {
			return err
		}

		for objectivePos, so := range sd.objectives {
			objective := &models.Objective{
				ID:          uuid.New(),
				DomainID:    domain.ID,
				Code:        so.code,
				Description: so.description,
				Position:    objectivePos,
			}
			if err := repo.CreateObjective(ctx, objective); err != nil {
				return err
			}

			for bulletPos, sb := range so.bullets {
				bullet := &models.Bullet{
					ID:          uuid.New(),
					ObjectiveID: objective.ID,
					Text:        sb.text,
					Position:    bulletPos,
				}
				if err := repo.CreateBullet(ctx, bullet); err != nil {
					return err
				}

				for subPos, ss := range sb.subBullets {
					subBullet := &models.SubBullet{
						ID:       uuid.New(),
						BulletID: bullet.ID,
						Text:     ss.text,
						Position: subPos,
					}
					if err := repo.CreateSubBullet(ctx, subBullet); err != nil {
						return err
					}
				}
			}
		}
	}

	appLogger.Info("Certification seeded",
		zap.String("code", seedCertificationCode),
		zap.String("id", cert.ID.String()),
	)
	return nil
}

func seedActiveModel(ctx context.Context, repo *repository.ModelRepository, appLogger *zap.Logger) error {
	if identifier, err := repo.ActiveModel(ctx); err == nil {
		appLogger.Info("Active model already present, skipping", zap.String("identifier", identifier))
		return nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	model := &models.AIModel{
		ID:         uuid.New(),
		Identifier: seedModelIdentifier,
		IsActive:   true,
		CreatedAt:  time.Now(),
	}
	if err := repo.Create(ctx, model); err != nil {
		return err
	}

	appLogger.Info("Active model seeded", zap.String("identifier", seedModelIdentifier))
	return nil
}
