package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"certmap/internal/dto"
	"certmap/internal/models"
	"certmap/internal/service"
)

type EmbeddingHandler struct {
	embedder *service.HierarchyEmbedder
	logger   *zap.Logger
}

func NewEmbeddingHandler(embedder *service.HierarchyEmbedder, logger *zap.Logger) *EmbeddingHandler {
	return &EmbeddingHandler{
		embedder: embedder,
		logger:   logger,
	}
}

// GenerateEmbeddings populates cached embeddings for every outline node of a
// certification that still lacks one. Safe to re-run; a second invocation on
// a fully indexed certification reports all-zero counts.
func (h *EmbeddingHandler) GenerateEmbeddings(c *fiber.Ctx) error {
	certificationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid certification ID",
		})
	}

	stats, err := h.embedder.Generate(c.Context(), certificationID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		h.logger.Error("Failed to generate embeddings", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate embeddings",
		})
	}

	resp := dto.GenerateEmbeddingsResponse{
		Domains:    stats.Domains,
		Objectives: stats.Objectives,
		Bullets:    stats.Bullets,
		SubBullets: stats.SubBullets,
	}
	for _, failure := range stats.Failures {
		resp.Failures = append(resp.Failures, dto.NodeErrorResponse{
			NodeID: failure.NodeID.String(),
			Level:  string(failure.Level),
			Error:  failure.Err.Error(),
		})
	}

	return c.JSON(resp)
}
