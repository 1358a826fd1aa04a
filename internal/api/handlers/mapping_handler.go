package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"certmap/internal/dto"
	"certmap/internal/models"
	"certmap/internal/service"
)

type MappingHandler struct {
	videoMapper    *service.VideoMapper
	documentMapper *service.DocumentMapper
	mappingService *service.MappingService
	logger         *zap.Logger
}

func NewMappingHandler(
	videoMapper *service.VideoMapper,
	documentMapper *service.DocumentMapper,
	mappingService *service.MappingService,
	logger *zap.Logger,
) *MappingHandler {
	return &MappingHandler{
		videoMapper:    videoMapper,
		documentMapper: documentMapper,
		mappingService: mappingService,
		logger:         logger,
	}
}

// SuggestMappings generates ranked mapping suggestions for a content item.
// Suggestions are computed, not stored; nothing is persisted until Apply.
func (h *MappingHandler) SuggestMappings(c *fiber.Ctx) error {
	contentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid content ID",
		})
	}

	var req dto.SuggestMappingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	certificationID, err := uuid.Parse(req.CertificationID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid certification ID",
		})
	}

	var suggestions []models.MappingSuggestion
	switch req.Kind {
	case "video":
		suggestions, err = h.videoMapper.Suggest(c.Context(), contentID, certificationID)
	case "document":
		suggestions, err = h.documentMapper.Suggest(c.Context(), contentID, certificationID)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "kind must be video or document",
		})
	}

	if err != nil {
		return h.fail(c, "Failed to generate suggestions", err)
	}

	responses := make([]dto.MappingSuggestionResponse, len(suggestions))
	for i, s := range suggestions {
		responses[i] = toSuggestionResponse(s)
	}

	return c.JSON(responses)
}

// ApplyMappings persists a reviewed batch of suggestions as confirmed
// mappings.
func (h *MappingHandler) ApplyMappings(c *fiber.Ctx) error {
	contentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid content ID",
		})
	}

	var req dto.ApplyMappingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	entries := make([]service.ApplyEntry, 0, len(req.Mappings))
	for _, m := range req.Mappings {
		objectiveID, err := parseOptionalUUID(m.ObjectiveID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid objective ID",
			})
		}
		bulletID, err := parseOptionalUUID(m.BulletID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid bullet ID",
			})
		}
		subBulletID, err := parseOptionalUUID(m.SubBulletID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid sub-bullet ID",
			})
		}
		entries = append(entries, service.ApplyEntry{
			ObjectiveID: objectiveID,
			BulletID:    bulletID,
			SubBulletID: subBulletID,
			Confidence:  m.Confidence,
			IsPrimary:   m.IsPrimary,
		})
	}

	applied, err := h.mappingService.ApplySuggestions(c.Context(), contentID, entries)
	if err != nil {
		return h.fail(c, "Failed to apply mappings", err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.ApplyMappingsResponse{Applied: applied})
}

// AddManualMapping persists a single human-created mapping.
func (h *MappingHandler) AddManualMapping(c *fiber.Ctx) error {
	contentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid content ID",
		})
	}

	var req dto.ManualMappingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	objectiveID, err := parseOptionalUUID(req.ObjectiveID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid objective ID",
		})
	}
	bulletID, err := parseOptionalUUID(req.BulletID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid bullet ID",
		})
	}
	subBulletID, err := parseOptionalUUID(req.SubBulletID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid sub-bullet ID",
		})
	}

	id, err := h.mappingService.AddManualMapping(c.Context(), contentID, objectiveID, bulletID, subBulletID, req.IsPrimary)
	if err != nil {
		return h.fail(c, "Failed to add mapping", err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.ManualMappingResponse{ID: id.String()})
}

// RemoveMapping deletes a single mapping row.
func (h *MappingHandler) RemoveMapping(c *fiber.Ctx) error {
	mappingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid mapping ID",
		})
	}

	if err := h.mappingService.RemoveMapping(c.Context(), mappingID); err != nil {
		return h.fail(c, "Failed to remove mapping", err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// SetPrimary promotes a mapping to the content item's single primary.
func (h *MappingHandler) SetPrimary(c *fiber.Ctx) error {
	contentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid content ID",
		})
	}

	mappingID, err := uuid.Parse(c.Params("mappingID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid mapping ID",
		})
	}

	if err := h.mappingService.SetPrimary(c.Context(), contentID, mappingID); err != nil {
		return h.fail(c, "Failed to set primary mapping", err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetSummary returns a content item's mappings, primary first.
func (h *MappingHandler) GetSummary(c *fiber.Ctx) error {
	contentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid content ID",
		})
	}

	summary, err := h.mappingService.GetSummary(c.Context(), contentID)
	if err != nil {
		return h.fail(c, "Failed to load mapping summary", err)
	}

	resp := dto.MappingSummaryResponse{
		TotalMappings: summary.TotalMappings,
		Others:        make([]dto.MappingResponse, len(summary.Others)),
	}
	if summary.Primary != nil {
		primary := toMappingResponse(summary.Primary)
		resp.Primary = &primary
	}
	for i, m := range summary.Others {
		resp.Others[i] = toMappingResponse(m)
	}

	return c.JSON(resp)
}

func (h *MappingHandler) fail(c *fiber.Ctx, msg string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, models.ErrDuplicateMapping):
		status = fiber.StatusConflict
	case errors.Is(err, models.ErrNotFound):
		status = fiber.StatusNotFound
	}

	if status == fiber.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}

	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func toSuggestionResponse(s models.MappingSuggestion) dto.MappingSuggestionResponse {
	resp := dto.MappingSuggestionResponse{
		Confidence:          s.Confidence,
		IsPrimarySuggestion: s.IsPrimarySuggestion,
		Reason:              s.Reason,
		DomainName:          s.DomainName,
		ObjectiveCode:       s.ObjectiveCode,
		ObjectiveText:       s.ObjectiveText,
		BulletText:          s.BulletText,
		SubBulletText:       s.SubBulletText,
	}
	switch s.Node.Level {
	case models.LevelObjective:
		resp.ObjectiveID = s.Node.ID.String()
	case models.LevelBullet:
		resp.BulletID = s.Node.ID.String()
	case models.LevelSubBullet:
		resp.SubBulletID = s.Node.ID.String()
	}
	return resp
}

func toMappingResponse(m *models.ContentMapping) dto.MappingResponse {
	resp := dto.MappingResponse{
		ID:         m.ID.String(),
		ContentID:  m.ContentID.String(),
		IsPrimary:  m.IsPrimary,
		Confidence: m.Confidence,
		Source:     string(m.Source),
		CreatedAt:  m.CreatedAt.Format(time.RFC3339),
	}
	switch m.Node.Level {
	case models.LevelObjective:
		resp.ObjectiveID = m.Node.ID.String()
	case models.LevelBullet:
		resp.BulletID = m.Node.ID.String()
	case models.LevelSubBullet:
		resp.SubBulletID = m.Node.ID.String()
	}
	return resp
}
