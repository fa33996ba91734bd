package handler

import (
	"github.com/gofiber/fiber/v2"

	"propcore/internal/http/middleware"
	"propcore/internal/model"
)

// listAuditEvents serves an entity's audit history. Authorization happens in
// the service: the caller must be able to read the entity itself, and a
// denial presents as 404 like every other read.
func (h *Handler) listAuditEvents(c *fiber.Ctx) error {
	entityType := model.EntityType(c.Params("entityType"))
	switch entityType {
	case model.EntityProperty, model.EntityDocument, model.EntityNote, model.EntityTask, model.EntityRelationship:
	default:
		return writeError(c, fiber.StatusBadRequest, "INVALID_ENTITY_TYPE", "unknown entity type")
	}

	entityID, ok := pathUUID(c, "entityID")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_PAGINATION", "invalid limit or offset")
	}

	res, err := h.Audits.ListByEntity(c.UserContext(), middleware.PrincipalFromCtx(c), entityType, entityID, limit, offset)
	if err != nil {
		return presentReadError(c, err)
	}
	return c.JSON(res)
}
