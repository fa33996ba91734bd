package handler

import (
	"github.com/gofiber/fiber/v2"

	"propcore/internal/http/middleware"
	"propcore/internal/model"
	"propcore/internal/service"
)

func (h *Handler) claimProperty(c *fiber.Ctx) error {
	var in service.PropertyInput
	if err := c.BodyParser(&in); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	p, err := h.Properties.Claim(c.UserContext(), middleware.PrincipalFromCtx(c), in)
	if err != nil {
		return presentWriteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *Handler) listProperties(c *fiber.Ctx) error {
	limit, offset, err := pagination(c)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_PAGINATION", "invalid limit or offset")
	}

	res, err := h.Properties.List(c.UserContext(), middleware.PrincipalFromCtx(c), limit, offset)
	if err != nil {
		return presentReadError(c, err)
	}
	return c.JSON(res)
}

func (h *Handler) getProperty(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}

	p, err := h.Properties.Get(c.UserContext(), middleware.PrincipalFromCtx(c), id)
	if err != nil {
		return presentReadError(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) updateProperty(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}
	var in service.PropertyInput
	if err := c.BodyParser(&in); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	p, err := h.Properties.Update(c.UserContext(), middleware.PrincipalFromCtx(c), id, in)
	if err != nil {
		return presentWriteError(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) unclaimProperty(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}

	p, err := h.Properties.Unclaim(c.UserContext(), middleware.PrincipalFromCtx(c), id)
	if err != nil {
		return presentWriteError(c, err)
	}
	return c.JSON(p)
}

type relationshipInput struct {
	PrincipalID string     `json:"principal_id"`
	Tier        model.Tier `json:"tier"`
}

func (h *Handler) listRelationships(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}

	rels, err := h.Relationships.List(c.UserContext(), middleware.PrincipalFromCtx(c), id)
	if err != nil {
		return presentReadError(c, err)
	}
	return c.JSON(fiber.Map{"data": rels})
}

func (h *Handler) addRelationship(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}
	var in relationshipInput
	if err := c.BodyParser(&in); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	rel, err := h.Relationships.Add(c.UserContext(), middleware.PrincipalFromCtx(c), id, in.PrincipalID, in.Tier)
	if err != nil {
		return presentWriteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rel)
}

func (h *Handler) removeRelationship(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}

	if err := h.Relationships.Remove(c.UserContext(), middleware.PrincipalFromCtx(c), id); err != nil {
		return presentWriteError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
