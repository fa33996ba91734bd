package handler

import (
	"github.com/gofiber/fiber/v2"

	"propcore/internal/http/middleware"
	"propcore/internal/service"
)

func (h *Handler) createNote(c *fiber.Ctx) error {
	propertyID, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}
	var in service.NoteInput
	if err := c.BodyParser(&in); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	n, err := h.Notes.Create(c.UserContext(), middleware.PrincipalFromCtx(c), propertyID, in)
	if err != nil {
		return presentWriteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(n)
}

func (h *Handler) listNotes(c *fiber.Ctx) error {
	propertyID, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_PAGINATION", "invalid limit or offset")
	}

	res, err := h.Notes.List(c.UserContext(), middleware.PrincipalFromCtx(c), propertyID, limit, offset)
	if err != nil {
		return presentReadError(c, err)
	}
	return c.JSON(res)
}

func (h *Handler) getNote(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}

	n, err := h.Notes.Get(c.UserContext(), middleware.PrincipalFromCtx(c), id)
	if err != nil {
		return presentReadError(c, err)
	}
	return c.JSON(n)
}

func (h *Handler) updateNote(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}
	var in service.NoteInput
	if err := c.BodyParser(&in); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	n, err := h.Notes.Update(c.UserContext(), middleware.PrincipalFromCtx(c), id, in)
	if err != nil {
		return presentWriteError(c, err)
	}
	return c.JSON(n)
}

func (h *Handler) deleteNote(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}

	if err := h.Notes.Delete(c.UserContext(), middleware.PrincipalFromCtx(c), id); err != nil {
		return presentWriteError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
