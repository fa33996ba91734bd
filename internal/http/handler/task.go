package handler

import (
	"github.com/gofiber/fiber/v2"

	"propcore/internal/http/middleware"
	"propcore/internal/service"
)

func (h *Handler) createTask(c *fiber.Ctx) error {
	propertyID, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}
	var in service.TaskInput
	if err := c.BodyParser(&in); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	item, err := h.Tasks.Create(c.UserContext(), middleware.PrincipalFromCtx(c), propertyID, in)
	if err != nil {
		return presentWriteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *Handler) listTasks(c *fiber.Ctx) error {
	propertyID, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_PAGINATION", "invalid limit or offset")
	}

	res, err := h.Tasks.List(c.UserContext(), middleware.PrincipalFromCtx(c), propertyID, limit, offset)
	if err != nil {
		return presentReadError(c, err)
	}
	return c.JSON(res)
}

func (h *Handler) getTask(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}

	item, err := h.Tasks.Get(c.UserContext(), middleware.PrincipalFromCtx(c), id)
	if err != nil {
		return presentReadError(c, err)
	}
	return c.JSON(item)
}

func (h *Handler) updateTask(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}
	var in service.TaskInput
	if err := c.BodyParser(&in); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	item, err := h.Tasks.Update(c.UserContext(), middleware.PrincipalFromCtx(c), id, in)
	if err != nil {
		return presentWriteError(c, err)
	}
	return c.JSON(item)
}

func (h *Handler) deleteTask(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}

	if err := h.Tasks.Delete(c.UserContext(), middleware.PrincipalFromCtx(c), id); err != nil {
		return presentWriteError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
