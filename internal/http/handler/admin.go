package handler

import (
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) runSweep(c *fiber.Ctx) error {
	report, err := h.Sweeps.Run(c.UserContext())
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, "SWEEP_FAILED", "maintenance sweep failed")
	}
	return c.JSON(report)
}

// cancelJob is an operator action: it prevents a queued or processing job
// from being claimed again. A worker already holding the job finishes its
// current attempt.
func (h *Handler) cancelJob(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}

	if err := h.Queue.Cancel(c.UserContext(), id); err != nil {
		return presentWriteError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
