package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"propcore/internal/apperr"
	"propcore/internal/service"
)

func (h *Handler) listProviders(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.Lookups.Providers()})
}

func (h *Handler) lookup(c *fiber.Ctx) error {
	provider := c.Params("provider")

	params := map[string]string{}
	for k, v := range c.Queries() {
		params[k] = v
	}

	payload, err := h.Lookups.Lookup(c.UserContext(), provider, params)
	if err != nil {
		if errors.Is(err, service.ErrUnknownProvider) {
			return writeError(c, fiber.StatusNotFound, "UNKNOWN_PROVIDER", "unknown provider")
		}
		if errors.Is(err, apperr.ErrUpstream) {
			return writeError(c, fiber.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "upstream provider unavailable")
		}
		return presentCommonError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(payload)
}
