package middleware

import (
	"github.com/gofiber/fiber/v2"
)

const (
	// PrincipalHeader carries the authenticated principal set by the upstream
	// gateway. Authentication itself happens before this service.
	PrincipalHeader = "X-Principal-ID"
	// PrincipalLocalKey is the key used to store the principal in Fiber's context locals.
	PrincipalLocalKey = "principal_id"
)

// Principal resolves the calling principal from the gateway header and stores
// it in context locals. Requests without a principal are still served: they
// are evaluated as anonymous callers and only reach public data.
func Principal() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(PrincipalLocalKey, c.Get(PrincipalHeader))
		return c.Next()
	}
}

// PrincipalFromCtx returns the principal stored by Principal, or "".
func PrincipalFromCtx(c *fiber.Ctx) string {
	if v, ok := c.Locals(PrincipalLocalKey).(string); ok {
		return v
	}
	return ""
}
