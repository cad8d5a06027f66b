package api

import (
	"crypto/subtle"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fathima-sithara/ticket-notification-service/internal/auth"
)

const (
	localsIdentity    = "identity"
	headerInternalKey = "X-Internal-Key"
)

func RequestLogger(logger *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)
		status := c.Response().StatusCode()
		if err != nil {
			logger.Errorw("http request failed",
				"method", c.Method(),
				"path", c.Path(),
				"ip", c.IP(),
				"status", status,
				"latency", latency,
				"error", err,
			)
			return err
		}
		logger.Infow("http request",
			"method", c.Method(),
			"path", c.Path(),
			"ip", c.IP(),
			"status", status,
			"latency", latency,
		)
		return nil
	}
}

// RequireAuth authenticates the bearer token and session of the request.
func RequireAuth(a *auth.Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := a.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return JSONError(c, fiber.StatusUnauthorized, "unauthorized")
		}
		c.Locals(localsIdentity, id)
		return c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := identity(c)
		if id == nil || !id.IsAdmin() {
			return JSONError(c, fiber.StatusForbidden, "forbidden")
		}
		return c.Next()
	}
}

// RequireInternalKey guards the collaborator hooks. An empty key disables
// them.
func RequireInternalKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		got := c.Get(headerInternalKey)
		if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			return JSONError(c, fiber.StatusUnauthorized, "unauthorized")
		}
		return c.Next()
	}
}

func identity(c *fiber.Ctx) *auth.Identity {
	id, _ := c.Locals(localsIdentity).(*auth.Identity)
	return id
}
