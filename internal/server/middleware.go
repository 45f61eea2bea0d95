package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"detox-form-api/internal/common/auth"
	apperrors "detox-form-api/internal/common/errors"
	"detox-form-api/internal/common/logger"
	"detox-form-api/internal/common/metrics"
	"detox-form-api/internal/common/observability"
)

const adminClaimsKey = "adminClaims"

// requireAdmin verifies the Bearer token and the admin role before letting
// the request through.
func requireAdmin(tokens *auth.TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return respondError(c, apperrors.NewUnauthorizedError("missing bearer token"))
		}

		claims, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return respondError(c, err)
		}
		if claims.Role != auth.RoleAdmin {
			return respondError(c, apperrors.NewUnauthorizedError("insufficient role"))
		}

		c.Locals(adminClaimsKey, claims)
		return c.Next()
	}
}

// requestLogger logs each completed request with its route, status and
// duration, and feeds the request metrics.
func requestLogger(log logger.Logger, obs *observability.Observability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		route := c.Route().Path
		elapsed := time.Since(start)

		statusLabel := strconv.Itoa(status)
		metrics.HTTPRequestsTotal.WithLabelValues(c.Method(), route, statusLabel).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(elapsed.Seconds())
		if obs != nil {
			obs.RecordRequest(c.UserContext(), route, statusLabel)
			obs.RecordRequestDuration(c.UserContext(), elapsed, route)
		}

		log.Info("request completed", map[string]interface{}{
			"method":   c.Method(),
			"path":     c.Path(),
			"status":   status,
			"duration": elapsed.String(),
			"ip":       c.IP(),
		})
		return err
	}
}
