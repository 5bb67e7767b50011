/**
 * @description
 * Shared-secret guard for job-style endpoints (ingest triggers, auto-detect).
 * The dashboard and scrapers run server-side, so a static header secret is
 * enough; end-user authentication lives in the presentation layer.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - standard "crypto/subtle"
 */

package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// JobSecretHeader is checked on protected job routes
const JobSecretHeader = "X-Job-Secret"

// JobProtected rejects requests whose X-Job-Secret header doesn't match the
// configured secret. An empty configured secret disables the routes entirely.
func JobProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Job endpoints are disabled: no job secret configured",
			})
		}

		provided := c.Get(JobSecretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		return c.Next()
	}
}
