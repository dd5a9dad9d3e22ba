package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// RouteLogger logs each request entry and exit with duration, trace ID and
// the owner scope the request rides on.
func RouteLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := GetTraceID(c)
		if traceID == "" {
			traceID = "no-trace-id"
		}
		owner := ownerScope(c)
		start := time.Now()
		log.Info().Str("trace_id", traceID).Str("owner", owner).Str("method", c.Method()).Str("path", c.Path()).Msg("Entering request")
		err := c.Next()
		ms := time.Since(start).Milliseconds()
		log.Info().Str("trace_id", traceID).Str("owner", owner).Str("method", c.Method()).Str("path", c.Path()).Int("status", c.Response().StatusCode()).Int64("ms", ms).Msg("Exiting request")
		return err
	}
}

// ownerScope renders the X-Owner-* headers for log correlation. Public
// share-link reads legitimately carry neither.
func ownerScope(c *fiber.Ctx) string {
	if u := c.Get("X-Owner-User"); u != "" {
		return "user:" + u
	}
	if o := c.Get("X-Owner-Org"); o != "" {
		return "org:" + o
	}
	return "anonymous"
}
