package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// ============================================================
// Logger Middleware
// ============================================================

// Logger logs one line per request. Pointer move events are chatty, so
// they are only logged at debug level.
func Logger(level string) fiber.Handler {
	verbose := ParseLevel(level) <= log.LevelDebug
	return logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
		Next: func(c fiber.Ctx) bool {
			return !verbose && strings.HasSuffix(c.Path(), "/pointer/move")
		},
	})
}

// ParseLevel maps a config level name onto a fiber log level, defaulting to
// info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return log.LevelTrace
	case "debug":
		return log.LevelDebug
	case "warn", "warning":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}
