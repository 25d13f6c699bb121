package logger

import (
	"horseclub_backend/internals/configs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// LoggerMiddleware logs every request to the logrus output.
func LoggerMiddleware() fiber.Handler {
	tz := configs.Cfg.ClubTimezone
	if tz == "" {
		tz = "UTC"
	}
	return logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   tz,
		Format:     "[${time}] ${locals:request_id} ${ip} - ${method} ${path} - ${status} - ${latency}\n",
		Output:     configs.Log.Writer(),
	})
}
