package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// RequestLogger registra una línea por petición y deja un sublogger con el request id en el
// contexto de la petición (zerolog.Ctx) para los handlers.
func RequestLogger(log *logger.Logger) fiber.Handler {
	base := log.Component("http").Zerolog()
	return func(c *fiber.Ctx) error {
		start := time.Now()
		rid, _ := c.Locals(requestid.ConfigDefault.ContextKey).(string)
		reqLog := base.With().Str("request_id", rid).Logger()
		c.SetUserContext(reqLog.WithContext(c.UserContext()))

		err := c.Next()
		if err != nil {
			// deja que el ErrorHandler de Fiber fije el status antes de loguear
			if hErr := c.App().ErrorHandler(c, err); hErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		ev := reqLog.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = reqLog.Error()
		case status >= fiber.StatusBadRequest:
			ev = reqLog.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("user_id", GetUserID(c)).
			Msg("petición")
		return nil
	}
}
