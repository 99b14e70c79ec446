package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

type requestIDMiddleware struct {
	logger *logrus.Logger
}

// NewRequestIDMiddleware tags every request with an identifier so scan logs
// can be correlated with the caller's request.
func NewRequestIDMiddleware(logger *logrus.Logger) Middleware {
	return &requestIDMiddleware{logger: logger}
}

func (m *requestIDMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Locals(RequestIDHeader, requestID)
		c.Set(RequestIDHeader, requestID)

		err := c.Next()

		m.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     c.Response().StatusCode(),
		}).Debug("request completed")

		return err
	}
}
