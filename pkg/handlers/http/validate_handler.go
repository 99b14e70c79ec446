package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/shieldgate/shieldgate/pkg/security"
	"github.com/shieldgate/shieldgate/pkg/types"
)

type validateRequest struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
}

// ValidateHandler exposes the validate operations to the surrounding pipeline.
type ValidateHandler struct {
	service *security.Service
	logger  *logrus.Logger
}

func NewValidateHandler(service *security.Service, logger *logrus.Logger) *ValidateHandler {
	return &ValidateHandler{service: service, logger: logger}
}

func (h *ValidateHandler) ValidateInput(c *fiber.Ctx) error {
	return h.validate(c, types.DirectionInput)
}

func (h *ValidateHandler) ValidateOutput(c *fiber.Ctx) error {
	return h.validate(c, types.DirectionOutput)
}

func (h *ValidateHandler) validate(c *fiber.Ctx, direction types.Direction) error {
	var req validateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	var (
		result *types.SecurityResult
		err    error
	)
	if direction == types.DirectionOutput {
		result, err = h.service.ValidateOutput(c.UserContext(), req.Text, req.Metadata)
	} else {
		result, err = h.service.ValidateInput(c.UserContext(), req.Text, req.Metadata)
	}
	if err != nil {
		h.logger.WithError(err).WithField("direction", direction).Error("validation failed")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "security validation unavailable",
		})
	}

	return c.JSON(result)
}
