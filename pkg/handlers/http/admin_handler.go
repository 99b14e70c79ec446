package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/shieldgate/shieldgate/pkg/security"
	"github.com/shieldgate/shieldgate/pkg/types"
	"github.com/shieldgate/shieldgate/pkg/version"
)

// AdminHandler exposes the administrative and observability surface.
type AdminHandler struct {
	service *security.Service
	logger  *logrus.Logger
}

func NewAdminHandler(service *security.Service, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{service: service, logger: logger}
}

func (h *AdminHandler) Health(c *fiber.Ctx) error {
	health := h.service.HealthCheck(c.UserContext())
	health["version"] = version.GetInfo()
	return c.JSON(health)
}

func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.service.GetMetrics())
}

func (h *AdminHandler) ResetMetrics(c *fiber.Ctx) error {
	h.service.ResetMetrics()
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AdminHandler) Configuration(c *fiber.Ctx) error {
	return c.JSON(h.service.GetConfiguration())
}

func (h *AdminHandler) CacheStatistics(c *fiber.Ctx) error {
	return c.JSON(h.service.GetCacheStatistics(c.UserContext()))
}

func (h *AdminHandler) ClearCache(c *fiber.Ctx) error {
	if err := h.service.ClearCache(c.UserContext()); err != nil {
		h.logger.WithError(err).Error("cache clear failed")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "failed to clear cache",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type warmupRequest struct {
	Scanners []string `json:"scanners"`
}

func (h *AdminHandler) Warmup(c *fiber.Ctx) error {
	var req warmupRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
	}

	scannerTypes := make([]types.ScannerType, 0, len(req.Scanners))
	for _, name := range req.Scanners {
		scannerTypes = append(scannerTypes, types.ScannerType(name))
	}

	elapsed, err := h.service.Warmup(c.UserContext(), scannerTypes...)
	if err != nil {
		h.logger.WithError(err).Error("warmup failed")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "warmup failed",
		})
	}
	return c.JSON(fiber.Map{"warmup_seconds": elapsed})
}
