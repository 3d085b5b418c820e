package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/insight/internal/models"
	"github.com/soltixdb/insight/internal/services"
)

// DetectAnomalies handles outlier detection requests
// POST /detect-anomalies
func (h *Handler) DetectAnomalies(c *fiber.Ctx) error {
	var body models.DetectRequest
	if err := c.BodyParser(&body); err != nil {
		return badJSON(c, err)
	}

	series, ok := body.Series()
	if !ok {
		return h.respondError(c, services.NewInputError("Invalid data format"))
	}

	anomalies, err := h.anomalies.Detect(c.UserContext(), series)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(anomalies)
}
