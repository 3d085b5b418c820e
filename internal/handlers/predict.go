package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/insight/internal/models"
)

// Predict handles metric forecast requests
// POST /predict
func (h *Handler) Predict(c *fiber.Ctx) error {
	var body models.PredictRequest
	if err := c.BodyParser(&body); err != nil {
		return badJSON(c, err)
	}

	predictions, err := h.predictions.Predict(c.UserContext(), body.Metrics)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(predictions)
}
