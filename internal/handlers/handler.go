package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/insight/internal/logging"
	"github.com/soltixdb/insight/internal/models"
	"github.com/soltixdb/insight/internal/services"
)

// Reported by GET /health
const (
	ServiceName    = "ml-service"
	ServiceVersion = "1.0.0"
)

// Handler contains all HTTP handlers
type Handler struct {
	logger      *logging.Logger
	predictions *services.PredictionService
	anomalies   *services.AnomalyService
	insights    *services.InsightsService
}

// New creates a new handler instance
func New(logger *logging.Logger,
	predictions *services.PredictionService,
	anomalies *services.AnomalyService,
	insights *services.InsightsService,
) *Handler {
	return &Handler{
		logger:      logger,
		predictions: predictions,
		anomalies:   anomalies,
		insights:    insights,
	}
}

// respondError maps a service error to an HTTP response. Input errors are
// echoed to the caller; everything else becomes a 500 with a fixed message.
func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) && svcErr.Code == services.CodeInvalidInput {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    svcErr.Code,
				Message: svcErr.Message,
				Details: svcErr.Details,
			},
		})
	}

	logging.Ctx(c.UserContext()).Error("Request failed",
		"path", c.Path(),
		"error", err)

	code := "INTERNAL_ERROR"
	message := "Internal server error"
	if svcErr != nil {
		code = svcErr.Code
		message = svcErr.Message
	}

	return c.Status(fiber.StatusInternalServerError).JSON(models.NewErrorResponse(code, message))
}

func badJSON(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "INVALID_JSON",
			Message: "Failed to parse JSON body",
			Details: map[string]interface{}{"error": err.Error()},
		},
	})
}
