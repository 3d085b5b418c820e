package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/insight/internal/logging"
	"github.com/soltixdb/insight/internal/models"
)

// errorCodes maps the statuses Fiber raises itself to response codes
var errorCodes = map[int]string{
	fiber.StatusBadRequest:            "BAD_REQUEST",
	fiber.StatusUnauthorized:          "UNAUTHORIZED",
	fiber.StatusForbidden:             "FORBIDDEN",
	fiber.StatusNotFound:              "NOT_FOUND",
	fiber.StatusMethodNotAllowed:      "METHOD_NOT_ALLOWED",
	fiber.StatusRequestEntityTooLarge: "PAYLOAD_TOO_LARGE",
	fiber.StatusUnprocessableEntity:   "UNPROCESSABLE_ENTITY",
	fiber.StatusRequestTimeout:        "TIMEOUT",
	fiber.StatusServiceUnavailable:    "UNAVAILABLE",
}

// ErrorHandler handles errors that escape the route handlers. Only
// *fiber.Error messages reach the client; anything else is a bare 500.
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
			message = fe.Message
		}

		code, ok := errorCodes[status]
		if !ok {
			code = "INTERNAL_ERROR"
			if status < fiber.StatusInternalServerError {
				code = "ERROR"
			}
		}

		log := logger.WithContext(c.UserContext())
		fields := []interface{}{"path", c.Path(), "method", c.Method(), "status", status, "error", err}
		if status >= fiber.StatusInternalServerError {
			log.Error("Request error", fields...)
		} else {
			log.Warn("Request rejected", fields...)
		}

		return c.Status(status).JSON(models.NewErrorResponse(code, message))
	}
}
