package middlewares

import (
	"errors"

	"werkstatt-backend/config"
	"werkstatt-backend/models"
	"werkstatt-backend/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Error codes returned in the "code" field of every error body.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodePreconditionFailed = "PRECONDITION_FAILED"
	CodeOverPayment        = "OVER_PAYMENT"
	CodeValidation         = "VALIDATION_FAILED"
	CodeInternal           = "INTERNAL_ERROR"
)

// NewErrorHandler centralizes error responses and keeps messages sanitized.
func NewErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		// 1) Fiber errors (use their status code + message)
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"code": httpCode(fe.Code), "message": fe.Message})
		}

		// 2) Validation errors (422 + per-field info)
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			out := make(map[string]string, len(ve))
			for _, f := range ve {
				out[f.Namespace()] = f.Tag()
			}
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"code":    CodeValidation,
				"message": "validation failed",
				"errors":  out,
			})
		}

		// 3) Domain errors
		var te *models.TransitionError
		if errors.As(err, &te) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"code":             CodeInvalidTransition,
				"message":          te.Error(),
				"current_status":   te.Current,
				"attempted_status": te.Target,
			})
		}
		var op *services.OverPaymentError
		if errors.As(err, &op) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"code":       CodeOverPayment,
				"message":    op.Error(),
				"amount_due": op.AmountDue.StringFixed(2),
			})
		}
		switch {
		case errors.Is(err, services.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"code": CodeNotFound, "message": err.Error()})
		case errors.Is(err, services.ErrPreconditionFailed):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"code": CodePreconditionFailed, "message": err.Error()})
		case errors.Is(err, services.ErrValidation):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"code": CodeValidation, "message": err.Error()})
		}

		// 4) Unknown errors (500)
		config.LogError(log, "middlewares", "ErrorHandler", c.Method()+" "+c.Path(), TenantID(c), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code":    CodeInternal,
			"message": "internal server error",
		})
	}
}

func httpCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return CodeNotFound
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return CodeValidation
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusConflict:
		return "CONFLICT"
	case fiber.StatusTooManyRequests:
		return "RATE_LIMITED"
	}
	if status >= fiber.StatusInternalServerError {
		return CodeInternal
	}
	return "ERROR"
}
