package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"scavenger-hunt/apperr"
)

// ErrorHandler renders every error as {"error": message, "code": code} plus
// any metadata the error carries.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			if appErr.Code == apperr.CodeInternal {
				log.Error().Err(err).Str("path", c.Path()).Msg("❌ [API] internal error")
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "internal server error",
					"code":  apperr.CodeInternal,
				})
			}

			body := fiber.Map{"error": appErr.Message, "code": appErr.Code}
			for k, v := range appErr.Metadata {
				if _, reserved := body[k]; !reserved {
					body[k] = v
				}
			}
			if secs, ok := appErr.Metadata["retry_after"].(int); ok {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
			}
			return c.Status(appErr.Status()).JSON(body)
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message, "code": codeForStatus(fe.Code)})
		}

		log.Error().Err(err).Str("path", c.Path()).Msg("❌ [API] unhandled error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
			"code":  apperr.CodeInternal,
		})
	}
}

func codeForStatus(status int) apperr.Code {
	switch status {
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return apperr.CodeValidation
	case fiber.StatusUnauthorized:
		return apperr.CodeUnauthorized
	case fiber.StatusForbidden:
		return apperr.CodeForbidden
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return apperr.CodeNotFound
	case fiber.StatusTooManyRequests:
		return apperr.CodeRateLimited
	case fiber.StatusServiceUnavailable:
		return apperr.CodeUnavailable
	default:
		return apperr.CodeInternal
	}
}
