package serverutils

import (
	"errors"

	"stratos-backend/internal/service"
	"stratos-backend/pkg/pipeline/state"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps domain errors onto HTTP statuses so controllers
// can just return them.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
		}

		var transitionErr *state.InvalidTransitionError
		if errors.As(err, &transitionErr) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"message": transitionErr.Error()})
		}

		switch {
		case errors.Is(err, service.ErrNotFound):
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
		case errors.Is(err, service.ErrForbidden):
			return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": err.Error()})
		case errors.Is(err, service.ErrMissingPrerequisite):
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": err.Error()})
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}
