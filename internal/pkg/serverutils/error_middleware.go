package serverutils

import (
	"errors"

	"campaign-session/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns handler errors into the JSON error envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		code, body := StatusFor(err)
		return ctx.Status(code).JSON(body)
	}
}

func StatusFor(err error) (int, interface{}) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return fiber.StatusBadRequest, fiber.Map{
			"success": false,
			"code":    fiber.StatusBadRequest,
			"message": "validation failed",
			"errors":  verr.Fields,
		}
	}

	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return ferr.Code, ErrorResponse(ferr.Code, ferr.Message)
	}

	code := fiber.StatusInternalServerError
	switch {
	case apperror.IsNotAuthenticated(err), errors.Is(err, apperror.ErrAuthNotSignedIn):
		code = fiber.StatusUnauthorized
	case errors.Is(err, apperror.ErrAuthCancelled):
		code = fiber.StatusConflict
	case errors.Is(err, apperror.ErrAuthProviderFailure):
		code = fiber.StatusBadGateway
	case errors.Is(err, apperror.ErrStoreReadFailure), errors.Is(err, apperror.ErrStoreWriteFailure):
		code = fiber.StatusServiceUnavailable
	case errors.Is(err, apperror.ErrStoreNotFound):
		code = fiber.StatusNotFound
	}
	return code, ErrorResponse(code, err.Error())
}
