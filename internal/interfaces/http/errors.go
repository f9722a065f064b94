package http

import (
	"errors"

	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"

	"github.com/devifact/DeviFact-sub000/internal/application/dto"
	"github.com/devifact/DeviFact-sub000/internal/domain"
)

// Codes d'erreur stables renvoyés au client web.
const (
	CodeValidation           = "VALIDATION"
	CodeInvalidBody          = "INVALID_BODY"
	CodeInvalidState         = "INVALID_STATE"
	CodeInvalidAmount        = "INVALID_AMOUNT"
	CodeExceedsBalance       = "EXCEEDS_BALANCE"
	CodeInsufficientStock    = "INSUFFICIENT_STOCK"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeOriginNotAllowed     = "ORIGIN_NOT_ALLOWED"
	CodeSubscriptionRequired = "SUBSCRIPTION_REQUIRED"
	CodePremiumRequired      = "PREMIUM_REQUIRED"
	CodeMethodNotAllowed     = "METHOD_NOT_ALLOWED"
	CodeUpstream             = "UPSTREAM"
	CodeConfiguration        = "CONFIGURATION"
	CodeInternal             = "INTERNAL"
)

// errorStatus associe chaque erreur de domaine à un statut HTTP et un code.
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrNotFound, fiber.StatusNotFound, CodeNotFound},
	{domain.ErrConflict, fiber.StatusConflict, CodeConflict},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, CodeValidation},
	{domain.ErrInvalidState, fiber.StatusBadRequest, CodeInvalidState},
	{domain.ErrInvalidAmount, fiber.StatusBadRequest, CodeInvalidAmount},
	{domain.ErrExceedsBalance, fiber.StatusBadRequest, CodeExceedsBalance},
	{domain.ErrInsufficientStock, fiber.StatusBadRequest, CodeInsufficientStock},
	{domain.ErrUpstream, fiber.StatusBadRequest, CodeUpstream},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, CodeUnauthorized},
	{domain.ErrForbidden, fiber.StatusForbidden, CodeForbidden},
	{domain.ErrConfiguration, fiber.StatusInternalServerError, CodeConfiguration},
}

// fail écrit le corps d'erreur {error, code}.
func fail(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: message, Code: code})
}

// respondError traduit une erreur de cas d'utilisation en réponse HTTP. Les erreurs
// inattendues sont remontées à Sentry et masquées au client.
func respondError(c *fiber.Ctx, err error) error {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			return fail(c, m.status, m.code, err.Error())
		}
	}
	captureError(c, err)
	c.Locals(localError, err)
	return fail(c, fiber.StatusInternalServerError, CodeInternal, "erreur interne")
}

// captureError remonte l'erreur à Sentry quand le middleware est monté.
func captureError(c *fiber.Ctx, err error) {
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
}

// ErrorHandler gestionnaire d'erreurs Fiber (routes inconnues, méthodes refusées, panics).
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := CodeInternal
		switch fe.Code {
		case fiber.StatusNotFound:
			code = CodeNotFound
		case fiber.StatusMethodNotAllowed:
			code = CodeMethodNotAllowed
		case fiber.StatusBadRequest:
			code = CodeValidation
		}
		return fail(c, fe.Code, code, fe.Message)
	}
	return respondError(c, err)
}
