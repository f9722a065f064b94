package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/devifact/DeviFact-sub000/pkg/logger"
)

// RequireOrigin refuse (403) les requêtes dont l'en-tête Origin n'est pas autorisé.
// Sans en-tête Origin (appel serveur) ou sans liste configurée, la requête passe.
func RequireOrigin(allowed []string) fiber.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" || len(set) == 0 {
			return c.Next()
		}
		if _, ok := set[origin]; !ok {
			return fail(c, fiber.StatusForbidden, CodeOriginNotAllowed, "origine non autorisée")
		}
		return c.Next()
	}
}

// RequestLogger journalise méthode, chemin, statut et durée de chaque requête.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// laisse le gestionnaire d'erreurs fixer le statut avant de journaliser
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		status := c.Response().StatusCode()

		ev := log.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = log.Error()
		case status >= fiber.StatusBadRequest:
			ev = log.Warn()
		}
		if cause, ok := c.Locals(localError).(error); ok {
			ev = ev.Err(cause)
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("user_id", GetUserID(c)).
			Msg("requête HTTP")
		return nil
	}
}
