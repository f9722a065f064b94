package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/devifact/DeviFact-sub000/internal/application/abonnement"
	"github.com/devifact/DeviFact-sub000/internal/application/dto"
	"github.com/devifact/DeviFact-sub000/internal/domain"
	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
	"github.com/devifact/DeviFact-sub000/pkg/logger"
)

// AbonnementHandler droits, essai, souscription et portail de facturation (protégé).
type AbonnementHandler struct {
	entitlements *abonnement.EntitlementUseCase
	checkout     *abonnement.CheckoutUseCase
}

// NewAbonnementHandler construit le handler.
func NewAbonnementHandler(entitlements *abonnement.EntitlementUseCase, checkout *abonnement.CheckoutUseCase) *AbonnementHandler {
	return &AbonnementHandler{entitlements: entitlements, checkout: checkout}
}

// Get godoc
// @Summary      Droits de l'utilisateur
// @Tags         abonnement
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  entitlement.Entitlements
// @Router       /api/abonnement [get]
func (h *AbonnementHandler) Get(c *fiber.Ctx) error {
	out, err := h.entitlements.Get(c.Context(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ProvisionTrial godoc
// @Summary      Démarrer l'essai de 30 jours
// @Description  Sans effet si l'utilisateur a déjà un abonnement.
// @Tags         abonnement
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  entitlement.Entitlements
// @Router       /api/abonnement/essai [post]
func (h *AbonnementHandler) ProvisionTrial(c *fiber.Ctx) error {
	out, err := h.entitlements.ProvisionTrial(c.Context(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Checkout godoc
// @Summary      Session de souscription à l'abonnement principal
// @Tags         abonnement
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CheckoutRequest  true  "Formule"
// @Success      200   {object}  dto.URLResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/abonnement/checkout [post]
func (h *AbonnementHandler) Checkout(c *fiber.Ctx) error {
	var in dto.CheckoutRequest
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, CodeInvalidBody, "corps invalide")
	}
	url, err := h.checkout.CreateCheckout(c.Context(), GetUserID(c), GetEmail(c), in.Plan)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.URLResponse{URL: url})
}

// PremiumCheckout godoc
// @Summary      Session de souscription à l'option premium
// @Tags         abonnement
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CheckoutRequest  true  "Formule"
// @Success      200   {object}  dto.URLResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/abonnement/premium/checkout [post]
func (h *AbonnementHandler) PremiumCheckout(c *fiber.Ctx) error {
	var in dto.CheckoutRequest
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, CodeInvalidBody, "corps invalide")
	}
	url, err := h.checkout.CreatePremiumCheckout(c.Context(), GetUserID(c), in.Plan)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.URLResponse{URL: url})
}

// Portal godoc
// @Summary      Portail de facturation
// @Tags         abonnement
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.URLResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/abonnement/portail [post]
func (h *AbonnementHandler) Portal(c *fiber.Ctx) error {
	url, err := h.checkout.CreatePortal(c.Context(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.URLResponse{URL: url})
}

// ── Webhook ───────────────────────────────────────────────────────────────────

// EventVerifier vérifie et traduit un webhook du prestataire ; (nil, nil) pour un type ignoré.
type EventVerifier interface {
	Parse(payload []byte, signature string) (*entity.BillingEvent, error)
}

// EventProjector applique un événement vérifié.
type EventProjector interface {
	Apply(ctx context.Context, ev entity.BillingEvent) error
}

// WebhookHandler point d'entrée des webhooks Stripe (public, authentifié par signature).
type WebhookHandler struct {
	verifier  EventVerifier
	projector EventProjector
	log       *logger.Logger
}

// NewWebhookHandler construit le handler.
func NewWebhookHandler(verifier EventVerifier, projector EventProjector, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, projector: projector, log: log}
}

// Receive godoc
// @Summary      Webhook Stripe
// @Description  Acquitte (200) tout événement signé, y compris ceux qui ne peuvent être appliqués.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature  header    string  true  "Signature Stripe"
// @Success      200               {object}  dto.WebhookAck
// @Failure      400               {object}  dto.ErrorResponse
// @Router       /api/webhooks/stripe [post]
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	ev, err := h.verifier.Parse(c.Body(), c.Get("Stripe-Signature"))
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		h.log.Warn().Err(err).Msg("webhook rejeté")
		return fail(c, fiber.StatusBadRequest, CodeValidation, "signature invalide")
	case errors.Is(err, domain.ErrConfiguration):
		return respondError(c, err)
	case err != nil:
		h.log.Warn().Err(err).Msg("webhook signé illisible, acquitté")
		return c.JSON(dto.WebhookAck{Received: true})
	case ev == nil:
		return c.JSON(dto.WebhookAck{Received: true})
	}

	if err := h.projector.Apply(c.Context(), *ev); err != nil {
		h.log.Error().Err(err).Str("event_id", ev.ID).Str("type", ev.Type).Msg("projection de l'événement")
		captureError(c, err)
	}
	return c.JSON(dto.WebhookAck{Received: true})
}
