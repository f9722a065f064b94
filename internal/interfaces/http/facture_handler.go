package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/devifact/DeviFact-sub000/internal/application/dto"
	"github.com/devifact/DeviFact-sub000/internal/application/facture"
)

// FactureHandler factures et registre des paiements (protégé).
type FactureHandler struct {
	uc *facture.UseCase
}

// NewFactureHandler construit le handler.
func NewFactureHandler(uc *facture.UseCase) *FactureHandler {
	return &FactureHandler{uc: uc}
}

// List godoc
// @Summary      Lister les factures
// @Description  Le statut est dérivé des paiements enregistrés.
// @Tags         factures
// @Security     Bearer
// @Produce      json
// @Param        limit   query     int  false  "Taille de page"
// @Param        offset  query     int  false  "Décalage"
// @Success      200     {array}   dto.InvoiceResponse
// @Router       /api/factures [get]
func (h *FactureHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return fail(c, fiber.StatusBadRequest, CodeValidation, "pagination invalide")
	}
	out, err := h.uc.List(c.Context(), GetUserID(c), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Détail d'une facture
// @Tags         factures
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la facture"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/factures/{id} [get]
func (h *FactureHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.Context(), GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Annuler une facture
// @Tags         factures
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la facture"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/factures/{id}/annulation [post]
func (h *FactureHandler) Cancel(c *fiber.Ctx) error {
	out, err := h.uc.Cancel(c.Context(), GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Payments godoc
// @Summary      État des règlements
// @Tags         paiements
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la facture"
// @Success      200  {object}  dto.PaymentSummaryResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/factures/{id}/paiements [get]
func (h *FactureHandler) Payments(c *fiber.Ctx) error {
	out, err := h.uc.Summary(c.Context(), GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// RecordPayment godoc
// @Summary      Enregistrer un paiement
// @Description  type=balance sans montant règle le reste à payer.
// @Tags         paiements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                    true  "ID de la facture"
// @Param        body  body      dto.RecordPaymentRequest  true  "Paiement"
// @Success      201   {object}  dto.PaymentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/factures/{id}/paiements [post]
func (h *FactureHandler) RecordPayment(c *fiber.Ctx) error {
	var in dto.RecordPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, CodeInvalidBody, "corps invalide")
	}
	out, err := h.uc.RecordPayment(c.Context(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// RecordReversal godoc
// @Summary      Annuler un paiement (écriture compensatoire)
// @Tags         paiements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id         path      string               true   "ID de la facture"
// @Param        paymentId  path      string               true   "ID du paiement"
// @Param        body       body      dto.ReversalRequest  false  "Motif"
// @Success      201        {object}  dto.PaymentResponse
// @Failure      404        {object}  dto.ErrorResponse
// @Failure      409        {object}  dto.ErrorResponse
// @Router       /api/factures/{id}/paiements/{paymentId}/annulation [post]
func (h *FactureHandler) RecordReversal(c *fiber.Ctx) error {
	var in dto.ReversalRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return fail(c, fiber.StatusBadRequest, CodeInvalidBody, "corps invalide")
		}
	}
	out, err := h.uc.RecordReversal(c.Context(), GetUserID(c), c.Params("id"), c.Params("paymentId"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
