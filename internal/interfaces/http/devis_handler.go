package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/devifact/DeviFact-sub000/internal/application/devis"
	"github.com/devifact/DeviFact-sub000/internal/application/dto"
)

// DevisHandler devis et conversion en facture (protégé).
type DevisHandler struct {
	uc *devis.UseCase
}

// NewDevisHandler construit le handler.
func NewDevisHandler(uc *devis.UseCase) *DevisHandler {
	return &DevisHandler{uc: uc}
}

// Create godoc
// @Summary      Créer un devis
// @Tags         devis
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateQuoteRequest  true  "Devis"
// @Success      201   {object}  dto.QuoteResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/devis [post]
func (h *DevisHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateQuoteRequest
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, CodeInvalidBody, "corps invalide")
	}
	out, err := h.uc.Create(c.Context(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Lister les devis
// @Tags         devis
// @Security     Bearer
// @Produce      json
// @Param        limit   query     int  false  "Taille de page (20 par défaut, 100 max)"
// @Param        offset  query     int  false  "Décalage"
// @Success      200     {array}   dto.QuoteResponse
// @Router       /api/devis [get]
func (h *DevisHandler) List(c *fiber.Ctx) error {
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
// @Summary      Détail d'un devis
// @Tags         devis
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID du devis"
// @Success      200  {object}  dto.QuoteResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/devis/{id} [get]
func (h *DevisHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.Context(), GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Modifier un devis
// @Description  Remplace lignes, notes et validité. Refusé une fois la facture émise.
// @Tags         devis
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "ID du devis"
// @Param        body  body      dto.UpdateQuoteRequest  true  "Devis"
// @Success      200   {object}  dto.QuoteResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/devis/{id} [put]
func (h *DevisHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateQuoteRequest
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, CodeInvalidBody, "corps invalide")
	}
	out, err := h.uc.Update(c.Context(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Supprimer un devis
// @Tags         devis
// @Security     Bearer
// @Param        id   path  string  true  "ID du devis"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/devis/{id} [delete]
func (h *DevisHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.Context(), GetUserID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetStatus godoc
// @Summary      Changer le statut d'un devis
// @Tags         devis
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                     true  "ID du devis"
// @Param        body  body      dto.SetQuoteStatusRequest  true  "Statut"
// @Success      200   {object}  dto.QuoteResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/devis/{id}/statut [patch]
func (h *DevisHandler) SetStatus(c *fiber.Ctx) error {
	var in dto.SetQuoteStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, CodeInvalidBody, "corps invalide")
	}
	out, err := h.uc.SetStatus(c.Context(), GetUserID(c), c.Params("id"), in.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Convert godoc
// @Summary      Transformer un devis accepté en facture
// @Tags         devis
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID du devis"
// @Success      201  {object}  dto.InvoiceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/devis/{id}/facture [post]
func (h *DevisHandler) Convert(c *fiber.Ctx) error {
	out, err := h.uc.ConvertToInvoice(c.Context(), GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// NextNumber godoc
// @Summary      Aperçu du prochain numéro de devis
// @Tags         devis
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.NextNumberResponse
// @Router       /api/devis/prochain-numero [get]
func (h *DevisHandler) NextNumber(c *fiber.Ctx) error {
	out, err := h.uc.NextNumber(c.Context(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
