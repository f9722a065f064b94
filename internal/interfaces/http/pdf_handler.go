package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/devifact/DeviFact-sub000/internal/application/document"
	"github.com/devifact/DeviFact-sub000/internal/application/dto"
)

// PDFHandler rendu PDF des devis et factures.
type PDFHandler struct {
	uc *document.RenderUseCase
}

// NewPDFHandler construit le handler.
func NewPDFHandler(uc *document.RenderUseCase) *PDFHandler {
	return &PDFHandler{uc: uc}
}

// Render godoc
// @Summary      PDF d'un document fourni par le client
// @Tags         pdf
// @Accept       json
// @Produce      application/pdf
// @Param        body  body      dto.RenderRequest  true  "Document"
// @Success      200   {file}    file
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      405   {object}  dto.ErrorResponse
// @Router       /api/pdf [post]
func (h *PDFHandler) Render(c *fiber.Ctx) error {
	var in dto.RenderRequest
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, CodeInvalidBody, "corps invalide")
	}
	out, err := h.uc.FromPayload(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return sendPDF(c, out)
}

// MethodNotAllowed répond 405 aux méthodes autres que POST sur /api/pdf.
func (h *PDFHandler) MethodNotAllowed(c *fiber.Ctx) error {
	c.Set(fiber.HeaderAllow, fiber.MethodPost)
	return fail(c, fiber.StatusMethodNotAllowed, CodeMethodNotAllowed, "méthode non autorisée")
}

// Quote godoc
// @Summary      PDF d'un devis enregistré
// @Tags         pdf
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path      string  true  "ID du devis"
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/devis/{id}/pdf [get]
func (h *PDFHandler) Quote(c *fiber.Ctx) error {
	out, err := h.uc.RenderQuote(c.Context(), GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return sendPDF(c, out)
}

// Invoice godoc
// @Summary      PDF d'une facture enregistrée
// @Tags         pdf
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path      string  true  "ID de la facture"
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/factures/{id}/pdf [get]
func (h *PDFHandler) Invoice(c *fiber.Ctx) error {
	out, err := h.uc.RenderInvoice(c.Context(), GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return sendPDF(c, out)
}

func sendPDF(c *fiber.Ctx, out *document.Output) error {
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+out.Filename+`"`)
	return c.Send(out.Content)
}
