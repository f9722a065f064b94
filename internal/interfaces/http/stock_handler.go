package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/devifact/DeviFact-sub000/internal/application/dto"
	"github.com/devifact/DeviFact-sub000/internal/application/stock"
)

// StockHandler registre des mouvements de stock (option premium).
type StockHandler struct {
	uc *stock.UseCase
}

// NewStockHandler construit le handler.
func NewStockHandler(uc *stock.UseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// RecordMovement godoc
// @Summary      Enregistrer un mouvement de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.RecordMovementRequest  true  "Mouvement"
// @Success      201   {object}  dto.StockMovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/mouvements [post]
func (h *StockHandler) RecordMovement(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, CodeInvalidBody, "corps invalide")
	}
	if in.ProductID == "" {
		return fail(c, fiber.StatusBadRequest, CodeValidation, "produit_id requis")
	}
	out, err := h.uc.RecordMovement(c.Context(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListMovements godoc
// @Summary      Mouvements d'un produit
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id      path      string  true   "ID du produit"
// @Param        limit   query     int     false  "Taille de page"
// @Param        offset  query     int     false  "Décalage"
// @Success      200     {array}   dto.StockMovementResponse
// @Router       /api/stock/produits/{id}/mouvements [get]
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return fail(c, fiber.StatusBadRequest, CodeValidation, "pagination invalide")
	}
	out, err := h.uc.ListMovements(c.Context(), GetUserID(c), c.Params("id"), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// LowStock godoc
// @Summary      Produits sous le stock minimum
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.LowStockResponse
// @Router       /api/stock/alertes [get]
func (h *StockHandler) LowStock(c *fiber.Ctx) error {
	out, err := h.uc.LowStock(c.Context(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
