package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
)

// RecordMovementRequest body de POST /api/stock/mouvements.
type RecordMovementRequest struct {
	ProductID   string           `json:"produit_id"`
	Type        string           `json:"type"` // in | out
	Quantity    decimal.Decimal  `json:"quantite"`
	UnitPrice   *decimal.Decimal `json:"prix_unitaire,omitempty"`
	DocumentRef string           `json:"reference_document,omitempty"`
	SupplierID  string           `json:"fournisseur_id,omitempty"`
	Notes       string           `json:"notes,omitempty"`
}

// StockMovementResponse mouvement enregistré.
type StockMovementResponse struct {
	ID          string           `json:"id"`
	ProductID   string           `json:"produit_id"`
	Type        string           `json:"type"`
	Quantity    decimal.Decimal  `json:"quantite"`
	StockBefore decimal.Decimal  `json:"stock_avant"`
	StockAfter  decimal.Decimal  `json:"stock_apres"`
	UnitPrice   *decimal.Decimal `json:"prix_unitaire,omitempty"`
	DocumentRef string           `json:"reference_document,omitempty"`
	SupplierID  string           `json:"fournisseur_id,omitempty"`
	Notes       string           `json:"notes,omitempty"`
	CreatedAt   time.Time        `json:"date"`
	LowStock    bool             `json:"stock_bas"`
}

// MovementFromEntity construit la réponse.
func MovementFromEntity(m *entity.StockMovement) *StockMovementResponse {
	return &StockMovementResponse{
		ID:          m.ID,
		ProductID:   m.ProductID,
		Type:        m.Type,
		Quantity:    m.Quantity,
		StockBefore: m.StockBefore,
		StockAfter:  m.StockAfter,
		UnitPrice:   m.UnitPrice,
		DocumentRef: m.DocumentRef,
		SupplierID:  m.SupplierID,
		Notes:       m.Notes,
		CreatedAt:   m.CreatedAt,
	}
}

// LowStockResponse produit en alerte.
type LowStockResponse struct {
	ProductID    string          `json:"produit_id"`
	Designation  string          `json:"designation"`
	Reference    string          `json:"reference,omitempty"`
	Unit         string          `json:"unite,omitempty"`
	CurrentStock decimal.Decimal `json:"stock_actuel"`
	MinimumStock decimal.Decimal `json:"stock_minimum"`
}
