package dto

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CreateProductRequest body para POST /api/products.
type CreateProductRequest struct {
	ID       string          `json:"id,omitempty"`
	SKU      string          `json:"sku" validate:"required"`
	Name     string          `json:"name" validate:"required"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// ProductResponse producto del catálogo.
type ProductResponse struct {
	ID        string          `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{ID: p.ID, SKU: p.SKU, Name: p.Name, UnitCost: p.UnitCost, CreatedAt: p.CreatedAt}
}

// CreateLocationRequest body para POST /api/locations.
type CreateLocationRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name" validate:"required"`
}

// LocationResponse ubicación física.
type LocationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func NewLocationResponse(l *entity.Location) LocationResponse {
	return LocationResponse{ID: l.ID, Name: l.Name, CreatedAt: l.CreatedAt}
}
