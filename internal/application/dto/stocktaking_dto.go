package dto

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// OpenStocktakingRequest body para POST /api/stocktakings.
type OpenStocktakingRequest struct {
	Name       string     `json:"name" validate:"required"`
	LocationID string     `json:"location_id" validate:"required"`
	Date       *time.Time `json:"date,omitempty"`
}

// RecordCountRequest body para POST /api/stocktakings/:id/counts.
type RecordCountRequest struct {
	ProductID      string `json:"product_id" validate:"required"`
	Batch          string `json:"batch,omitempty"`
	ActualQuantity int64  `json:"actual_quantity" validate:"gte=0"`
	Reason         string `json:"reason,omitempty"`
}

// AdjustmentResponse ajuste de inventario.
type AdjustmentResponse struct {
	ID               string    `json:"id"`
	StocktakingID    string    `json:"stocktaking_id"`
	ProductID        string    `json:"product_id"`
	Batch            string    `json:"batch,omitempty"`
	RecordedQuantity int64     `json:"recorded_quantity"`
	ActualQuantity   int64     `json:"actual_quantity"`
	Difference       int64     `json:"difference"`
	Reason           string    `json:"reason,omitempty"`
	Status           string    `json:"status"`
	CountedAt        time.Time `json:"counted_at"`
	DecidedBy        string    `json:"decided_by,omitempty"`
}

// AdjustmentListResponse página de ajustes.
type AdjustmentListResponse struct {
	Items []AdjustmentResponse `json:"items"`
	Page  PageResponse         `json:"page"`
}

// StocktakingResponse toma de inventario.
type StocktakingResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	LocationID string    `json:"location_id"`
	Date       time.Time `json:"date"`
	Status     string    `json:"status"`
}

func NewAdjustmentResponse(a *entity.StocktakingAdjustment) AdjustmentResponse {
	return AdjustmentResponse{
		ID:               a.ID,
		StocktakingID:    a.StocktakingID,
		ProductID:        a.ProductID,
		Batch:            a.Batch,
		RecordedQuantity: a.RecordedQuantity,
		ActualQuantity:   a.ActualQuantity,
		Difference:       a.Difference,
		Reason:           a.Reason,
		Status:           string(a.Status),
		CountedAt:        a.CountedAt,
		DecidedBy:        a.DecidedBy,
	}
}

func NewStocktakingResponse(st *entity.Stocktaking) StocktakingResponse {
	return StocktakingResponse{
		ID:         st.ID,
		Name:       st.Name,
		LocationID: st.LocationID,
		Date:       st.Date,
		Status:     string(st.Status),
	}
}
