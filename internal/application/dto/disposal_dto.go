package dto

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// DisposalItemRequest línea de una orden de baja.
type DisposalItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Batch     string `json:"batch,omitempty"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
}

// SubmitDisposalRequest body para POST /api/disposals.
type SubmitDisposalRequest struct {
	Kind       string                `json:"kind" validate:"required,oneof=DISPOSAL RETURN"`
	Reason     string                `json:"reason" validate:"required"`
	LocationID string                `json:"location_id" validate:"required"`
	Date       *time.Time            `json:"date,omitempty"`
	Items      []DisposalItemRequest `json:"items" validate:"required,min=1,dive"`
	Attachment string                `json:"attachment,omitempty"`
}

// ApproveDisposalRequest body opcional para POST /api/disposals/:id/approve.
type ApproveDisposalRequest struct {
	Council string `json:"council,omitempty"`
}

// ClassifyRequest body para POST /api/disposals/classify.
type ClassifyRequest struct {
	Value decimal.Decimal `json:"value"`
}

// ClassifyResponse resultado de la clasificación.
type ClassifyResponse struct {
	Value          decimal.Decimal `json:"value"`
	Threshold      decimal.Decimal `json:"threshold"`
	Classification string          `json:"classification"`
}

// DisposalItemResponse línea valorizada.
type DisposalItemResponse struct {
	ProductID string          `json:"product_id"`
	Batch     string          `json:"batch,omitempty"`
	Quantity  int64           `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// DisposalResponse orden de baja o devolución.
type DisposalResponse struct {
	ID             string                 `json:"id"`
	Kind           string                 `json:"kind"`
	Reason         string                 `json:"reason"`
	LocationID     string                 `json:"location_id"`
	Date           time.Time              `json:"date"`
	Items          []DisposalItemResponse `json:"items"`
	Value          decimal.Decimal        `json:"value"`
	Classification string                 `json:"classification"`
	Status         string                 `json:"status"`
	Council        string                 `json:"council,omitempty"`
	Attachment     string                 `json:"attachment,omitempty"`
	DecidedBy      string                 `json:"decided_by,omitempty"`
}

func NewDisposalResponse(d *entity.DisposalOrder) DisposalResponse {
	items := make([]DisposalItemResponse, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, DisposalItemResponse{
			ProductID: it.ProductID,
			Batch:     it.Batch,
			Quantity:  it.Quantity,
			UnitCost:  it.UnitCost,
		})
	}
	return DisposalResponse{
		ID:             d.ID,
		Kind:           string(d.Kind),
		Reason:         d.Reason,
		LocationID:     d.LocationID,
		Date:           d.Date,
		Items:          items,
		Value:          d.Value,
		Classification: string(d.Classification),
		Status:         string(d.Status),
		Council:        d.Council,
		Attachment:     d.Attachment,
		DecidedBy:      d.DecidedBy,
	}
}
