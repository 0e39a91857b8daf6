package dto

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SetStockStatusRequest body para PUT /api/stock/status.
type SetStockStatusRequest struct {
	ProductID  string `json:"product_id" validate:"required"`
	LocationID string `json:"location_id" validate:"required"`
	Batch      string `json:"batch,omitempty"`
	Status     string `json:"status" validate:"required,oneof=AVAILABLE RESERVED QUARANTINED EXPIRED"`
}

// DocumentLineRequest línea de recepción o despacho.
type DocumentLineRequest struct {
	ProductID        string          `json:"product_id" validate:"required"`
	Batch            string          `json:"batch,omitempty"`
	Quantity         int64           `json:"quantity" validate:"required,gt=0"`
	Price            decimal.Decimal `json:"price"`
	ShortageQuantity int64           `json:"shortage_quantity,omitempty" validate:"gte=0"`
	DamagedQuantity  int64           `json:"damaged_quantity,omitempty" validate:"gte=0"`
}

// CreateReceiptRequest body para POST /api/receipts.
type CreateReceiptRequest struct {
	SupplierID   string                `json:"supplier_id" validate:"required"`
	LocationID   string                `json:"location_id" validate:"required"`
	Date         *time.Time            `json:"date,omitempty"`
	Lines        []DocumentLineRequest `json:"lines" validate:"required,min=1,dive"`
	HasShortage  bool                  `json:"has_shortage"`
	ShortageNote string                `json:"shortage_note,omitempty"`
	DamageNote   string                `json:"damage_note,omitempty"`
}

// CreateDeliveryRequest body para POST /api/deliveries.
type CreateDeliveryRequest struct {
	CustomerID string                `json:"customer_id" validate:"required"`
	LocationID string                `json:"location_id" validate:"required"`
	Date       *time.Time            `json:"date,omitempty"`
	Lines      []DocumentLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ToLines convierte las líneas del request a entidades.
func ToLines(in []DocumentLineRequest) []entity.DocumentLine {
	lines := make([]entity.DocumentLine, 0, len(in))
	for _, l := range in {
		lines = append(lines, entity.DocumentLine{
			ProductID:        l.ProductID,
			Batch:            l.Batch,
			Quantity:         l.Quantity,
			Price:            l.Price,
			ShortageQuantity: l.ShortageQuantity,
			DamagedQuantity:  l.DamagedQuantity,
		})
	}
	return lines
}

// MovementResponse movimiento del libro de stock.
type MovementResponse struct {
	ID               string    `json:"id"`
	ProductID        string    `json:"product_id"`
	LocationID       string    `json:"location_id"`
	Batch            string    `json:"batch,omitempty"`
	Delta            int64     `json:"delta"`
	Reason           string    `json:"reason"`
	SourceDocumentID string    `json:"source_document_id"`
	OccurredAt       time.Time `json:"occurred_at"`
	CreatedBy        string    `json:"created_by,omitempty"`
}

// MovementListResponse página del historial.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// StockResponse cantidad actual de una clave.
type StockResponse struct {
	ProductID      string     `json:"product_id"`
	LocationID     string     `json:"location_id"`
	Batch          string     `json:"batch,omitempty"`
	Quantity       int64      `json:"quantity"`
	Status         string     `json:"status"`
	LastMovementAt *time.Time `json:"last_movement_at,omitempty"`
}

// OnHandResponse existencias totales de un producto.
type OnHandResponse struct {
	ProductID string          `json:"product_id"`
	Total     int64           `json:"total"`
	Rows      []StockResponse `json:"rows"`
}

// DriftResponse diferencia entre la fila materializada y el replay de movimientos.
type DriftResponse struct {
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
	Batch      string `json:"batch,omitempty"`
	Stored     int64  `json:"stored"`
	Replayed   int64  `json:"replayed"`
}

// DocumentLineResponse línea de documento.
type DocumentLineResponse struct {
	ProductID        string          `json:"product_id"`
	Batch            string          `json:"batch,omitempty"`
	Quantity         int64           `json:"quantity"`
	Price            decimal.Decimal `json:"price"`
	ShortageQuantity int64           `json:"shortage_quantity,omitempty"`
	DamagedQuantity  int64           `json:"damaged_quantity,omitempty"`
}

// ReceiptResponse recepción.
type ReceiptResponse struct {
	ID           string                 `json:"id"`
	SupplierID   string                 `json:"supplier_id"`
	LocationID   string                 `json:"location_id"`
	Date         time.Time              `json:"date"`
	Status       string                 `json:"status"`
	Lines        []DocumentLineResponse `json:"lines"`
	HasShortage  bool                   `json:"has_shortage"`
	ShortageNote string                 `json:"shortage_note,omitempty"`
	DamageNote   string                 `json:"damage_note,omitempty"`
	PostedAt     *time.Time             `json:"posted_at,omitempty"`
}

// DeliveryResponse despacho.
type DeliveryResponse struct {
	ID         string                 `json:"id"`
	CustomerID string                 `json:"customer_id"`
	LocationID string                 `json:"location_id"`
	Date       time.Time              `json:"date"`
	Status     string                 `json:"status"`
	Lines      []DocumentLineResponse `json:"lines"`
	PostedAt   *time.Time             `json:"posted_at,omitempty"`
}

func NewMovementResponse(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:               m.ID,
		ProductID:        m.ProductID,
		LocationID:       m.LocationID,
		Batch:            m.Batch,
		Delta:            m.Delta,
		Reason:           string(m.Reason),
		SourceDocumentID: m.SourceDocumentID,
		OccurredAt:       m.OccurredAt,
		CreatedBy:        m.CreatedBy,
	}
}

func NewStockResponse(r *entity.StockRow) StockResponse {
	return StockResponse{
		ProductID:      r.Key.ProductID,
		LocationID:     r.Key.LocationID,
		Batch:          r.Key.Batch,
		Quantity:       r.Quantity,
		Status:         string(r.Status),
		LastMovementAt: r.LastMovementAt,
	}
}

func newLineResponses(lines []entity.DocumentLine) []DocumentLineResponse {
	out := make([]DocumentLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, DocumentLineResponse{
			ProductID:        l.ProductID,
			Batch:            l.Batch,
			Quantity:         l.Quantity,
			Price:            l.Price,
			ShortageQuantity: l.ShortageQuantity,
			DamagedQuantity:  l.DamagedQuantity,
		})
	}
	return out
}

func NewReceiptResponse(r *entity.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ID:           r.ID,
		SupplierID:   r.SupplierID,
		LocationID:   r.LocationID,
		Date:         r.Date,
		Status:       string(r.Status),
		Lines:        newLineResponses(r.Lines),
		HasShortage:  r.HasShortage,
		ShortageNote: r.ShortageNote,
		DamageNote:   r.DamageNote,
		PostedAt:     r.PostedAt,
	}
}

func NewDeliveryResponse(d *entity.Delivery) DeliveryResponse {
	return DeliveryResponse{
		ID:         d.ID,
		CustomerID: d.CustomerID,
		LocationID: d.LocationID,
		Date:       d.Date,
		Status:     string(d.Status),
		Lines:      newLineResponses(d.Lines),
		PostedAt:   d.PostedAt,
	}
}
