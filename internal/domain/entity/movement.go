package entity

import "time"

// Motivo de un movimiento de stock.
type MovementReason string

const (
	MovementReasonReceipt    MovementReason = "RECEIPT"
	MovementReasonDelivery   MovementReason = "DELIVERY"
	MovementReasonAdjustment MovementReason = "ADJUSTMENT"
	MovementReasonDisposal   MovementReason = "DISPOSAL"
	MovementReasonReturn     MovementReason = "RETURN"
)

// IsValid indica si el motivo pertenece al conjunto cerrado.
func (r MovementReason) IsValid() bool {
	switch r {
	case MovementReasonReceipt, MovementReasonDelivery, MovementReasonAdjustment,
		MovementReasonDisposal, MovementReasonReturn:
		return true
	}
	return false
}

// Movement es un cambio de cantidad firmado e inmutable (append-only).
// Delta positivo para entradas, negativo para salidas.
type Movement struct {
	ID               string
	ProductID        string
	LocationID       string
	Batch            string
	Delta            int64
	Reason           MovementReason
	SourceDocumentID string
	OccurredAt       time.Time
	CreatedBy        string
}

// Key devuelve la clave de stock afectada por el movimiento.
func (m Movement) Key() StockKey {
	return StockKey{ProductID: m.ProductID, LocationID: m.LocationID, Batch: m.Batch}
}

// Before ordena por OccurredAt ascendente y desempata por ID.
func (m Movement) Before(o Movement) bool {
	if !m.OccurredAt.Equal(o.OccurredAt) {
		return m.OccurredAt.Before(o.OccurredAt)
	}
	return m.ID < o.ID
}
