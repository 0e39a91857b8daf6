package entity

import "time"

// Estados de un inventario físico (toma de inventario).
type StocktakingStatus string

const (
	StocktakingStatusOpen       StocktakingStatus = "OPEN"
	StocktakingStatusReconciled StocktakingStatus = "RECONCILED"
	StocktakingStatusClosed     StocktakingStatus = "CLOSED"
)

// Estados de un ajuste de inventario.
type AdjustmentStatus string

const (
	AdjustmentStatusPending  AdjustmentStatus = "PENDING"
	AdjustmentStatusApproved AdjustmentStatus = "APPROVED"
	AdjustmentStatusApplied  AdjustmentStatus = "APPLIED"
	AdjustmentStatusRejected AdjustmentStatus = "REJECTED"
)

// IsTerminal indica si el ajuste ya no admite transiciones.
func (s AdjustmentStatus) IsTerminal() bool {
	return s == AdjustmentStatusApplied || s == AdjustmentStatusRejected
}

// Stocktaking agrupa los conteos físicos de una ubicación.
type Stocktaking struct {
	ID          string
	Name        string
	LocationID  string
	Date        time.Time
	Status      StocktakingStatus
	Adjustments []StocktakingAdjustment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StocktakingAdjustment compara la cantidad registrada con la contada.
// Difference = ActualQuantity - RecordedQuantity, siempre.
type StocktakingAdjustment struct {
	ID               string
	StocktakingID    string
	ProductID        string
	Batch            string
	RecordedQuantity int64
	ActualQuantity   int64
	Difference       int64
	Reason           string
	Status           AdjustmentStatus
	CountedAt        time.Time
	DecidedBy        string
	UpdatedAt        time.Time
}

// RecordCount fija los valores del conteo y recalcula la diferencia.
func (a *StocktakingAdjustment) RecordCount(recorded, actual int64, reason string, now time.Time) {
	a.RecordedQuantity = recorded
	a.ActualQuantity = actual
	a.Difference = actual - recorded
	a.Reason = reason
	a.Status = AdjustmentStatusPending
	a.CountedAt = now
	a.UpdatedAt = now
}
