package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipo de orden de baja.
type DisposalKind string

const (
	DisposalKindDisposal DisposalKind = "DISPOSAL" // destrucción / baja
	DisposalKindReturn   DisposalKind = "RETURN"   // devolución
)

// Estados de una orden de baja o devolución.
type DisposalStatus string

const (
	DisposalStatusPending              DisposalStatus = "PENDING"
	DisposalStatusPendingBoardApproval DisposalStatus = "PENDING_BOARD_APPROVAL"
	DisposalStatusApproved             DisposalStatus = "APPROVED"
	DisposalStatusApplied              DisposalStatus = "APPLIED"
	DisposalStatusRejected             DisposalStatus = "REJECTED"
)

// Clasificación de aprobación según el valor de la orden.
type ApprovalClass string

const (
	ApprovalDirect                ApprovalClass = "DIRECT_APPROVAL"
	ApprovalRequiresBoardApproval ApprovalClass = "REQUIRES_BOARD_APPROVAL"
)

// DisposalItem línea de una orden de baja.
type DisposalItem struct {
	ProductID string
	Batch     string
	Quantity  int64
	UnitCost  decimal.Decimal // costo del catálogo al momento del envío
}

// DisposalOrder orden de baja o devolución sujeta a la política de aprobación.
type DisposalOrder struct {
	ID             string
	Kind           DisposalKind
	Reason         string
	LocationID     string
	Date           time.Time
	Items          []DisposalItem
	Value          decimal.Decimal
	Classification ApprovalClass
	Status         DisposalStatus
	Council        string // acta o comité que aprobó (opcional)
	Attachment     string // referencia externa al soporte (opcional)
	DecidedBy      string // quien aprobó o rechazó
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MovementReason devuelve el motivo de movimiento según el tipo de orden.
func (d *DisposalOrder) MovementReason() MovementReason {
	if d.Kind == DisposalKindReturn {
		return MovementReasonReturn
	}
	return MovementReasonDisposal
}
