package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un documento de entrada o salida (recepción / despacho).
type DocumentStatus string

const (
	DocumentStatusDraft  DocumentStatus = "DRAFT"
	DocumentStatusPosted DocumentStatus = "POSTED"
	DocumentStatusClosed DocumentStatus = "CLOSED"
)

// DocumentLine es una línea de recepción o despacho.
// ShortageQuantity y DamagedQuantity solo aplican a recepciones.
type DocumentLine struct {
	ProductID        string
	Batch            string
	Quantity         int64
	Price            decimal.Decimal
	ShortageQuantity int64
	DamagedQuantity  int64
}

// Receipt representa una recepción de mercancía de un proveedor.
// HasShortage, ShortageNote y DamageNote son informativos a nivel documento.
type Receipt struct {
	ID           string
	SupplierID   string
	LocationID   string
	Date         time.Time
	Status       DocumentStatus
	Lines        []DocumentLine
	HasShortage  bool
	ShortageNote string
	DamageNote   string
	PostedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Delivery representa un despacho a un cliente.
type Delivery struct {
	ID         string
	CustomerID string
	LocationID string
	Date       time.Time
	Status     DocumentStatus
	Lines      []DocumentLine
	PostedAt   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
