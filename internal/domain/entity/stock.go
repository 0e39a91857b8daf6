package entity

import (
	"cmp"
	"strconv"
	"strings"
	"time"
)

// Estados de una fila de stock.
type StockStatus string

const (
	StockStatusAvailable   StockStatus = "AVAILABLE"
	StockStatusReserved    StockStatus = "RESERVED"
	StockStatusQuarantined StockStatus = "QUARANTINED"
	StockStatusExpired     StockStatus = "EXPIRED"
)

// IsValid indica si el estado pertenece al conjunto cerrado.
func (s StockStatus) IsValid() bool {
	switch s {
	case StockStatusAvailable, StockStatusReserved, StockStatusQuarantined, StockStatusExpired:
		return true
	}
	return false
}

// StockKey identifica una fila de stock: producto + ubicación + lote (opcional, "" = sin lote).
type StockKey struct {
	ProductID  string
	LocationID string
	Batch      string
}

// String devuelve la representación canónica de la clave: cada campo entre comillas
// (strconv.Quote), así dos claves distintas nunca comparten texto aunque los ids lleven "|".
func (k StockKey) String() string {
	return strconv.Quote(k.ProductID) + "|" + strconv.Quote(k.LocationID) + "|" + strconv.Quote(k.Batch)
}

// Less ordena claves por producto, ubicación y lote; es el orden de bloqueo.
func (k StockKey) Less(o StockKey) bool {
	return k.Compare(o) < 0
}

// Compare compara campo a campo (-1, 0, +1).
func (k StockKey) Compare(o StockKey) int {
	return cmp.Or(
		strings.Compare(k.ProductID, o.ProductID),
		strings.Compare(k.LocationID, o.LocationID),
		strings.Compare(k.Batch, o.Batch),
	)
}

// StockRow es la proyección materializada de los movimientos de una clave.
// Quantity nunca es negativa; Version se incrementa con cada movimiento aplicado.
type StockRow struct {
	Key            StockKey
	Quantity       int64
	Status         StockStatus
	Version        int64
	LastMovementAt *time.Time
	UpdatedAt      time.Time
}

// NewStockRow crea una fila vacía disponible para la clave dada.
func NewStockRow(key StockKey) *StockRow {
	return &StockRow{Key: key, Status: StockStatusAvailable}
}
