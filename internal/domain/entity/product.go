package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product producto del catálogo. UnitCost se usa para valorizar bajas y devoluciones.
type Product struct {
	ID        string
	SKU       string
	Name      string
	UnitCost  decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
