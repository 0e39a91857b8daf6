package inventory

import (
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// DisposalValue valoriza una orden de baja (servicio de dominio).
// Valor = Σ (Cantidad * CostoUnitario)
func DisposalValue(items []entity.DisposalItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(decimal.NewFromInt(it.Quantity).Mul(it.UnitCost))
	}
	return total
}

// Classify decide la ruta de aprobación: junta si value >= threshold, directa si no.
func Classify(value, threshold decimal.Decimal) entity.ApprovalClass {
	if value.GreaterThanOrEqual(threshold) {
		return entity.ApprovalRequiresBoardApproval
	}
	return entity.ApprovalDirect
}

// PendingStatusFor devuelve el estado pendiente que corresponde a la clasificación.
func PendingStatusFor(class entity.ApprovalClass) entity.DisposalStatus {
	if class == entity.ApprovalRequiresBoardApproval {
		return entity.DisposalStatusPendingBoardApproval
	}
	return entity.DisposalStatusPending
}
