package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

func TestDisposalValue_SumaCantidadPorCosto(t *testing.T) {
	items := []entity.DisposalItem{
		{ProductID: "p-1", Quantity: 3, UnitCost: decimal.RequireFromString("1500.50")},
		{ProductID: "p-2", Quantity: 2, UnitCost: decimal.NewFromInt(1000)},
	}
	assert.True(t, decimal.RequireFromString("6501.50").Equal(inventory.DisposalValue(items)))
	assert.True(t, inventory.DisposalValue(nil).IsZero())
}

// El umbral es inclusivo: un valor igual al umbral va a junta.
func TestClassify_LimiteDelUmbral(t *testing.T) {
	threshold := decimal.NewFromInt(50000)

	assert.Equal(t, entity.ApprovalDirect, inventory.Classify(decimal.RequireFromString("49999.99"), threshold))
	assert.Equal(t, entity.ApprovalRequiresBoardApproval, inventory.Classify(decimal.NewFromInt(50000), threshold))
	assert.Equal(t, entity.ApprovalRequiresBoardApproval, inventory.Classify(decimal.NewFromInt(50001), threshold))
}

func TestPendingStatusFor(t *testing.T) {
	assert.Equal(t, entity.DisposalStatusPending, inventory.PendingStatusFor(entity.ApprovalDirect))
	assert.Equal(t, entity.DisposalStatusPendingBoardApproval, inventory.PendingStatusFor(entity.ApprovalRequiresBoardApproval))
}
