package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/telemetry"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var (
	admin = entity.Caller{UserID: "u-admin", Role: entity.RoleAdmin}
	keyL1 = entity.StockKey{ProductID: "p-1", LocationID: "loc-1", Batch: "L1"}
)

type fixture struct {
	store     *memory.Store
	metrics   *telemetry.Metrics
	ledger    *inventory.StockLedger
	processor *inventory.MovementProcessor
}

// clock reloj determinista que avanza un segundo por lectura.
func clock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

// newFixture arma el libro y el procesador sobre un almacén en memoria con
// los productos p-1, p-2 y las ubicaciones loc-1, loc-2.
func newFixture(t *testing.T, locker inventory.DocumentLocker) *fixture {
	t.Helper()
	return newFixtureWithClock(t, locker, clock())
}

// newFixtureWithClock igual que newFixture con el reloj dado.
func newFixtureWithClock(t *testing.T, locker inventory.DocumentLocker, now func() time.Time) *fixture {
	t.Helper()
	store := memory.NewStore()
	for _, id := range []string{"p-1", "p-2"} {
		store.PutProduct(entity.Product{ID: id, SKU: "SKU-" + id, Name: id, UnitCost: decimal.NewFromInt(100)})
	}
	for _, id := range []string{"loc-1", "loc-2"} {
		store.PutLocation(entity.Location{ID: id, Name: id})
	}
	metrics := telemetry.NewMetrics("test")
	opts := []inventory.Option{inventory.WithMetrics(metrics), inventory.WithClock(now)}
	reads := store.Repositories()
	ledger := inventory.NewStockLedger(store, reads, dto.DefaultPagination(), 2, opts...)
	return &fixture{
		store:     store,
		metrics:   metrics,
		ledger:    ledger,
		processor: inventory.NewMovementProcessor(store, reads, ledger, locker, opts...),
	}
}

func (f *fixture) quantity(t *testing.T, key entity.StockKey) int64 {
	t.Helper()
	q, err := f.ledger.CurrentQuantity(context.Background(), key)
	require.NoError(t, err)
	return q
}

// movements cuenta los movimientos registrados para el producto.
func (f *fixture) movements(t *testing.T, productID string) int {
	t.Helper()
	_, page, err := f.ledger.HistoryPage(context.Background(), inventory.HistoryQuery{ProductID: productID}, dto.PageRequest{})
	require.NoError(t, err)
	return page.Total
}

func (f *fixture) apply(t *testing.T, key entity.StockKey, delta int64) {
	t.Helper()
	_, err := f.ledger.ApplyMovement(context.Background(), entity.Movement{
		ProductID:        key.ProductID,
		LocationID:       key.LocationID,
		Batch:            key.Batch,
		Delta:            delta,
		Reason:           entity.MovementReasonAdjustment,
		SourceDocumentID: "seed",
	})
	require.NoError(t, err)
}
