package stocktaking_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/stocktaking"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

var (
	manager = entity.Caller{UserID: "u-manager", Role: entity.RoleManager}
	staff   = entity.Caller{UserID: "u-staff", Role: entity.RoleStaff}
	keyA    = entity.StockKey{ProductID: "p-1", LocationID: "loc-1", Batch: "A"}
)

type fixture struct {
	ledger     *inventory.StockLedger
	reconciler *stocktaking.Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.PutProduct(entity.Product{ID: "p-1", SKU: "SKU-1", Name: "Cemento", UnitCost: decimal.NewFromInt(30)})
	store.PutProduct(entity.Product{ID: "p-2", SKU: "SKU-2", Name: "Arena", UnitCost: decimal.NewFromInt(10)})
	store.PutLocation(entity.Location{ID: "loc-1", Name: "Bodega"})
	reads := store.Repositories()
	ledger := inventory.NewStockLedger(store, reads, dto.DefaultPagination(), 0)
	return &fixture{
		ledger:     ledger,
		reconciler: stocktaking.NewReconciler(store, reads, ledger, dto.DefaultPagination()),
	}
}

func (f *fixture) put(t *testing.T, key entity.StockKey, delta int64) {
	t.Helper()
	_, err := f.ledger.ApplyMovement(context.Background(), entity.Movement{
		ProductID: key.ProductID, LocationID: key.LocationID, Batch: key.Batch,
		Delta: delta, Reason: entity.MovementReasonAdjustment, SourceDocumentID: "seed",
	})
	require.NoError(t, err)
}

func (f *fixture) quantity(t *testing.T, key entity.StockKey) int64 {
	t.Helper()
	q, err := f.ledger.CurrentQuantity(context.Background(), key)
	require.NoError(t, err)
	return q
}

func (f *fixture) open(t *testing.T) *entity.Stocktaking {
	t.Helper()
	st, err := f.reconciler.Open(context.Background(), stocktaking.OpenInput{Name: "Cierre marzo", LocationID: "loc-1"})
	require.NoError(t, err)
	return st
}

func (f *fixture) count(t *testing.T, stID string, productID, batch string, actual int64) *entity.StocktakingAdjustment {
	t.Helper()
	adj, err := f.reconciler.RecordCount(context.Background(), stID, stocktaking.CountInput{
		ProductID: productID, Batch: batch, ActualQuantity: actual, Reason: "conteo",
	})
	require.NoError(t, err)
	return adj
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo completo
// ──────────────────────────────────────────────────────────────────────────────

func TestReconciler_FlujoCompleto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.put(t, keyA, 10)

	st := f.open(t)
	assert.Equal(t, entity.StocktakingStatusOpen, st.Status)

	adj := f.count(t, st.ID, "p-1", "A", 7)
	assert.Equal(t, int64(10), adj.RecordedQuantity)
	assert.Equal(t, int64(-3), adj.Difference)
	assert.Equal(t, entity.AdjustmentStatusPending, adj.Status)
	assert.Equal(t, int64(10), f.quantity(t, keyA), "contar no mueve stock")

	_, err := f.reconciler.Reconcile(ctx, st.ID)
	require.NoError(t, err)

	_, err = f.reconciler.RecordCount(ctx, st.ID, stocktaking.CountInput{ProductID: "p-1", Batch: "A", ActualQuantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidState, "una toma conciliada no acepta conteos")

	approved, err := f.reconciler.ApproveAdjustment(ctx, manager, adj.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentStatusApproved, approved.Status)
	assert.Equal(t, manager.UserID, approved.DecidedBy)

	applied, err := f.reconciler.ApplyAdjustment(ctx, manager, adj.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentStatusApplied, applied.Status)
	assert.Equal(t, int64(7), f.quantity(t, keyA))

	_, err = f.reconciler.ApplyAdjustment(ctx, manager, adj.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "aplicar dos veces")
	assert.Equal(t, int64(7), f.quantity(t, keyA))

	closed, err := f.reconciler.Close(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StocktakingStatusClosed, closed.Status)

	got, err := f.reconciler.Get(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, got.Adjustments, 1)
	assert.Equal(t, entity.AdjustmentStatusApplied, got.Adjustments[0].Status)
}

func TestReconciler_RecordCount_ReconteoReemplaza(t *testing.T) {
	f := newFixture(t)
	f.put(t, keyA, 4)
	st := f.open(t)

	first := f.count(t, st.ID, "p-1", "A", 2)
	second := f.count(t, st.ID, "p-1", "A", 6)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(2), second.Difference)

	list, page, err := f.reconciler.ListAdjustments(context.Background(), st.ID, dto.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	require.Len(t, list, 1)
	assert.Equal(t, int64(6), list[0].ActualQuantity)
}

// Una clave sin fila de stock se registra con cantidad 0.
func TestReconciler_RecordCount_ClaveSinStock(t *testing.T) {
	f := newFixture(t)
	st := f.open(t)
	adj := f.count(t, st.ID, "p-2", "", 5)
	assert.Zero(t, adj.RecordedQuantity)
	assert.Equal(t, int64(5), adj.Difference)
}

func TestReconciler_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.reconciler.Open(ctx, stocktaking.OpenInput{Name: "x", LocationID: "loc-404"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.reconciler.Open(ctx, stocktaking.OpenInput{LocationID: "loc-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	st := f.open(t)
	_, err = f.reconciler.RecordCount(ctx, st.ID, stocktaking.CountInput{ProductID: "p-1", ActualQuantity: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.reconciler.RecordCount(ctx, st.ID, stocktaking.CountInput{ProductID: "p-404"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.reconciler.RecordCount(ctx, "st-404", stocktaking.CountInput{ProductID: "p-1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Decisiones
// ──────────────────────────────────────────────────────────────────────────────

func TestReconciler_StaffNoDecide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.put(t, keyA, 3)
	st := f.open(t)
	adj := f.count(t, st.ID, "p-1", "A", 1)
	_, err := f.reconciler.Reconcile(ctx, st.ID)
	require.NoError(t, err)

	_, err = f.reconciler.ApproveAdjustment(ctx, staff, adj.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.reconciler.RejectAdjustment(ctx, staff, adj.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.reconciler.ApproveAdjustment(ctx, manager, adj.ID)
	require.NoError(t, err)
	_, err = f.reconciler.ApplyAdjustment(ctx, staff, adj.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, int64(3), f.quantity(t, keyA))
}

func TestReconciler_DecidirAntesDeConciliar(t *testing.T) {
	f := newFixture(t)
	st := f.open(t)
	adj := f.count(t, st.ID, "p-1", "A", 1)

	_, err := f.reconciler.ApproveAdjustment(context.Background(), manager, adj.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.reconciler.ApproveAdjustment(context.Background(), manager, "adj-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReconciler_Close_RequiereAjustesTerminales(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := f.open(t)
	adj := f.count(t, st.ID, "p-1", "A", 2)

	_, err := f.reconciler.Close(ctx, st.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "una toma OPEN no se cierra")

	_, err = f.reconciler.Reconcile(ctx, st.ID)
	require.NoError(t, err)
	_, err = f.reconciler.Close(ctx, st.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "ajuste pendiente")

	_, err = f.reconciler.RejectAdjustment(ctx, manager, adj.ID)
	require.NoError(t, err)
	_, err = f.reconciler.Close(ctx, st.ID)
	require.NoError(t, err)
	assert.Zero(t, f.quantity(t, keyA), "un ajuste rechazado no mueve stock")
}

// El stock bajó entre el conteo y la aplicación: la diferencia guardada ya no cabe.
func TestReconciler_ApplyAdjustment_StockCambio(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.put(t, keyA, 5)
	st := f.open(t)
	adj := f.count(t, st.ID, "p-1", "A", 0)
	_, err := f.reconciler.Reconcile(ctx, st.ID)
	require.NoError(t, err)
	_, err = f.reconciler.ApproveAdjustment(ctx, manager, adj.ID)
	require.NoError(t, err)

	f.put(t, keyA, -3)
	_, err = f.reconciler.ApplyAdjustment(ctx, manager, adj.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(2), f.quantity(t, keyA))

	got, err := f.reconciler.Get(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentStatusApproved, got.Adjustments[0].Status)
}

func TestReconciler_ApplyAdjustment_DiferenciaCero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.put(t, keyA, 5)
	st := f.open(t)
	adj := f.count(t, st.ID, "p-1", "A", 5)
	_, err := f.reconciler.Reconcile(ctx, st.ID)
	require.NoError(t, err)
	_, err = f.reconciler.ApproveAdjustment(ctx, manager, adj.ID)
	require.NoError(t, err)

	applied, err := f.reconciler.ApplyAdjustment(ctx, manager, adj.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentStatusApplied, applied.Status)

	_, page, err := f.ledger.HistoryPage(ctx, inventory.HistoryQuery{ProductID: "p-1"}, dto.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total, "solo el movimiento inicial")
}

// ──────────────────────────────────────────────────────────────────────────────
// Abandono
// ──────────────────────────────────────────────────────────────────────────────

func TestReconciler_Abandon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	keyB := entity.StockKey{ProductID: "p-2", LocationID: "loc-1"}
	f.put(t, keyA, 5)
	f.put(t, keyB, 5)

	st := f.open(t)
	applied := f.count(t, st.ID, "p-1", "A", 4)
	pending := f.count(t, st.ID, "p-2", "", 1)
	_, err := f.reconciler.Reconcile(ctx, st.ID)
	require.NoError(t, err)
	_, err = f.reconciler.ApproveAdjustment(ctx, manager, applied.ID)
	require.NoError(t, err)
	_, err = f.reconciler.ApplyAdjustment(ctx, manager, applied.ID)
	require.NoError(t, err)

	out, err := f.reconciler.Abandon(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StocktakingStatusClosed, out.Status)

	got, err := f.reconciler.Get(ctx, st.ID)
	require.NoError(t, err)
	status := map[string]entity.AdjustmentStatus{}
	for _, a := range got.Adjustments {
		status[a.ID] = a.Status
	}
	assert.Equal(t, entity.AdjustmentStatusApplied, status[applied.ID])
	assert.Equal(t, entity.AdjustmentStatusRejected, status[pending.ID])
	assert.Equal(t, int64(4), f.quantity(t, keyA), "lo aplicado no se revierte")
	assert.Equal(t, int64(5), f.quantity(t, keyB))

	_, err = f.reconciler.Abandon(ctx, st.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}
