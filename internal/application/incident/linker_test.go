package incident_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/incident"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/stocktaking"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

type fixture struct {
	linker     *incident.Linker
	processor  *inventory.MovementProcessor
	reconciler *stocktaking.Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.PutProduct(entity.Product{ID: "p-1", SKU: "SKU-1", Name: "Tornillo"})
	store.PutLocation(entity.Location{ID: "loc-1", Name: "Bodega"})
	reads := store.Repositories()
	ledger := inventory.NewStockLedger(store, reads, dto.DefaultPagination(), 0)
	return &fixture{
		linker:     incident.NewLinker(store, reads),
		processor:  inventory.NewMovementProcessor(store, reads, ledger, nil),
		reconciler: stocktaking.NewReconciler(store, reads, ledger, dto.DefaultPagination()),
	}
}

func (f *fixture) receiptID(t *testing.T) string {
	t.Helper()
	r, err := f.processor.CreateReceipt(context.Background(), inventory.CreateReceiptInput{
		SupplierID: "sup-1", LocationID: "loc-1",
		Lines: []entity.DocumentLine{{ProductID: "p-1", Quantity: 3}},
	})
	require.NoError(t, err)
	return r.ID
}

// ──────────────────────────────────────────────────────────────────────────────
// Record / Link
// ──────────────────────────────────────────────────────────────────────────────

func TestLinker_Record_SinReferencia(t *testing.T) {
	f := newFixture(t)
	inc, err := f.linker.Record(context.Background(), incident.RecordInput{Type: "DAMAGE", Note: "caja mojada"})
	require.NoError(t, err)
	assert.NotEmpty(t, inc.ID)
	assert.False(t, inc.Date.IsZero())

	res, err := f.linker.Resolve(context.Background(), inc.ID)
	require.NoError(t, err)
	assert.False(t, res.Linked)
	assert.Equal(t, inc.ID, res.Incident.ID)
}

func TestLinker_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.linker.Record(ctx, incident.RecordInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.linker.Record(ctx, incident.RecordInput{Type: "X", Related: &entity.RelatedRef{Kind: "INVOICE", ID: "f-1"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.linker.Link(ctx, "inc-404", entity.RelatedRef{Kind: entity.RelatedKindReceipt, ID: "r-1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	inc, err := f.linker.Record(ctx, incident.RecordInput{Type: "X"})
	require.NoError(t, err)
	_, err = f.linker.Link(ctx, inc.ID, entity.RelatedRef{Kind: entity.RelatedKindDelivery})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "referencia sin id")
}

// ──────────────────────────────────────────────────────────────────────────────
// Resolve
// ──────────────────────────────────────────────────────────────────────────────

func TestLinker_Resolve_Recepcion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	receiptID := f.receiptID(t)

	inc, err := f.linker.Record(ctx, incident.RecordInput{
		Type:    "SHORTAGE",
		Related: &entity.RelatedRef{Kind: entity.RelatedKindReceipt, ID: receiptID},
	})
	require.NoError(t, err)

	res, err := f.linker.Resolve(ctx, inc.ID)
	require.NoError(t, err)
	assert.True(t, res.Linked)
	assert.Equal(t, entity.RelatedKindReceipt, res.Kind)
	require.NotNil(t, res.Receipt)
	assert.Equal(t, receiptID, res.Receipt.ID)
}

// La referencia se guarda aunque el documento no exista; resolver no falla.
func TestLinker_Resolve_ReferenciaColgante(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inc, err := f.linker.Record(ctx, incident.RecordInput{Type: "X"})
	require.NoError(t, err)

	linked, err := f.linker.Link(ctx, inc.ID, entity.RelatedRef{Kind: entity.RelatedKindDelivery, ID: "d-borrado"})
	require.NoError(t, err)
	require.NotNil(t, linked.Related)
	assert.Equal(t, "d-borrado", linked.Related.ID)

	res, err := f.linker.Resolve(ctx, inc.ID)
	require.NoError(t, err)
	assert.False(t, res.Linked)
	assert.Nil(t, res.Delivery)
}

// Con tipo desconocido se prueban recepción, despacho y toma.
func TestLinker_Resolve_TipoDesconocido(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st, err := f.reconciler.Open(ctx, stocktaking.OpenInput{Name: "Conteo", LocationID: "loc-1"})
	require.NoError(t, err)

	inc, err := f.linker.Record(ctx, incident.RecordInput{Type: "COUNT", Related: &entity.RelatedRef{ID: st.ID}})
	require.NoError(t, err)

	res, err := f.linker.Resolve(ctx, inc.ID)
	require.NoError(t, err)
	assert.True(t, res.Linked)
	assert.Equal(t, entity.RelatedKindStocktaking, res.Kind)
	require.NotNil(t, res.Stocktaking)
	assert.Equal(t, st.ID, res.Stocktaking.ID)
}

// Tipo explícito equivocado: no se prueba otro tipo.
func TestLinker_Resolve_TipoIncorrecto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	receiptID := f.receiptID(t)

	inc, err := f.linker.Record(ctx, incident.RecordInput{
		Type:    "X",
		Related: &entity.RelatedRef{Kind: entity.RelatedKindStocktaking, ID: receiptID},
	})
	require.NoError(t, err)
	res, err := f.linker.Resolve(ctx, inc.ID)
	require.NoError(t, err)
	assert.False(t, res.Linked)
}

func TestLinker_Resolve_NovedadInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.linker.Resolve(context.Background(), "inc-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
