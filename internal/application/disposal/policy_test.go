package disposal_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/disposal"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

var (
	admin   = entity.Caller{UserID: "u-admin", Role: entity.RoleAdmin}
	manager = entity.Caller{UserID: "u-manager", Role: entity.RoleManager}
	staff   = entity.Caller{UserID: "u-staff", Role: entity.RoleStaff}
	key     = entity.StockKey{ProductID: "p-1", LocationID: "loc-1", Batch: "B1"}
)

type fixture struct {
	store  *memory.Store
	ledger *inventory.StockLedger
	policy *disposal.Policy
}

// newFixture: p-1 cuesta 1000, así 50 unidades alcanzan el umbral por defecto.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.PutProduct(entity.Product{ID: "p-1", SKU: "SKU-1", Name: "Taladro", UnitCost: decimal.NewFromInt(1000)})
	store.PutLocation(entity.Location{ID: "loc-1", Name: "Bodega"})
	reads := store.Repositories()
	ledger := inventory.NewStockLedger(store, reads, dto.DefaultPagination(), 0)
	f := &fixture{
		store:  store,
		ledger: ledger,
		policy: disposal.NewPolicy(store, reads, ledger, disposal.Config{}),
	}
	_, err := ledger.ApplyMovement(context.Background(), entity.Movement{
		ProductID: key.ProductID, LocationID: key.LocationID, Batch: key.Batch,
		Delta: 100, Reason: entity.MovementReasonReceipt, SourceDocumentID: "seed",
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) submit(t *testing.T, kind entity.DisposalKind, qty int64) *entity.DisposalOrder {
	t.Helper()
	d, err := f.policy.Submit(context.Background(), manager, disposal.SubmitInput{
		Kind:       kind,
		Reason:     "vencido",
		LocationID: "loc-1",
		Items:      []disposal.ItemInput{{ProductID: "p-1", Batch: "B1", Quantity: qty}},
	})
	require.NoError(t, err)
	return d
}

func (f *fixture) quantity(t *testing.T) int64 {
	t.Helper()
	q, err := f.ledger.CurrentQuantity(context.Background(), key)
	require.NoError(t, err)
	return q
}

// ──────────────────────────────────────────────────────────────────────────────
// Clasificación
// ──────────────────────────────────────────────────────────────────────────────

func TestPolicy_Submit_Clasificacion(t *testing.T) {
	f := newFixture(t)

	direct := f.submit(t, entity.DisposalKindDisposal, 49)
	assert.True(t, direct.Value.Equal(decimal.NewFromInt(49000)))
	assert.Equal(t, entity.ApprovalDirect, direct.Classification)
	assert.Equal(t, entity.DisposalStatusPending, direct.Status)
	assert.True(t, direct.Items[0].UnitCost.Equal(decimal.NewFromInt(1000)))

	board := f.submit(t, entity.DisposalKindDisposal, 50)
	assert.Equal(t, entity.ApprovalRequiresBoardApproval, board.Classification)
	assert.Equal(t, entity.DisposalStatusPendingBoardApproval, board.Status)

	assert.Equal(t, int64(100), f.quantity(t), "enviar no mueve stock")
}

func TestPolicy_UmbralConfigurable(t *testing.T) {
	f := newFixture(t)
	assert.True(t, f.policy.Threshold().Equal(disposal.DefaultHighValueThreshold))

	p := disposal.NewPolicy(nil, inventory.Repositories{}, nil, disposal.Config{HighValueThreshold: decimal.NewFromInt(10)})
	assert.Equal(t, entity.ApprovalRequiresBoardApproval, p.Classify(decimal.NewFromInt(10)))
	assert.Equal(t, entity.ApprovalDirect, p.Classify(decimal.RequireFromString("9.99")))
}

func TestPolicy_Submit_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := []struct {
		name string
		in   disposal.SubmitInput
		want error
	}{
		{"tipo desconocido", disposal.SubmitInput{Kind: "BURN", Reason: "x", LocationID: "loc-1", Items: []disposal.ItemInput{{ProductID: "p-1", Quantity: 1}}}, domain.ErrInvalidInput},
		{"sin motivo", disposal.SubmitInput{Kind: entity.DisposalKindDisposal, LocationID: "loc-1", Items: []disposal.ItemInput{{ProductID: "p-1", Quantity: 1}}}, domain.ErrInvalidInput},
		{"sin ítems", disposal.SubmitInput{Kind: entity.DisposalKindDisposal, Reason: "x", LocationID: "loc-1"}, domain.ErrInvalidInput},
		{"cantidad cero", disposal.SubmitInput{Kind: entity.DisposalKindReturn, Reason: "x", LocationID: "loc-1", Items: []disposal.ItemInput{{ProductID: "p-1"}}}, domain.ErrInvalidInput},
		{"ubicación inexistente", disposal.SubmitInput{Kind: entity.DisposalKindReturn, Reason: "x", LocationID: "loc-9", Items: []disposal.ItemInput{{ProductID: "p-1", Quantity: 1}}}, domain.ErrNotFound},
		{"producto inexistente", disposal.SubmitInput{Kind: entity.DisposalKindReturn, Reason: "x", LocationID: "loc-1", Items: []disposal.ItemInput{{ProductID: "p-9", Quantity: 1}}}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.policy.Submit(ctx, manager, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Aprobación y aplicación
// ──────────────────────────────────────────────────────────────────────────────

func TestPolicy_Directa_ManagerApruebaYAplica(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.submit(t, entity.DisposalKindReturn, 10)

	_, err := f.policy.Approve(ctx, staff, d.ID, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	approved, err := f.policy.Approve(ctx, manager, d.ID, "Comité semanal")
	require.NoError(t, err)
	assert.Equal(t, entity.DisposalStatusApproved, approved.Status)
	assert.Equal(t, "Comité semanal", approved.Council)
	assert.Equal(t, manager.UserID, approved.DecidedBy)

	applied, err := f.policy.Apply(ctx, manager, d.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DisposalStatusApplied, applied.Status)
	assert.Equal(t, int64(90), f.quantity(t))

	batch := "B1"
	for m, err := range f.ledger.History(ctx, inventory.HistoryQuery{ProductID: "p-1", Batch: &batch}) {
		require.NoError(t, err)
		if m.SourceDocumentID == d.ID {
			assert.Equal(t, entity.MovementReasonReturn, m.Reason)
			assert.Equal(t, int64(-10), m.Delta)
		}
	}

	_, err = f.policy.Apply(ctx, manager, d.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, int64(90), f.quantity(t))
}

func TestPolicy_Junta_SoloAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.submit(t, entity.DisposalKindDisposal, 60)

	_, err := f.policy.Approve(ctx, manager, d.ID, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	got, err := f.policy.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DisposalStatusPendingBoardApproval, got.Status)

	_, err = f.policy.Approve(ctx, admin, d.ID, "Junta directiva")
	require.NoError(t, err)
	_, err = f.policy.Apply(ctx, manager, d.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.policy.Apply(ctx, admin, d.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40), f.quantity(t))
}

func TestPolicy_Reject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.submit(t, entity.DisposalKindDisposal, 5)

	rejected, err := f.policy.Reject(ctx, manager, d.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DisposalStatusRejected, rejected.Status)
	assert.Equal(t, manager.UserID, rejected.DecidedBy)

	_, err = f.policy.Approve(ctx, manager, d.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.policy.Apply(ctx, admin, d.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.policy.Reject(ctx, manager, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, int64(100), f.quantity(t))
}

// Sin stock suficiente la orden se queda APPROVED y se puede reintentar.
// Una orden cuyo estado no corresponde a su clasificación no se aprueba con ningún rol.
func TestPolicy_Approve_EstadoNoCorrespondeAClasificacion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	put := func(id string, class entity.ApprovalClass, status entity.DisposalStatus) {
		err := f.store.Run(ctx, func(repos inventory.Repositories) error {
			return repos.Disposals.Create(ctx, &entity.DisposalOrder{
				ID: id, Kind: entity.DisposalKindDisposal, Reason: "vencido", LocationID: "loc-1",
				Items:          []entity.DisposalItem{{ProductID: "p-1", Batch: "B1", Quantity: 60, UnitCost: decimal.NewFromInt(1000)}},
				Value:          decimal.NewFromInt(60000),
				Classification: class,
				Status:         status,
			})
		})
		require.NoError(t, err)
	}
	put("d-junta-pendiente", entity.ApprovalRequiresBoardApproval, entity.DisposalStatusPending)
	put("d-directa-junta", entity.ApprovalDirect, entity.DisposalStatusPendingBoardApproval)

	for _, caller := range []entity.Caller{admin, manager} {
		_, err := f.policy.Approve(ctx, caller, "d-junta-pendiente", "")
		assert.ErrorIs(t, err, domain.ErrInvalidState, caller.Role)
		_, err = f.policy.Approve(ctx, caller, "d-directa-junta", "")
		assert.ErrorIs(t, err, domain.ErrInvalidState, caller.Role)
	}
	got, err := f.policy.Get(ctx, "d-junta-pendiente")
	require.NoError(t, err)
	assert.Equal(t, entity.DisposalStatusPending, got.Status)
	assert.Equal(t, int64(100), f.quantity(t))
}

func TestPolicy_Apply_InsuficienteYReintento(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.submit(t, entity.DisposalKindDisposal, 30)
	_, err := f.policy.Approve(ctx, manager, d.ID, "")
	require.NoError(t, err)

	_, err = f.ledger.ApplyMovement(ctx, entity.Movement{
		ProductID: key.ProductID, LocationID: key.LocationID, Batch: key.Batch,
		Delta: -80, Reason: entity.MovementReasonDelivery, SourceDocumentID: "d-1",
	})
	require.NoError(t, err)

	_, err = f.policy.Apply(ctx, manager, d.ID)
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(30), insufficient.Requested)
	assert.Equal(t, int64(20), insufficient.Available)

	got, err := f.policy.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DisposalStatusApproved, got.Status)

	_, err = f.ledger.ApplyMovement(ctx, entity.Movement{
		ProductID: key.ProductID, LocationID: key.LocationID, Batch: key.Batch,
		Delta: 10, Reason: entity.MovementReasonReceipt, SourceDocumentID: "r-2",
	})
	require.NoError(t, err)
	_, err = f.policy.Apply(ctx, manager, d.ID)
	require.NoError(t, err)
	assert.Zero(t, f.quantity(t))
}
