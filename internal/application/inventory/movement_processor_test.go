package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// busyLocker simula un documento tomado por otra réplica.
type busyLocker struct{}

func (busyLocker) Lock(_ context.Context, key string) (func(), error) {
	return nil, fmt.Errorf("%w: %s", domain.ErrConcurrencyConflict, key)
}

// countingLocker registra las claves bloqueadas.
type countingLocker struct {
	mu   sync.Mutex
	keys []string
}

func (l *countingLocker) Lock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	return func() {}, nil
}

func (f *fixture) receipt(t *testing.T, lines ...entity.DocumentLine) *entity.Receipt {
	t.Helper()
	r, err := f.processor.CreateReceipt(context.Background(), inventory.CreateReceiptInput{
		SupplierID: "sup-1",
		LocationID: "loc-1",
		Lines:      lines,
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) delivery(t *testing.T, lines ...entity.DocumentLine) *entity.Delivery {
	t.Helper()
	d, err := f.processor.CreateDelivery(context.Background(), inventory.CreateDeliveryInput{
		CustomerID: "cus-1",
		LocationID: "loc-1",
		Lines:      lines,
	})
	require.NoError(t, err)
	return d
}

// ──────────────────────────────────────────────────────────────────────────────
// Recepciones
// ──────────────────────────────────────────────────────────────────────────────

func TestMovementProcessor_PostReceipt_CantidadAceptada(t *testing.T) {
	locker := &countingLocker{}
	f := newFixture(t, locker)
	ctx := context.Background()

	r := f.receipt(t,
		entity.DocumentLine{ProductID: "p-1", Batch: "L1", Quantity: 10, ShortageQuantity: 1, DamagedQuantity: 2, Price: decimal.NewFromInt(5)},
		entity.DocumentLine{ProductID: "p-2", Quantity: 4, DamagedQuantity: 4},
	)
	assert.Equal(t, entity.DocumentStatusDraft, r.Status)

	posted, err := f.processor.PostReceipt(ctx, admin, r.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusPosted, posted.Status)
	require.NotNil(t, posted.PostedAt)

	assert.Equal(t, int64(7), f.quantity(t, keyL1))
	assert.Zero(t, f.quantity(t, entity.StockKey{ProductID: "p-2", LocationID: "loc-1"}))
	assert.Equal(t, 1, f.movements(t, "p-1"))
	assert.Zero(t, f.movements(t, "p-2"), "una línea sin cantidad aceptada no genera movimiento")
	assert.Equal(t, []string{"receipt:" + r.ID}, locker.keys)

	for m, err := range f.ledger.History(ctx, inventory.HistoryQuery{ProductID: "p-1"}) {
		require.NoError(t, err)
		assert.Equal(t, entity.MovementReasonReceipt, m.Reason)
		assert.Equal(t, r.ID, m.SourceDocumentID)
		assert.Equal(t, admin.UserID, m.CreatedBy)
	}
}

// Una línea totalmente dañada no deja fila de stock para su lote.
func TestMovementProcessor_PostReceipt_LineaSinAceptadosNoCreaFila(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	r := f.receipt(t,
		entity.DocumentLine{ProductID: "p-1", Batch: "L1", Quantity: 3},
		entity.DocumentLine{ProductID: "p-1", Batch: "DAN", Quantity: 4, DamagedQuantity: 4},
	)
	_, err := f.processor.PostReceipt(ctx, admin, r.ID)
	require.NoError(t, err)

	total, rows, err := f.ledger.OnHand(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "L1", rows[0].Key.Batch)
}

func TestMovementProcessor_PostReceipt_DobleContabilizacion(t *testing.T) {
	f := newFixture(t, nil)
	r := f.receipt(t, entity.DocumentLine{ProductID: "p-1", Batch: "L1", Quantity: 5})

	_, err := f.processor.PostReceipt(context.Background(), admin, r.ID)
	require.NoError(t, err)
	_, err = f.processor.PostReceipt(context.Background(), admin, r.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	assert.Equal(t, int64(5), f.quantity(t, keyL1))
	assert.Equal(t, 1, f.movements(t, "p-1"))
}

func TestMovementProcessor_PostReceipt_ConcurrenteUnaSolaVez(t *testing.T) {
	f := newFixture(t, nil)
	r := f.receipt(t, entity.DocumentLine{ProductID: "p-1", Batch: "L1", Quantity: 5})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.processor.PostReceipt(context.Background(), admin, r.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
				return
			}
			if !errors.Is(err, domain.ErrInvalidState) {
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, int64(5), f.quantity(t, keyL1))
}

func TestMovementProcessor_PostReceipt_ProductoInexistente(t *testing.T) {
	f := newFixture(t, nil)
	r := f.receipt(t,
		entity.DocumentLine{ProductID: "p-1", Batch: "L1", Quantity: 5},
		entity.DocumentLine{ProductID: "p-404", Quantity: 1},
	)
	_, err := f.processor.PostReceipt(context.Background(), admin, r.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := f.processor.GetReceipt(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusDraft, got.Status)
	assert.Zero(t, f.quantity(t, keyL1))
}

func TestMovementProcessor_PostReceipt_DocumentoBloqueado(t *testing.T) {
	f := newFixture(t, busyLocker{})
	r := f.receipt(t, entity.DocumentLine{ProductID: "p-1", Quantity: 1})

	_, err := f.processor.PostReceipt(context.Background(), admin, r.ID)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
	assert.Zero(t, f.movements(t, "p-1"))
}

func TestMovementProcessor_CreateReceipt_Validaciones(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.processor.CreateReceipt(ctx, inventory.CreateReceiptInput{SupplierID: "s", LocationID: "loc-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin líneas")

	_, err = f.processor.CreateReceipt(ctx, inventory.CreateReceiptInput{
		SupplierID: "s", LocationID: "loc-1",
		Lines: []entity.DocumentLine{{ProductID: "p-1", Quantity: 2, ShortageQuantity: 3}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "faltante mayor que la cantidad")

	_, err = f.processor.CreateReceipt(ctx, inventory.CreateReceiptInput{
		SupplierID: "s", LocationID: "loc-1",
		Lines: []entity.DocumentLine{{ProductID: "p-1", Quantity: 2, Price: decimal.NewFromInt(-1)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "precio negativo")
}

func TestMovementProcessor_CloseReceipt(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	r := f.receipt(t, entity.DocumentLine{ProductID: "p-1", Quantity: 1})

	_, err := f.processor.CloseReceipt(ctx, r.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "un borrador no se cierra")

	_, err = f.processor.PostReceipt(ctx, admin, r.ID)
	require.NoError(t, err)
	closed, err := f.processor.CloseReceipt(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusClosed, closed.Status)

	_, err = f.processor.CloseReceipt(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Despachos
// ──────────────────────────────────────────────────────────────────────────────

func TestMovementProcessor_PostDelivery(t *testing.T) {
	f := newFixture(t, nil)
	f.apply(t, keyL1, 10)
	d := f.delivery(t, entity.DocumentLine{ProductID: "p-1", Batch: "L1", Quantity: 4})

	posted, err := f.processor.PostDelivery(context.Background(), admin, d.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusPosted, posted.Status)
	assert.Equal(t, int64(6), f.quantity(t, keyL1))
}

// Todo o nada: si una línea no alcanza, ninguna se aplica y el despacho sigue en DRAFT.
func TestMovementProcessor_PostDelivery_InsuficienteRevierteTodo(t *testing.T) {
	f := newFixture(t, nil)
	keyP2 := entity.StockKey{ProductID: "p-2", LocationID: "loc-1"}
	f.apply(t, keyL1, 10)
	f.apply(t, keyP2, 1)

	d := f.delivery(t,
		entity.DocumentLine{ProductID: "p-1", Batch: "L1", Quantity: 4},
		entity.DocumentLine{ProductID: "p-2", Quantity: 3},
	)
	_, err := f.processor.PostDelivery(context.Background(), admin, d.ID)
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "p-2", insufficient.ProductID)

	assert.Equal(t, int64(10), f.quantity(t, keyL1))
	assert.Equal(t, int64(1), f.quantity(t, keyP2))
	assert.Equal(t, 1, f.movements(t, "p-1"))

	got, err := f.processor.GetDelivery(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusDraft, got.Status)
}

// Dos líneas de la misma clave se acumulan contra la misma fila.
func TestMovementProcessor_PostDelivery_LineasRepetidas(t *testing.T) {
	f := newFixture(t, nil)
	f.apply(t, keyL1, 5)
	d := f.delivery(t,
		entity.DocumentLine{ProductID: "p-1", Batch: "L1", Quantity: 3},
		entity.DocumentLine{ProductID: "p-1", Batch: "L1", Quantity: 3},
	)
	_, err := f.processor.PostDelivery(context.Background(), admin, d.ID)
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(6), insufficient.Requested, "se informa el total pedido de la clave")
	assert.Equal(t, int64(5), insufficient.Available)
	assert.Equal(t, int64(5), f.quantity(t, keyL1))
	assert.Equal(t, 1, f.movements(t, "p-1"))
}

// 100 en existencia, despacho de 30 y luego de 80: el segundo falla con lo disponible.
func TestMovementProcessor_PostDelivery_SegundoDespachoSinExistencia(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	r := f.receipt(t, entity.DocumentLine{ProductID: "p-1", Batch: "L1", Quantity: 100})
	_, err := f.processor.PostReceipt(ctx, admin, r.ID)
	require.NoError(t, err)

	first := f.delivery(t, entity.DocumentLine{ProductID: "p-1", Batch: "L1", Quantity: 30})
	_, err = f.processor.PostDelivery(ctx, admin, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(70), f.quantity(t, keyL1))

	second := f.delivery(t, entity.DocumentLine{ProductID: "p-1", Batch: "L1", Quantity: 80})
	_, err = f.processor.PostDelivery(ctx, admin, second.ID)
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "p-1", insufficient.ProductID)
	assert.Equal(t, int64(80), insufficient.Requested)
	assert.Equal(t, int64(70), insufficient.Available)
	assert.Equal(t, int64(70), f.quantity(t, keyL1))

	got, err := f.processor.GetDelivery(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusDraft, got.Status)
}

func TestMovementProcessor_PostDelivery_StockEnCuarentena(t *testing.T) {
	f := newFixture(t, nil)
	f.apply(t, keyL1, 5)
	_, err := f.ledger.SetStatus(context.Background(), keyL1, entity.StockStatusQuarantined)
	require.NoError(t, err)

	d := f.delivery(t, entity.DocumentLine{ProductID: "p-1", Batch: "L1", Quantity: 1})
	_, err = f.processor.PostDelivery(context.Background(), admin, d.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, int64(5), f.quantity(t, keyL1))
}

func TestMovementProcessor_CreateDelivery_SinNovedadesDeRecepcion(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.processor.CreateDelivery(context.Background(), inventory.CreateDeliveryInput{
		CustomerID: "c", LocationID: "loc-1",
		Lines: []entity.DocumentLine{{ProductID: "p-1", Quantity: 2, DamagedQuantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMovementProcessor_CloseDelivery(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.apply(t, keyL1, 1)
	d := f.delivery(t, entity.DocumentLine{ProductID: "p-1", Batch: "L1", Quantity: 1})

	_, err := f.processor.PostDelivery(ctx, admin, d.ID)
	require.NoError(t, err)
	closed, err := f.processor.CloseDelivery(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusClosed, closed.Status)

	_, err = f.processor.PostDelivery(ctx, admin, d.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestSortedKeys_OrdenaYQuitaDuplicados(t *testing.T) {
	a := entity.StockKey{ProductID: "p-2", LocationID: "loc-1"}
	b := entity.StockKey{ProductID: "p-1", LocationID: "loc-1"}
	assert.Equal(t, []entity.StockKey{b, a}, inventory.SortedKeys([]entity.StockKey{a, b, a}))
}
