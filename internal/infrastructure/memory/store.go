package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Store almacén en memoria con las mismas garantías que el adaptador PostgreSQL:
// bloqueos por clave retenidos hasta el fin de la transacción y publicación atómica
// de los cambios (los lectores nunca ven un estado parcial).
type Store struct {
	mu    sync.RWMutex
	locks keyedLocks

	products     map[string]entity.Product
	locations    map[string]entity.Location
	stock        map[string]entity.StockRow
	movements    []entity.Movement
	receipts     map[string]entity.Receipt
	deliveries   map[string]entity.Delivery
	stocktakings map[string]entity.Stocktaking
	adjustments  map[string]entity.StocktakingAdjustment
	disposals    map[string]entity.DisposalOrder
	incidents    map[string]entity.Incident
}

var _ inventory.TxRunner = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		locks:        keyedLocks{m: make(map[string]chan struct{})},
		products:     make(map[string]entity.Product),
		locations:    make(map[string]entity.Location),
		stock:        make(map[string]entity.StockRow),
		receipts:     make(map[string]entity.Receipt),
		deliveries:   make(map[string]entity.Delivery),
		stocktakings: make(map[string]entity.Stocktaking),
		adjustments:  make(map[string]entity.StocktakingAdjustment),
		disposals:    make(map[string]entity.DisposalOrder),
		incidents:    make(map[string]entity.Incident),
	}
}

// PutProduct registra o reemplaza un producto del catálogo.
func (s *Store) PutProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// PutLocation registra o reemplaza una ubicación.
func (s *Store) PutLocation(l entity.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[l.ID] = l
}

// CreateProduct registra un producto nuevo; domain.ErrDuplicate si el ID o el SKU ya existen.
func (s *Store) CreateProduct(_ context.Context, p *entity.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; ok {
		return fmt.Errorf("%w: producto %s", domain.ErrDuplicate, p.ID)
	}
	for _, existing := range s.products {
		if existing.SKU == p.SKU {
			return fmt.Errorf("%w: sku %s", domain.ErrDuplicate, p.SKU)
		}
	}
	s.products[p.ID] = *p
	return nil
}

// CreateLocation registra una ubicación nueva; domain.ErrDuplicate si el ID ya existe.
func (s *Store) CreateLocation(_ context.Context, l *entity.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locations[l.ID]; ok {
		return fmt.Errorf("%w: ubicación %s", domain.ErrDuplicate, l.ID)
	}
	s.locations[l.ID] = *l
	return nil
}

// Repositories devuelve repositorios fuera de transacción: cada escritura se publica al instante.
func (s *Store) Repositories() inventory.Repositories {
	return newSession(s, false).repositories()
}

// Run ejecuta fn en una transacción. Si fn falla nada de lo escrito se publica.
func (s *Store) Run(ctx context.Context, fn func(repos inventory.Repositories) error) error {
	ss := newSession(s, true)
	defer ss.release()
	if err := fn(ss.repositories()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return ss.commit()
}

// keyedLocks mutex por nombre; acquire respeta la cancelación del contexto.
type keyedLocks struct {
	mu sync.Mutex
	m  map[string]chan struct{}
}

func (k *keyedLocks) acquire(ctx context.Context, name string) error {
	k.mu.Lock()
	ch, ok := k.m[name]
	if !ok {
		ch = make(chan struct{}, 1)
		k.m[name] = ch
	}
	k.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %v", domain.ErrConcurrencyConflict, name, ctx.Err())
	}
}

func (k *keyedLocks) release(name string) {
	k.mu.Lock()
	ch := k.m[name]
	k.mu.Unlock()
	<-ch
}

// session cambios preparados de una transacción (o de una sola escritura si !inTx).
type session struct {
	s    *Store
	inTx bool
	held []string

	stock        map[string]entity.StockRow
	stockBase    map[string]int64
	movements    []entity.Movement
	receipts     map[string]entity.Receipt
	deliveries   map[string]entity.Delivery
	stocktakings map[string]entity.Stocktaking
	adjustments  map[string]entity.StocktakingAdjustment
	disposals    map[string]entity.DisposalOrder
	incidents    map[string]entity.Incident
}

func newSession(s *Store, inTx bool) *session {
	return &session{
		s:            s,
		inTx:         inTx,
		stock:        make(map[string]entity.StockRow),
		stockBase:    make(map[string]int64),
		receipts:     make(map[string]entity.Receipt),
		deliveries:   make(map[string]entity.Delivery),
		stocktakings: make(map[string]entity.Stocktaking),
		adjustments:  make(map[string]entity.StocktakingAdjustment),
		disposals:    make(map[string]entity.DisposalOrder),
		incidents:    make(map[string]entity.Incident),
	}
}

func (ss *session) repositories() inventory.Repositories {
	return inventory.Repositories{
		Stock:        &stockRepo{ss: ss},
		Movements:    &movementRepo{ss: ss},
		Products:     &productRepo{ss: ss},
		Locations:    &locationRepo{ss: ss},
		Receipts:     &receiptRepo{ss: ss},
		Deliveries:   &deliveryRepo{ss: ss},
		Stocktakings: &stocktakingRepo{ss: ss},
		Disposals:    &disposalRepo{ss: ss},
		Incidents:    &incidentRepo{ss: ss},
	}
}

// lock toma el bloqueo nombrado hasta el fin de la transacción; reentrante dentro de ella.
// Fuera de transacción no bloquea.
func (ss *session) lock(ctx context.Context, name string) error {
	if !ss.inTx || slices.Contains(ss.held, name) {
		return nil
	}
	if err := ss.s.locks.acquire(ctx, name); err != nil {
		return err
	}
	ss.held = append(ss.held, name)
	return nil
}

func (ss *session) release() {
	for i := len(ss.held) - 1; i >= 0; i-- {
		ss.s.locks.release(ss.held[i])
	}
	ss.held = nil
}

// write ejecuta fn sobre la sesión; fuera de transacción publica de inmediato.
func (ss *session) write(fn func(tx *session) error) error {
	if ss.inTx {
		return fn(ss)
	}
	tx := newSession(ss.s, false)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}

// commit publica los cambios bajo el lock de escritura del store. Las filas de stock
// se publican solo si su versión no cambió desde que la sesión las leyó.
func (ss *session) commit() error {
	st := ss.s
	st.mu.Lock()
	defer st.mu.Unlock()

	for k, base := range ss.stockBase {
		if st.stock[k].Version != base {
			return fmt.Errorf("%w: stock %s", domain.ErrConcurrencyConflict, k)
		}
	}
	for _, m := range ss.movements {
		if slices.ContainsFunc(st.movements, func(x entity.Movement) bool { return x.ID == m.ID }) {
			return fmt.Errorf("%w: movimiento %s", domain.ErrDuplicate, m.ID)
		}
	}

	for k, v := range ss.stock {
		st.stock[k] = v
	}
	st.movements = append(st.movements, ss.movements...)
	for k, v := range ss.receipts {
		st.receipts[k] = v
	}
	for k, v := range ss.deliveries {
		st.deliveries[k] = v
	}
	for k, v := range ss.stocktakings {
		st.stocktakings[k] = v
	}
	for k, v := range ss.adjustments {
		st.adjustments[k] = v
	}
	for k, v := range ss.disposals {
		st.disposals[k] = v
	}
	for k, v := range ss.incidents {
		st.incidents[k] = v
	}
	return nil
}

// lookup busca primero en lo preparado por la sesión y luego en lo publicado.
func lookup[T any](ss *session, staged, committed map[string]T, id string) (T, bool) {
	if v, ok := staged[id]; ok {
		return v, true
	}
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()
	v, ok := committed[id]
	return v, ok
}

// merged devuelve la vista de la sesión: lo publicado con lo preparado encima.
func merged[T any](ss *session, staged, committed map[string]T, keep func(T) bool) []T {
	ss.s.mu.RLock()
	out := make([]T, 0)
	for k, v := range committed {
		if _, ok := staged[k]; ok {
			continue
		}
		if keep(v) {
			out = append(out, v)
		}
	}
	ss.s.mu.RUnlock()
	for _, v := range staged {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
