package stocktaking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Reconciler gestiona el ciclo de una toma de inventario:
// OPEN -> (conteos) -> RECONCILED -> (aprobación por ajuste) -> CLOSED.
// Solo ApplyAdjustment genera movimientos en el libro.
type Reconciler struct {
	txRunner inventory.TxRunner
	reads    inventory.Repositories
	ledger   *inventory.StockLedger
	paging   dto.Pagination
	opts     inventory.Options
}

// NewReconciler construye el conciliador.
func NewReconciler(txRunner inventory.TxRunner, reads inventory.Repositories, ledger *inventory.StockLedger, paging dto.Pagination, opts ...inventory.Option) *Reconciler {
	return &Reconciler{
		txRunner: txRunner,
		reads:    reads,
		ledger:   ledger,
		paging:   paging,
		opts:     inventory.BuildOptions(opts),
	}
}

// OpenInput datos para abrir una toma.
type OpenInput struct {
	Name       string
	LocationID string
	Date       time.Time
}

// CountInput conteo físico de una clave dentro de la ubicación de la toma.
type CountInput struct {
	ProductID      string
	Batch          string
	ActualQuantity int64
	Reason         string
}

// Open crea una toma de inventario en estado OPEN para una ubicación existente.
func (r *Reconciler) Open(ctx context.Context, in OpenInput) (*entity.Stocktaking, error) {
	if in.Name == "" || in.LocationID == "" {
		return nil, r.opts.Fail("open_stocktaking", domain.Invalid("name y location_id son obligatorios"))
	}
	loc, err := r.reads.Locations.GetByID(ctx, in.LocationID)
	if err != nil {
		return nil, r.opts.Fail("open_stocktaking", fmt.Errorf("consultar ubicación: %w", err))
	}
	if loc == nil {
		return nil, r.opts.Fail("open_stocktaking", domain.NotFound("ubicación", in.LocationID))
	}
	now := r.opts.Clock()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	st := &entity.Stocktaking{
		ID:         uuid.New().String(),
		Name:       in.Name,
		LocationID: in.LocationID,
		Date:       date,
		Status:     entity.StocktakingStatusOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.reads.Stocktakings.Create(ctx, st); err != nil {
		return nil, r.opts.Fail("open_stocktaking", fmt.Errorf("crear toma: %w", err))
	}
	return st, nil
}

// RecordCount registra el conteo: la cantidad registrada es la del libro en ese momento.
// Un segundo conteo de la misma clave reemplaza al anterior (sigue PENDING).
func (r *Reconciler) RecordCount(ctx context.Context, stocktakingID string, in CountInput) (*entity.StocktakingAdjustment, error) {
	if in.ProductID == "" {
		return nil, r.opts.Fail("record_count", domain.Invalid("product_id es obligatorio"))
	}
	if in.ActualQuantity < 0 {
		return nil, r.opts.Fail("record_count", domain.Invalid("la cantidad contada no puede ser negativa"))
	}
	var out *entity.StocktakingAdjustment
	err := r.txRunner.Run(ctx, func(repos inventory.Repositories) error {
		st, err := lockStocktaking(ctx, repos, stocktakingID)
		if err != nil {
			return err
		}
		if st.Status != entity.StocktakingStatusOpen {
			return domain.InvalidState("toma %s en estado %s, se requiere OPEN", st.ID, st.Status)
		}
		prod, err := repos.Products.GetByID(ctx, in.ProductID)
		if err != nil {
			return fmt.Errorf("consultar producto: %w", err)
		}
		if prod == nil {
			return domain.NotFound("producto", in.ProductID)
		}
		row, err := repos.Stock.Get(ctx, entity.StockKey{ProductID: in.ProductID, LocationID: st.LocationID, Batch: in.Batch})
		if err != nil {
			return fmt.Errorf("consultar stock: %w", err)
		}

		adj, err := repos.Stocktakings.FindAdjustment(ctx, st.ID, in.ProductID, in.Batch)
		if err != nil {
			return fmt.Errorf("buscar ajuste: %w", err)
		}
		if adj == nil {
			adj = &entity.StocktakingAdjustment{
				ID:            uuid.New().String(),
				StocktakingID: st.ID,
				ProductID:     in.ProductID,
				Batch:         in.Batch,
			}
		} else if adj.Status != entity.AdjustmentStatusPending {
			return domain.InvalidState("ajuste %s en estado %s no admite nuevo conteo", adj.ID, adj.Status)
		}
		adj.RecordCount(row.Quantity, in.ActualQuantity, in.Reason, r.opts.Clock())
		if err := repos.Stocktakings.SaveAdjustment(ctx, adj); err != nil {
			return fmt.Errorf("guardar ajuste: %w", err)
		}
		out = adj
		return nil
	})
	if err != nil {
		return nil, r.opts.Fail("record_count", err)
	}
	return out, nil
}

// Reconcile pasa la toma de OPEN a RECONCILED; los ajustes siguen PENDING.
func (r *Reconciler) Reconcile(ctx context.Context, stocktakingID string) (*entity.Stocktaking, error) {
	out, err := r.transition(ctx, stocktakingID, entity.StocktakingStatusOpen, entity.StocktakingStatusReconciled, nil)
	return out, r.opts.Fail("reconcile", err)
}

// ApproveAdjustment PENDING -> APPROVED. Requiere capacidad de aprobación.
func (r *Reconciler) ApproveAdjustment(ctx context.Context, caller entity.Caller, adjustmentID string) (*entity.StocktakingAdjustment, error) {
	out, err := r.decide(ctx, caller, adjustmentID, entity.AdjustmentStatusPending, entity.AdjustmentStatusApproved)
	return out, r.opts.Fail("approve_adjustment", err)
}

// RejectAdjustment PENDING -> REJECTED. Requiere capacidad de aprobación.
func (r *Reconciler) RejectAdjustment(ctx context.Context, caller entity.Caller, adjustmentID string) (*entity.StocktakingAdjustment, error) {
	out, err := r.decide(ctx, caller, adjustmentID, entity.AdjustmentStatusPending, entity.AdjustmentStatusRejected)
	return out, r.opts.Fail("reject_adjustment", err)
}

// ApplyAdjustment APPROVED -> APPLIED emitiendo un movimiento ADJUSTMENT con delta = diferencia.
// Si el stock cambió desde el conteo y la diferencia lo dejaría negativo devuelve InsufficientStock.
// Un ajuste con diferencia cero pasa a APPLIED sin movimiento.
func (r *Reconciler) ApplyAdjustment(ctx context.Context, caller entity.Caller, adjustmentID string) (*entity.StocktakingAdjustment, error) {
	if !caller.CanApproveAdjustments() {
		return nil, r.opts.Fail("apply_adjustment", fmt.Errorf("%w: rol %s no puede aplicar ajustes", domain.ErrForbidden, caller.Role))
	}
	var out *entity.StocktakingAdjustment
	err := r.txRunner.Run(ctx, func(repos inventory.Repositories) error {
		st, adj, err := lockAdjustment(ctx, repos, adjustmentID)
		if err != nil {
			return err
		}
		if st.Status != entity.StocktakingStatusReconciled {
			return domain.InvalidState("toma %s en estado %s, se requiere RECONCILED", st.ID, st.Status)
		}
		if adj.Status != entity.AdjustmentStatusApproved {
			return domain.InvalidState("ajuste %s en estado %s, se requiere APPROVED", adj.ID, adj.Status)
		}
		now := r.opts.Clock()
		if adj.Difference != 0 {
			m := &entity.Movement{
				ProductID:        adj.ProductID,
				LocationID:       st.LocationID,
				Batch:            adj.Batch,
				Delta:            adj.Difference,
				Reason:           entity.MovementReasonAdjustment,
				SourceDocumentID: st.ID,
				CreatedBy:        caller.UserID,
			}
			if _, err := r.ledger.ApplyInTx(ctx, repos, m); err != nil {
				return err
			}
		}
		adj.Status = entity.AdjustmentStatusApplied
		adj.UpdatedAt = now
		if err := repos.Stocktakings.SaveAdjustment(ctx, adj); err != nil {
			return fmt.Errorf("guardar ajuste: %w", err)
		}
		out = adj
		return nil
	})
	if err != nil {
		return nil, r.opts.Fail("apply_adjustment", err)
	}
	r.opts.Logger.Info().
		Str("adjustment_id", out.ID).
		Str("stocktaking_id", out.StocktakingID).
		Int64("difference", out.Difference).
		Msg("ajuste aplicado")
	return out, nil
}

// Close RECONCILED -> CLOSED. Todos los ajustes deben estar APPLIED o REJECTED.
func (r *Reconciler) Close(ctx context.Context, stocktakingID string) (*entity.Stocktaking, error) {
	out, err := r.transition(ctx, stocktakingID, entity.StocktakingStatusReconciled, entity.StocktakingStatusClosed,
		func(adjs []*entity.StocktakingAdjustment) error {
			for _, a := range adjs {
				if !a.Status.IsTerminal() {
					return domain.InvalidState("ajuste %s sigue en estado %s", a.ID, a.Status)
				}
			}
			return nil
		})
	return out, r.opts.Fail("close_stocktaking", err)
}

// Abandon cierra una toma OPEN o RECONCILED sin aplicar lo pendiente: los ajustes no
// terminales pasan a REJECTED. Los ajustes ya aplicados no se revierten.
func (r *Reconciler) Abandon(ctx context.Context, stocktakingID string) (*entity.Stocktaking, error) {
	var out *entity.Stocktaking
	err := r.txRunner.Run(ctx, func(repos inventory.Repositories) error {
		st, err := lockStocktaking(ctx, repos, stocktakingID)
		if err != nil {
			return err
		}
		if st.Status == entity.StocktakingStatusClosed {
			return domain.InvalidState("toma %s ya está cerrada", st.ID)
		}
		adjs, _, err := repos.Stocktakings.ListAdjustments(ctx, st.ID, 0, 0)
		if err != nil {
			return fmt.Errorf("listar ajustes: %w", err)
		}
		now := r.opts.Clock()
		for _, a := range adjs {
			if a.Status.IsTerminal() {
				continue
			}
			a.Status = entity.AdjustmentStatusRejected
			a.UpdatedAt = now
			if err := repos.Stocktakings.SaveAdjustment(ctx, a); err != nil {
				return fmt.Errorf("guardar ajuste: %w", err)
			}
		}
		st.Status = entity.StocktakingStatusClosed
		st.UpdatedAt = now
		if err := repos.Stocktakings.UpdateStatus(ctx, st); err != nil {
			return fmt.Errorf("actualizar toma: %w", err)
		}
		out = st
		return nil
	})
	if err != nil {
		return nil, r.opts.Fail("abandon_stocktaking", err)
	}
	r.opts.Logger.Warn().Str("stocktaking_id", stocktakingID).Msg("toma abandonada")
	return out, nil
}

// Get devuelve la toma con todos sus ajustes.
func (r *Reconciler) Get(ctx context.Context, stocktakingID string) (*entity.Stocktaking, error) {
	st, err := r.reads.Stocktakings.GetByID(ctx, stocktakingID)
	if err != nil {
		return nil, fmt.Errorf("consultar toma: %w", err)
	}
	if st == nil {
		return nil, domain.NotFound("toma", stocktakingID)
	}
	adjs, _, err := r.reads.Stocktakings.ListAdjustments(ctx, st.ID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("listar ajustes: %w", err)
	}
	st.Adjustments = make([]entity.StocktakingAdjustment, 0, len(adjs))
	for _, a := range adjs {
		st.Adjustments = append(st.Adjustments, *a)
	}
	return st, nil
}

// ListAdjustments pagina los ajustes de una toma.
func (r *Reconciler) ListAdjustments(ctx context.Context, stocktakingID string, page dto.PageRequest) ([]*entity.StocktakingAdjustment, dto.PageResponse, error) {
	st, err := r.reads.Stocktakings.GetByID(ctx, stocktakingID)
	if err != nil {
		return nil, dto.PageResponse{}, fmt.Errorf("consultar toma: %w", err)
	}
	if st == nil {
		return nil, dto.PageResponse{}, domain.NotFound("toma", stocktakingID)
	}
	page = page.Normalize(r.paging)
	list, total, err := r.reads.Stocktakings.ListAdjustments(ctx, st.ID, page.Limit, page.Offset())
	if err != nil {
		return nil, dto.PageResponse{}, fmt.Errorf("listar ajustes: %w", err)
	}
	return list, dto.PageResponse{Page: page.Page, Limit: page.Limit, Total: total}, nil
}

func (r *Reconciler) transition(
	ctx context.Context,
	stocktakingID string,
	from, to entity.StocktakingStatus,
	guard func([]*entity.StocktakingAdjustment) error,
) (*entity.Stocktaking, error) {
	var out *entity.Stocktaking
	err := r.txRunner.Run(ctx, func(repos inventory.Repositories) error {
		st, err := lockStocktaking(ctx, repos, stocktakingID)
		if err != nil {
			return err
		}
		if st.Status != from {
			return domain.InvalidState("toma %s en estado %s, se requiere %s", st.ID, st.Status, from)
		}
		if guard != nil {
			adjs, _, err := repos.Stocktakings.ListAdjustments(ctx, st.ID, 0, 0)
			if err != nil {
				return fmt.Errorf("listar ajustes: %w", err)
			}
			if err := guard(adjs); err != nil {
				return err
			}
		}
		st.Status = to
		st.UpdatedAt = r.opts.Clock()
		if err := repos.Stocktakings.UpdateStatus(ctx, st); err != nil {
			return fmt.Errorf("actualizar toma: %w", err)
		}
		out = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Reconciler) decide(ctx context.Context, caller entity.Caller, adjustmentID string, from, to entity.AdjustmentStatus) (*entity.StocktakingAdjustment, error) {
	if !caller.CanApproveAdjustments() {
		return nil, fmt.Errorf("%w: rol %s no puede decidir ajustes", domain.ErrForbidden, caller.Role)
	}
	var out *entity.StocktakingAdjustment
	err := r.txRunner.Run(ctx, func(repos inventory.Repositories) error {
		st, adj, err := lockAdjustment(ctx, repos, adjustmentID)
		if err != nil {
			return err
		}
		if st.Status != entity.StocktakingStatusReconciled {
			return domain.InvalidState("toma %s en estado %s, se requiere RECONCILED", st.ID, st.Status)
		}
		if adj.Status != from {
			return domain.InvalidState("ajuste %s en estado %s, se requiere %s", adj.ID, adj.Status, from)
		}
		adj.Status = to
		adj.DecidedBy = caller.UserID
		adj.UpdatedAt = r.opts.Clock()
		if err := repos.Stocktakings.SaveAdjustment(ctx, adj); err != nil {
			return fmt.Errorf("guardar ajuste: %w", err)
		}
		out = adj
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func lockStocktaking(ctx context.Context, repos inventory.Repositories, id string) (*entity.Stocktaking, error) {
	st, err := repos.Stocktakings.GetForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("bloquear toma: %w", err)
	}
	if st == nil {
		return nil, domain.NotFound("toma", id)
	}
	return st, nil
}

// lockAdjustment bloquea primero la toma y luego el ajuste (mismo orden que el resto de operaciones).
func lockAdjustment(ctx context.Context, repos inventory.Repositories, adjustmentID string) (*entity.Stocktaking, *entity.StocktakingAdjustment, error) {
	peek, err := repos.Stocktakings.GetAdjustment(ctx, adjustmentID)
	if err != nil {
		return nil, nil, fmt.Errorf("consultar ajuste: %w", err)
	}
	if peek == nil {
		return nil, nil, domain.NotFound("ajuste", adjustmentID)
	}
	st, err := lockStocktaking(ctx, repos, peek.StocktakingID)
	if err != nil {
		return nil, nil, err
	}
	adj, err := repos.Stocktakings.GetAdjustmentForUpdate(ctx, adjustmentID)
	if err != nil {
		return nil, nil, fmt.Errorf("bloquear ajuste: %w", err)
	}
	if adj == nil {
		return nil, nil, domain.NotFound("ajuste", adjustmentID)
	}
	return st, adj, nil
}
