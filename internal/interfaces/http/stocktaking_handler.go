package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/stocktaking"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StocktakingHandler tomas de inventario y sus ajustes.
type StocktakingHandler struct {
	reconciler *stocktaking.Reconciler
}

func NewStocktakingHandler(reconciler *stocktaking.Reconciler) *StocktakingHandler {
	return &StocktakingHandler{reconciler: reconciler}
}

// Open POST /api/stocktakings
func (h *StocktakingHandler) Open(c *fiber.Ctx) error {
	var in dto.OpenStocktakingRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	st, err := h.reconciler.Open(c.Context(), stocktaking.OpenInput{
		Name:       in.Name,
		LocationID: in.LocationID,
		Date:       timeOrZero(in.Date),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewStocktakingResponse(st))
}

func (h *StocktakingHandler) Get(c *fiber.Ctx) error {
	st, err := h.reconciler.Get(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewStocktakingResponse(st))
}

// RecordCount POST /api/stocktakings/:id/counts
// Un reconteo de la misma clave reemplaza el ajuste pendiente.
func (h *StocktakingHandler) RecordCount(c *fiber.Ctx) error {
	var in dto.RecordCountRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	adj, err := h.reconciler.RecordCount(c.Context(), c.Params("id"), stocktaking.CountInput{
		ProductID:      in.ProductID,
		Batch:          in.Batch,
		ActualQuantity: in.ActualQuantity,
		Reason:         in.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewAdjustmentResponse(adj))
}

func (h *StocktakingHandler) Reconcile(c *fiber.Ctx) error {
	return h.status(c, h.reconciler.Reconcile)
}

func (h *StocktakingHandler) Close(c *fiber.Ctx) error {
	return h.status(c, h.reconciler.Close)
}

func (h *StocktakingHandler) Abandon(c *fiber.Ctx) error {
	return h.status(c, h.reconciler.Abandon)
}

// ListAdjustments GET /api/stocktakings/:id/adjustments?page=&limit=
func (h *StocktakingHandler) ListAdjustments(c *fiber.Ctx) error {
	list, page, err := h.reconciler.ListAdjustments(c.Context(), c.Params("id"), pageFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	out := dto.AdjustmentListResponse{Items: make([]dto.AdjustmentResponse, 0, len(list)), Page: page}
	for _, a := range list {
		out.Items = append(out.Items, dto.NewAdjustmentResponse(a))
	}
	return c.JSON(out)
}

func (h *StocktakingHandler) ApproveAdjustment(c *fiber.Ctx) error {
	return h.decide(c, h.reconciler.ApproveAdjustment)
}

func (h *StocktakingHandler) RejectAdjustment(c *fiber.Ctx) error {
	return h.decide(c, h.reconciler.RejectAdjustment)
}

// ApplyAdjustment POST /api/adjustments/:id/apply → movimiento ADJUSTMENT por la diferencia.
func (h *StocktakingHandler) ApplyAdjustment(c *fiber.Ctx) error {
	return h.decide(c, h.reconciler.ApplyAdjustment)
}

type stocktakingOp func(ctx context.Context, id string) (*entity.Stocktaking, error)

type adjustmentOp func(ctx context.Context, caller entity.Caller, id string) (*entity.StocktakingAdjustment, error)

func (h *StocktakingHandler) status(c *fiber.Ctx, op stocktakingOp) error {
	st, err := op(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewStocktakingResponse(st))
}

func (h *StocktakingHandler) decide(c *fiber.Ctx, op adjustmentOp) error {
	adj, err := op(c.Context(), CallerFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewAdjustmentResponse(adj))
}
