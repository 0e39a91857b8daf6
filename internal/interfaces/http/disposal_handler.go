package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/disposal"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// DisposalHandler órdenes de baja y devolución.
type DisposalHandler struct {
	policy *disposal.Policy
}

func NewDisposalHandler(policy *disposal.Policy) *DisposalHandler {
	return &DisposalHandler{policy: policy}
}

// Submit POST /api/disposals → 201 con la orden valorizada y clasificada.
func (h *DisposalHandler) Submit(c *fiber.Ctx) error {
	var in dto.SubmitDisposalRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	items := make([]disposal.ItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, disposal.ItemInput{ProductID: it.ProductID, Batch: it.Batch, Quantity: it.Quantity})
	}
	d, err := h.policy.Submit(c.Context(), CallerFrom(c), disposal.SubmitInput{
		Kind:       entity.DisposalKind(in.Kind),
		Reason:     in.Reason,
		LocationID: in.LocationID,
		Date:       timeOrZero(in.Date),
		Items:      items,
		Attachment: in.Attachment,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewDisposalResponse(d))
}

func (h *DisposalHandler) Get(c *fiber.Ctx) error {
	d, err := h.policy.Get(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewDisposalResponse(d))
}

// Approve POST /api/disposals/:id/approve (body opcional con council).
// 403 si el rol no alcanza para la clasificación de la orden.
func (h *DisposalHandler) Approve(c *fiber.Ctx) error {
	var in dto.ApproveDisposalRequest
	if len(c.Body()) > 0 {
		if ok, err := parseBody(c, &in); !ok {
			return err
		}
	}
	d, err := h.policy.Approve(c.Context(), CallerFrom(c), c.Params("id"), in.Council)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewDisposalResponse(d))
}

func (h *DisposalHandler) Reject(c *fiber.Ctx) error {
	d, err := h.policy.Reject(c.Context(), CallerFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewDisposalResponse(d))
}

// Apply POST /api/disposals/:id/apply → movimientos negativos en el libro.
func (h *DisposalHandler) Apply(c *fiber.Ctx) error {
	d, err := h.policy.Apply(c.Context(), CallerFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewDisposalResponse(d))
}

// Classify POST /api/disposals/classify → clasificación de un valor sin crear orden.
func (h *DisposalHandler) Classify(c *fiber.Ctx) error {
	var in dto.ClassifyRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	if in.Value.IsNegative() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "value no puede ser negativo"})
	}
	return c.JSON(dto.ClassifyResponse{
		Value:          in.Value,
		Threshold:      h.policy.Threshold(),
		Classification: string(h.policy.Classify(in.Value)),
	})
}
