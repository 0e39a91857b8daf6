package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

// DocumentHandler recepciones y despachos (protegido).
type DocumentHandler struct {
	processor *inventory.MovementProcessor
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(processor *inventory.MovementProcessor) *DocumentHandler {
	return &DocumentHandler{processor: processor}
}

// CreateReceipt POST /api/receipts → 201 recepción en DRAFT.
func (h *DocumentHandler) CreateReceipt(c *fiber.Ctx) error {
	var in dto.CreateReceiptRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	r, err := h.processor.CreateReceipt(c.Context(), inventory.CreateReceiptInput{
		SupplierID:   in.SupplierID,
		LocationID:   in.LocationID,
		Date:         timeOrZero(in.Date),
		Lines:        dto.ToLines(in.Lines),
		HasShortage:  in.HasShortage,
		ShortageNote: in.ShortageNote,
		DamageNote:   in.DamageNote,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewReceiptResponse(r))
}

// GetReceipt GET /api/receipts/:id
func (h *DocumentHandler) GetReceipt(c *fiber.Ctx) error {
	r, err := h.processor.GetReceipt(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewReceiptResponse(r))
}

// PostReceipt POST /api/receipts/:id/post
// 409 INSUFFICIENT_STOCK no aplica a recepciones; 409 INVALID_STATE si ya fue contabilizada.
func (h *DocumentHandler) PostReceipt(c *fiber.Ctx) error {
	r, err := h.processor.PostReceipt(c.Context(), CallerFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewReceiptResponse(r))
}

func (h *DocumentHandler) CloseReceipt(c *fiber.Ctx) error {
	r, err := h.processor.CloseReceipt(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewReceiptResponse(r))
}

// CreateDelivery POST /api/deliveries → 201 despacho en DRAFT.
func (h *DocumentHandler) CreateDelivery(c *fiber.Ctx) error {
	var in dto.CreateDeliveryRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	d, err := h.processor.CreateDelivery(c.Context(), inventory.CreateDeliveryInput{
		CustomerID: in.CustomerID,
		LocationID: in.LocationID,
		Date:       timeOrZero(in.Date),
		Lines:      dto.ToLines(in.Lines),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewDeliveryResponse(d))
}

func (h *DocumentHandler) GetDelivery(c *fiber.Ctx) error {
	d, err := h.processor.GetDelivery(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewDeliveryResponse(d))
}

// PostDelivery POST /api/deliveries/:id/post
// 409 INSUFFICIENT_STOCK con el detalle de la primera línea que no alcanza; nada queda aplicado.
func (h *DocumentHandler) PostDelivery(c *fiber.Ctx) error {
	d, err := h.processor.PostDelivery(c.Context(), CallerFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewDeliveryResponse(d))
}

func (h *DocumentHandler) CloseDelivery(c *fiber.Ctx) error {
	d, err := h.processor.CloseDelivery(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewDeliveryResponse(d))
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
