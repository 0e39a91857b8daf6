package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/incident"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// IncidentHandler novedades y su vínculo con documentos.
type IncidentHandler struct {
	linker *incident.Linker
}

func NewIncidentHandler(linker *incident.Linker) *IncidentHandler {
	return &IncidentHandler{linker: linker}
}

// Record POST /api/incidents
func (h *IncidentHandler) Record(c *fiber.Ctx) error {
	var in dto.RecordIncidentRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	var ref *entity.RelatedRef
	if in.RelatedID != "" {
		ref = &entity.RelatedRef{Kind: entity.RelatedKind(in.RelatedKind), ID: in.RelatedID}
	}
	inc, err := h.linker.Record(c.Context(), incident.RecordInput{
		Type:    in.Type,
		Note:    in.Note,
		Action:  in.Action,
		Related: ref,
		Date:    timeOrZero(in.Date),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewIncidentResponse(inc))
}

func (h *IncidentHandler) Get(c *fiber.Ctx) error {
	inc, err := h.linker.Get(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewIncidentResponse(inc))
}

// Link PUT /api/incidents/:id/link
func (h *IncidentHandler) Link(c *fiber.Ctx) error {
	var in dto.LinkIncidentRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	inc, err := h.linker.Link(c.Context(), c.Params("id"), entity.RelatedRef{
		Kind: entity.RelatedKind(in.RelatedKind),
		ID:   in.RelatedID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewIncidentResponse(inc))
}

// Resolve GET /api/incidents/:id/resolve → linked=false si la referencia no resuelve.
func (h *IncidentHandler) Resolve(c *fiber.Ctx) error {
	res, err := h.linker.Resolve(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	out := dto.ResolutionResponse{
		IncidentID: res.Incident.ID,
		Linked:     res.Linked,
		Kind:       string(res.Kind),
	}
	if res.Receipt != nil {
		r := dto.NewReceiptResponse(res.Receipt)
		out.Receipt = &r
	}
	if res.Delivery != nil {
		d := dto.NewDeliveryResponse(res.Delivery)
		out.Delivery = &d
	}
	if res.Stocktaking != nil {
		st := dto.NewStocktakingResponse(res.Stocktaking)
		out.Stocktaking = &st
	}
	return c.JSON(out)
}
