package dto

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// RecordIncidentRequest body para POST /api/incidents.
type RecordIncidentRequest struct {
	Type        string     `json:"type" validate:"required"`
	Note        string     `json:"note,omitempty"`
	Action      string     `json:"action,omitempty"`
	RelatedKind string     `json:"related_kind,omitempty" validate:"omitempty,oneof=RECEIPT DELIVERY STOCKTAKING"`
	RelatedID   string     `json:"related_id,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
}

// LinkIncidentRequest body para PUT /api/incidents/:id/link.
type LinkIncidentRequest struct {
	RelatedKind string `json:"related_kind,omitempty" validate:"omitempty,oneof=RECEIPT DELIVERY STOCKTAKING"`
	RelatedID   string `json:"related_id" validate:"required"`
}

// IncidentResponse novedad.
type IncidentResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Note        string    `json:"note,omitempty"`
	Action      string    `json:"action,omitempty"`
	RelatedKind string    `json:"related_kind,omitempty"`
	RelatedID   string    `json:"related_id,omitempty"`
	Date        time.Time `json:"date"`
}

// ResolutionResponse resultado de resolver la referencia de una novedad.
// Linked=false significa "sin vínculo" (referencia vacía o colgante).
type ResolutionResponse struct {
	IncidentID  string               `json:"incident_id"`
	Linked      bool                 `json:"linked"`
	Kind        string               `json:"kind,omitempty"`
	Receipt     *ReceiptResponse     `json:"receipt,omitempty"`
	Delivery    *DeliveryResponse    `json:"delivery,omitempty"`
	Stocktaking *StocktakingResponse `json:"stocktaking,omitempty"`
}

func NewIncidentResponse(inc *entity.Incident) IncidentResponse {
	out := IncidentResponse{
		ID:     inc.ID,
		Type:   inc.Type,
		Note:   inc.Note,
		Action: inc.Action,
		Date:   inc.Date,
	}
	if inc.Related != nil {
		out.RelatedKind = string(inc.Related.Kind)
		out.RelatedID = inc.Related.ID
	}
	return out
}
