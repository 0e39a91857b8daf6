package entity

import "time"

// Tipo del documento al que apunta una novedad.
type RelatedKind string

const (
	RelatedKindReceipt     RelatedKind = "RECEIPT"
	RelatedKindDelivery    RelatedKind = "DELIVERY"
	RelatedKindStocktaking RelatedKind = "STOCKTAKING"
)

// RelatedRef referencia débil: solo id + tipo, nunca se valida al escribir.
// Kind vacío significa "desconocido" (dato heredado de texto libre).
type RelatedRef struct {
	Kind RelatedKind
	ID   string
}

// Incident novedad operativa (faltante, daño, hallazgo en conteo, etc.).
type Incident struct {
	ID        string
	Type      string
	Note      string
	Action    string
	Related   *RelatedRef
	Date      time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
