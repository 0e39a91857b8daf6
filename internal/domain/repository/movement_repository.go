package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MovementFilter filtro del historial. LocationID y Batch vacíos = sin filtro;
// From/To nil = sin límite. Batch solo se aplica si FilterBatch es verdadero.
type MovementFilter struct {
	ProductID   string
	LocationID  string
	Batch       string
	FilterBatch bool
	From        *time.Time
	To          *time.Time
}

// MovementCursor posición de paginación por conjunto de claves (occurred_at, id).
type MovementCursor struct {
	OccurredAt time.Time
	ID         string
}

// MovementRepository puerto append-only de movimientos: no hay Update ni Delete.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	// ListAfter devuelve hasta limit movimientos posteriores al cursor (nil = desde el inicio),
	// ordenados por occurred_at ascendente y luego por id.
	ListAfter(ctx context.Context, filter MovementFilter, after *MovementCursor, limit int) ([]*entity.Movement, error)
	// List igual que ListAfter pero paginado por offset; total es el conteo sin paginar.
	List(ctx context.Context, filter MovementFilter, limit, offset int) (list []*entity.Movement, total int, err error)
}
