package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StocktakingRepository define el puerto para tomas de inventario y sus ajustes.
// Los Get* devuelven (nil, nil) si no existe.
type StocktakingRepository interface {
	Create(ctx context.Context, st *entity.Stocktaking) error
	// GetByID no carga Adjustments; usar ListAdjustments.
	GetByID(ctx context.Context, id string) (*entity.Stocktaking, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Stocktaking, error)
	UpdateStatus(ctx context.Context, st *entity.Stocktaking) error

	GetAdjustment(ctx context.Context, id string) (*entity.StocktakingAdjustment, error)
	GetAdjustmentForUpdate(ctx context.Context, id string) (*entity.StocktakingAdjustment, error)
	FindAdjustment(ctx context.Context, stocktakingID, productID, batch string) (*entity.StocktakingAdjustment, error)
	// SaveAdjustment inserta o actualiza el ajuste por ID.
	SaveAdjustment(ctx context.Context, adj *entity.StocktakingAdjustment) error
	// ListAdjustments pagina los ajustes de una toma; limit <= 0 = todos.
	ListAdjustments(ctx context.Context, stocktakingID string, limit, offset int) (list []*entity.StocktakingAdjustment, total int, err error)
}
