// Package catalog da de alta productos y ubicaciones. Costo y existencias no se
// modifican aquí: el costo unitario solo valoriza bajas y las existencias cambian por movimientos.
package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Writer alta de entradas del catálogo; domain.ErrDuplicate si ya existen.
type Writer interface {
	CreateProduct(ctx context.Context, p *entity.Product) error
	CreateLocation(ctx context.Context, l *entity.Location) error
}

type Service struct {
	writer Writer
	reads  inventory.Repositories
	opts   inventory.Options
}

func NewService(writer Writer, reads inventory.Repositories, opts ...inventory.Option) *Service {
	return &Service{writer: writer, reads: reads, opts: inventory.BuildOptions(opts)}
}

// ProductInput datos de alta. ID vacío = se genera un UUID.
type ProductInput struct {
	ID       string
	SKU      string
	Name     string
	UnitCost decimal.Decimal
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*entity.Product, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	if in.SKU == "" || in.Name == "" {
		return nil, s.opts.Fail("create_product", domain.Invalid("sku y name son requeridos"))
	}
	if in.UnitCost.IsNegative() {
		return nil, s.opts.Fail("create_product", domain.Invalid("unit_cost no puede ser negativo"))
	}
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	now := s.opts.Clock()
	p := &entity.Product{
		ID:        in.ID,
		SKU:       in.SKU,
		Name:      in.Name,
		UnitCost:  in.UnitCost,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.writer.CreateProduct(ctx, p); err != nil {
		return nil, s.opts.Fail("create_product", err)
	}
	s.opts.Logger.Info().Str("product_id", p.ID).Str("sku", p.SKU).Msg("producto creado")
	return p, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	p, err := s.reads.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.NotFound("producto", id)
	}
	return p, nil
}

// LocationInput datos de alta. ID vacío = se genera un UUID.
type LocationInput struct {
	ID   string
	Name string
}

func (s *Service) CreateLocation(ctx context.Context, in LocationInput) (*entity.Location, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, s.opts.Fail("create_location", domain.Invalid("name es requerido"))
	}
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	now := s.opts.Clock()
	l := &entity.Location{ID: in.ID, Name: in.Name, CreatedAt: now, UpdatedAt: now}
	if err := s.writer.CreateLocation(ctx, l); err != nil {
		return nil, s.opts.Fail("create_location", err)
	}
	s.opts.Logger.Info().Str("location_id", l.ID).Msg("ubicación creada")
	return l, nil
}

func (s *Service) GetLocation(ctx context.Context, id string) (*entity.Location, error) {
	l, err := s.reads.Locations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, domain.NotFound("ubicación", id)
	}
	return l, nil
}
