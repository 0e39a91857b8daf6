package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/catalog"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
)

// CatalogHandler alta y consulta de productos y ubicaciones.
type CatalogHandler struct {
	svc *catalog.Service
}

func NewCatalogHandler(svc *catalog.Service) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// CreateProduct POST /api/products
func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	p, err := h.svc.CreateProduct(c.Context(), catalog.ProductInput{
		ID: in.ID, SKU: in.SKU, Name: in.Name, UnitCost: in.UnitCost,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewProductResponse(p))
}

func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	p, err := h.svc.GetProduct(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewProductResponse(p))
}

// CreateLocation POST /api/locations
func (h *CatalogHandler) CreateLocation(c *fiber.Ctx) error {
	var in dto.CreateLocationRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	l, err := h.svc.CreateLocation(c.Context(), catalog.LocationInput{ID: in.ID, Name: in.Name})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewLocationResponse(l))
}

func (h *CatalogHandler) GetLocation(c *fiber.Ctx) error {
	l, err := h.svc.GetLocation(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewLocationResponse(l))
}
