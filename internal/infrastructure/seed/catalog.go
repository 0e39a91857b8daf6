// Package seed carga el catálogo mínimo (productos y ubicaciones) que el libro necesita
// para aceptar movimientos: desde un archivo JSON o generado con gofakeit.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jhoicas/stock-ledger/internal/application/catalog"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ProductEntry producto en el archivo de catálogo.
type ProductEntry struct {
	ID       string          `json:"id"`
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// LocationEntry ubicación en el archivo de catálogo.
type LocationEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Catalog contenido de un archivo de catálogo.
type Catalog struct {
	Products  []ProductEntry  `json:"products"`
	Locations []LocationEntry `json:"locations"`
}

// Load lee y valida un catálogo JSON. charset vacío = UTF-8; se acepta ISO-8859-1
// para exportaciones de sistemas antiguos.
func Load(path, charset string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("abrir catálogo: %w", err)
	}
	defer f.Close()
	return Decode(f, charset)
}

// Decode decodifica y valida un catálogo desde r.
func Decode(r io.Reader, charset string) (*Catalog, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
	case "iso-8859-1", "iso8859-1", "latin1":
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	default:
		return nil, domain.Invalid("charset no soportado: %s", charset)
	}
	var c Catalog
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decodificar catálogo: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate exige id en cada entrada y costo no negativo.
func (c *Catalog) Validate() error {
	for i, p := range c.Products {
		if p.ID == "" || p.SKU == "" {
			return domain.Invalid("producto %d sin id o sku", i)
		}
		if p.UnitCost.IsNegative() {
			return domain.Invalid("producto %s con costo negativo", p.ID)
		}
	}
	for i, l := range c.Locations {
		if l.ID == "" {
			return domain.Invalid("ubicación %d sin id", i)
		}
	}
	return nil
}

// Demo genera un catálogo determinista para el mismo seed.
func Demo(seed uint64, products, locations int) *Catalog {
	f := gofakeit.New(seed)
	c := &Catalog{}
	for i := 0; i < products; i++ {
		c.Products = append(c.Products, ProductEntry{
			ID:       fmt.Sprintf("prod-%03d", i+1),
			SKU:      fmt.Sprintf("%s-%03d", strings.ToUpper(f.LetterN(3)), i+1),
			Name:     f.ProductName(),
			UnitCost: decimal.NewFromFloat(f.Price(1, 80000)).Round(2),
		})
	}
	for i := 0; i < locations; i++ {
		c.Locations = append(c.Locations, LocationEntry{
			ID:   fmt.Sprintf("loc-%02d", i+1),
			Name: "Bodega " + f.City(),
		})
	}
	return c
}

// Apply escribe el catálogo con w (memory.Store o postgres.CatalogWriter); las entradas
// ya existentes se omiten.
// Devuelve cuántos productos y ubicaciones se crearon.
func (c *Catalog) Apply(ctx context.Context, w catalog.Writer) (products, locations int, err error) {
	now := time.Now().UTC()
	for _, p := range c.Products {
		err := w.CreateProduct(ctx, &entity.Product{
			ID: p.ID, SKU: p.SKU, Name: p.Name, UnitCost: p.UnitCost,
			CreatedAt: now, UpdatedAt: now,
		})
		switch {
		case err == nil:
			products++
		case errors.Is(err, domain.ErrDuplicate):
		default:
			return products, locations, fmt.Errorf("producto %s: %w", p.ID, err)
		}
	}
	for _, l := range c.Locations {
		err := w.CreateLocation(ctx, &entity.Location{ID: l.ID, Name: l.Name, CreatedAt: now, UpdatedAt: now})
		switch {
		case err == nil:
			locations++
		case errors.Is(err, domain.ErrDuplicate):
		default:
			return products, locations, fmt.Errorf("ubicación %s: %w", l.ID, err)
		}
	}
	return products, locations, nil
}
