package seed_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/seed"
)

func TestDemo_Determinista(t *testing.T) {
	a := seed.Demo(7, 5, 2)
	b := seed.Demo(7, 5, 2)
	assert.Equal(t, a, b)
	require.Len(t, a.Products, 5)
	require.Len(t, a.Locations, 2)
	assert.Equal(t, "prod-001", a.Products[0].ID)
	assert.Equal(t, "loc-02", a.Locations[1].ID)
	require.NoError(t, a.Validate())

	skus := map[string]bool{}
	for _, p := range a.Products {
		assert.False(t, skus[p.SKU], "sku repetido %s", p.SKU)
		skus[p.SKU] = true
		assert.True(t, p.UnitCost.IsPositive())
	}
}

func TestDecode_UTF8(t *testing.T) {
	c, err := seed.Decode(strings.NewReader(`{
		"products": [{"id": "p-1", "sku": "CEM-50", "name": "Cemento gris", "unit_cost": "32500.50"}],
		"locations": [{"id": "loc-1", "name": "Bodega Norte"}]
	}`), "")
	require.NoError(t, err)
	require.Len(t, c.Products, 1)
	assert.Equal(t, "32500.5", c.Products[0].UnitCost.String())
	assert.Equal(t, "Bodega Norte", c.Locations[0].Name)
}

// Exportaciones antiguas en Latin-1: "ñ" = 0xF1.
func TestDecode_Latin1(t *testing.T) {
	raw := []byte(`{"products":[],"locations":[{"id":"loc-1","name":"Bodega Espa`)
	raw = append(raw, 0xF1)
	raw = append(raw, []byte(`a"}]}`)...)

	c, err := seed.Decode(bytes.NewReader(raw), "ISO-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "Bodega España", c.Locations[0].Name)
}

func TestDecode_Errores(t *testing.T) {
	_, err := seed.Decode(strings.NewReader(`{}`), "ebcdic")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = seed.Decode(strings.NewReader(`{"products":[{"id":"p-1"}]}`), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "producto sin sku")

	_, err = seed.Decode(strings.NewReader(`{"products":[{"id":"p-1","sku":"S","unit_cost":"-1"}]}`), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "costo negativo")

	_, err = seed.Decode(strings.NewReader(`{"locations":[{"name":"sin id"}]}`), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = seed.Decode(strings.NewReader(`{`), "")
	assert.Error(t, err)
}

func TestApply_OmiteExistentes(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	c := seed.Demo(1, 3, 2)

	products, locations, err := c.Apply(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 3, products)
	assert.Equal(t, 2, locations)

	products, locations, err = c.Apply(ctx, store)
	require.NoError(t, err)
	assert.Zero(t, products)
	assert.Zero(t, locations)

	p, err := store.Repositories().Products.GetByID(ctx, "prod-002")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, c.Products[1].SKU, p.SKU)
}
