// seed da de alta productos y ubicaciones en PostgreSQL. Sin -catalog genera un
// catálogo demo determinista.
//
// Uso: go run ./cmd/seed [-catalog catalogo.json] [-charset iso-8859-1] [-products 20 -locations 3 -seed 1]
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/seed"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	flag "github.com/spf13/pflag"
)

func main() {
	catalogPath := flag.String("catalog", "", "catálogo JSON con products y locations")
	charset := flag.String("charset", "", "codificación del catálogo (utf-8 o iso-8859-1)")
	products := flag.Int("products", 20, "productos del catálogo demo")
	locations := flag.Int("locations", 3, "ubicaciones del catálogo demo")
	demoSeed := flag.Uint64("seed", 1, "semilla del catálogo demo")
	flag.Parse()

	catalog := seed.Demo(*demoSeed, *products, *locations)
	os.Exit(run(catalog, *catalogPath, *charset))
}

func run(catalog *seed.Catalog, catalogPath, charset string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		return 1
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "seed"})

	if catalogPath != "" {
		if catalog, err = seed.Load(catalogPath, charset); err != nil {
			log.Error().Err(err).Str("path", catalogPath).Msg("cargar catálogo")
			return 1
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("conexión a PostgreSQL")
		return 1
	}
	defer pool.Close()

	created, createdLocations, err := catalog.Apply(ctx, postgres.NewCatalogWriter(pool))
	if err != nil {
		log.Error().Err(err).Msg("sembrar catálogo")
		return 1
	}
	log.Info().
		Int("products", created).
		Int("locations", createdLocations).
		Int("skipped", len(catalog.Products)+len(catalog.Locations)-created-createdLocations).
		Msg("catálogo sembrado")
	return 0
}
