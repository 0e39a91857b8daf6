package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/stock-ledger/internal/application/catalog"
	"github.com/jhoicas/stock-ledger/internal/application/disposal"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/incident"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/stocktaking"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/seed"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/telemetry"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	// Los defer de run (pool, Redis) corren antes de os.Exit.
	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("aplicación finalizada con error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	log.Info().
		Str("env", cfg.App.Env).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		runner inventory.TxRunner
		reads  inventory.Repositories
		writer catalog.Writer
	)
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		store := memory.NewStore()
		entries := seed.Demo(1, 20, 3)
		if cfg.Store.CatalogPath != "" {
			loaded, err := seed.Load(cfg.Store.CatalogPath, "")
			if err != nil {
				return fmt.Errorf("cargar catálogo: %w", err)
			}
			entries = loaded
		}
		products, locations, err := entries.Apply(ctx, store)
		if err != nil {
			return fmt.Errorf("sembrar catálogo en memoria: %w", err)
		}
		log.Warn().Int("products", products).Int("locations", locations).
			Msg("almacén en memoria: los datos se pierden al reiniciar")
		runner, reads, writer = store, store.Repositories(), store
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		defer pool.Close()
		runner, reads = postgres.NewTxRunner(pool), postgres.NewRepositories(pool)
		writer = postgres.NewCatalogWriter(pool)
	}

	var locker inventory.DocumentLocker = inventory.NoopLocker{}
	if cfg.Redis.URL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("conexión a Redis: %w", err)
		}
		defer rdb.Close()
		locker = cache.NewRedisLocker(rdb, cfg.Redis.LockTTL, logger.Component(log, "locker"))
	}

	metrics := telemetry.NewMetrics("")
	opts := func(component string) []inventory.Option {
		return []inventory.Option{
			inventory.WithMetrics(metrics),
			inventory.WithLogger(logger.Component(log, component)),
		}
	}
	paging := dto.Pagination{
		DefaultPage:  cfg.Ledger.DefaultPage,
		DefaultLimit: cfg.Ledger.DefaultLimit,
		MaxLimit:     cfg.Ledger.MaxLimit,
	}

	ledger := inventory.NewStockLedger(runner, reads, paging, cfg.Ledger.HistoryBatch, opts("ledger")...)
	processor := inventory.NewMovementProcessor(runner, reads, ledger, locker, opts("processor")...)
	reconciler := stocktaking.NewReconciler(runner, reads, ledger, paging, opts("reconciler")...)
	policy := disposal.NewPolicy(runner, reads, ledger, disposal.Config{
		HighValueThreshold: cfg.Ledger.HighValueThreshold,
	}, opts("disposal")...)
	linker := incident.NewLinker(runner, reads, opts("incident")...)
	catalogSvc := catalog.NewService(writer, reads, opts("catalog")...)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	docsFile := cfg.HTTP.DocsFile
	if docsFile != "" {
		if _, err := os.Stat(docsFile); err != nil {
			log.Warn().Err(err).Str("file", docsFile).Msg("documentación OpenAPI no disponible")
			docsFile = ""
		}
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:     ledger,
		Processor:  processor,
		Reconciler: reconciler,
		Policy:     policy,
		Linker:     linker,
		Catalog:    catalogSvc,
		JWTSecret:  cfg.JWT.Secret,
		Gatherer:   metrics.Registry(),
		DocsFile:   docsFile,
	})

	serve(app, cfg.HTTP.Addr(), log)
	return nil
}

func serve(app *fiber.App, addr string, log zerolog.Logger) {
	go func() {
		if err := app.Listen(addr); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
