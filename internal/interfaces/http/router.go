package http

import (
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jhoicas/stock-ledger/internal/application/catalog"
	"github.com/jhoicas/stock-ledger/internal/application/disposal"
	"github.com/jhoicas/stock-ledger/internal/application/incident"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/stocktaking"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger     *inventory.StockLedger
	Processor  *inventory.MovementProcessor
	Reconciler *stocktaking.Reconciler
	Policy     *disposal.Policy
	Linker     *incident.Linker
	Catalog    *catalog.Service // nil = sin rutas de catálogo
	JWTSecret  string
	Gatherer   prometheus.Gatherer // nil = sin /metrics
	DocsFile   string              // swagger.json existente; "" = sin /docs
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if deps.DocsFile != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: deps.DocsFile,
			Path:     "docs",
			Title:    "Stock Ledger API",
		}))
	}
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Todas las rutas de /api requieren Bearer Token con un rol reconocido.
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret), RequireRole())
	supervisors := RequireRole(entity.RoleAdmin, entity.RoleManager)

	if deps.Catalog != nil {
		cat := NewCatalogHandler(deps.Catalog)
		products := api.Group("/products")
		products.Post("/", supervisors, cat.CreateProduct)
		products.Get("/:id", cat.GetProduct)

		locations := api.Group("/locations")
		locations.Post("/", supervisors, cat.CreateLocation)
		locations.Get("/:id", cat.GetLocation)
	}

	docs := NewDocumentHandler(deps.Processor)
	receipts := api.Group("/receipts")
	receipts.Post("/", docs.CreateReceipt)
	receipts.Get("/:id", docs.GetReceipt)
	receipts.Post("/:id/post", docs.PostReceipt)
	receipts.Post("/:id/close", docs.CloseReceipt)

	deliveries := api.Group("/deliveries")
	deliveries.Post("/", docs.CreateDelivery)
	deliveries.Get("/:id", docs.GetDelivery)
	deliveries.Post("/:id/post", docs.PostDelivery)
	deliveries.Post("/:id/close", docs.CloseDelivery)

	stockHandler := NewStockHandler(deps.Ledger)
	stock := api.Group("/stock")
	stock.Get("/", stockHandler.GetQuantity)
	stock.Get("/on-hand/:productId", stockHandler.GetOnHand)
	stock.Get("/movements", stockHandler.GetHistory)
	stock.Put("/status", supervisors, stockHandler.SetStatus)
	stock.Get("/verify/:productId", supervisors, stockHandler.Verify)

	st := NewStocktakingHandler(deps.Reconciler)
	stocktakings := api.Group("/stocktakings")
	stocktakings.Post("/", st.Open)
	stocktakings.Get("/:id", st.Get)
	stocktakings.Post("/:id/counts", st.RecordCount)
	stocktakings.Post("/:id/reconcile", st.Reconcile)
	stocktakings.Post("/:id/close", supervisors, st.Close)
	stocktakings.Post("/:id/abandon", supervisors, st.Abandon)
	stocktakings.Get("/:id/adjustments", st.ListAdjustments)

	// La capacidad de aprobar la verifica el reconciliador (403 para staff).
	adjustments := api.Group("/adjustments")
	adjustments.Post("/:id/approve", st.ApproveAdjustment)
	adjustments.Post("/:id/reject", st.RejectAdjustment)
	adjustments.Post("/:id/apply", st.ApplyAdjustment)

	disp := NewDisposalHandler(deps.Policy)
	disposals := api.Group("/disposals")
	disposals.Post("/classify", disp.Classify)
	disposals.Post("/", disp.Submit)
	disposals.Get("/:id", disp.Get)
	disposals.Post("/:id/approve", disp.Approve)
	disposals.Post("/:id/reject", disp.Reject)
	disposals.Post("/:id/apply", disp.Apply)

	inc := NewIncidentHandler(deps.Linker)
	incidents := api.Group("/incidents")
	incidents.Post("/", inc.Record)
	incidents.Get("/:id", inc.Get)
	incidents.Put("/:id/link", inc.Link)
	incidents.Get("/:id/resolve", inc.Resolve)
}
