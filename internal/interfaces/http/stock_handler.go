package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockHandler consultas sobre el libro de existencias. Los movimientos solo entran por
// documentos (recepción, despacho, ajuste de inventario, baja).
type StockHandler struct {
	ledger *inventory.StockLedger
}

func NewStockHandler(ledger *inventory.StockLedger) *StockHandler {
	return &StockHandler{ledger: ledger}
}

func keyFromQuery(c *fiber.Ctx) entity.StockKey {
	return entity.StockKey{
		ProductID:  c.Query("product_id"),
		LocationID: c.Query("location_id"),
		Batch:      c.Query("batch"),
	}
}

// GetQuantity GET /api/stock?product_id=&location_id=&batch=
// Una clave sin movimientos devuelve cantidad 0.
func (h *StockHandler) GetQuantity(c *fiber.Ctx) error {
	key := keyFromQuery(c)
	if key.ProductID == "" || key.LocationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id y location_id son obligatorios"})
	}
	row, err := h.ledger.Row(c.Context(), key)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewStockResponse(row))
}

// GetOnHand GET /api/stock/on-hand/:productId
func (h *StockHandler) GetOnHand(c *fiber.Ctx) error {
	productID := c.Params("productId")
	total, rows, err := h.ledger.OnHand(c.Context(), productID)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.OnHandResponse{ProductID: productID, Total: total, Rows: make([]dto.StockResponse, 0, len(rows))}
	for _, r := range rows {
		out.Rows = append(out.Rows, dto.NewStockResponse(r))
	}
	return c.JSON(out)
}

// GetHistory GET /api/stock/movements?product_id=&location_id=&batch=&from=&to=&page=&limit=
// from/to en RFC3339.
func (h *StockHandler) GetHistory(c *fiber.Ctx) error {
	q := inventory.HistoryQuery{
		ProductID:  c.Query("product_id"),
		LocationID: c.Query("location_id"),
	}
	if c.Request().URI().QueryArgs().Has("batch") {
		b := c.Query("batch")
		q.Batch = &b
	}
	var err error
	if q.From, err = queryTime(c, "from"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from debe ser RFC3339"})
	}
	if q.To, err = queryTime(c, "to"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to debe ser RFC3339"})
	}

	list, page, err := h.ledger.HistoryPage(c.Context(), q, pageFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	out := dto.MovementListResponse{Items: make([]dto.MovementResponse, 0, len(list)), Page: page}
	for _, m := range list {
		out.Items = append(out.Items, dto.NewMovementResponse(m))
	}
	return c.JSON(out)
}

// SetStatus PUT /api/stock/status
func (h *StockHandler) SetStatus(c *fiber.Ctx) error {
	var in dto.SetStockStatusRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	key := entity.StockKey{ProductID: in.ProductID, LocationID: in.LocationID, Batch: in.Batch}
	row, err := h.ledger.SetStatus(c.Context(), key, entity.StockStatus(in.Status))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewStockResponse(row))
}

// Verify GET /api/stock/verify/:productId → filas cuya cantidad no coincide con el replay.
func (h *StockHandler) Verify(c *fiber.Ctx) error {
	drifts, err := h.ledger.Verify(c.Context(), c.Params("productId"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.DriftResponse, 0, len(drifts))
	for _, d := range drifts {
		out = append(out, dto.DriftResponse{
			ProductID:  d.Key.ProductID,
			LocationID: d.Key.LocationID,
			Batch:      d.Key.Batch,
			Stored:     d.Stored,
			Replayed:   d.Replayed,
		})
	}
	return c.JSON(fiber.Map{"consistent": len(out) == 0, "drifts": out})
}

func queryTime(c *fiber.Ctx, name string) (*time.Time, error) {
	s := c.Query(name)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
