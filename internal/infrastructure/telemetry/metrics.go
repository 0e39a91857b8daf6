package telemetry

import (
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/prometheus/client_golang/prometheus"
)

var _ inventory.Metrics = (*Metrics)(nil)

// Metrics contadores Prometheus del núcleo, registrados en un registry propio.
type Metrics struct {
	registry *prometheus.Registry

	movementsTotal  *prometheus.CounterVec
	unitsTotal      *prometheus.CounterVec
	rejectionsTotal *prometheus.CounterVec
}

// NewMetrics crea y registra los contadores bajo el namespace indicado ("" = stock_ledger).
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "stock_ledger"
	}
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.movementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movements_applied_total",
			Help:      "Movimientos aplicados al libro, por motivo.",
		},
		[]string{"reason"},
	)
	m.unitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movement_units_total",
			Help:      "Unidades movidas en valor absoluto, por motivo y dirección.",
		},
		[]string{"reason", "direction"},
	)
	m.rejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_rejected_total",
			Help:      "Operaciones rechazadas, por operación y tipo de error.",
		},
		[]string{"operation", "kind"},
	)

	m.registry.MustRegister(m.movementsTotal, m.unitsTotal, m.rejectionsTotal)
	return m
}

// Registry para exponer en /metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) MovementApplied(reason entity.MovementReason, delta int64) {
	m.movementsTotal.WithLabelValues(string(reason)).Inc()
	direction := "in"
	if delta < 0 {
		direction = "out"
		delta = -delta
	}
	m.unitsTotal.WithLabelValues(string(reason), direction).Add(float64(delta))
}

func (m *Metrics) OperationRejected(operation, kind string) {
	m.rejectionsTotal.WithLabelValues(operation, kind).Inc()
}

// MovementsApplied expone el contador para tests.
func (m *Metrics) MovementsApplied(reason entity.MovementReason) prometheus.Counter {
	return m.movementsTotal.WithLabelValues(string(reason))
}

// Rejections expone el contador para tests.
func (m *Metrics) Rejections(operation, kind string) prometheus.Counter {
	return m.rejectionsTotal.WithLabelValues(operation, kind)
}

// Units expone el contador para tests.
func (m *Metrics) Units(reason entity.MovementReason, direction string) prometheus.Counter {
	return m.unitsTotal.WithLabelValues(string(reason), direction)
}
