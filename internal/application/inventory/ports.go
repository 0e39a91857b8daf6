package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/rs/zerolog"
)

// Repositories agrupa los puertos de persistencia. Dentro de TxRunner.Run están atados
// a la transacción; fuera de ella (lecturas) a la conexión o store compartido.
type Repositories struct {
	Stock        repository.StockRepository
	Movements    repository.MovementRepository
	Products     repository.ProductRepository
	Locations    repository.LocationRepository
	Receipts     repository.ReceiptRepository
	Deliveries   repository.DeliveryRepository
	Stocktakings repository.StocktakingRepository
	Disposals    repository.DisposalRepository
	Incidents    repository.IncidentRepository
}

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback y ningún cambio queda visible.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repositories) error) error
}

// DocumentLocker serializa operaciones sobre un mismo documento entre procesos.
// Si el bloqueo no se obtiene devuelve domain.ErrConcurrencyConflict.
type DocumentLocker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// NoopLocker no bloquea; la transacción de BD sigue garantizando la atomicidad.
type NoopLocker struct{}

func (NoopLocker) Lock(context.Context, string) (func(), error) { return func() {}, nil }

// Metrics recibe eventos del núcleo para instrumentación.
type Metrics interface {
	MovementApplied(reason entity.MovementReason, delta int64)
	OperationRejected(operation, kind string)
}

type noopMetrics struct{}

func (noopMetrics) MovementApplied(entity.MovementReason, int64) {}
func (noopMetrics) OperationRejected(string, string)             {}

// Options colaboradores opcionales compartidos por los servicios del núcleo.
type Options struct {
	Metrics Metrics
	Logger  zerolog.Logger
	Clock   func() time.Time
}

// Option modifica Options.
type Option func(*Options)

// WithMetrics inyecta el receptor de métricas.
func WithMetrics(m Metrics) Option { return func(o *Options) { o.Metrics = m } }

// WithLogger inyecta el logger estructurado.
func WithLogger(l zerolog.Logger) Option { return func(o *Options) { o.Logger = l } }

// WithClock reemplaza el reloj (tests).
func WithClock(c func() time.Time) Option { return func(o *Options) { o.Clock = c } }

// BuildOptions aplica las opciones sobre los valores por defecto.
func BuildOptions(opts []Option) Options {
	o := Options{
		Metrics: noopMetrics{},
		Logger:  zerolog.Nop(),
		Clock:   func() time.Time { return time.Now().UTC() },
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Fail registra el rechazo de una operación en las métricas y devuelve err sin cambios.
func (o Options) Fail(operation string, err error) error {
	if err != nil {
		o.Metrics.OperationRejected(operation, domain.KindOf(err))
	}
	return err
}
