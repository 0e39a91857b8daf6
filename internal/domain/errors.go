package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrInvalidState        = errors.New("operación no permitida en el estado actual")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia, reintente la operación")
	ErrInsufficientStock   = errors.New("stock insuficiente")
)

// Tipos de error expuestos a los consumidores del núcleo.
const (
	KindInsufficientStock   = "InsufficientStock"
	KindInvalidState        = "InvalidState"
	KindNotFound            = "NotFound"
	KindValidation          = "ValidationError"
	KindConcurrencyConflict = "ConcurrencyConflict"
	KindForbidden           = "Forbidden"
	KindDuplicate           = "Duplicate"
	KindInternal            = "Internal"
)

// InsufficientStockError detalla qué clave de stock habría quedado negativa.
// errors.Is(err, ErrInsufficientStock) es verdadero para este tipo.
type InsufficientStockError struct {
	ProductID  string
	LocationID string
	Batch      string
	Requested  int64
	Available  int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s en %s: solicitado %d, disponible %d",
		e.ProductID, e.LocationID, e.Requested, e.Available)
}

// Is permite comparar contra el sentinel ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Invalid envuelve ErrInvalidInput con un detalle legible.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// InvalidState envuelve ErrInvalidState con un detalle legible.
func InvalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// NotFound envuelve ErrNotFound indicando el tipo de recurso y su id.
func NotFound(resource, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, resource, id)
}

// KindOf devuelve el tipo de error del núcleo; KindInternal si no es un error de dominio.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientStock):
		return KindInsufficientStock
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrConcurrencyConflict):
		return KindConcurrencyConflict
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrDuplicate):
		return KindDuplicate
	default:
		return KindInternal
	}
}
