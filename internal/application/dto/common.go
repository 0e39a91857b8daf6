package dto

// Pagination valores de paginación configurables (page, limit por defecto y límite máximo).
type Pagination struct {
	DefaultPage  int
	DefaultLimit int
	MaxLimit     int
}

// DefaultPagination page=1, limit=20, máximo 100.
func DefaultPagination() Pagination {
	return Pagination{DefaultPage: 1, DefaultLimit: 20, MaxLimit: 100}
}

// PageRequest paginación para listados (page empieza en 1).
type PageRequest struct {
	Page  int `query:"page" validate:"omitempty,min=1"`
	Limit int `query:"limit" validate:"omitempty,min=1"`
}

// Normalize aplica los valores por defecto de cfg si Page/Limit son cero o inválidos.
func (p PageRequest) Normalize(cfg Pagination) PageRequest {
	if cfg.DefaultPage <= 0 {
		cfg.DefaultPage = 1
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	if p.Page <= 0 {
		p.Page = cfg.DefaultPage
	}
	if p.Limit <= 0 {
		p.Limit = cfg.DefaultLimit
	}
	if cfg.MaxLimit > 0 && p.Limit > cfg.MaxLimit {
		p.Limit = cfg.MaxLimit
	}
	return p
}

// Offset devuelve el desplazamiento equivalente a la página.
func (p PageRequest) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
