package dto

import "github.com/riveredge/platform-kernel/internal/domain/repository"

// MaxPageLimit tope de registros por página.
const MaxPageLimit = 1000

// PageRequest paginación para listados (?skip=&limit=).
type PageRequest struct {
	Skip    int    `query:"skip"`
	Limit   int    `query:"limit"`
	Keyword string `query:"keyword"`
	Status  string `query:"status"`
}

// DefaultPage aplica valores por defecto y acota Limit a 1..1000.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Skip < 0 {
		p.Skip = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// ListResponse listado paginado.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	PageResponse
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// MessageResponse respuesta simple con mensaje.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Filter convierte la página en un filtro de repositorio.
func (p PageRequest) Filter() repository.ListFilter {
	p.DefaultPage()
	return repository.ListFilter{Keyword: p.Keyword, Status: p.Status, Limit: p.Limit, Offset: p.Skip}
}

// NewListResponse arma la respuesta paginada.
func NewListResponse[T any](items []T, p PageRequest, total int) ListResponse[T] {
	p.DefaultPage()
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, PageResponse: PageResponse{Skip: p.Skip, Limit: p.Limit, Total: total}}
}
