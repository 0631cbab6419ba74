package dto

import "time"

// CreateDataSourceRequest alta de fuente de datos.
type CreateDataSourceRequest struct {
	Code        string         `json:"code"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Type        string         `json:"type"`
	Config      map[string]any `json:"config"`
	IsActive    *bool          `json:"is_active"`
}

// UpdateDataSourceRequest cambios parciales; Config reemplaza el objeto completo.
type UpdateDataSourceRequest struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
	IsActive    *bool          `json:"is_active,omitempty"`
}

// TestConnectionResult resultado de probar una fuente de datos. Nunca es un error HTTP.
type TestConnectionResult struct {
	Success     bool    `json:"success"`
	Message     string  `json:"message"`
	ElapsedTime float64 `json:"elapsed_time"`
}

// CreateDatasetRequest alta de dataset.
type CreateDatasetRequest struct {
	Code         string         `json:"code"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	QueryType    string         `json:"query_type"`
	QueryConfig  map[string]any `json:"query_config"`
	DataSourceID int64          `json:"data_source_id"`
	IsActive     *bool          `json:"is_active"`
}

// UpdateDatasetRequest cambios parciales de dataset.
type UpdateDatasetRequest struct {
	Name         *string        `json:"name,omitempty"`
	Description  *string        `json:"description,omitempty"`
	QueryType    *string        `json:"query_type,omitempty"`
	QueryConfig  map[string]any `json:"query_config,omitempty"`
	DataSourceID *int64         `json:"data_source_id,omitempty"`
	IsActive     *bool          `json:"is_active,omitempty"`
}

// DatasetListRequest listado con filtro por fuente.
type DatasetListRequest struct {
	PageRequest
	DataSourceID int64 `query:"data_source_id"`
}

// ExecuteQueryRequest parámetros de ejecución. Limit por defecto 100, máximo 1000.
type ExecuteQueryRequest struct {
	Parameters map[string]any `json:"parameters"`
	Limit      int            `json:"limit"`
	Offset     int            `json:"offset"`
}

// Normalize aplica valores por defecto y límites.
func (r *ExecuteQueryRequest) Normalize() {
	if r.Limit <= 0 {
		r.Limit = 100
	}
	if r.Limit > MaxPageLimit {
		r.Limit = MaxPageLimit
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
	if r.Parameters == nil {
		r.Parameters = map[string]any{}
	}
}

// ExecuteQueryResponse respuesta uniforme de ejecución.
type ExecuteQueryResponse struct {
	Success     bool             `json:"success"`
	Data        []map[string]any `json:"data"`
	Total       int              `json:"total"`
	Columns     []string         `json:"columns"`
	ElapsedTime float64          `json:"elapsed_time"`
	Error       string           `json:"error,omitempty"`
}

// ShareRequest vigencia del token en horas (por defecto 168).
type ShareRequest struct {
	ExpiresInHours int `json:"expires_in_hours"`
}

// ShareResponse token emitido.
type ShareResponse struct {
	ShareToken string    `json:"share_token"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// CreateReportRequest alta de informe basado en un dataset.
type CreateReportRequest struct {
	Code        string         `json:"code"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	DatasetID   int64          `json:"dataset_id"`
	Config      map[string]any `json:"config"`
}
