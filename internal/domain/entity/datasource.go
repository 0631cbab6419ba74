package entity

import "time"

// Tipos de fuente de datos.
const (
	DataSourcePostgreSQL = "postgresql"
	DataSourceMySQL      = "mysql"
	DataSourceMongoDB    = "mongodb"
	DataSourceAPI        = "api"
)

// Tipos de consulta de un dataset.
const (
	QuerySQL = "sql"
	QueryAPI = "api"
)

// DataSource fuente de datos registrada. Los secretos viven en Config.
type DataSource struct {
	ID              int64          `json:"id"`
	UUID            string         `json:"uuid"`
	TenantID        int64          `json:"tenant_id"`
	Code            string         `json:"code"`
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	Type            string         `json:"type"`
	Config          map[string]any `json:"config"`
	IsActive        bool           `json:"is_active"`
	IsConnected     bool           `json:"is_connected"`
	LastConnectedAt *time.Time     `json:"last_connected_at,omitempty"`
	LastError       string         `json:"last_error,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       *time.Time     `json:"-"`
}

// Share token de acceso público con expiración.
type Share struct {
	Token     string     `json:"share_token,omitempty"`
	ExpiresAt *time.Time `json:"share_expires_at,omitempty"`
}

// Valid indica si el token existe y no ha expirado en now.
func (s Share) Valid(now time.Time) bool {
	return s.Token != "" && s.ExpiresAt != nil && now.Before(*s.ExpiresAt)
}

// Dataset consulta SQL o API sobre una fuente de datos.
type Dataset struct {
	ID             int64          `json:"id"`
	UUID           string         `json:"uuid"`
	TenantID       int64          `json:"tenant_id"`
	Code           string         `json:"code"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	QueryType      string         `json:"query_type"`
	QueryConfig    map[string]any `json:"query_config"`
	DataSourceID   int64          `json:"data_source_id"`
	IsActive       bool           `json:"is_active"`
	LastExecutedAt *time.Time     `json:"last_executed_at,omitempty"`
	LastError      string         `json:"last_error,omitempty"`
	Share
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}

// Report informe o tablero basado en un dataset.
type Report struct {
	ID          int64          `json:"id"`
	UUID        string         `json:"uuid"`
	TenantID    int64          `json:"tenant_id"`
	Code        string         `json:"code"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	DatasetID   int64          `json:"dataset_id"`
	Config      map[string]any `json:"config,omitempty"`
	Share
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}
