package entity

import "time"

// Menu entrada del menú de un tenant. Meta["node"] y PermissionCode son opcionales.
type Menu struct {
	ID              int64          `json:"id"`
	UUID            string         `json:"uuid"`
	TenantID        int64          `json:"tenant_id"`
	ParentID        *int64         `json:"parent_id,omitempty"`
	ApplicationCode string         `json:"application_code,omitempty"`
	Name            string         `json:"name"`
	Path            string         `json:"path"`
	Icon            string         `json:"icon,omitempty"`
	Meta            map[string]any `json:"meta,omitempty"`
	PermissionCode  string         `json:"permission_code,omitempty"`
	SortOrder       int            `json:"sort_order"`
	IsActive        bool           `json:"is_active"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       *time.Time     `json:"-"`
}

// MetaNode devuelve meta.node si existe.
func (m *Menu) MetaNode() string {
	v, _ := m.Meta["node"].(string)
	return v
}

// Application aplicación instalada en un tenant con su manifiesto.
type Application struct {
	ID          int64               `json:"id"`
	UUID        string              `json:"uuid"`
	TenantID    int64               `json:"tenant_id"`
	Code        string              `json:"code"`
	Name        string              `json:"name"`
	Version     string              `json:"version"`
	Manifest    ApplicationManifest `json:"manifest"`
	IsInstalled bool                `json:"is_installed"`
	IsActive    bool                `json:"is_active"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	DeletedAt   *time.Time          `json:"-"`
}

// ApplicationManifest declara permisos y árbol de menús (estructura libre).
type ApplicationManifest struct {
	Permissions []string `json:"permissions,omitempty" mapstructure:"permissions"`
	MenuConfig  []any    `json:"menu_config,omitempty" mapstructure:"menu_config"`
}

// DataDictionary diccionario de datos con sus items.
type DataDictionary struct {
	ID          int64             `json:"id"`
	UUID        string            `json:"uuid"`
	TenantID    int64             `json:"tenant_id"`
	Code        string            `json:"code"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	IsSystem    bool              `json:"is_system"`
	IsActive    bool              `json:"is_active"`
	Items       []*DictionaryItem `json:"items,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	DeletedAt   *time.Time        `json:"-"`
}

// DictionaryItem valor de un diccionario.
type DictionaryItem struct {
	ID           int64      `json:"id"`
	UUID         string     `json:"uuid"`
	TenantID     int64      `json:"tenant_id"`
	DictionaryID int64      `json:"dictionary_id"`
	Label        string     `json:"label"`
	Value        string     `json:"value"`
	SortOrder    int        `json:"sort_order"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"-"`
}
