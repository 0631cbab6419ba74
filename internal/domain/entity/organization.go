package entity

import "time"

// Department árbol de departamentos por tenant.
type Department struct {
	ID        int64         `json:"id"`
	UUID      string        `json:"uuid"`
	TenantID  int64         `json:"tenant_id"`
	ParentID  *int64        `json:"parent_id,omitempty"`
	Code      string        `json:"code"`
	Name      string        `json:"name"`
	ManagerID *int64        `json:"manager_id,omitempty"`
	SortOrder int           `json:"sort_order"`
	IsActive  bool          `json:"is_active"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	DeletedAt *time.Time    `json:"-"`
	Children  []*Department `json:"children,omitempty"`
}

// Position puesto, opcionalmente ligado a un departamento.
type Position struct {
	ID           int64      `json:"id"`
	UUID         string     `json:"uuid"`
	TenantID     int64      `json:"tenant_id"`
	DepartmentID *int64     `json:"department_id,omitempty"`
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	SortOrder    int        `json:"sort_order"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"-"`
}
