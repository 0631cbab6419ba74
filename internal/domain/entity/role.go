package entity

import "time"

// Roles sembrados en cada tenant.
const (
	RoleSystemAdmin = "SYSTEM_ADMIN"
	RoleTenantAdmin = "TENANT_ADMIN"
	RoleDeptAdmin   = "DEPT_ADMIN"
	RoleEmployee    = "EMPLOYEE"
)

// Tipos de permiso.
const (
	PermissionFunction = "function"
	PermissionData     = "data"
	PermissionField    = "field"
)

// Role rol de un tenant.
type Role struct {
	ID          int64      `json:"id"`
	UUID        string     `json:"uuid"`
	TenantID    int64      `json:"tenant_id"`
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	IsSystem    bool       `json:"is_system"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"-"`
}

// Permission punto de permiso: "<resource>:<action>" o "<resource>:data:<scope>".
type Permission struct {
	ID             int64      `json:"id"`
	UUID           string     `json:"uuid"`
	TenantID       int64      `json:"tenant_id"`
	Code           string     `json:"code"`
	Name           string     `json:"name"`
	Resource       string     `json:"resource"`
	Action         string     `json:"action"`
	PermissionType string     `json:"permission_type"`
	Description    string     `json:"description,omitempty"`
	IsSystem       bool       `json:"is_system"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"-"`
}
