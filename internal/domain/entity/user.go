package entity

import "time"

// Origen del alta de un usuario.
const (
	SourcePersonal     = "personal"
	SourceOrganization = "organization"
	SourceInviteCode   = "invite_code"
	SourceJoinRequest  = "join_request"
	SourceAdmin        = "admin"
)

// User usuario de un tenant. (tenant_id, username) es único.
type User struct {
	ID              int64      `json:"id"`
	UUID            string     `json:"uuid"`
	TenantID        int64      `json:"tenant_id"`
	Username        string     `json:"username"`
	PasswordHash    string     `json:"-"`
	Email           string     `json:"email,omitempty"`
	FullName        string     `json:"full_name,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	IsActive        bool       `json:"is_active"`
	IsPlatformAdmin bool       `json:"is_platform_admin"`
	IsTenantAdmin   bool       `json:"is_tenant_admin"`
	Source          string     `json:"source"`
	DepartmentID    *int64     `json:"department_id,omitempty"`
	PositionID      *int64     `json:"position_id,omitempty"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"-"`
}

// SuperAdmin operador de plataforma, sin tenant.
type SuperAdmin struct {
	ID           int64      `json:"id"`
	UUID         string     `json:"uuid"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Email        string     `json:"email,omitempty"`
	FullName     string     `json:"full_name,omitempty"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
