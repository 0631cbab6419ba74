package dto

import "time"

// LoginRequest credenciales. TenantID selecciona organización si el usuario existe en varias.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	TenantID *int64 `json:"tenant_id"`
}

// RefreshRequest renovación de tokens.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UserInfo datos públicos del usuario autenticado.
type UserInfo struct {
	ID              int64      `json:"id"`
	UUID            string     `json:"uuid"`
	Username        string     `json:"username"`
	Email           string     `json:"email,omitempty"`
	FullName        string     `json:"full_name,omitempty"`
	TenantID        *int64     `json:"tenant_id,omitempty"`
	IsActive        bool       `json:"is_active"`
	IsPlatformAdmin bool       `json:"is_platform_admin"`
	IsTenantAdmin   bool       `json:"is_tenant_admin"`
	IsSuperAdmin    bool       `json:"is_superadmin"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
}

// TenantSummary organización disponible para el usuario.
type TenantSummary struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"domain"`
	Status string `json:"status"`
}

// TokenResponse respuesta de login/refresh.
type TokenResponse struct {
	AccessToken             string          `json:"access_token"`
	RefreshToken            string          `json:"refresh_token"`
	TokenType               string          `json:"token_type"`
	ExpiresIn               int             `json:"expires_in"`
	User                    UserInfo        `json:"user"`
	Tenants                 []TenantSummary `json:"tenants,omitempty"`
	DefaultTenantID         *int64          `json:"default_tenant_id,omitempty"`
	RequiresTenantSelection bool            `json:"requires_tenant_selection"`
}

// MeResponse usuario actual con sus permisos efectivos.
type MeResponse struct {
	User        UserInfo       `json:"user"`
	Tenant      *TenantSummary `json:"tenant,omitempty"`
	Permissions []string       `json:"permissions"`
}
