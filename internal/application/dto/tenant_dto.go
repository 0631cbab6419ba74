package dto

import "github.com/riveredge/platform-kernel/internal/domain/entity"

// RegisterOrganizationRequest alta de organización con su administrador.
type RegisterOrganizationRequest struct {
	TenantName   string `json:"tenant_name"`
	TenantDomain string `json:"tenant_domain"`
	Description  string `json:"description"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
}

// RegisterPersonalRequest registro personal (tenant opcional + código de invitación).
type RegisterPersonalRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	TenantID   *int64 `json:"tenant_id"`
	InviteCode string `json:"invite_code"`
}

// JoinTenantRequest solicitud de ingreso a una organización existente.
type JoinTenantRequest struct {
	TenantID int64  `json:"tenant_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// RegisterResponse resultado de cualquier registro.
type RegisterResponse struct {
	Tenant  *entity.Tenant `json:"tenant"`
	User    *entity.User   `json:"user"`
	Message string         `json:"message"`
}

// DomainCheckResponse disponibilidad de un dominio.
type DomainCheckResponse struct {
	Domain    string `json:"domain"`
	Available bool   `json:"available"`
	Valid     bool   `json:"valid"`
}

// RejectTenantRequest motivo de rechazo.
type RejectTenantRequest struct {
	Reason string `json:"reason"`
}

// CreateIndustryTemplateRequest alta de plantilla de industria.
type CreateIndustryTemplateRequest struct {
	Code        string                        `json:"code"`
	Name        string                        `json:"name"`
	Industry    string                        `json:"industry"`
	Description string                        `json:"description"`
	Config      entity.IndustryTemplateConfig `json:"config"`
}

// ApplyTemplateResult conteo de lo creado por una plantilla.
type ApplyTemplateResult struct {
	TemplateCode string `json:"template_code"`
	Roles        int    `json:"roles"`
	Departments  int    `json:"departments"`
	Positions    int    `json:"positions"`
	Dictionaries int    `json:"dictionaries"`
	CodeRule     bool   `json:"code_rule"`
}
