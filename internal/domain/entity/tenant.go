package entity

import "time"

// Estados de un tenant.
const (
	TenantActive    = "active"
	TenantInactive  = "inactive"
	TenantSuspended = "suspended"
)

// Planes de un tenant.
const (
	PlanTrial      = "trial"
	PlanBasic      = "basic"
	PlanStandard   = "standard"
	PlanEnterprise = "enterprise"
)

// DefaultTenantDomain dominio del tenant que recibe los registros personales sin organización.
const DefaultTenantDomain = "default"

// Claves conocidas de Tenant.Settings.
const (
	SettingInviteCode      = "invite_code"
	SettingRequireApproval = "require_approval"
	SettingIsDefault       = "is_default"
	SettingRejectReason    = "reject_reason"
	SettingDescription     = "description"
	SettingRegisteredBy    = "registered_by"
	SettingIndustry        = "industry_template"
	SettingInitCompleted   = "init_completed"
	SettingSuggestionRules = "suggestion_rules"
)

// Tenant organización: límite de aislamiento de datos. Nunca se borra.
type Tenant struct {
	ID         int64          `json:"id"`
	UUID       string         `json:"uuid"`
	Name       string         `json:"name"`
	Domain     string         `json:"domain"`
	Status     string         `json:"status"`
	Plan       string         `json:"plan"`
	Settings   map[string]any `json:"settings"`
	MaxUsers   int            `json:"max_users"`
	MaxStorage int64          `json:"max_storage"`
	ExpiresAt  *time.Time     `json:"expires_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// IsActive indica si el tenant está activo.
func (t *Tenant) IsActive() bool { return t.Status == TenantActive }

// InviteCode devuelve el código de invitación configurado ("" si no hay).
func (t *Tenant) InviteCode() string {
	v, _ := t.Settings[SettingInviteCode].(string)
	return v
}

// RequiresApproval política del tenant para registros personales sin invitación.
func (t *Tenant) RequiresApproval() bool {
	v, _ := t.Settings[SettingRequireApproval].(bool)
	return v
}

// SetSetting asigna una clave en Settings creando el mapa si hace falta.
func (t *Tenant) SetSetting(key string, value any) {
	if t.Settings == nil {
		t.Settings = map[string]any{}
	}
	t.Settings[key] = value
}

// IndustryTemplate plantilla de plataforma (sin tenant_id) aplicable a un tenant.
type IndustryTemplate struct {
	ID          int64                  `json:"id"`
	UUID        string                 `json:"uuid"`
	Code        string                 `json:"code"`
	Name        string                 `json:"name"`
	Industry    string                 `json:"industry"`
	Description string                 `json:"description"`
	Config      IndustryTemplateConfig `json:"config"`
	IsActive    bool                   `json:"is_active"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// IndustryTemplateConfig contenido sembrado por una plantilla.
type IndustryTemplateConfig struct {
	Roles        []RoleSeed       `json:"roles" mapstructure:"roles"`
	Departments  []NamedSeed      `json:"departments" mapstructure:"departments"`
	Positions    []NamedSeed      `json:"positions" mapstructure:"positions"`
	Dictionaries []DictionarySeed `json:"dictionaries" mapstructure:"dictionaries"`
	CodeRule     *CodeRuleSeed    `json:"code_rule,omitempty" mapstructure:"code_rule"`
}

// RoleSeed rol a crear con sus permisos.
type RoleSeed struct {
	Code        string   `json:"code" mapstructure:"code"`
	Name        string   `json:"name" mapstructure:"name"`
	Permissions []string `json:"permissions" mapstructure:"permissions"`
}

// NamedSeed código + nombre (departamentos, puestos).
type NamedSeed struct {
	Code string `json:"code" mapstructure:"code"`
	Name string `json:"name" mapstructure:"name"`
}

// DictionarySeed diccionario del sistema con sus items.
type DictionarySeed struct {
	Code  string      `json:"code" mapstructure:"code"`
	Name  string      `json:"name" mapstructure:"name"`
	Items []NamedSeed `json:"items" mapstructure:"items"`
}

// CodeRuleSeed regla principal de codificación inicial.
type CodeRuleSeed struct {
	Name     string         `json:"name" mapstructure:"name"`
	Template string         `json:"template" mapstructure:"template"`
	Prefix   string         `json:"prefix" mapstructure:"prefix"`
	Sequence SequenceConfig `json:"sequence_config" mapstructure:"sequence_config"`
}
