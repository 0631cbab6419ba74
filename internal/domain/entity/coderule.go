package entity

import "time"

// Tipos de regla para el historial.
const (
	RuleTypeMain  = "main"
	RuleTypeAlias = "alias"
)

// Padding relleno del número de secuencia.
type Padding struct {
	Char      string `json:"char" mapstructure:"char"`
	Direction string `json:"direction" mapstructure:"direction"` // left | right
}

// SequenceConfig configuración del contador de una regla.
type SequenceConfig struct {
	StartValue        int64    `json:"start_value" mapstructure:"start_value"`
	Step              int64    `json:"step" mapstructure:"step"`
	Length            int      `json:"length" mapstructure:"length"`
	Padding           Padding  `json:"padding" mapstructure:"padding"`
	ScopeFields       []string `json:"scope_fields" mapstructure:"scope_fields"`
	IndependentByType bool     `json:"independent_by_type" mapstructure:"independent_by_type"`
}

// Normalized aplica los valores por defecto (start 1, step 1, length 4, relleno "0" a la izquierda).
func (s SequenceConfig) Normalized() SequenceConfig {
	if s.StartValue <= 0 {
		s.StartValue = 1
	}
	if s.Step <= 0 {
		s.Step = 1
	}
	if s.Length <= 0 {
		s.Length = 4
	}
	if s.Padding.Char == "" {
		s.Padding.Char = "0"
	}
	if s.Padding.Direction == "" {
		s.Padding.Direction = "left"
	}
	return s
}

// CodeRuleMain regla principal de codificación. Solo una activa por tenant.
type CodeRuleMain struct {
	ID             int64          `json:"id"`
	UUID           string         `json:"uuid"`
	TenantID       int64          `json:"tenant_id"`
	Name           string         `json:"name"`
	Template       string         `json:"template"`
	Prefix         string         `json:"prefix"`
	SequenceConfig SequenceConfig `json:"sequence_config"`
	Version        int            `json:"version"`
	IsActive       bool           `json:"is_active"`
	Description    string         `json:"description,omitempty"`
	CreatedBy      *int64         `json:"created_by,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      *time.Time     `json:"-"`
}

// MaterialTypeConfig configuración por tipo de material dentro de una regla.
type MaterialTypeConfig struct {
	ID                  int64     `json:"id"`
	TenantID            int64     `json:"tenant_id"`
	RuleID              int64     `json:"rule_id"`
	TypeCode            string    `json:"type_code"`
	TypeName            string    `json:"type_name"`
	IndependentSequence bool      `json:"independent_sequence"`
	CurrentSequence     int64     `json:"current_sequence"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// CodeRuleAlias regla de código departamental (SALE, DES, SUP...). Template es opcional:
// si existe, la regla también puede generar códigos.
type CodeRuleAlias struct {
	ID                int64          `json:"id"`
	UUID              string         `json:"uuid"`
	TenantID          int64          `json:"tenant_id"`
	CodeType          string         `json:"code_type"`
	CodeName          string         `json:"code_name"`
	Template          string         `json:"template,omitempty"`
	Prefix            string         `json:"prefix,omitempty"`
	SequenceConfig    SequenceConfig `json:"sequence_config"`
	ValidationPattern string         `json:"validation_pattern,omitempty"`
	Departments       []string       `json:"departments,omitempty"`
	Description       string         `json:"description,omitempty"`
	Version           int            `json:"version"`
	IsActive          bool           `json:"is_active"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         *time.Time     `json:"-"`
}

// CodeRuleHistory snapshot completo de una regla tras cada cambio.
type CodeRuleHistory struct {
	ID                int64          `json:"id"`
	TenantID          int64          `json:"tenant_id"`
	RuleID            int64          `json:"rule_id"`
	RuleType          string         `json:"rule_type"`
	Version           int            `json:"version"`
	RuleConfig        map[string]any `json:"rule_config"`
	ChangeDescription string         `json:"change_description,omitempty"`
	ChangedBy         *int64         `json:"changed_by,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// SequenceCounter contador por (tenant, regla, scope). TypeCode nil = global por regla.
type SequenceCounter struct {
	ID           int64     `json:"id"`
	TenantID     int64     `json:"tenant_id"`
	RuleID       int64     `json:"rule_id"`
	TypeCode     *string   `json:"type_code,omitempty"`
	CurrentValue int64     `json:"current_value"`
	UpdatedAt    time.Time `json:"updated_at"`
}
