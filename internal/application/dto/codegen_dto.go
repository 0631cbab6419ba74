package dto

import "github.com/riveredge/platform-kernel/internal/domain/entity"

// CreateCodeRuleRequest alta de regla principal (se crea inactiva).
type CreateCodeRuleRequest struct {
	Name           string                `json:"name"`
	Template       string                `json:"template"`
	Prefix         string                `json:"prefix"`
	SequenceConfig entity.SequenceConfig `json:"sequence_config"`
	Description    string                `json:"description"`
}

// UpdateCodeRuleRequest cambios de una regla principal; toda edición incrementa la versión.
type UpdateCodeRuleRequest struct {
	Name              *string                `json:"name,omitempty"`
	Template          *string                `json:"template,omitempty"`
	Prefix            *string                `json:"prefix,omitempty"`
	SequenceConfig    *entity.SequenceConfig `json:"sequence_config,omitempty"`
	Description       *string                `json:"description,omitempty"`
	ChangeDescription string                 `json:"change_description"`
}

// CreateAliasRuleRequest alta de regla departamental.
type CreateAliasRuleRequest struct {
	CodeType          string                `json:"code_type"`
	CodeName          string                `json:"code_name"`
	Template          string                `json:"template"`
	Prefix            string                `json:"prefix"`
	SequenceConfig    entity.SequenceConfig `json:"sequence_config"`
	ValidationPattern string                `json:"validation_pattern"`
	Departments       []string              `json:"departments"`
	Description       string                `json:"description"`
}

// UpdateAliasRuleRequest cambios de una regla departamental.
type UpdateAliasRuleRequest struct {
	CodeName          *string                `json:"code_name,omitempty"`
	Template          *string                `json:"template,omitempty"`
	Prefix            *string                `json:"prefix,omitempty"`
	SequenceConfig    *entity.SequenceConfig `json:"sequence_config,omitempty"`
	ValidationPattern *string                `json:"validation_pattern,omitempty"`
	Departments       []string               `json:"departments,omitempty"`
	IsActive          *bool                  `json:"is_active,omitempty"`
	ChangeDescription string                 `json:"change_description"`
}

// GenerateCodeRequest contexto de generación. RuleType "main" (defecto) o "alias".
type GenerateCodeRequest struct {
	RuleType     string `json:"rule_type"`
	CodeType     string `json:"code_type"`
	MaterialType string `json:"material_type"`
	Org          string `json:"org"`
	Dept         string `json:"dept"`
}

// GeneratedCode código asignado (o previsto, en preview).
type GeneratedCode struct {
	Code     string  `json:"code"`
	RuleType string  `json:"rule_type"`
	RuleID   int64   `json:"rule_id"`
	Sequence int64   `json:"sequence"`
	ScopeKey *string `json:"scope_key,omitempty"`
	Preview  bool    `json:"preview"`
}
