package repository

import (
	"context"

	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

// CodeRuleRepository reglas de codificación principales y departamentales.
type CodeRuleRepository interface {
	CreateMain(ctx context.Context, r *entity.CodeRuleMain) error
	GetMain(ctx context.Context, tenantID, id int64) (*entity.CodeRuleMain, error)
	GetActiveMain(ctx context.Context, tenantID int64) (*entity.CodeRuleMain, error)
	ListMain(ctx context.Context, tenantID int64) ([]*entity.CodeRuleMain, error)
	UpdateMain(ctx context.Context, r *entity.CodeRuleMain) error
	MaxMainVersion(ctx context.Context, tenantID int64) (int, error)
	// DeactivateOtherMain desactiva todas las reglas principales excepto keepID.
	DeactivateOtherMain(ctx context.Context, tenantID, keepID int64) error

	CreateAlias(ctx context.Context, r *entity.CodeRuleAlias) error
	GetAliasByType(ctx context.Context, tenantID int64, codeType string) (*entity.CodeRuleAlias, error)
	ListAlias(ctx context.Context, tenantID int64) ([]*entity.CodeRuleAlias, error)
	UpdateAlias(ctx context.Context, r *entity.CodeRuleAlias) error

	AddHistory(ctx context.Context, h *entity.CodeRuleHistory) error
	ListHistory(ctx context.Context, tenantID int64, ruleType string, ruleID int64) ([]*entity.CodeRuleHistory, error)

	UpsertTypeConfig(ctx context.Context, c *entity.MaterialTypeConfig) error
	ListTypeConfigs(ctx context.Context, tenantID, ruleID int64) ([]*entity.MaterialTypeConfig, error)
}

// SequenceRepository contadores de secuencia. Next es atómico: concurrentemente nunca
// devuelve el mismo valor para la misma clave.
type SequenceRepository interface {
	// Next suma step al contador (creándolo en start-step) y devuelve el nuevo valor.
	Next(ctx context.Context, tenantID, ruleID int64, typeCode *string, start, step int64) (int64, error)
	// Current devuelve el valor actual sin consumirlo (ok=false si el contador no existe).
	Current(ctx context.Context, tenantID, ruleID int64, typeCode *string) (int64, bool, error)
}
