package repository

import (
	"context"

	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

// MaterialFilter filtro de materiales.
type MaterialFilter struct {
	MaterialType string
	ListFilter
}

// MaterialRepository maestro de materiales.
type MaterialRepository interface {
	Create(ctx context.Context, m *entity.Material) error
	GetByID(ctx context.Context, tenantID, id int64) (*entity.Material, error)
	GetByMainCode(ctx context.Context, tenantID int64, code string) (*entity.Material, error)
	List(ctx context.Context, tenantID int64, f MaterialFilter) ([]*entity.Material, int, error)
	// SearchSimilar candidatos con nombre o especificación parecidos (excluye excludeID).
	SearchSimilar(ctx context.Context, tenantID int64, name, spec string, excludeID int64, limit int) ([]*entity.Material, error)
	Update(ctx context.Context, m *entity.Material) error
	SoftDelete(ctx context.Context, tenantID, id int64) error
	Count(ctx context.Context, tenantID int64) (int, error)
}

// MaterialAliasRepository códigos alternos de material.
type MaterialAliasRepository interface {
	Create(ctx context.Context, a *entity.MaterialCodeAlias) error
	// GetByCode busca el alias vivo con esa clave; el mismo código puede existir para
	// otra entidad externa.
	GetByCode(ctx context.Context, k entity.AliasKey) (*entity.MaterialCodeAlias, error)
	// FindByCode busca el código en cualquier tipo.
	FindByCode(ctx context.Context, tenantID int64, code string) ([]*entity.MaterialCodeAlias, error)
	ListByMaterial(ctx context.Context, tenantID, materialID int64) ([]*entity.MaterialCodeAlias, error)
	Update(ctx context.Context, a *entity.MaterialCodeAlias) error
	// ClearPrimary quita is_primary de los alias del material para code_type.
	ClearPrimary(ctx context.Context, tenantID, materialID int64, codeType string) error
	SoftDelete(ctx context.Context, tenantID, id int64) error
}

// BOMRepository líneas de lista de materiales.
type BOMRepository interface {
	Create(ctx context.Context, l *entity.BOMLine) error
	ListByMaterial(ctx context.Context, tenantID, materialID int64) ([]*entity.BOMLine, error)
	// SetStatus cambia approval_status de las líneas del material que están en from.
	SetStatus(ctx context.Context, tenantID, materialID int64, from, to string) (int, error)
}
