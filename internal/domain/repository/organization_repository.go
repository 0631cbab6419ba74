package repository

import (
	"context"

	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

// DepartmentRepository árbol de departamentos.
type DepartmentRepository interface {
	Create(ctx context.Context, d *entity.Department) error
	GetByID(ctx context.Context, tenantID, id int64) (*entity.Department, error)
	GetByCode(ctx context.Context, tenantID int64, code string) (*entity.Department, error)
	List(ctx context.Context, tenantID int64) ([]*entity.Department, error)
	SoftDelete(ctx context.Context, tenantID, id int64) error
}

// PositionRepository puestos.
type PositionRepository interface {
	Create(ctx context.Context, p *entity.Position) error
	GetByCode(ctx context.Context, tenantID int64, code string) (*entity.Position, error)
	List(ctx context.Context, tenantID int64) ([]*entity.Position, error)
	SoftDelete(ctx context.Context, tenantID, id int64) error
}

// MenuRepository menús por tenant.
type MenuRepository interface {
	Create(ctx context.Context, m *entity.Menu) error
	GetByID(ctx context.Context, tenantID, id int64) (*entity.Menu, error)
	List(ctx context.Context, tenantID int64) ([]*entity.Menu, error)
	Update(ctx context.Context, m *entity.Menu) error
	UpdatePermissionCode(ctx context.Context, tenantID, id int64, code string) error
	SoftDelete(ctx context.Context, tenantID, id int64) error
}

// ApplicationRepository aplicaciones instaladas.
type ApplicationRepository interface {
	Create(ctx context.Context, a *entity.Application) error
	GetByCode(ctx context.Context, tenantID int64, code string) (*entity.Application, error)
	List(ctx context.Context, tenantID int64) ([]*entity.Application, error)
	Update(ctx context.Context, a *entity.Application) error
}

// DictionaryRepository diccionarios de datos.
type DictionaryRepository interface {
	Create(ctx context.Context, d *entity.DataDictionary) error
	// GetByCode devuelve el diccionario con sus items vivos.
	GetByCode(ctx context.Context, tenantID int64, code string) (*entity.DataDictionary, error)
	List(ctx context.Context, tenantID int64) ([]*entity.DataDictionary, error)
	AddItem(ctx context.Context, item *entity.DictionaryItem) error
}
