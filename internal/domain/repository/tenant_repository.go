package repository

import (
	"context"

	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

// TenantRepository puerto de persistencia para tenants (nivel plataforma).
type TenantRepository interface {
	Create(ctx context.Context, t *entity.Tenant) error
	GetByID(ctx context.Context, id int64) (*entity.Tenant, error)
	GetByDomain(ctx context.Context, domain string) (*entity.Tenant, error)
	Update(ctx context.Context, t *entity.Tenant) error
	List(ctx context.Context, f ListFilter) ([]*entity.Tenant, int, error)
	ListActiveIDs(ctx context.Context) ([]int64, error)
}

// IndustryTemplateRepository plantillas de industria (nivel plataforma).
type IndustryTemplateRepository interface {
	Create(ctx context.Context, t *entity.IndustryTemplate) error
	GetByID(ctx context.Context, id int64) (*entity.IndustryTemplate, error)
	GetByCode(ctx context.Context, code string) (*entity.IndustryTemplate, error)
	List(ctx context.Context) ([]*entity.IndustryTemplate, error)
}

// SuperAdminRepository operadores de plataforma.
type SuperAdminRepository interface {
	Create(ctx context.Context, a *entity.SuperAdmin) error
	GetByID(ctx context.Context, id int64) (*entity.SuperAdmin, error)
	GetByUsername(ctx context.Context, username string) (*entity.SuperAdmin, error)
	Update(ctx context.Context, a *entity.SuperAdmin) error
}
