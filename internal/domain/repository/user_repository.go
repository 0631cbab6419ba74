package repository

import (
	"context"

	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

// UserFilter filtro de usuarios. TenantID nil = todos los tenants (solo superadmin).
type UserFilter struct {
	TenantID *int64
	IsActive *bool
	ListFilter
}

// UserRepository define el puerto de persistencia para User.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, tenantID, id int64) (*entity.User, error)
	GetByUsername(ctx context.Context, tenantID int64, username string) (*entity.User, error)
	// FindByUsername busca en todos los tenants (login sin tenant explícito).
	FindByUsername(ctx context.Context, username string) ([]*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	List(ctx context.Context, f UserFilter) ([]*entity.User, int, error)
	SoftDelete(ctx context.Context, tenantID, id int64) error
	Count(ctx context.Context, tenantID int64) (int, error)
}
