package repository

import (
	"context"

	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

// RoleRepository roles y sus relaciones con permisos y usuarios.
type RoleRepository interface {
	Create(ctx context.Context, r *entity.Role) error
	GetByID(ctx context.Context, tenantID, id int64) (*entity.Role, error)
	GetByCode(ctx context.Context, tenantID int64, code string) (*entity.Role, error)
	List(ctx context.Context, tenantID int64) ([]*entity.Role, error)
	Update(ctx context.Context, r *entity.Role) error
	SoftDelete(ctx context.Context, tenantID, id int64) error
	// SetPermissions reemplaza los permisos del rol.
	SetPermissions(ctx context.Context, tenantID, roleID int64, permissionIDs []int64) error
	// AddPermissions agrega permisos ignorando los ya asignados.
	AddPermissions(ctx context.Context, tenantID, roleID int64, permissionIDs []int64) error
	ListPermissions(ctx context.Context, tenantID, roleID int64) ([]*entity.Permission, error)
	// SetUserRoles reemplaza los roles del usuario.
	SetUserRoles(ctx context.Context, tenantID, userID int64, roleIDs []int64) error
	// ListUserRoles devuelve los roles activos y vivos del usuario.
	ListUserRoles(ctx context.Context, tenantID, userID int64) ([]*entity.Role, error)
}

// PermissionRepository permisos por tenant.
type PermissionRepository interface {
	List(ctx context.Context, tenantID int64, permissionType string) ([]*entity.Permission, error)
	GetByCodes(ctx context.Context, tenantID int64, codes []string) ([]*entity.Permission, error)
	// BulkCreate inserta los permisos cuyo código aún no existe; devuelve cuántos creó.
	BulkCreate(ctx context.Context, perms []*entity.Permission) (int, error)
	// ListCodesForUser unión de los permisos de los roles activos y vivos del usuario.
	ListCodesForUser(ctx context.Context, tenantID, userID int64) ([]string, error)
}
