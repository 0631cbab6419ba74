package dto

import "github.com/riveredge/platform-kernel/internal/domain/entity"

// CreateRoleRequest alta de rol.
type CreateRoleRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateRoleRequest campos opcionales de actualización de rol.
type UpdateRoleRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// AssignPermissionsRequest reemplaza los permisos de un rol.
type AssignPermissionsRequest struct {
	PermissionIDs []int64 `json:"permission_ids"`
}

// AssignRolesRequest reemplaza los roles de un usuario.
type AssignRolesRequest struct {
	RoleIDs []int64 `json:"role_ids"`
}

// RoleDetail rol con sus permisos.
type RoleDetail struct {
	*entity.Role
	Permissions []*entity.Permission `json:"permissions"`
}

// PermissionSyncResult resultado de una sincronización de permisos.
type PermissionSyncResult struct {
	Created   int  `json:"created"`
	Scanned   int  `json:"scanned"`
	Throttled bool `json:"throttled"`
}
