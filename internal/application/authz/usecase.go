// Package authz resuelve permisos efectivos (con caché) y administra roles.
package authz

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/application/ports"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
	"github.com/riveredge/platform-kernel/pkg/logger"
)

const (
	cacheScope   = "perm"
	cacheKeyType = "user_permissions"
)

// AuthzUseCase permisos efectivos = unión de permisos de los roles vivos del usuario.
type AuthzUseCase struct {
	store repository.Store
	tx    ports.TxRunner
	cache ports.Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewAuthzUseCase construye el caso de uso. ttl se acota a 5 minutos.
func NewAuthzUseCase(store repository.Store, tx ports.TxRunner, cache ports.Cache, ttl time.Duration, log *logger.Logger) *AuthzUseCase {
	return &AuthzUseCase{
		store: store,
		tx:    tx,
		cache: cache,
		ttl:   ports.ClampTTL(ttl),
		log:   logger.OrNop(log).Component("authz"),
	}
}

// UserPermissions códigos efectivos del usuario, servidos desde caché si es posible.
func (uc *AuthzUseCase) UserPermissions(ctx context.Context, tenantID, userID int64) ([]string, error) {
	key := ports.CacheKey(cacheScope, tenantID, cacheKeyType, strconv.FormatInt(userID, 10))
	if uc.cache != nil {
		var codes []string
		found, err := uc.cache.Get(ctx, key, &codes)
		if err != nil {
			uc.log.Warn().Int64("tenant_id", tenantID).Err(err).Msg("lectura de caché de permisos fallida")
		} else if found {
			return codes, nil
		}
	}
	codes, err := uc.store.Permissions().ListCodesForUser(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if codes == nil {
		codes = []string{}
	}
	if uc.cache != nil {
		if err := uc.cache.Set(ctx, key, codes, uc.ttl); err != nil {
			uc.log.Warn().Int64("tenant_id", tenantID).Err(err).Msg("escritura de caché de permisos fallida")
		}
	}
	return codes, nil
}

// HasPermission indica si el usuario tiene el código.
func (uc *AuthzUseCase) HasPermission(ctx context.Context, tenantID, userID int64, code string) (bool, error) {
	codes, err := uc.UserPermissions(ctx, tenantID, userID)
	if err != nil {
		return false, err
	}
	for _, c := range codes {
		if c == code {
			return true, nil
		}
	}
	return false, nil
}

// RequireAccess devuelve ErrForbidden si falta el permiso.
func (uc *AuthzUseCase) RequireAccess(ctx context.Context, tenantID, userID int64, code string) error {
	ok, err := uc.HasPermission(ctx, tenantID, userID, code)
	if err != nil {
		return err
	}
	if !ok {
		return domain.Forbidden("缺少权限: %s", code)
	}
	return nil
}

// InvalidateUser descarta el conjunto cacheado de un usuario.
func (uc *AuthzUseCase) InvalidateUser(ctx context.Context, tenantID, userID int64) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Delete(ctx, ports.CacheKey(cacheScope, tenantID, cacheKeyType, strconv.FormatInt(userID, 10))); err != nil {
		uc.log.Warn().Int64("tenant_id", tenantID).Err(err).Msg("invalidación de permisos fallida")
	}
}

// InvalidateTenant descarta los conjuntos cacheados de todo el tenant.
func (uc *AuthzUseCase) InvalidateTenant(ctx context.Context, tenantID int64) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.DeletePrefix(ctx, ports.CachePrefix(cacheScope, tenantID, cacheKeyType)); err != nil {
		uc.log.Warn().Int64("tenant_id", tenantID).Err(err).Msg("invalidación de permisos fallida")
	}
}

// ListPermissions puntos de permiso del tenant, opcionalmente por tipo.
func (uc *AuthzUseCase) ListPermissions(ctx context.Context, tenantID int64, permissionType string) ([]*entity.Permission, error) {
	return uc.store.Permissions().List(ctx, tenantID, permissionType)
}

// ListRoles roles vivos del tenant.
func (uc *AuthzUseCase) ListRoles(ctx context.Context, tenantID int64) ([]*entity.Role, error) {
	return uc.store.Roles().List(ctx, tenantID)
}

// GetRole rol con sus permisos.
func (uc *AuthzUseCase) GetRole(ctx context.Context, tenantID, id int64) (*dto.RoleDetail, error) {
	r, err := uc.getRole(ctx, uc.store, tenantID, id)
	if err != nil {
		return nil, err
	}
	perms, err := uc.store.Roles().ListPermissions(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return &dto.RoleDetail{Role: r, Permissions: perms}, nil
}

func (uc *AuthzUseCase) getRole(ctx context.Context, s repository.Store, tenantID, id int64) (*entity.Role, error) {
	r, err := s.Roles().GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.NotFound("角色", id)
	}
	return r, nil
}

// CreateRole alta de rol con código único por tenant.
func (uc *AuthzUseCase) CreateRole(ctx context.Context, tenantID int64, in dto.CreateRoleRequest) (*entity.Role, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" || strings.TrimSpace(in.Name) == "" {
		return nil, domain.Validation("角色编码和名称不能为空")
	}
	existing, err := uc.store.Roles().GetByCode(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Validation("角色编码 %s 已存在", code)
	}
	r := &entity.Role{TenantID: tenantID, Code: code, Name: in.Name, Description: in.Description, IsActive: true}
	if err := uc.store.Roles().Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateRole actualiza nombre, descripción o estado.
func (uc *AuthzUseCase) UpdateRole(ctx context.Context, tenantID, id int64, in dto.UpdateRoleRequest) (*entity.Role, error) {
	r, err := uc.getRole(ctx, uc.store, tenantID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		r.Name = *in.Name
	}
	if in.Description != nil {
		r.Description = *in.Description
	}
	if in.IsActive != nil {
		if r.IsSystem && !*in.IsActive {
			return nil, domain.Business("系统角色不能停用")
		}
		r.IsActive = *in.IsActive
	}
	if err := uc.store.Roles().Update(ctx, r); err != nil {
		return nil, err
	}
	uc.InvalidateTenant(ctx, tenantID)
	return r, nil
}

// DeleteRole borrado lógico; los roles de sistema no se borran.
func (uc *AuthzUseCase) DeleteRole(ctx context.Context, tenantID, id int64) error {
	r, err := uc.getRole(ctx, uc.store, tenantID, id)
	if err != nil {
		return err
	}
	if r.IsSystem {
		return domain.Business("系统角色不能删除")
	}
	if err := uc.store.Roles().SoftDelete(ctx, tenantID, id); err != nil {
		return err
	}
	uc.InvalidateTenant(ctx, tenantID)
	return nil
}

// SetRolePermissions reemplaza los permisos del rol. Todos los ids deben pertenecer al tenant.
func (uc *AuthzUseCase) SetRolePermissions(ctx context.Context, tenantID, roleID int64, permissionIDs []int64) error {
	err := uc.tx.Run(ctx, func(s repository.Store) error {
		if _, err := uc.getRole(ctx, s, tenantID, roleID); err != nil {
			return err
		}
		all, err := s.Permissions().List(ctx, tenantID, "")
		if err != nil {
			return err
		}
		known := make(map[int64]bool, len(all))
		for _, p := range all {
			known[p.ID] = true
		}
		for _, id := range permissionIDs {
			if !known[id] {
				return domain.Validation("权限不存在: %d", id)
			}
		}
		return s.Roles().SetPermissions(ctx, tenantID, roleID, permissionIDs)
	})
	if err != nil {
		return err
	}
	uc.InvalidateTenant(ctx, tenantID)
	uc.log.Info().Int64("tenant_id", tenantID).Int64("role_id", roleID).Int("permissions", len(permissionIDs)).Msg("permisos de rol actualizados")
	return nil
}

// SetUserRoles reemplaza los roles de un usuario del tenant.
func (uc *AuthzUseCase) SetUserRoles(ctx context.Context, tenantID, userID int64, roleIDs []int64) error {
	err := uc.tx.Run(ctx, func(s repository.Store) error {
		u, err := s.Users().GetByID(ctx, tenantID, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.NotFound("用户", userID)
		}
		for _, id := range roleIDs {
			if _, err := uc.getRole(ctx, s, tenantID, id); err != nil {
				return err
			}
		}
		return s.Roles().SetUserRoles(ctx, tenantID, userID, roleIDs)
	})
	if err != nil {
		return err
	}
	uc.InvalidateUser(ctx, tenantID, userID)
	return nil
}

// UserRoles roles activos del usuario.
func (uc *AuthzUseCase) UserRoles(ctx context.Context, tenantID, userID int64) ([]*entity.Role, error) {
	return uc.store.Roles().ListUserRoles(ctx, tenantID, userID)
}
