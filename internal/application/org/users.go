package org

import (
	"context"
	"strings"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

// CreateUser alta por el administrador: activo, origen admin. Respeta max_users del tenant.
func (uc *OrgUseCase) CreateUser(ctx context.Context, tenantID int64, in dto.CreateUserRequest) (*entity.User, error) {
	if strings.TrimSpace(in.Username) == "" {
		return nil, domain.Validation("用户名不能为空")
	}
	if len(in.Password) < uc.minPass {
		return nil, domain.Validation("密码长度不能少于 %d 位", uc.minPass)
	}
	hash, err := uc.hash(in.Password)
	if err != nil {
		return nil, err
	}
	var u *entity.User
	err = uc.tx.Run(ctx, func(s repository.Store) error {
		t, err := s.Tenants().GetByID(ctx, tenantID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.NotFound("组织", tenantID)
		}
		if t.MaxUsers > 0 {
			n, err := s.Users().Count(ctx, tenantID)
			if err != nil {
				return err
			}
			if n >= t.MaxUsers {
				return domain.Business("用户数量已达上限 (%d)", t.MaxUsers)
			}
		}
		existing, err := s.Users().GetByUsername(ctx, tenantID, in.Username)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.Validation("用户名 %s 已被使用", in.Username)
		}
		if err := checkDepartment(ctx, s, tenantID, in.DepartmentID); err != nil {
			return err
		}
		u = &entity.User{
			TenantID:      tenantID,
			Username:      in.Username,
			PasswordHash:  hash,
			Email:         in.Email,
			FullName:      in.FullName,
			Phone:         in.Phone,
			DepartmentID:  in.DepartmentID,
			PositionID:    in.PositionID,
			IsActive:      true,
			IsTenantAdmin: in.IsTenantAdmin,
			Source:        entity.SourceAdmin,
		}
		return s.Users().Create(ctx, u)
	})
	if err != nil {
		uc.log.Warn().Int64("tenant_id", tenantID).Str("username", in.Username).Err(err).Msg("alta de usuario fallida")
		return nil, err
	}
	return u, nil
}

func checkDepartment(ctx context.Context, s repository.Store, tenantID int64, deptID *int64) error {
	if deptID == nil {
		return nil
	}
	d, err := s.Departments().GetByID(ctx, tenantID, *deptID)
	if err != nil {
		return err
	}
	if d == nil {
		return domain.NotFound("部门", *deptID)
	}
	return nil
}

// GetUser usuario del tenant.
func (uc *OrgUseCase) GetUser(ctx context.Context, tenantID, id int64) (*entity.User, error) {
	u, err := uc.store.Users().GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("用户", id)
	}
	return u, nil
}

// ListUsers usuarios del tenant; status "active"/"inactive" filtra por is_active.
func (uc *OrgUseCase) ListUsers(ctx context.Context, tenantID int64, p dto.PageRequest) (dto.ListResponse[*entity.User], error) {
	f := repository.UserFilter{TenantID: &tenantID, ListFilter: p.Filter()}
	return uc.listUsers(ctx, f, p)
}

// ListAllUsers usuarios de todos los tenants (superadmin).
func (uc *OrgUseCase) ListAllUsers(ctx context.Context, tenantID *int64, p dto.PageRequest) (dto.ListResponse[*entity.User], error) {
	return uc.listUsers(ctx, repository.UserFilter{TenantID: tenantID, ListFilter: p.Filter()}, p)
}

func (uc *OrgUseCase) listUsers(ctx context.Context, f repository.UserFilter, p dto.PageRequest) (dto.ListResponse[*entity.User], error) {
	switch f.Status {
	case "active":
		v := true
		f.IsActive = &v
	case "inactive":
		v := false
		f.IsActive = &v
	}
	f.Status = ""
	items, total, err := uc.store.Users().List(ctx, f)
	if err != nil {
		return dto.ListResponse[*entity.User]{}, err
	}
	return dto.NewListResponse(items, p, total), nil
}

// UpdateUser actualiza datos de perfil.
func (uc *OrgUseCase) UpdateUser(ctx context.Context, tenantID, id int64, in dto.UpdateUserRequest) (*entity.User, error) {
	u, err := uc.GetUser(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.FullName != nil {
		u.FullName = *in.FullName
	}
	if in.Phone != nil {
		u.Phone = *in.Phone
	}
	if in.DepartmentID != nil {
		if err := checkDepartment(ctx, uc.store, tenantID, in.DepartmentID); err != nil {
			return nil, err
		}
		u.DepartmentID = in.DepartmentID
	}
	if in.PositionID != nil {
		u.PositionID = in.PositionID
	}
	if err := uc.store.Users().Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SetUserActive activa o desactiva un usuario (aprobación de solicitudes de ingreso).
func (uc *OrgUseCase) SetUserActive(ctx context.Context, tenantID, id int64, active bool) (*entity.User, error) {
	u, err := uc.GetUser(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if u.IsActive == active {
		return u, nil
	}
	u.IsActive = active
	if err := uc.store.Users().Update(ctx, u); err != nil {
		return nil, err
	}
	if uc.inv != nil {
		uc.inv.InvalidateUser(ctx, tenantID, id)
	}
	uc.log.Info().Int64("tenant_id", tenantID).Int64("user_id", id).Bool("active", active).Msg("estado de usuario actualizado")
	return u, nil
}

// DeleteUser borrado lógico. Un usuario no puede borrarse a sí mismo.
func (uc *OrgUseCase) DeleteUser(ctx context.Context, tenantID, actorID, id int64) error {
	if actorID == id {
		return domain.Business("不能删除当前登录用户")
	}
	if _, err := uc.GetUser(ctx, tenantID, id); err != nil {
		return err
	}
	if err := uc.store.Users().SoftDelete(ctx, tenantID, id); err != nil {
		return err
	}
	if uc.inv != nil {
		uc.inv.InvalidateUser(ctx, tenantID, id)
	}
	return nil
}
