package org

import (
	"context"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

// CreateMenu alta de menú. Toda escritura de menús dispara una sincronización forzada.
func (uc *OrgUseCase) CreateMenu(ctx context.Context, tenantID int64, in dto.MenuRequest) (*entity.Menu, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.Validation("菜单名称不能为空")
	}
	if in.ParentID != nil {
		if _, err := uc.getMenu(ctx, tenantID, *in.ParentID); err != nil {
			return nil, err
		}
	}
	m := &entity.Menu{
		TenantID:        tenantID,
		ParentID:        in.ParentID,
		ApplicationCode: in.ApplicationCode,
		Name:            in.Name,
		Path:            in.Path,
		Icon:            in.Icon,
		Meta:            in.Meta,
		PermissionCode:  strings.TrimSpace(in.PermissionCode),
		SortOrder:       in.SortOrder,
		IsActive:        in.IsActive == nil || *in.IsActive,
	}
	if err := uc.store.Menus().Create(ctx, m); err != nil {
		return nil, err
	}
	uc.triggerSync(tenantID)
	return m, nil
}

func (uc *OrgUseCase) getMenu(ctx context.Context, tenantID, id int64) (*entity.Menu, error) {
	m, err := uc.store.Menus().GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.NotFound("菜单", id)
	}
	return m, nil
}

// UpdateMenu reemplaza los campos del menú.
func (uc *OrgUseCase) UpdateMenu(ctx context.Context, tenantID, id int64, in dto.MenuRequest) (*entity.Menu, error) {
	m, err := uc.getMenu(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if in.ParentID != nil && *in.ParentID == id {
		return nil, domain.Validation("菜单不能以自身为父级")
	}
	if in.Name != "" {
		m.Name = in.Name
	}
	m.ParentID = in.ParentID
	m.ApplicationCode = in.ApplicationCode
	m.Path = in.Path
	m.Icon = in.Icon
	m.Meta = in.Meta
	m.PermissionCode = strings.TrimSpace(in.PermissionCode)
	m.SortOrder = in.SortOrder
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
	if err := uc.store.Menus().Update(ctx, m); err != nil {
		return nil, err
	}
	uc.triggerSync(tenantID)
	return m, nil
}

// ListMenus menús del tenant.
func (uc *OrgUseCase) ListMenus(ctx context.Context, tenantID int64) ([]*entity.Menu, error) {
	return uc.store.Menus().List(ctx, tenantID)
}

// DeleteMenu borrado lógico.
func (uc *OrgUseCase) DeleteMenu(ctx context.Context, tenantID, id int64) error {
	if _, err := uc.getMenu(ctx, tenantID, id); err != nil {
		return err
	}
	if err := uc.store.Menus().SoftDelete(ctx, tenantID, id); err != nil {
		return err
	}
	uc.triggerSync(tenantID)
	return nil
}

// InstallApplication instala o reinstala una aplicación; el manifiesto se decodifica
// con mapstructure y sus permisos se sincronizan de inmediato.
func (uc *OrgUseCase) InstallApplication(ctx context.Context, tenantID int64, in dto.InstallApplicationRequest) (*entity.Application, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return nil, domain.Validation("应用编码不能为空")
	}
	var manifest entity.ApplicationManifest
	if err := mapstructure.Decode(in.Manifest, &manifest); err != nil {
		return nil, domain.Validation("应用清单格式错误: %v", err)
	}
	existing, err := uc.store.Applications().GetByCode(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Manifest = manifest
		existing.IsInstalled, existing.IsActive = true, true
		if in.Name != "" {
			existing.Name = in.Name
		}
		if in.Version != "" {
			existing.Version = in.Version
		}
		if err := uc.store.Applications().Update(ctx, existing); err != nil {
			return nil, err
		}
		uc.triggerSync(tenantID)
		return existing, nil
	}
	a := &entity.Application{
		TenantID: tenantID, Code: code, Name: in.Name, Version: in.Version,
		Manifest: manifest, IsInstalled: true, IsActive: true,
	}
	if err := uc.store.Applications().Create(ctx, a); err != nil {
		return nil, err
	}
	uc.log.Info().Int64("tenant_id", tenantID).Str("code", code).Msg("aplicación instalada")
	uc.triggerSync(tenantID)
	return a, nil
}

// UninstallApplication marca la aplicación como no instalada.
func (uc *OrgUseCase) UninstallApplication(ctx context.Context, tenantID int64, code string) error {
	a, err := uc.store.Applications().GetByCode(ctx, tenantID, code)
	if err != nil {
		return err
	}
	if a == nil {
		return domain.NotFound("应用", code)
	}
	a.IsInstalled = false
	return uc.store.Applications().Update(ctx, a)
}

// ListApplications aplicaciones del tenant.
func (uc *OrgUseCase) ListApplications(ctx context.Context, tenantID int64) ([]*entity.Application, error) {
	return uc.store.Applications().List(ctx, tenantID)
}
