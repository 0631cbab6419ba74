package org

import (
	"context"
	"sort"
	"strings"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

// CreateDepartment alta de departamento; el padre debe existir en el tenant.
func (uc *OrgUseCase) CreateDepartment(ctx context.Context, tenantID int64, in dto.CreateDepartmentRequest) (*entity.Department, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" || strings.TrimSpace(in.Name) == "" {
		return nil, domain.Validation("部门编码和名称不能为空")
	}
	if in.ParentID != nil {
		if err := checkDepartment(ctx, uc.store, tenantID, in.ParentID); err != nil {
			return nil, err
		}
	}
	existing, err := uc.store.Departments().GetByCode(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Validation("部门编码 %s 已存在", code)
	}
	d := &entity.Department{
		TenantID: tenantID, ParentID: in.ParentID, Code: code, Name: in.Name,
		ManagerID: in.ManagerID, SortOrder: in.SortOrder, IsActive: true,
	}
	if err := uc.store.Departments().Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// DepartmentTree devuelve los departamentos raíz con sus hijos anidados.
func (uc *OrgUseCase) DepartmentTree(ctx context.Context, tenantID int64) ([]*entity.Department, error) {
	list, err := uc.store.Departments().List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return BuildTree(list), nil
}

// BuildTree arma el árbol por parent_id. Los nodos cuyo padre no está en la lista
// se tratan como raíz.
func BuildTree(list []*entity.Department) []*entity.Department {
	byID := make(map[int64]*entity.Department, len(list))
	for _, d := range list {
		d.Children = nil
		byID[d.ID] = d
	}
	var roots []*entity.Department
	for _, d := range list {
		if d.ParentID != nil {
			if p, ok := byID[*d.ParentID]; ok && p != d {
				p.Children = append(p.Children, d)
				continue
			}
		}
		roots = append(roots, d)
	}
	sortDepartments(roots)
	return roots
}

func sortDepartments(ds []*entity.Department) {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].SortOrder != ds[j].SortOrder {
			return ds[i].SortOrder < ds[j].SortOrder
		}
		return ds[i].ID < ds[j].ID
	})
	for _, d := range ds {
		sortDepartments(d.Children)
	}
}

// DeleteDepartment borrado lógico; no se permite con subdepartamentos vivos.
func (uc *OrgUseCase) DeleteDepartment(ctx context.Context, tenantID, id int64) error {
	list, err := uc.store.Departments().List(ctx, tenantID)
	if err != nil {
		return err
	}
	found := false
	for _, d := range list {
		if d.ID == id {
			found = true
		}
		if d.ParentID != nil && *d.ParentID == id {
			return domain.Business("部门下存在子部门，不能删除")
		}
	}
	if !found {
		return domain.NotFound("部门", id)
	}
	return uc.store.Departments().SoftDelete(ctx, tenantID, id)
}

// CreatePosition alta de puesto.
func (uc *OrgUseCase) CreatePosition(ctx context.Context, tenantID int64, in dto.CreatePositionRequest) (*entity.Position, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" || strings.TrimSpace(in.Name) == "" {
		return nil, domain.Validation("职位编码和名称不能为空")
	}
	if err := checkDepartment(ctx, uc.store, tenantID, in.DepartmentID); err != nil {
		return nil, err
	}
	existing, err := uc.store.Positions().GetByCode(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Validation("职位编码 %s 已存在", code)
	}
	p := &entity.Position{
		TenantID: tenantID, DepartmentID: in.DepartmentID, Code: code, Name: in.Name,
		SortOrder: in.SortOrder, IsActive: true,
	}
	if err := uc.store.Positions().Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPositions puestos del tenant.
func (uc *OrgUseCase) ListPositions(ctx context.Context, tenantID int64) ([]*entity.Position, error) {
	return uc.store.Positions().List(ctx, tenantID)
}

// DeletePosition borrado lógico.
func (uc *OrgUseCase) DeletePosition(ctx context.Context, tenantID, id int64) error {
	return uc.store.Positions().SoftDelete(ctx, tenantID, id)
}
