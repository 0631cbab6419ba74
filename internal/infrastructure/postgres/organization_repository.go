package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

// ---------------------------------------------------------------------------
// Departamentos
// ---------------------------------------------------------------------------

type departmentRepo struct{ q Querier }

const departmentColumns = `id, uuid, tenant_id, parent_id, code, name, manager_id, sort_order, is_active, created_at, updated_at`

func scanDepartment(row pgx.Row) (*entity.Department, error) {
	var d entity.Department
	err := row.Scan(&d.ID, &d.UUID, &d.TenantID, &d.ParentID, &d.Code, &d.Name, &d.ManagerID,
		&d.SortOrder, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r departmentRepo) Create(ctx context.Context, d *entity.Department) error {
	d.UUID = newUUID(d.UUID)
	err := r.q.QueryRow(ctx, `
		INSERT INTO departments (uuid, tenant_id, parent_id, code, name, manager_id, sort_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		d.UUID, d.TenantID, d.ParentID, d.Code, d.Name, d.ManagerID, d.SortOrder, d.IsActive,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	return writeErr("insert department", d.Code, err)
}

func (r departmentRepo) GetByID(ctx context.Context, tenantID, id int64) (*entity.Department, error) {
	return queryOne(ctx, r.q, "get department", scanDepartment,
		`SELECT `+departmentColumns+` FROM departments WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id)
}

func (r departmentRepo) GetByCode(ctx context.Context, tenantID int64, code string) (*entity.Department, error) {
	return queryOne(ctx, r.q, "get department by code", scanDepartment,
		`SELECT `+departmentColumns+` FROM departments WHERE tenant_id = $1 AND code = $2 AND deleted_at IS NULL`, tenantID, code)
}

func (r departmentRepo) List(ctx context.Context, tenantID int64) ([]*entity.Department, error) {
	return queryAll(ctx, r.q, "list departments", scanDepartment,
		`SELECT `+departmentColumns+` FROM departments WHERE tenant_id = $1 AND deleted_at IS NULL ORDER BY id`, tenantID)
}

func (r departmentRepo) SoftDelete(ctx context.Context, tenantID, id int64) error {
	return execOne(ctx, r.q, "delete department", fmt.Sprint(id),
		`UPDATE departments SET deleted_at = NOW() WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id)
}

// ---------------------------------------------------------------------------
// Puestos
// ---------------------------------------------------------------------------

type positionRepo struct{ q Querier }

const positionColumns = `id, uuid, tenant_id, department_id, code, name, sort_order, is_active, created_at, updated_at`

func scanPosition(row pgx.Row) (*entity.Position, error) {
	var p entity.Position
	err := row.Scan(&p.ID, &p.UUID, &p.TenantID, &p.DepartmentID, &p.Code, &p.Name, &p.SortOrder,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r positionRepo) Create(ctx context.Context, p *entity.Position) error {
	p.UUID = newUUID(p.UUID)
	err := r.q.QueryRow(ctx, `
		INSERT INTO positions (uuid, tenant_id, department_id, code, name, sort_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		p.UUID, p.TenantID, p.DepartmentID, p.Code, p.Name, p.SortOrder, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return writeErr("insert position", p.Code, err)
}

func (r positionRepo) GetByCode(ctx context.Context, tenantID int64, code string) (*entity.Position, error) {
	return queryOne(ctx, r.q, "get position by code", scanPosition,
		`SELECT `+positionColumns+` FROM positions WHERE tenant_id = $1 AND code = $2 AND deleted_at IS NULL`, tenantID, code)
}

func (r positionRepo) List(ctx context.Context, tenantID int64) ([]*entity.Position, error) {
	return queryAll(ctx, r.q, "list positions", scanPosition,
		`SELECT `+positionColumns+` FROM positions WHERE tenant_id = $1 AND deleted_at IS NULL ORDER BY id`, tenantID)
}

func (r positionRepo) SoftDelete(ctx context.Context, tenantID, id int64) error {
	return execOne(ctx, r.q, "delete position", fmt.Sprint(id),
		`UPDATE positions SET deleted_at = NOW() WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id)
}

// ---------------------------------------------------------------------------
// Menús
// ---------------------------------------------------------------------------

type menuRepo struct{ q Querier }

const menuColumns = `id, uuid, tenant_id, parent_id, application_code, name, path, icon, meta, permission_code,
	sort_order, is_active, created_at, updated_at`

func scanMenu(row pgx.Row) (*entity.Menu, error) {
	var m entity.Menu
	err := row.Scan(&m.ID, &m.UUID, &m.TenantID, &m.ParentID, &m.ApplicationCode, &m.Name, &m.Path,
		&m.Icon, &m.Meta, &m.PermissionCode, &m.SortOrder, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r menuRepo) Create(ctx context.Context, m *entity.Menu) error {
	m.UUID = newUUID(m.UUID)
	err := r.q.QueryRow(ctx, `
		INSERT INTO menus (uuid, tenant_id, parent_id, application_code, name, path, icon, meta,
			permission_code, sort_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`,
		m.UUID, m.TenantID, m.ParentID, m.ApplicationCode, m.Name, m.Path, m.Icon, orEmpty(m.Meta),
		m.PermissionCode, m.SortOrder, m.IsActive,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	return writeErr("insert menu", m.Name, err)
}

func (r menuRepo) GetByID(ctx context.Context, tenantID, id int64) (*entity.Menu, error) {
	return queryOne(ctx, r.q, "get menu", scanMenu,
		`SELECT `+menuColumns+` FROM menus WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id)
}

func (r menuRepo) List(ctx context.Context, tenantID int64) ([]*entity.Menu, error) {
	return queryAll(ctx, r.q, "list menus", scanMenu,
		`SELECT `+menuColumns+` FROM menus WHERE tenant_id = $1 AND deleted_at IS NULL ORDER BY id`, tenantID)
}

func (r menuRepo) Update(ctx context.Context, m *entity.Menu) error {
	err := r.q.QueryRow(ctx, `
		UPDATE menus SET parent_id = $3, application_code = $4, name = $5, path = $6, icon = $7, meta = $8,
			permission_code = $9, sort_order = $10, is_active = $11, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING updated_at`,
		m.TenantID, m.ID, m.ParentID, m.ApplicationCode, m.Name, m.Path, m.Icon, orEmpty(m.Meta),
		m.PermissionCode, m.SortOrder, m.IsActive,
	).Scan(&m.UpdatedAt)
	return updateErr("update menu", fmt.Sprint(m.ID), err)
}

func (r menuRepo) UpdatePermissionCode(ctx context.Context, tenantID, id int64, code string) error {
	return execOne(ctx, r.q, "update menu permission", fmt.Sprint(id), `
		UPDATE menus SET permission_code = $3, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id, code)
}

func (r menuRepo) SoftDelete(ctx context.Context, tenantID, id int64) error {
	return execOne(ctx, r.q, "delete menu", fmt.Sprint(id),
		`UPDATE menus SET deleted_at = NOW() WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id)
}

// ---------------------------------------------------------------------------
// Aplicaciones
// ---------------------------------------------------------------------------

type applicationRepo struct{ q Querier }

const applicationColumns = `id, uuid, tenant_id, code, name, version, manifest, is_installed, is_active, created_at, updated_at`

func scanApplication(row pgx.Row) (*entity.Application, error) {
	var a entity.Application
	err := row.Scan(&a.ID, &a.UUID, &a.TenantID, &a.Code, &a.Name, &a.Version, &a.Manifest,
		&a.IsInstalled, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r applicationRepo) Create(ctx context.Context, a *entity.Application) error {
	a.UUID = newUUID(a.UUID)
	err := r.q.QueryRow(ctx, `
		INSERT INTO applications (uuid, tenant_id, code, name, version, manifest, is_installed, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		a.UUID, a.TenantID, a.Code, a.Name, a.Version, a.Manifest, a.IsInstalled, a.IsActive,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return writeErr("insert application", a.Code, err)
}

func (r applicationRepo) GetByCode(ctx context.Context, tenantID int64, code string) (*entity.Application, error) {
	return queryOne(ctx, r.q, "get application", scanApplication,
		`SELECT `+applicationColumns+` FROM applications WHERE tenant_id = $1 AND code = $2 AND deleted_at IS NULL`, tenantID, code)
}

func (r applicationRepo) List(ctx context.Context, tenantID int64) ([]*entity.Application, error) {
	return queryAll(ctx, r.q, "list applications", scanApplication,
		`SELECT `+applicationColumns+` FROM applications WHERE tenant_id = $1 AND deleted_at IS NULL ORDER BY id`, tenantID)
}

func (r applicationRepo) Update(ctx context.Context, a *entity.Application) error {
	err := r.q.QueryRow(ctx, `
		UPDATE applications SET name = $3, version = $4, manifest = $5, is_installed = $6, is_active = $7, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING updated_at`,
		a.TenantID, a.ID, a.Name, a.Version, a.Manifest, a.IsInstalled, a.IsActive,
	).Scan(&a.UpdatedAt)
	return updateErr("update application", a.Code, err)
}

// ---------------------------------------------------------------------------
// Diccionarios
// ---------------------------------------------------------------------------

type dictionaryRepo struct{ q Querier }

const dictionaryColumns = `id, uuid, tenant_id, code, name, description, is_system, is_active, created_at, updated_at`

func scanDictionary(row pgx.Row) (*entity.DataDictionary, error) {
	var d entity.DataDictionary
	err := row.Scan(&d.ID, &d.UUID, &d.TenantID, &d.Code, &d.Name, &d.Description, &d.IsSystem,
		&d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

const dictionaryItemColumns = `id, uuid, tenant_id, dictionary_id, label, value, sort_order, is_active, created_at, updated_at`

func scanDictionaryItem(row pgx.Row) (*entity.DictionaryItem, error) {
	var it entity.DictionaryItem
	err := row.Scan(&it.ID, &it.UUID, &it.TenantID, &it.DictionaryID, &it.Label, &it.Value,
		&it.SortOrder, &it.IsActive, &it.CreatedAt, &it.UpdatedAt)
	return &it, err
}

// Create guarda solo la cabecera; los items se agregan con AddItem.
func (r dictionaryRepo) Create(ctx context.Context, d *entity.DataDictionary) error {
	d.UUID = newUUID(d.UUID)
	err := r.q.QueryRow(ctx, `
		INSERT INTO data_dictionaries (uuid, tenant_id, code, name, description, is_system, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		d.UUID, d.TenantID, d.Code, d.Name, d.Description, d.IsSystem, d.IsActive,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	return writeErr("insert dictionary", d.Code, err)
}

func (r dictionaryRepo) GetByCode(ctx context.Context, tenantID int64, code string) (*entity.DataDictionary, error) {
	d, err := queryOne(ctx, r.q, "get dictionary", scanDictionary,
		`SELECT `+dictionaryColumns+` FROM data_dictionaries WHERE tenant_id = $1 AND code = $2 AND deleted_at IS NULL`, tenantID, code)
	if err != nil || d == nil {
		return d, err
	}
	d.Items, err = queryAll(ctx, r.q, "list dictionary items", scanDictionaryItem,
		`SELECT `+dictionaryItemColumns+` FROM dictionary_items WHERE dictionary_id = $1 AND deleted_at IS NULL ORDER BY sort_order, id`, d.ID)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r dictionaryRepo) List(ctx context.Context, tenantID int64) ([]*entity.DataDictionary, error) {
	return queryAll(ctx, r.q, "list dictionaries", scanDictionary,
		`SELECT `+dictionaryColumns+` FROM data_dictionaries WHERE tenant_id = $1 AND deleted_at IS NULL ORDER BY id`, tenantID)
}

func (r dictionaryRepo) AddItem(ctx context.Context, item *entity.DictionaryItem) error {
	item.UUID = newUUID(item.UUID)
	err := r.q.QueryRow(ctx, `
		INSERT INTO dictionary_items (uuid, tenant_id, dictionary_id, label, value, sort_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		item.UUID, item.TenantID, item.DictionaryID, item.Label, item.Value, item.SortOrder, item.IsActive,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	return writeErr("insert dictionary item", item.Value, err)
}
