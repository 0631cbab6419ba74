package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

// orEmpty evita enviar NULL a columnas JSONB NOT NULL.
func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// ---------------------------------------------------------------------------
// Tenants
// ---------------------------------------------------------------------------

type tenantRepo struct{ q Querier }

const tenantColumns = `id, uuid, name, domain, status, plan, settings, max_users, max_storage, expires_at, created_at, updated_at`

func scanTenant(row pgx.Row) (*entity.Tenant, error) {
	var t entity.Tenant
	err := row.Scan(&t.ID, &t.UUID, &t.Name, &t.Domain, &t.Status, &t.Plan, &t.Settings,
		&t.MaxUsers, &t.MaxStorage, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r tenantRepo) Create(ctx context.Context, t *entity.Tenant) error {
	t.UUID = newUUID(t.UUID)
	err := r.q.QueryRow(ctx, `
		INSERT INTO tenants (uuid, name, domain, status, plan, settings, max_users, max_storage, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		t.UUID, t.Name, t.Domain, t.Status, t.Plan, orEmpty(t.Settings), t.MaxUsers, t.MaxStorage, t.ExpiresAt,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	return writeErr("insert tenant", t.Domain, err)
}

func (r tenantRepo) GetByID(ctx context.Context, id int64) (*entity.Tenant, error) {
	return queryOne(ctx, r.q, "get tenant by id", scanTenant,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
}

func (r tenantRepo) GetByDomain(ctx context.Context, domain string) (*entity.Tenant, error) {
	return queryOne(ctx, r.q, "get tenant by domain", scanTenant,
		`SELECT `+tenantColumns+` FROM tenants WHERE domain = $1`, domain)
}

func (r tenantRepo) Update(ctx context.Context, t *entity.Tenant) error {
	err := r.q.QueryRow(ctx, `
		UPDATE tenants SET name = $2, domain = $3, status = $4, plan = $5, settings = $6,
			max_users = $7, max_storage = $8, expires_at = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		t.ID, t.Name, t.Domain, t.Status, t.Plan, orEmpty(t.Settings), t.MaxUsers, t.MaxStorage, t.ExpiresAt,
	).Scan(&t.UpdatedAt)
	return updateErr("update tenant", fmt.Sprint(t.ID), err)
}

func (r tenantRepo) List(ctx context.Context, f repository.ListFilter) ([]*entity.Tenant, int, error) {
	const where = ` FROM tenants WHERE ($1 = '' OR status = $1) AND ($2 = '' OR name ILIKE $2 OR domain ILIKE $2)`
	kw := like(f.Keyword)
	total, err := count(ctx, r.q, "count tenants", `SELECT COUNT(*)`+where, f.Status, kw)
	if err != nil {
		return nil, 0, err
	}
	limit, offset := pageArgs(f)
	list, err := queryAll(ctx, r.q, "list tenants", scanTenant,
		`SELECT `+tenantColumns+where+` ORDER BY id LIMIT $3 OFFSET $4`, f.Status, kw, limit, offset)
	return list, total, err
}

func (r tenantRepo) ListActiveIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM tenants WHERE status = $1 ORDER BY id`, entity.TenantActive)
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}
	return ids, nil
}

// ---------------------------------------------------------------------------
// Plantillas de industria
// ---------------------------------------------------------------------------

type templateRepo struct{ q Querier }

const templateColumns = `id, uuid, code, name, industry, description, config, is_active, created_at, updated_at`

func scanTemplate(row pgx.Row) (*entity.IndustryTemplate, error) {
	var t entity.IndustryTemplate
	err := row.Scan(&t.ID, &t.UUID, &t.Code, &t.Name, &t.Industry, &t.Description, &t.Config,
		&t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r templateRepo) Create(ctx context.Context, t *entity.IndustryTemplate) error {
	t.UUID = newUUID(t.UUID)
	err := r.q.QueryRow(ctx, `
		INSERT INTO industry_templates (uuid, code, name, industry, description, config, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		t.UUID, t.Code, t.Name, t.Industry, t.Description, t.Config, t.IsActive,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	return writeErr("insert industry template", t.Code, err)
}

func (r templateRepo) GetByID(ctx context.Context, id int64) (*entity.IndustryTemplate, error) {
	return queryOne(ctx, r.q, "get industry template", scanTemplate,
		`SELECT `+templateColumns+` FROM industry_templates WHERE id = $1`, id)
}

func (r templateRepo) GetByCode(ctx context.Context, code string) (*entity.IndustryTemplate, error) {
	return queryOne(ctx, r.q, "get industry template by code", scanTemplate,
		`SELECT `+templateColumns+` FROM industry_templates WHERE code = $1`, code)
}

func (r templateRepo) List(ctx context.Context) ([]*entity.IndustryTemplate, error) {
	return queryAll(ctx, r.q, "list industry templates", scanTemplate,
		`SELECT `+templateColumns+` FROM industry_templates ORDER BY id`)
}

// ---------------------------------------------------------------------------
// Superadministradores
// ---------------------------------------------------------------------------

type superAdminRepo struct{ q Querier }

const superAdminColumns = `id, uuid, username, password_hash, email, full_name, is_active, last_login_at, created_at, updated_at`

func scanSuperAdmin(row pgx.Row) (*entity.SuperAdmin, error) {
	var a entity.SuperAdmin
	err := row.Scan(&a.ID, &a.UUID, &a.Username, &a.PasswordHash, &a.Email, &a.FullName,
		&a.IsActive, &a.LastLoginAt, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r superAdminRepo) Create(ctx context.Context, a *entity.SuperAdmin) error {
	a.UUID = newUUID(a.UUID)
	err := r.q.QueryRow(ctx, `
		INSERT INTO super_admins (uuid, username, password_hash, email, full_name, is_active, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		a.UUID, a.Username, a.PasswordHash, a.Email, a.FullName, a.IsActive, a.LastLoginAt,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return writeErr("insert super admin", a.Username, err)
}

func (r superAdminRepo) GetByID(ctx context.Context, id int64) (*entity.SuperAdmin, error) {
	return queryOne(ctx, r.q, "get super admin", scanSuperAdmin,
		`SELECT `+superAdminColumns+` FROM super_admins WHERE id = $1`, id)
}

func (r superAdminRepo) GetByUsername(ctx context.Context, username string) (*entity.SuperAdmin, error) {
	return queryOne(ctx, r.q, "get super admin by username", scanSuperAdmin,
		`SELECT `+superAdminColumns+` FROM super_admins WHERE username = $1`, username)
}

func (r superAdminRepo) Update(ctx context.Context, a *entity.SuperAdmin) error {
	err := r.q.QueryRow(ctx, `
		UPDATE super_admins SET username = $2, password_hash = $3, email = $4, full_name = $5,
			is_active = $6, last_login_at = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.Username, a.PasswordHash, a.Email, a.FullName, a.IsActive, a.LastLoginAt,
	).Scan(&a.UpdatedAt)
	return updateErr("update super admin", a.Username, err)
}

// ---------------------------------------------------------------------------
// Usuarios
// ---------------------------------------------------------------------------

type userRepo struct{ q Querier }

const userColumns = `id, uuid, tenant_id, username, password_hash, email, full_name, phone, is_active,
	is_platform_admin, is_tenant_admin, source, department_id, position_id, last_login_at, created_at, updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	err := row.Scan(&u.ID, &u.UUID, &u.TenantID, &u.Username, &u.PasswordHash, &u.Email, &u.FullName,
		&u.Phone, &u.IsActive, &u.IsPlatformAdmin, &u.IsTenantAdmin, &u.Source, &u.DepartmentID,
		&u.PositionID, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	return &u, err
}

func (r userRepo) Create(ctx context.Context, u *entity.User) error {
	u.UUID = newUUID(u.UUID)
	err := r.q.QueryRow(ctx, `
		INSERT INTO users (uuid, tenant_id, username, password_hash, email, full_name, phone, is_active,
			is_platform_admin, is_tenant_admin, source, department_id, position_id, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`,
		u.UUID, u.TenantID, u.Username, u.PasswordHash, u.Email, u.FullName, u.Phone, u.IsActive,
		u.IsPlatformAdmin, u.IsTenantAdmin, u.Source, u.DepartmentID, u.PositionID, u.LastLoginAt,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return writeErr("insert user", u.Username, err)
}

func (r userRepo) GetByID(ctx context.Context, tenantID, id int64) (*entity.User, error) {
	return queryOne(ctx, r.q, "get user by id", scanUser,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id)
}

func (r userRepo) GetByUsername(ctx context.Context, tenantID int64, username string) (*entity.User, error) {
	return queryOne(ctx, r.q, "get user by username", scanUser,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND username = $2 AND deleted_at IS NULL`, tenantID, username)
}

func (r userRepo) FindByUsername(ctx context.Context, username string) ([]*entity.User, error) {
	return queryAll(ctx, r.q, "find user by username", scanUser,
		`SELECT `+userColumns+` FROM users WHERE username = $1 AND deleted_at IS NULL ORDER BY id`, username)
}

func (r userRepo) Update(ctx context.Context, u *entity.User) error {
	err := r.q.QueryRow(ctx, `
		UPDATE users SET username = $3, password_hash = $4, email = $5, full_name = $6, phone = $7,
			is_active = $8, is_platform_admin = $9, is_tenant_admin = $10, source = $11,
			department_id = $12, position_id = $13, last_login_at = $14, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING updated_at`,
		u.TenantID, u.ID, u.Username, u.PasswordHash, u.Email, u.FullName, u.Phone, u.IsActive,
		u.IsPlatformAdmin, u.IsTenantAdmin, u.Source, u.DepartmentID, u.PositionID, u.LastLoginAt,
	).Scan(&u.UpdatedAt)
	return updateErr("update user", u.Username, err)
}

func (r userRepo) List(ctx context.Context, f repository.UserFilter) ([]*entity.User, int, error) {
	const where = ` FROM users WHERE deleted_at IS NULL
		AND ($1::bigint IS NULL OR tenant_id = $1)
		AND ($2::boolean IS NULL OR is_active = $2)
		AND ($3 = '' OR username ILIKE $3 OR full_name ILIKE $3 OR email ILIKE $3)`
	kw := like(f.Keyword)
	total, err := count(ctx, r.q, "count users", `SELECT COUNT(*)`+where, f.TenantID, f.IsActive, kw)
	if err != nil {
		return nil, 0, err
	}
	limit, offset := pageArgs(f.ListFilter)
	list, err := queryAll(ctx, r.q, "list users", scanUser,
		`SELECT `+userColumns+where+` ORDER BY id LIMIT $4 OFFSET $5`, f.TenantID, f.IsActive, kw, limit, offset)
	return list, total, err
}

func (r userRepo) SoftDelete(ctx context.Context, tenantID, id int64) error {
	return execOne(ctx, r.q, "delete user", fmt.Sprint(id),
		`UPDATE users SET deleted_at = NOW() WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id)
}

func (r userRepo) Count(ctx context.Context, tenantID int64) (int, error) {
	return count(ctx, r.q, "count users",
		`SELECT COUNT(*) FROM users WHERE tenant_id = $1 AND deleted_at IS NULL`, tenantID)
}

// ---------------------------------------------------------------------------
// Roles
// ---------------------------------------------------------------------------

type roleRepo struct{ q Querier }

const roleColumns = `id, uuid, tenant_id, code, name, description, is_system, is_active, created_at, updated_at`

func scanRole(row pgx.Row) (*entity.Role, error) {
	var x entity.Role
	err := row.Scan(&x.ID, &x.UUID, &x.TenantID, &x.Code, &x.Name, &x.Description, &x.IsSystem,
		&x.IsActive, &x.CreatedAt, &x.UpdatedAt)
	return &x, err
}

func (r roleRepo) Create(ctx context.Context, x *entity.Role) error {
	x.UUID = newUUID(x.UUID)
	err := r.q.QueryRow(ctx, `
		INSERT INTO roles (uuid, tenant_id, code, name, description, is_system, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		x.UUID, x.TenantID, x.Code, x.Name, x.Description, x.IsSystem, x.IsActive,
	).Scan(&x.ID, &x.CreatedAt, &x.UpdatedAt)
	return writeErr("insert role", x.Code, err)
}

func (r roleRepo) GetByID(ctx context.Context, tenantID, id int64) (*entity.Role, error) {
	return queryOne(ctx, r.q, "get role", scanRole,
		`SELECT `+roleColumns+` FROM roles WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id)
}

func (r roleRepo) GetByCode(ctx context.Context, tenantID int64, code string) (*entity.Role, error) {
	return queryOne(ctx, r.q, "get role by code", scanRole,
		`SELECT `+roleColumns+` FROM roles WHERE tenant_id = $1 AND code = $2 AND deleted_at IS NULL`, tenantID, code)
}

func (r roleRepo) List(ctx context.Context, tenantID int64) ([]*entity.Role, error) {
	return queryAll(ctx, r.q, "list roles", scanRole,
		`SELECT `+roleColumns+` FROM roles WHERE tenant_id = $1 AND deleted_at IS NULL ORDER BY id`, tenantID)
}

func (r roleRepo) Update(ctx context.Context, x *entity.Role) error {
	err := r.q.QueryRow(ctx, `
		UPDATE roles SET code = $3, name = $4, description = $5, is_system = $6, is_active = $7, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING updated_at`,
		x.TenantID, x.ID, x.Code, x.Name, x.Description, x.IsSystem, x.IsActive,
	).Scan(&x.UpdatedAt)
	return updateErr("update role", x.Code, err)
}

func (r roleRepo) SoftDelete(ctx context.Context, tenantID, id int64) error {
	return execOne(ctx, r.q, "delete role", fmt.Sprint(id),
		`UPDATE roles SET deleted_at = NOW() WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id)
}

func (r roleRepo) SetPermissions(ctx context.Context, tenantID, roleID int64, permissionIDs []int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM role_permissions WHERE tenant_id = $1 AND role_id = $2`, tenantID, roleID); err != nil {
		return fmt.Errorf("clear role permissions: %w", err)
	}
	return r.AddPermissions(ctx, tenantID, roleID, permissionIDs)
}

func (r roleRepo) AddPermissions(ctx context.Context, tenantID, roleID int64, permissionIDs []int64) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO role_permissions (tenant_id, role_id, permission_id)
		SELECT $1, $2, UNNEST($3::bigint[])
		ON CONFLICT DO NOTHING`, tenantID, roleID, permissionIDs)
	if err != nil {
		return fmt.Errorf("add role permissions: %w", err)
	}
	return nil
}

func (r roleRepo) ListPermissions(ctx context.Context, tenantID, roleID int64) ([]*entity.Permission, error) {
	return queryAll(ctx, r.q, "list role permissions", scanPermission, `
		SELECT `+prefixed("p", permissionColumns)+`
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.tenant_id = $1 AND rp.role_id = $2 AND p.deleted_at IS NULL
		ORDER BY p.id`, tenantID, roleID)
}

func (r roleRepo) SetUserRoles(ctx context.Context, tenantID, userID int64, roleIDs []int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM user_roles WHERE tenant_id = $1 AND user_id = $2`, tenantID, userID); err != nil {
		return fmt.Errorf("clear user roles: %w", err)
	}
	if len(roleIDs) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO user_roles (tenant_id, user_id, role_id)
		SELECT $1, $2, UNNEST($3::bigint[])
		ON CONFLICT DO NOTHING`, tenantID, userID, roleIDs)
	if err != nil {
		return fmt.Errorf("set user roles: %w", err)
	}
	return nil
}

func (r roleRepo) ListUserRoles(ctx context.Context, tenantID, userID int64) ([]*entity.Role, error) {
	return queryAll(ctx, r.q, "list user roles", scanRole, `
		SELECT `+prefixed("r", roleColumns)+`
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.tenant_id = $1 AND ur.user_id = $2 AND r.is_active AND r.deleted_at IS NULL
		ORDER BY r.id`, tenantID, userID)
}

// ---------------------------------------------------------------------------
// Permisos
// ---------------------------------------------------------------------------

type permissionRepo struct{ q Querier }

const permissionColumns = `id, uuid, tenant_id, code, name, resource, action, permission_type, description, is_system, created_at, updated_at`

func scanPermission(row pgx.Row) (*entity.Permission, error) {
	var p entity.Permission
	err := row.Scan(&p.ID, &p.UUID, &p.TenantID, &p.Code, &p.Name, &p.Resource, &p.Action,
		&p.PermissionType, &p.Description, &p.IsSystem, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r permissionRepo) List(ctx context.Context, tenantID int64, permissionType string) ([]*entity.Permission, error) {
	return queryAll(ctx, r.q, "list permissions", scanPermission, `
		SELECT `+permissionColumns+` FROM permissions
		WHERE tenant_id = $1 AND deleted_at IS NULL AND ($2 = '' OR permission_type = $2)
		ORDER BY id`, tenantID, permissionType)
}

func (r permissionRepo) GetByCodes(ctx context.Context, tenantID int64, codes []string) ([]*entity.Permission, error) {
	return queryAll(ctx, r.q, "get permissions by codes", scanPermission, `
		SELECT `+permissionColumns+` FROM permissions
		WHERE tenant_id = $1 AND deleted_at IS NULL AND code = ANY($2)
		ORDER BY id`, tenantID, codes)
}

// BulkCreate inserta en bloque; los códigos ya existentes se omiten vía ON CONFLICT.
func (r permissionRepo) BulkCreate(ctx context.Context, perms []*entity.Permission) (int, error) {
	created := 0
	for _, p := range perms {
		p.UUID = newUUID(p.UUID)
		err := r.q.QueryRow(ctx, `
			INSERT INTO permissions (uuid, tenant_id, code, name, resource, action, permission_type, description, is_system)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (tenant_id, code) WHERE deleted_at IS NULL DO NOTHING
			RETURNING id, created_at, updated_at`,
			p.UUID, p.TenantID, p.Code, p.Name, p.Resource, p.Action, p.PermissionType, p.Description, p.IsSystem,
		).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
		if p2, err := oneRow(p, err, "insert permission"); err != nil {
			return created, err
		} else if p2 != nil {
			created++
		}
	}
	return created, nil
}

func (r permissionRepo) ListCodesForUser(ctx context.Context, tenantID, userID int64) ([]string, error) {
	rows, err := r.q.Query(ctx, `
		SELECT DISTINCT p.code
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id AND r.is_active AND r.deleted_at IS NULL
		JOIN role_permissions rp ON rp.role_id = r.id
		JOIN permissions p ON p.id = rp.permission_id AND p.deleted_at IS NULL
		WHERE ur.tenant_id = $1 AND ur.user_id = $2 AND r.tenant_id = $1 AND p.tenant_id = $1
		ORDER BY p.code`, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("list user permission codes: %w", err)
	}
	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list user permission codes: %w", err)
	}
	if codes == nil {
		codes = []string{}
	}
	return codes, nil
}
