package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

type materialRepo struct{ q Querier }

const materialColumns = `id, uuid, tenant_id, main_code, name, material_type, specification, base_unit, description,
	brand, model, source_type, source_config, process_route_id, variant_attributes, is_active, created_by,
	created_at, updated_at`

func scanMaterial(row pgx.Row) (*entity.Material, error) {
	var m entity.Material
	err := row.Scan(&m.ID, &m.UUID, &m.TenantID, &m.MainCode, &m.Name, &m.MaterialType, &m.Specification,
		&m.BaseUnit, &m.Description, &m.Brand, &m.Model, &m.SourceType, &m.SourceConfig, &m.ProcessRouteID,
		&m.VariantAttributes, &m.IsActive, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r materialRepo) Create(ctx context.Context, m *entity.Material) error {
	m.UUID = newUUID(m.UUID)
	err := r.q.QueryRow(ctx, `
		INSERT INTO materials (uuid, tenant_id, main_code, name, material_type, specification, base_unit, description,
			brand, model, source_type, source_config, process_route_id, variant_attributes, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at`,
		m.UUID, m.TenantID, m.MainCode, m.Name, m.MaterialType, m.Specification, m.BaseUnit, m.Description,
		m.Brand, m.Model, m.SourceType, orEmpty(m.SourceConfig), m.ProcessRouteID, orEmpty(m.VariantAttributes),
		m.IsActive, m.CreatedBy,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	return writeErr("insert material", m.MainCode, err)
}

func (r materialRepo) GetByID(ctx context.Context, tenantID, id int64) (*entity.Material, error) {
	return queryOne(ctx, r.q, "get material", scanMaterial,
		`SELECT `+materialColumns+` FROM materials WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id)
}

func (r materialRepo) GetByMainCode(ctx context.Context, tenantID int64, code string) (*entity.Material, error) {
	return queryOne(ctx, r.q, "get material by code", scanMaterial,
		`SELECT `+materialColumns+` FROM materials WHERE tenant_id = $1 AND main_code = $2 AND deleted_at IS NULL`, tenantID, code)
}

func (r materialRepo) List(ctx context.Context, tenantID int64, f repository.MaterialFilter) ([]*entity.Material, int, error) {
	const where = ` FROM materials WHERE tenant_id = $1 AND deleted_at IS NULL
		AND ($2 = '' OR material_type = $2)
		AND ($3 = '' OR main_code ILIKE $3 OR name ILIKE $3 OR specification ILIKE $3)`
	kw := like(f.Keyword)
	total, err := count(ctx, r.q, "count materials", `SELECT COUNT(*)`+where, tenantID, f.MaterialType, kw)
	if err != nil {
		return nil, 0, err
	}
	limit, offset := pageArgs(f.ListFilter)
	list, err := queryAll(ctx, r.q, "list materials", scanMaterial,
		`SELECT `+materialColumns+where+` ORDER BY id LIMIT $4 OFFSET $5`, tenantID, f.MaterialType, kw, limit, offset)
	return list, total, err
}

// SearchSimilar contención en ambos sentidos sobre nombre o especificación.
func (r materialRepo) SearchSimilar(ctx context.Context, tenantID int64, name, spec string, excludeID int64, limit int) ([]*entity.Material, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	return queryAll(ctx, r.q, "search similar materials", scanMaterial, `
		SELECT `+materialColumns+` FROM materials
		WHERE tenant_id = $1 AND deleted_at IS NULL AND id <> $4
		  AND (
		    ($2 <> '' AND (strpos(name, $2) > 0 OR strpos($2, name) > 0))
		    OR ($3 <> '' AND specification <> '' AND (strpos(specification, $3) > 0 OR strpos($3, specification) > 0))
		  )
		ORDER BY id
		LIMIT $5`, tenantID, name, spec, excludeID, lim)
}

func (r materialRepo) Update(ctx context.Context, m *entity.Material) error {
	err := r.q.QueryRow(ctx, `
		UPDATE materials SET main_code = $3, name = $4, material_type = $5, specification = $6, base_unit = $7,
			description = $8, brand = $9, model = $10, source_type = $11, source_config = $12,
			process_route_id = $13, variant_attributes = $14, is_active = $15, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING updated_at`,
		m.TenantID, m.ID, m.MainCode, m.Name, m.MaterialType, m.Specification, m.BaseUnit, m.Description,
		m.Brand, m.Model, m.SourceType, orEmpty(m.SourceConfig), m.ProcessRouteID, orEmpty(m.VariantAttributes),
		m.IsActive,
	).Scan(&m.UpdatedAt)
	return updateErr("update material", m.MainCode, err)
}

func (r materialRepo) SoftDelete(ctx context.Context, tenantID, id int64) error {
	return execOne(ctx, r.q, "delete material", fmt.Sprint(id),
		`UPDATE materials SET deleted_at = NOW() WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id)
}

func (r materialRepo) Count(ctx context.Context, tenantID int64) (int, error) {
	return count(ctx, r.q, "count materials",
		`SELECT COUNT(*) FROM materials WHERE tenant_id = $1 AND deleted_at IS NULL`, tenantID)
}

// ---------------------------------------------------------------------------
// Códigos alternos
// ---------------------------------------------------------------------------

type aliasRepo struct{ q Querier }

const aliasColumns = `id, uuid, tenant_id, material_id, code_type, code, external_entity_type, external_entity_id,
	department, description, is_primary, created_at, updated_at`

func scanAlias(row pgx.Row) (*entity.MaterialCodeAlias, error) {
	var a entity.MaterialCodeAlias
	err := row.Scan(&a.ID, &a.UUID, &a.TenantID, &a.MaterialID, &a.CodeType, &a.Code, &a.ExternalEntityType,
		&a.ExternalEntityID, &a.Department, &a.Description, &a.IsPrimary, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r aliasRepo) Create(ctx context.Context, a *entity.MaterialCodeAlias) error {
	a.UUID = newUUID(a.UUID)
	err := r.q.QueryRow(ctx, `
		INSERT INTO material_code_aliases (uuid, tenant_id, material_id, code_type, code, external_entity_type,
			external_entity_id, department, description, is_primary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		a.UUID, a.TenantID, a.MaterialID, a.CodeType, a.Code, a.ExternalEntityType, a.ExternalEntityID,
		a.Department, a.Description, a.IsPrimary,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return writeErr("insert material alias", a.Code, err)
}

func (r aliasRepo) GetByCode(ctx context.Context, k entity.AliasKey) (*entity.MaterialCodeAlias, error) {
	return queryOne(ctx, r.q, "get material alias", scanAlias, `
		SELECT `+aliasColumns+` FROM material_code_aliases
		WHERE tenant_id = $1 AND code_type = $2 AND code = $3
		  AND external_entity_type = $4 AND COALESCE(external_entity_id, 0) = $5
		  AND deleted_at IS NULL`,
		k.TenantID, k.CodeType, k.Code, k.ExternalEntityType, k.ExternalEntityID)
}

func (r aliasRepo) FindByCode(ctx context.Context, tenantID int64, code string) ([]*entity.MaterialCodeAlias, error) {
	return queryAll(ctx, r.q, "find material alias", scanAlias, `
		SELECT `+aliasColumns+` FROM material_code_aliases
		WHERE tenant_id = $1 AND code = $2 AND deleted_at IS NULL ORDER BY id`, tenantID, code)
}

func (r aliasRepo) ListByMaterial(ctx context.Context, tenantID, materialID int64) ([]*entity.MaterialCodeAlias, error) {
	return queryAll(ctx, r.q, "list material aliases", scanAlias, `
		SELECT `+aliasColumns+` FROM material_code_aliases
		WHERE tenant_id = $1 AND material_id = $2 AND deleted_at IS NULL ORDER BY id`, tenantID, materialID)
}

func (r aliasRepo) Update(ctx context.Context, a *entity.MaterialCodeAlias) error {
	err := r.q.QueryRow(ctx, `
		UPDATE material_code_aliases SET code_type = $3, code = $4, external_entity_type = $5, external_entity_id = $6,
			department = $7, description = $8, is_primary = $9, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING updated_at`,
		a.TenantID, a.ID, a.CodeType, a.Code, a.ExternalEntityType, a.ExternalEntityID, a.Department,
		a.Description, a.IsPrimary,
	).Scan(&a.UpdatedAt)
	return updateErr("update material alias", a.Code, err)
}

func (r aliasRepo) ClearPrimary(ctx context.Context, tenantID, materialID int64, codeType string) error {
	_, err := r.q.Exec(ctx, `
		UPDATE material_code_aliases SET is_primary = FALSE, updated_at = NOW()
		WHERE tenant_id = $1 AND material_id = $2 AND code_type = $3 AND is_primary AND deleted_at IS NULL`,
		tenantID, materialID, codeType)
	if err != nil {
		return fmt.Errorf("clear primary alias: %w", err)
	}
	return nil
}

func (r aliasRepo) SoftDelete(ctx context.Context, tenantID, id int64) error {
	return execOne(ctx, r.q, "delete material alias", fmt.Sprint(id),
		`UPDATE material_code_aliases SET deleted_at = NOW() WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id)
}

// ---------------------------------------------------------------------------
// BOM
// ---------------------------------------------------------------------------

type bomRepo struct{ q Querier }

const bomColumns = `id, uuid, tenant_id, material_id, component_id, quantity, waste_rate, is_alternative,
	approval_status, version, bom_code, created_at, updated_at`

func scanBOMLine(row pgx.Row) (*entity.BOMLine, error) {
	var l entity.BOMLine
	err := row.Scan(&l.ID, &l.UUID, &l.TenantID, &l.MaterialID, &l.ComponentID, &l.Quantity, &l.WasteRate,
		&l.IsAlternative, &l.ApprovalStatus, &l.Version, &l.BOMCode, &l.CreatedAt, &l.UpdatedAt)
	return &l, err
}

func (r bomRepo) Create(ctx context.Context, l *entity.BOMLine) error {
	l.UUID = newUUID(l.UUID)
	err := r.q.QueryRow(ctx, `
		INSERT INTO bom_lines (uuid, tenant_id, material_id, component_id, quantity, waste_rate, is_alternative,
			approval_status, version, bom_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		l.UUID, l.TenantID, l.MaterialID, l.ComponentID, l.Quantity, l.WasteRate, l.IsAlternative,
		l.ApprovalStatus, l.Version, l.BOMCode,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	return writeErr("insert bom line", l.BOMCode, err)
}

func (r bomRepo) ListByMaterial(ctx context.Context, tenantID, materialID int64) ([]*entity.BOMLine, error) {
	return queryAll(ctx, r.q, "list bom lines", scanBOMLine, `
		SELECT `+bomColumns+` FROM bom_lines
		WHERE tenant_id = $1 AND material_id = $2 AND deleted_at IS NULL ORDER BY id`, tenantID, materialID)
}

func (r bomRepo) SetStatus(ctx context.Context, tenantID, materialID int64, from, to string) (int, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE bom_lines SET approval_status = $4, updated_at = NOW()
		WHERE tenant_id = $1 AND material_id = $2 AND approval_status = $3 AND deleted_at IS NULL`,
		tenantID, materialID, from, to)
	if err != nil {
		return 0, fmt.Errorf("set bom status: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
