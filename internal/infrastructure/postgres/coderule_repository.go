package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

type codeRuleRepo struct{ q Querier }

const mainRuleColumns = `id, uuid, tenant_id, name, template, prefix, sequence_config, version, is_active,
	description, created_by, created_at, updated_at`

func scanMainRule(row pgx.Row) (*entity.CodeRuleMain, error) {
	var x entity.CodeRuleMain
	err := row.Scan(&x.ID, &x.UUID, &x.TenantID, &x.Name, &x.Template, &x.Prefix, &x.SequenceConfig,
		&x.Version, &x.IsActive, &x.Description, &x.CreatedBy, &x.CreatedAt, &x.UpdatedAt)
	return &x, err
}

func (r codeRuleRepo) CreateMain(ctx context.Context, x *entity.CodeRuleMain) error {
	x.UUID = newUUID(x.UUID)
	err := r.q.QueryRow(ctx, `
		INSERT INTO code_rules (uuid, tenant_id, name, template, prefix, sequence_config, version, is_active, description, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		x.UUID, x.TenantID, x.Name, x.Template, x.Prefix, x.SequenceConfig, x.Version, x.IsActive,
		x.Description, x.CreatedBy,
	).Scan(&x.ID, &x.CreatedAt, &x.UpdatedAt)
	return writeErr("insert code rule", x.Name, err)
}

func (r codeRuleRepo) GetMain(ctx context.Context, tenantID, id int64) (*entity.CodeRuleMain, error) {
	return queryOne(ctx, r.q, "get code rule", scanMainRule,
		`SELECT `+mainRuleColumns+` FROM code_rules WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id)
}

func (r codeRuleRepo) GetActiveMain(ctx context.Context, tenantID int64) (*entity.CodeRuleMain, error) {
	return queryOne(ctx, r.q, "get active code rule", scanMainRule,
		`SELECT `+mainRuleColumns+` FROM code_rules WHERE tenant_id = $1 AND is_active AND deleted_at IS NULL
		ORDER BY version DESC LIMIT 1`, tenantID)
}

func (r codeRuleRepo) ListMain(ctx context.Context, tenantID int64) ([]*entity.CodeRuleMain, error) {
	return queryAll(ctx, r.q, "list code rules", scanMainRule,
		`SELECT `+mainRuleColumns+` FROM code_rules WHERE tenant_id = $1 AND deleted_at IS NULL ORDER BY id`, tenantID)
}

func (r codeRuleRepo) UpdateMain(ctx context.Context, x *entity.CodeRuleMain) error {
	err := r.q.QueryRow(ctx, `
		UPDATE code_rules SET name = $3, template = $4, prefix = $5, sequence_config = $6, version = $7,
			is_active = $8, description = $9, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING updated_at`,
		x.TenantID, x.ID, x.Name, x.Template, x.Prefix, x.SequenceConfig, x.Version, x.IsActive, x.Description,
	).Scan(&x.UpdatedAt)
	return updateErr("update code rule", fmt.Sprint(x.ID), err)
}

func (r codeRuleRepo) MaxMainVersion(ctx context.Context, tenantID int64) (int, error) {
	return count(ctx, r.q, "max code rule version",
		`SELECT COALESCE(MAX(version), 0) FROM code_rules WHERE tenant_id = $1 AND deleted_at IS NULL`, tenantID)
}

func (r codeRuleRepo) DeactivateOtherMain(ctx context.Context, tenantID, keepID int64) error {
	_, err := r.q.Exec(ctx, `
		UPDATE code_rules SET is_active = FALSE, updated_at = NOW()
		WHERE tenant_id = $1 AND id <> $2 AND is_active AND deleted_at IS NULL`, tenantID, keepID)
	if err != nil {
		return fmt.Errorf("deactivate code rules: %w", err)
	}
	return nil
}

const aliasRuleColumns = `id, uuid, tenant_id, code_type, code_name, template, prefix, sequence_config,
	validation_pattern, departments, description, version, is_active, created_at, updated_at`

func scanAliasRule(row pgx.Row) (*entity.CodeRuleAlias, error) {
	var x entity.CodeRuleAlias
	err := row.Scan(&x.ID, &x.UUID, &x.TenantID, &x.CodeType, &x.CodeName, &x.Template, &x.Prefix,
		&x.SequenceConfig, &x.ValidationPattern, &x.Departments, &x.Description, &x.Version, &x.IsActive,
		&x.CreatedAt, &x.UpdatedAt)
	return &x, err
}

func departmentsOf(d []string) []string {
	if d == nil {
		return []string{}
	}
	return d
}

func (r codeRuleRepo) CreateAlias(ctx context.Context, x *entity.CodeRuleAlias) error {
	x.UUID = newUUID(x.UUID)
	err := r.q.QueryRow(ctx, `
		INSERT INTO code_rule_aliases (uuid, tenant_id, code_type, code_name, template, prefix, sequence_config,
			validation_pattern, departments, description, version, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`,
		x.UUID, x.TenantID, x.CodeType, x.CodeName, x.Template, x.Prefix, x.SequenceConfig,
		x.ValidationPattern, departmentsOf(x.Departments), x.Description, x.Version, x.IsActive,
	).Scan(&x.ID, &x.CreatedAt, &x.UpdatedAt)
	return writeErr("insert code rule alias", x.CodeType, err)
}

func (r codeRuleRepo) GetAliasByType(ctx context.Context, tenantID int64, codeType string) (*entity.CodeRuleAlias, error) {
	return queryOne(ctx, r.q, "get code rule alias", scanAliasRule,
		`SELECT `+aliasRuleColumns+` FROM code_rule_aliases WHERE tenant_id = $1 AND code_type = $2 AND deleted_at IS NULL`, tenantID, codeType)
}

func (r codeRuleRepo) ListAlias(ctx context.Context, tenantID int64) ([]*entity.CodeRuleAlias, error) {
	return queryAll(ctx, r.q, "list code rule aliases", scanAliasRule,
		`SELECT `+aliasRuleColumns+` FROM code_rule_aliases WHERE tenant_id = $1 AND deleted_at IS NULL ORDER BY id`, tenantID)
}

func (r codeRuleRepo) UpdateAlias(ctx context.Context, x *entity.CodeRuleAlias) error {
	err := r.q.QueryRow(ctx, `
		UPDATE code_rule_aliases SET code_name = $3, template = $4, prefix = $5, sequence_config = $6,
			validation_pattern = $7, departments = $8, description = $9, version = $10, is_active = $11, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING updated_at`,
		x.TenantID, x.ID, x.CodeName, x.Template, x.Prefix, x.SequenceConfig, x.ValidationPattern,
		departmentsOf(x.Departments), x.Description, x.Version, x.IsActive,
	).Scan(&x.UpdatedAt)
	return updateErr("update code rule alias", x.CodeType, err)
}

func (r codeRuleRepo) AddHistory(ctx context.Context, h *entity.CodeRuleHistory) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO code_rule_history (tenant_id, rule_id, rule_type, version, rule_config, change_description, changed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		h.TenantID, h.RuleID, h.RuleType, h.Version, orEmpty(h.RuleConfig), h.ChangeDescription, h.ChangedBy,
	).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert code rule history: %w", err)
	}
	return nil
}

// ListHistory más reciente primero.
func (r codeRuleRepo) ListHistory(ctx context.Context, tenantID int64, ruleType string, ruleID int64) ([]*entity.CodeRuleHistory, error) {
	return queryAll(ctx, r.q, "list code rule history", func(row pgx.Row) (*entity.CodeRuleHistory, error) {
		var h entity.CodeRuleHistory
		err := row.Scan(&h.ID, &h.TenantID, &h.RuleID, &h.RuleType, &h.Version, &h.RuleConfig,
			&h.ChangeDescription, &h.ChangedBy, &h.CreatedAt)
		return &h, err
	}, `
		SELECT id, tenant_id, rule_id, rule_type, version, rule_config, change_description, changed_by, created_at
		FROM code_rule_history
		WHERE tenant_id = $1 AND rule_type = $2 AND rule_id = $3
		ORDER BY id DESC`, tenantID, ruleType, ruleID)
}

func (r codeRuleRepo) UpsertTypeConfig(ctx context.Context, c *entity.MaterialTypeConfig) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO material_type_configs (tenant_id, rule_id, type_code, type_name, independent_sequence, current_sequence)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id, rule_id, type_code) DO UPDATE SET
			type_name = EXCLUDED.type_name,
			independent_sequence = EXCLUDED.independent_sequence,
			current_sequence = EXCLUDED.current_sequence,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		c.TenantID, c.RuleID, c.TypeCode, c.TypeName, c.IndependentSequence, c.CurrentSequence,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert material type config: %w", err)
	}
	return nil
}

func (r codeRuleRepo) ListTypeConfigs(ctx context.Context, tenantID, ruleID int64) ([]*entity.MaterialTypeConfig, error) {
	return queryAll(ctx, r.q, "list material type configs", func(row pgx.Row) (*entity.MaterialTypeConfig, error) {
		var c entity.MaterialTypeConfig
		err := row.Scan(&c.ID, &c.TenantID, &c.RuleID, &c.TypeCode, &c.TypeName, &c.IndependentSequence,
			&c.CurrentSequence, &c.CreatedAt, &c.UpdatedAt)
		return &c, err
	}, `
		SELECT id, tenant_id, rule_id, type_code, type_name, independent_sequence, current_sequence, created_at, updated_at
		FROM material_type_configs
		WHERE tenant_id = $1 AND rule_id = $2
		ORDER BY id`, tenantID, ruleID)
}

// ---------------------------------------------------------------------------
// Secuencias
// ---------------------------------------------------------------------------

type sequenceRepo struct{ q Querier }

// Next usa un upsert de una sola sentencia: la fila queda bloqueada hasta el fin
// de la transacción, así dos llamadas concurrentes nunca leen el mismo valor.
func (r sequenceRepo) Next(ctx context.Context, tenantID, ruleID int64, typeCode *string, start, step int64) (int64, error) {
	var v int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO sequence_counters (tenant_id, rule_id, type_code, current_value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, rule_id, type_code) DO UPDATE SET
			current_value = sequence_counters.current_value + $5,
			updated_at = NOW()
		RETURNING current_value`,
		tenantID, ruleID, textOf(typeCode), start, step,
	).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return v, nil
}

func (r sequenceRepo) Current(ctx context.Context, tenantID, ruleID int64, typeCode *string) (int64, bool, error) {
	var v int64
	err := r.q.QueryRow(ctx, `
		SELECT current_value FROM sequence_counters
		WHERE tenant_id = $1 AND rule_id = $2 AND type_code = $3`,
		tenantID, ruleID, textOf(typeCode),
	).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("current sequence: %w", err)
	}
	return v, true, nil
}
