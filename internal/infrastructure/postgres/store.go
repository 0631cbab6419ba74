// Package postgres implementa los puertos de persistencia sobre pgx. Un Store
// puede estar atado al pool o a una transacción abierta por TxRunner.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

// Querier subconjunto común de *pgxpool.Pool y pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ repository.Store = (*Store)(nil)

// Store agrupa los repositorios sobre un mismo Querier.
type Store struct {
	q Querier
}

// NewStore construye el store sobre el pool o una transacción.
func NewStore(q Querier) *Store {
	return &Store{q: q}
}

func (s *Store) Tenants() repository.TenantRepository                     { return tenantRepo{s.q} }
func (s *Store) IndustryTemplates() repository.IndustryTemplateRepository { return templateRepo{s.q} }
func (s *Store) SuperAdmins() repository.SuperAdminRepository             { return superAdminRepo{s.q} }
func (s *Store) Users() repository.UserRepository                         { return userRepo{s.q} }
func (s *Store) Roles() repository.RoleRepository                         { return roleRepo{s.q} }
func (s *Store) Permissions() repository.PermissionRepository             { return permissionRepo{s.q} }
func (s *Store) Departments() repository.DepartmentRepository             { return departmentRepo{s.q} }
func (s *Store) Positions() repository.PositionRepository                 { return positionRepo{s.q} }
func (s *Store) Menus() repository.MenuRepository                         { return menuRepo{s.q} }
func (s *Store) Applications() repository.ApplicationRepository           { return applicationRepo{s.q} }
func (s *Store) Dictionaries() repository.DictionaryRepository            { return dictionaryRepo{s.q} }
func (s *Store) CodeRules() repository.CodeRuleRepository                 { return codeRuleRepo{s.q} }
func (s *Store) Sequences() repository.SequenceRepository                 { return sequenceRepo{s.q} }
func (s *Store) Materials() repository.MaterialRepository                 { return materialRepo{s.q} }
func (s *Store) MaterialAliases() repository.MaterialAliasRepository      { return aliasRepo{s.q} }
func (s *Store) BOMs() repository.BOMRepository                           { return bomRepo{s.q} }
func (s *Store) Documents() repository.DocumentRepository                 { return documentRepo{s.q} }
func (s *Store) Relations() repository.RelationRepository                 { return relationRepo{s.q} }
func (s *Store) Approvals() repository.ApprovalRepository                 { return approvalRepo{s.q} }
func (s *Store) DataSources() repository.DataSourceRepository             { return dataSourceRepo{s.q} }
func (s *Store) Datasets() repository.DatasetRepository                   { return datasetRepo{s.q} }
func (s *Store) Reports() repository.ReportRepository                     { return reportRepo{s.q} }
