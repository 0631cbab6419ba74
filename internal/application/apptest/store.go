// Package apptest ofrece un repository.Store en memoria y un TxRunner para las
// pruebas de casos de uso. Respeta el filtro por tenant, el borrado lógico y la
// unicidad de códigos entre filas vivas.
package apptest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

var _ repository.Store = (*Store)(nil)

// Store almacenamiento en memoria.
type Store struct {
	mu  sync.Mutex
	seq int64

	tenants     []*entity.Tenant
	templates   []*entity.IndustryTemplate
	superAdmins []*entity.SuperAdmin
	users       []*entity.User
	roles       []*entity.Role
	perms       []*entity.Permission
	rolePerms   map[int64]map[int64]bool
	userRoles   map[int64][]int64
	depts       []*entity.Department
	positions   []*entity.Position
	menus       []*entity.Menu
	apps        []*entity.Application
	dicts       []*entity.DataDictionary
	dictItems   []*entity.DictionaryItem
	mainRules   []*entity.CodeRuleMain
	aliasRules  []*entity.CodeRuleAlias
	ruleHistory []*entity.CodeRuleHistory
	typeConfigs []*entity.MaterialTypeConfig
	counters    map[string]int64
	materials   []*entity.Material
	aliases     []*entity.MaterialCodeAlias
	boms        []*entity.BOMLine
	docs        []*entity.Document
	docItems    []*entity.DocumentItem
	relations   []*entity.DocumentRelation
	processes   []*entity.ApprovalProcess
	instances   []*entity.ApprovalInstance
	apprHistory []*entity.ApprovalHistory
	dataSources []*entity.DataSource
	datasets    []*entity.Dataset
	reports     []*entity.Report

	// Now reloj usado para timestamps; por defecto time.Now().UTC().
	Now func() time.Time
}

// NewStore crea un Store vacío.
func NewStore() *Store {
	return &Store{
		rolePerms: map[int64]map[int64]bool{},
		userRoles: map[int64][]int64{},
		counters:  map[string]int64{},
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *Store) stamp(id *int64, uid *string, created, updated *time.Time) {
	*id = s.nextID()
	if uid != nil && *uid == "" {
		*uid = uuid.New().String()
	}
	now := s.Now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func (s *Store) Tenants() repository.TenantRepository                     { return tenantRepo{s} }
func (s *Store) IndustryTemplates() repository.IndustryTemplateRepository { return templateRepo{s} }
func (s *Store) SuperAdmins() repository.SuperAdminRepository             { return superAdminRepo{s} }
func (s *Store) Users() repository.UserRepository                         { return userRepo{s} }
func (s *Store) Roles() repository.RoleRepository                         { return roleRepo{s} }
func (s *Store) Permissions() repository.PermissionRepository             { return permissionRepo{s} }
func (s *Store) Departments() repository.DepartmentRepository             { return departmentRepo{s} }
func (s *Store) Positions() repository.PositionRepository                 { return positionRepo{s} }
func (s *Store) Menus() repository.MenuRepository                         { return menuRepo{s} }
func (s *Store) Applications() repository.ApplicationRepository           { return applicationRepo{s} }
func (s *Store) Dictionaries() repository.DictionaryRepository            { return dictionaryRepo{s} }
func (s *Store) CodeRules() repository.CodeRuleRepository                 { return codeRuleRepo{s} }
func (s *Store) Sequences() repository.SequenceRepository                 { return sequenceRepo{s} }
func (s *Store) Materials() repository.MaterialRepository                 { return materialRepo{s} }
func (s *Store) MaterialAliases() repository.MaterialAliasRepository      { return aliasRepo{s} }
func (s *Store) BOMs() repository.BOMRepository                           { return bomRepo{s} }
func (s *Store) Documents() repository.DocumentRepository                 { return documentRepo{s} }
func (s *Store) Relations() repository.RelationRepository                 { return relationRepo{s} }
func (s *Store) Approvals() repository.ApprovalRepository                 { return approvalRepo{s} }
func (s *Store) DataSources() repository.DataSourceRepository             { return dataSourceRepo{s} }
func (s *Store) Datasets() repository.DatasetRepository                   { return datasetRepo{s} }
func (s *Store) Reports() repository.ReportRepository                     { return reportRepo{s} }

// TxRunner ejecuta fn sobre el Store y, si fn devuelve error, restaura el
// estado previo como haría un ROLLBACK. Err, si no es nil, se devuelve sin
// ejecutar fn.
type TxRunner struct {
	Store *Store
	Err   error
	Calls int
}

// NewTxRunner TxRunner sobre store.
func NewTxRunner(store *Store) *TxRunner { return &TxRunner{Store: store} }

func (r *TxRunner) Run(ctx context.Context, fn func(repository.Store) error) error {
	r.Calls++
	if r.Err != nil {
		return r.Err
	}
	snap := r.Store.snapshot()
	if err := fn(r.Store); err != nil {
		r.Store.restore(snap)
		return err
	}
	return nil
}

// snapshot copia profunda de las filas y contadores del Store.
func (s *Store) snapshot() *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &Store{
		seq:         s.seq,
		tenants:     cloneAll(s.tenants),
		templates:   cloneAll(s.templates),
		superAdmins: cloneAll(s.superAdmins),
		users:       cloneAll(s.users),
		roles:       cloneAll(s.roles),
		perms:       cloneAll(s.perms),
		rolePerms:   make(map[int64]map[int64]bool, len(s.rolePerms)),
		userRoles:   make(map[int64][]int64, len(s.userRoles)),
		depts:       cloneAll(s.depts),
		positions:   cloneAll(s.positions),
		menus:       cloneAll(s.menus),
		apps:        cloneAll(s.apps),
		dicts:       cloneAll(s.dicts),
		dictItems:   cloneAll(s.dictItems),
		mainRules:   cloneAll(s.mainRules),
		aliasRules:  cloneAll(s.aliasRules),
		ruleHistory: cloneAll(s.ruleHistory),
		typeConfigs: cloneAll(s.typeConfigs),
		counters:    make(map[string]int64, len(s.counters)),
		materials:   cloneAll(s.materials),
		aliases:     cloneAll(s.aliases),
		boms:        cloneAll(s.boms),
		docs:        cloneAll(s.docs),
		docItems:    cloneAll(s.docItems),
		relations:   cloneAll(s.relations),
		processes:   cloneAll(s.processes),
		instances:   cloneAll(s.instances),
		apprHistory: cloneAll(s.apprHistory),
		dataSources: cloneAll(s.dataSources),
		datasets:    cloneAll(s.datasets),
		reports:     cloneAll(s.reports),
	}
	for role, perms := range s.rolePerms {
		m := make(map[int64]bool, len(perms))
		for id, ok := range perms {
			m[id] = ok
		}
		c.rolePerms[role] = m
	}
	for user, roles := range s.userRoles {
		c.userRoles[user] = append([]int64(nil), roles...)
	}
	for k, v := range s.counters {
		c.counters[k] = v
	}
	return c
}

func (s *Store) restore(c *Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = c.seq
	s.tenants, s.templates, s.superAdmins = c.tenants, c.templates, c.superAdmins
	s.users, s.roles, s.perms = c.users, c.roles, c.perms
	s.rolePerms, s.userRoles = c.rolePerms, c.userRoles
	s.depts, s.positions, s.menus, s.apps = c.depts, c.positions, c.menus, c.apps
	s.dicts, s.dictItems = c.dicts, c.dictItems
	s.mainRules, s.aliasRules, s.ruleHistory = c.mainRules, c.aliasRules, c.ruleHistory
	s.typeConfigs, s.counters = c.typeConfigs, c.counters
	s.materials, s.aliases, s.boms = c.materials, c.aliases, c.boms
	s.docs, s.docItems, s.relations = c.docs, c.docItems, c.relations
	s.processes, s.instances, s.apprHistory = c.processes, c.instances, c.apprHistory
	s.dataSources, s.datasets, s.reports = c.dataSources, c.datasets, c.reports
}

func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneAll[T any](in []*T) []*T {
	out := make([]*T, 0, len(in))
	for _, v := range in {
		out = append(out, clone(v))
	}
	return out
}

func page[T any](items []*T, f repository.ListFilter) ([]*T, int) {
	total := len(items)
	if f.Offset > 0 {
		if f.Offset >= len(items) {
			return []*T{}, total
		}
		items = items[f.Offset:]
	}
	if f.Limit > 0 && len(items) > f.Limit {
		items = items[:f.Limit]
	}
	return cloneAll(items), total
}

func matches(keyword string, fields ...string) bool {
	if keyword == "" {
		return true
	}
	kw := strings.ToLower(keyword)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), kw) {
			return true
		}
	}
	return false
}

func duplicate(entity, code string) error {
	return fmt.Errorf("%s %s: %w", entity, code, domain.ErrDuplicate)
}
