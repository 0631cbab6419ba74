package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveredge/platform-kernel/internal/application/apptest"
	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
	"github.com/riveredge/platform-kernel/pkg/password"
)

func newTestUseCase(t *testing.T) (*TenantUseCase, *apptest.Store) {
	t.Helper()
	store := apptest.NewStore()
	uc := NewTenantUseCase(store, apptest.NewTxRunner(store), nil, Options{Hash: apptest.FastHash})
	return uc, store
}

func orgRequest(domainName string) dto.RegisterOrganizationRequest {
	return dto.RegisterOrganizationRequest{
		TenantName:   "Acme",
		TenantDomain: domainName,
		Username:     "admin",
		Password:     "secret-123",
		Email:        "admin@acme.test",
	}
}

func TestRegisterOrganization_CreaTenantInactivoYAdmin(t *testing.T) {
	uc, store := newTestUseCase(t)
	ctx := context.Background()

	res, err := uc.RegisterOrganization(ctx, orgRequest("acme"))
	require.NoError(t, err)
	assert.Equal(t, entity.TenantInactive, res.Tenant.Status)
	assert.Equal(t, entity.PlanTrial, res.Tenant.Plan)
	assert.Equal(t, "acme", res.Tenant.Domain)
	assert.True(t, res.User.IsActive)
	assert.True(t, res.User.IsTenantAdmin)
	assert.Equal(t, entity.SourceOrganization, res.User.Source)

	ok, err := password.Compare("secret-123", res.User.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	roles, err := store.Roles().List(ctx, res.Tenant.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, roles)
	userRoles, err := store.Roles().ListUserRoles(ctx, res.Tenant.ID, res.User.ID)
	require.NoError(t, err)
	require.Len(t, userRoles, 1)
	assert.Equal(t, entity.RoleTenantAdmin, userRoles[0].Code)

	dict, err := store.Dictionaries().GetByCode(ctx, res.Tenant.ID, "MATERIAL_TYPE")
	require.NoError(t, err)
	require.NotNil(t, dict)
	assert.Len(t, dict.Items, len(entity.MaterialTypes))
}

func TestRegisterOrganization_DominioDuplicado(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	first, err := uc.RegisterOrganization(ctx, orgRequest("acme"))
	require.NoError(t, err)

	_, err = uc.RegisterOrganization(ctx, orgRequest("acme"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	details := domain.DetailsOf(err)
	assert.Equal(t, "tenant_exists", details["error"])
	assert.Equal(t, first.Tenant.ID, details["tenant_id"])
	assert.Equal(t, "Acme", details["tenant_name"])
}

func TestRegisterOrganization_DominioInvalido(t *testing.T) {
	uc, _ := newTestUseCase(t)
	_, err := uc.RegisterOrganization(context.Background(), orgRequest("Acme Corp"))
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestRegisterOrganization_DominioAleatorio(t *testing.T) {
	uc, _ := newTestUseCase(t)
	res, err := uc.RegisterOrganization(context.Background(), orgRequest(""))
	require.NoError(t, err)
	assert.Len(t, res.Tenant.Domain, domainLength)
	assert.True(t, ValidDomain(res.Tenant.Domain))
}

func TestRegisterOrganization_DominioAleatorioAgotaIntentos(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()
	_, err := uc.RegisterOrganization(ctx, orgRequest("taken123"))
	require.NoError(t, err)

	uc.newDomain = func() (string, error) { return "taken123", nil }
	_, err = uc.RegisterOrganization(ctx, orgRequest(""))
	assert.True(t, errors.Is(err, domain.ErrBusinessLogic))
}

func TestRegisterOrganization_PasswordCorto(t *testing.T) {
	uc, _ := newTestUseCase(t)
	req := orgRequest("acme")
	req.Password = "123"
	_, err := uc.RegisterOrganization(context.Background(), req)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestApproveYReject(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	a, err := uc.RegisterOrganization(ctx, orgRequest("acme"))
	require.NoError(t, err)
	approved, err := uc.Approve(ctx, a.Tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TenantActive, approved.Status)

	_, err = uc.Approve(ctx, a.Tenant.ID)
	assert.True(t, errors.Is(err, domain.ErrBusinessLogic))

	b, err := uc.RegisterOrganization(ctx, orgRequest("beta"))
	require.NoError(t, err)
	rejected, err := uc.Reject(ctx, b.Tenant.ID, "datos incompletos")
	require.NoError(t, err)
	assert.Equal(t, entity.TenantSuspended, rejected.Status)
	assert.Equal(t, "datos incompletos", rejected.Settings[entity.SettingRejectReason])

	_, err = uc.Approve(ctx, 9999)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRegisterPersonal_SinTenantUsaDefault(t *testing.T) {
	uc, store := newTestUseCase(t)
	ctx := context.Background()

	res, err := uc.RegisterPersonal(ctx, dto.RegisterPersonalRequest{Username: "alice", Password: "secret-123"})
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultTenantDomain, res.Tenant.Domain)
	assert.Equal(t, entity.TenantActive, res.Tenant.Status)
	assert.Equal(t, entity.PlanEnterprise, res.Tenant.Plan)
	assert.Equal(t, true, res.Tenant.Settings[entity.SettingIsDefault])
	assert.True(t, res.User.IsActive)
	assert.Equal(t, entity.SourcePersonal, res.User.Source)

	// segundo registro reutiliza el mismo tenant
	res2, err := uc.RegisterPersonal(ctx, dto.RegisterPersonalRequest{Username: "bob", Password: "secret-123"})
	require.NoError(t, err)
	assert.Equal(t, res.Tenant.ID, res2.Tenant.ID)

	_, err = uc.RegisterPersonal(ctx, dto.RegisterPersonalRequest{Username: "alice", Password: "secret-123"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Contains(t, err.Error(), "alice")

	tenants, total, err := store.Tenants().List(ctx, dto.PageRequest{}.Filter())
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, tenants, 1)
}

func TestRegisterPersonal_TenantInactivo(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()
	org, err := uc.RegisterOrganization(ctx, orgRequest("acme"))
	require.NoError(t, err)

	_, err = uc.RegisterPersonal(ctx, dto.RegisterPersonalRequest{TenantID: &org.Tenant.ID, Username: "carol", Password: "secret-123"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBusinessLogic))
}

func TestRegisterPersonal_PoliticasDeAprobacion(t *testing.T) {
	uc, store := newTestUseCase(t)
	ctx := context.Background()
	org, err := uc.RegisterOrganization(ctx, orgRequest("acme"))
	require.NoError(t, err)

	tn, err := store.Tenants().GetByID(ctx, org.Tenant.ID)
	require.NoError(t, err)
	tn.SetSetting(entity.SettingInviteCode, "JOIN-42")
	tn.SetSetting(entity.SettingRequireApproval, true)
	require.NoError(t, store.Tenants().Update(ctx, tn))

	// con código de invitación válido queda activo aunque el tenant siga inactivo
	res, err := uc.RegisterPersonal(ctx, dto.RegisterPersonalRequest{TenantID: &tn.ID, InviteCode: "JOIN-42", Username: "dave", Password: "secret-123"})
	require.NoError(t, err)
	assert.True(t, res.User.IsActive)
	assert.Equal(t, entity.SourceInviteCode, res.User.Source)

	_, err = uc.RegisterPersonal(ctx, dto.RegisterPersonalRequest{TenantID: &tn.ID, InviteCode: "WRONG", Username: "erin", Password: "secret-123"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = uc.Approve(ctx, tn.ID)
	require.NoError(t, err)

	res, err = uc.RegisterPersonal(ctx, dto.RegisterPersonalRequest{TenantID: &tn.ID, Username: "frank", Password: "secret-123"})
	require.NoError(t, err)
	assert.False(t, res.User.IsActive)
}

func TestJoinTenant_UsuarioInactivo(t *testing.T) {
	uc, store := newTestUseCase(t)
	ctx := context.Background()
	org, err := uc.RegisterOrganization(ctx, orgRequest("acme"))
	require.NoError(t, err)

	res, err := uc.JoinTenant(ctx, dto.JoinTenantRequest{TenantID: org.Tenant.ID, Username: "gina", Password: "secret-123"})
	require.NoError(t, err)
	assert.False(t, res.User.IsActive)
	assert.Equal(t, entity.SourceJoinRequest, res.User.Source)

	roles, err := store.Roles().ListUserRoles(ctx, org.Tenant.ID, res.User.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, entity.RoleEmployee, roles[0].Code)
}

func TestDeactivate_DefaultNoPermitido(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()
	def, err := uc.EnsureDefaultTenant(ctx)
	require.NoError(t, err)

	_, err = uc.Deactivate(ctx, def.ID)
	assert.True(t, errors.Is(err, domain.ErrBusinessLogic))

	org, err := uc.RegisterOrganization(ctx, orgRequest("acme"))
	require.NoError(t, err)
	_, err = uc.Activate(ctx, org.Tenant.ID)
	require.NoError(t, err)
	off, err := uc.Deactivate(ctx, org.Tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TenantInactive, off.Status)
}

func TestCheckDomain(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()
	_, err := uc.RegisterOrganization(ctx, orgRequest("acme"))
	require.NoError(t, err)

	res, err := uc.CheckDomain(ctx, "acme")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.False(t, res.Available)

	res, err = uc.CheckDomain(ctx, "nuevo-1")
	require.NoError(t, err)
	assert.True(t, res.Available)

	res, err = uc.CheckDomain(ctx, "no_valido!")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.False(t, res.Available)
}

func TestInitializeTenantData_Idempotente(t *testing.T) {
	uc, store := newTestUseCase(t)
	ctx := context.Background()
	org, err := uc.RegisterOrganization(ctx, orgRequest("acme"))
	require.NoError(t, err)

	before, err := store.Roles().List(ctx, org.Tenant.ID)
	require.NoError(t, err)
	res, err := uc.InitializeTenantData(ctx, org.Tenant.ID)
	require.NoError(t, err)
	assert.Zero(t, res.Roles)
	after, err := store.Roles().List(ctx, org.Tenant.ID)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}

func TestApplyIndustryTemplate(t *testing.T) {
	uc, store := newTestUseCase(t)
	ctx := context.Background()
	org, err := uc.RegisterOrganization(ctx, orgRequest("acme"))
	require.NoError(t, err)

	tpl, err := uc.CreateIndustryTemplate(ctx, dto.CreateIndustryTemplateRequest{
		Code: "injection", Name: "注塑行业", Industry: "plastics",
		Config: entity.IndustryTemplateConfig{
			Roles:       []entity.RoleSeed{{Code: "MOLD_ENGINEER", Name: "模具工程师", Permissions: []string{"master_data.material:read"}}},
			Departments: []entity.NamedSeed{{Code: "MOLD", Name: "模具部"}},
			Dictionaries: []entity.DictionarySeed{{Code: "RESIN", Name: "树脂", Items: []entity.NamedSeed{
				{Code: "PP", Name: "聚丙烯"}, {Code: "ABS", Name: "ABS"},
			}}},
			CodeRule: &entity.CodeRuleSeed{Name: "注塑编码", Template: "{PREFIX}-{TYPE}-{SEQUENCE}", Prefix: "INJ",
				Sequence: entity.SequenceConfig{Length: 5, StartValue: 1, Step: 1, IndependentByType: true}},
		},
	})
	require.NoError(t, err)

	res, err := uc.ApplyIndustryTemplate(ctx, org.Tenant.ID, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Roles)
	assert.Equal(t, 1, res.Departments)
	assert.Equal(t, 1, res.Dictionaries)
	assert.True(t, res.CodeRule)

	tn, err := store.Tenants().GetByID(ctx, org.Tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "injection", tn.Settings[entity.SettingIndustry])

	rule, err := store.CodeRules().GetActiveMain(ctx, org.Tenant.ID)
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, "INJ", rule.Prefix)

	_, err = uc.CreateIndustryTemplate(ctx, dto.CreateIndustryTemplateRequest{Code: "injection", Name: "dup"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

// ---------------------------------------------------------------------------
// Fallos a mitad de transacción y carreras de unicidad
// ---------------------------------------------------------------------------

// faultyStore sustituye repositorios concretos del store en memoria.
type faultyStore struct {
	*apptest.Store
	tenants repository.TenantRepository
	users   repository.UserRepository
}

func (f faultyStore) Tenants() repository.TenantRepository {
	if f.tenants != nil {
		return f.tenants
	}
	return f.Store.Tenants()
}

func (f faultyStore) Users() repository.UserRepository {
	if f.users != nil {
		return f.users
	}
	return f.Store.Users()
}

// wrappedTx ejecuta fn sobre s con el rollback del TxRunner en memoria.
type wrappedTx struct {
	inner *apptest.TxRunner
	s     repository.Store
}

func (w wrappedTx) Run(ctx context.Context, fn func(repository.Store) error) error {
	return w.inner.Run(ctx, func(repository.Store) error { return fn(w.s) })
}

// staleTenants no ve las filas creadas por otro proceso durante las primeras misses lecturas.
type staleTenants struct {
	repository.TenantRepository
	misses int
}

func (r *staleTenants) GetByDomain(ctx context.Context, d string) (*entity.Tenant, error) {
	if r.misses > 0 {
		r.misses--
		return nil, nil
	}
	return r.TenantRepository.GetByDomain(ctx, d)
}

type failingUsers struct{ repository.UserRepository }

func (failingUsers) Create(context.Context, *entity.User) error { return errors.New("disco lleno") }

func useCaseOver(store *apptest.Store, fs faultyStore) *TenantUseCase {
	fs.Store = store
	return NewTenantUseCase(fs, wrappedTx{inner: apptest.NewTxRunner(store), s: fs}, nil, Options{Hash: apptest.FastHash})
}

func TestRegisterOrganization_FalloDeUsuarioNoDejaTenant(t *testing.T) {
	store := apptest.NewStore()
	ctx := context.Background()
	uc := useCaseOver(store, faultyStore{users: failingUsers{store.Users()}})

	_, err := uc.RegisterOrganization(ctx, orgRequest("acme"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disco lleno")

	got, err := store.Tenants().GetByDomain(ctx, "acme")
	require.NoError(t, err)
	assert.Nil(t, got)
	_, total, err := store.Tenants().List(ctx, dto.PageRequest{}.Filter())
	require.NoError(t, err)
	assert.Zero(t, total)

	// el dominio sigue libre tras el rollback
	res, err := newTestUseCaseOver(store).RegisterOrganization(ctx, orgRequest("acme"))
	require.NoError(t, err)
	assert.Equal(t, "acme", res.Tenant.Domain)
}

func newTestUseCaseOver(store *apptest.Store) *TenantUseCase {
	return NewTenantUseCase(store, apptest.NewTxRunner(store), nil, Options{Hash: apptest.FastHash})
}

func TestRegisterOrganization_CarreraDeDominioDevuelveTenantExists(t *testing.T) {
	store := apptest.NewStore()
	ctx := context.Background()
	first, err := newTestUseCaseOver(store).RegisterOrganization(ctx, orgRequest("acme"))
	require.NoError(t, err)

	uc := useCaseOver(store, faultyStore{tenants: &staleTenants{TenantRepository: store.Tenants(), misses: 1}})
	_, err = uc.RegisterOrganization(ctx, orgRequest("acme"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	details := domain.DetailsOf(err)
	assert.Equal(t, "tenant_exists", details["error"])
	assert.Equal(t, first.Tenant.ID, details["tenant_id"])
}

func TestEnsureDefaultTenant_CarreraReleeElExistente(t *testing.T) {
	store := apptest.NewStore()
	ctx := context.Background()
	existing, err := newTestUseCaseOver(store).EnsureDefaultTenant(ctx)
	require.NoError(t, err)

	uc := useCaseOver(store, faultyStore{tenants: &staleTenants{TenantRepository: store.Tenants(), misses: 1}})
	got, err := uc.EnsureDefaultTenant(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, existing.ID, got.ID)

	_, total, err := store.Tenants().List(ctx, dto.PageRequest{}.Filter())
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestRegisterPersonal_CarreraDelTenantPorDefectoReintenta(t *testing.T) {
	store := apptest.NewStore()
	ctx := context.Background()
	existing, err := newTestUseCaseOver(store).EnsureDefaultTenant(ctx)
	require.NoError(t, err)

	uc := useCaseOver(store, faultyStore{tenants: &staleTenants{TenantRepository: store.Tenants(), misses: 1}})
	res, err := uc.RegisterPersonal(ctx, dto.RegisterPersonalRequest{Username: "alice", Password: "secret-123"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, res.Tenant.ID)
}
