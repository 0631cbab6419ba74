package onboarding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveredge/platform-kernel/internal/application/apptest"
	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/document"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/permission"
)

func newUseCase(t *testing.T) (*OnboardingUseCase, *apptest.Store, *entity.Tenant) {
	t.Helper()
	store := apptest.NewStore()
	tenant := &entity.Tenant{Name: "Acme", Domain: "acme", Status: entity.TenantActive}
	require.NoError(t, store.Tenants().Create(context.Background(), tenant))
	return NewOnboardingUseCase(store, apptest.NewTxRunner(store), nil), store, tenant
}

// ---------------------------------------------------------------------------
// Escenarios por rol
// ---------------------------------------------------------------------------

func TestMatchProfile(t *testing.T) {
	cases := map[string]string{
		"SALES":            ProfileSales,
		"sales_manager":    ProfileSales,
		"purchase":         ProfilePurchase,
		"warehouse_keeper": ProfileWarehouse,
		"PRODUCTION":       ProfileProduction,
		"quality_qc":       ProfileQuality,
		"planner":          ProfilePlanning,
		"planning":         ProfilePlanning,
		"TENANT_ADMIN":     ProfileManager,
		"":                 ProfileManager,
	}
	for code, want := range cases {
		assert.Equal(t, want, MatchProfile(code).Key, code)
	}
}

func TestRoleScenarios_SinRolDevuelveCatalogo(t *testing.T) {
	uc, _, tenant := newUseCase(t)

	got, err := uc.RoleScenarios(context.Background(), tenant.ID, dto.RoleQuery{RoleCode: "NO_EXISTE"})

	require.NoError(t, err)
	assert.Nil(t, got.Role)
	assert.Len(t, got.Scenarios, 7)
}

func TestRoleScenarios_PorCodigo(t *testing.T) {
	uc, store, tenant := newUseCase(t)
	ctx := context.Background()
	role := &entity.Role{TenantID: tenant.ID, Code: "WAREHOUSE_A", Name: "仓管", IsActive: true}
	require.NoError(t, store.Roles().Create(ctx, role))

	got, err := uc.RoleScenarios(ctx, tenant.ID, dto.RoleQuery{RoleID: role.ID})

	require.NoError(t, err)
	require.NotNil(t, got.Role)
	assert.Equal(t, "WAREHOUSE_A", got.Role.Code)
	require.Len(t, got.Scenarios, 1)
	assert.Equal(t, ProfileWarehouse, got.Scenarios[0].Key)
}

func TestRoleDashboard_ManagerPorDefecto(t *testing.T) {
	uc, _, tenant := newUseCase(t)

	got, err := uc.RoleDashboard(context.Background(), tenant.ID, dto.RoleQuery{})

	require.NoError(t, err)
	assert.Equal(t, ProfileManager, got.Profile)
	require.Len(t, got.Dashboard, 4)
	assert.Equal(t, "生产统计", got.Dashboard[0].Title)
	assert.NotEmpty(t, got.Dashboard[0].API)
}

func TestRolePermissions(t *testing.T) {
	uc, store, tenant := newUseCase(t)
	ctx := context.Background()

	_, err := uc.RolePermissions(ctx, tenant.ID, dto.RoleQuery{RoleCode: "SALES"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = store.Permissions().BulkCreate(ctx, []*entity.Permission{
		permission.Build(tenant.ID, "master_data.material:read", "", true),
	})
	require.NoError(t, err)
	perms, err := store.Permissions().List(ctx, tenant.ID, "")
	require.NoError(t, err)
	role := &entity.Role{TenantID: tenant.ID, Code: "SALES", Name: "销售", IsActive: true}
	require.NoError(t, store.Roles().Create(ctx, role))
	require.NoError(t, store.Roles().SetPermissions(ctx, tenant.ID, role.ID, []int64{perms[0].ID}))

	got, err := uc.RolePermissions(ctx, tenant.ID, dto.RoleQuery{RoleCode: "SALES"})

	require.NoError(t, err)
	assert.Equal(t, ProfileSales, got.Profile)
	assert.Equal(t, []string{"master_data.material:read"}, got.Permissions)
}

// ---------------------------------------------------------------------------
// Checklist
// ---------------------------------------------------------------------------

func items(c *dto.OnboardingChecklist) map[string]dto.ChecklistItem {
	out := map[string]dto.ChecklistItem{}
	for _, it := range c.Items {
		out[it.Key] = it
	}
	return out
}

func TestChecklist_TenantVacio(t *testing.T) {
	uc, _, tenant := newUseCase(t)

	got, err := uc.Checklist(context.Background(), tenant.ID)

	require.NoError(t, err)
	assert.False(t, got.InitCompleted)
	assert.Equal(t, 0, got.Completed)
	assert.Equal(t, 7, got.Total)
	assert.Equal(t, 0.0, got.Progress)
	assert.Len(t, got.Items, 8)
}

func TestChecklist_DatosReales(t *testing.T) {
	uc, store, tenant := newUseCase(t)
	ctx := context.Background()
	require.NoError(t, store.Materials().Create(ctx, &entity.Material{TenantID: tenant.ID, MainCode: "MAT-1", Name: "螺丝"}))
	require.NoError(t, store.Users().Create(ctx, &entity.User{TenantID: tenant.ID, Username: "admin", IsActive: true, IsTenantAdmin: true}))
	require.NoError(t, store.Users().Create(ctx, &entity.User{TenantID: tenant.ID, Username: "bob", IsActive: true}))
	require.NoError(t, store.Documents().Create(ctx, &entity.Document{TenantID: tenant.ID, DocType: document.TypeSalesOrder, Code: "SO-1", Status: document.StatusDraft}))

	got, err := uc.CompleteInit(ctx, tenant.ID)

	require.NoError(t, err)
	byKey := items(got)
	assert.True(t, got.InitCompleted)
	assert.True(t, byKey["material_count"].Completed)
	assert.Equal(t, 1, byKey["user_count"].Current)
	assert.True(t, byKey["sales_order_count"].Completed)
	assert.False(t, byKey["sales_delivery_count"].Completed)
	assert.False(t, byKey["data_source_count"].Completed)
	assert.Equal(t, 4, got.Completed)
	assert.Equal(t, 57.14, got.Progress)
}

func TestChecklist_TenantInexistente(t *testing.T) {
	uc, _, _ := newUseCase(t)

	_, err := uc.Checklist(context.Background(), 999)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
