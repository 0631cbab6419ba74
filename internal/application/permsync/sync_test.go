package permsync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveredge/platform-kernel/internal/application/apptest"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/permission"
	"github.com/riveredge/platform-kernel/internal/infrastructure/cache"
)

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) InvalidateTenant(context.Context, int64) { c.calls++ }

func newTestSyncer(store *apptest.Store) (*Syncer, *countingInvalidator, *time.Time) {
	inv := &countingInvalidator{}
	s := NewSyncer(store, cache.NewLocal(time.Minute), inv, nil)
	now := time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, inv, &now
}

func codesOf(t *testing.T, store *apptest.Store, tenantID int64) map[string]*entity.Permission {
	t.Helper()
	perms, err := store.Permissions().List(context.Background(), tenantID, "")
	require.NoError(t, err)
	out := map[string]*entity.Permission{}
	for _, p := range perms {
		out[p.Code] = p
	}
	return out
}

func TestSync_MenusManifiestoYAlcances(t *testing.T) {
	store := apptest.NewStore()
	ctx := context.Background()
	menu := &entity.Menu{TenantID: 1, Name: "订单", Path: "/apps/kuaizhizao/sales/orders", Meta: map[string]any{"node": "Sales-Order_"}, IsActive: true}
	require.NoError(t, store.Menus().Create(ctx, menu))
	fixed := &entity.Menu{TenantID: 1, Name: "报表", Path: "/reports", PermissionCode: "report.board:view", IsActive: true}
	require.NoError(t, store.Menus().Create(ctx, fixed))
	require.NoError(t, store.Applications().Create(ctx, &entity.Application{
		TenantID: 1, Code: "mes", Name: "MES", IsInstalled: true, IsActive: true,
		Manifest: entity.ApplicationManifest{
			Permissions: []string{"mes.work_order:read"},
			MenuConfig: []any{map[string]any{
				"permission": "mes.board:view",
				"children":   []any{map[string]any{"permission_code": "mes.report:export"}},
			}},
		},
	}))

	s, inv, _ := newTestSyncer(store)
	res, err := s.Sync(ctx, 1, false)
	require.NoError(t, err)
	assert.False(t, res.Throttled)
	assert.Equal(t, res.Scanned, res.Created)
	assert.Equal(t, 1, inv.calls)

	got := codesOf(t, store, 1)
	for _, code := range []string{
		"kuaizhizao:sales-order:view", "report.board:view",
		"mes.work_order:read", "mes.board:view", "mes.report:export",
		"kuaizhizao:sales-order:data:all", "mes.work_order:data:self",
		permission.UserRead, "system.user:data:department",
	} {
		assert.Contains(t, got, code)
	}
	assert.NotContains(t, got, "mes.report:data:all")
	assert.Equal(t, "自动同步权限: mes.board:view", got["mes.board:view"].Description)
	assert.Equal(t, entity.PermissionData, got["mes.work_order:data:self"].PermissionType)

	// el código derivado se escribe en el menú
	m, err := store.Menus().GetByID(ctx, 1, menu.ID)
	require.NoError(t, err)
	assert.Equal(t, "kuaizhizao:sales-order:view", m.PermissionCode)
}

func TestSync_MenuPadreNoDerivaPermiso(t *testing.T) {
	store := apptest.NewStore()
	ctx := context.Background()
	parent := &entity.Menu{TenantID: 1, Name: "销售", Path: "/apps/kuaicrm/sales", IsActive: true}
	require.NoError(t, store.Menus().Create(ctx, parent))
	child := &entity.Menu{TenantID: 1, ParentID: &parent.ID, Name: "线索", Path: "/apps/kuaicrm/sales/leads", IsActive: true}
	require.NoError(t, store.Menus().Create(ctx, child))

	s, _, _ := newTestSyncer(store)
	_, err := s.Sync(ctx, 1, true)
	require.NoError(t, err)

	got := codesOf(t, store, 1)
	assert.Contains(t, got, "kuaicrm:leads:view")
	assert.Contains(t, got, "kuaicrm:leads:data:all")
	assert.NotContains(t, got, "kuaicrm:sales:view")
	assert.NotContains(t, got, "kuaicrm:sales:data:all")
	assert.NotContains(t, got, "kuaicrm:sales:data:self")

	m, err := store.Menus().GetByID(ctx, 1, parent.ID)
	require.NoError(t, err)
	assert.Empty(t, m.PermissionCode)
}

func TestSync_ThrottleYForce(t *testing.T) {
	store := apptest.NewStore()
	ctx := context.Background()
	s, _, now := newTestSyncer(store)

	first, err := s.Sync(ctx, 1, false)
	require.NoError(t, err)
	assert.Positive(t, first.Created)

	require.NoError(t, store.Menus().Create(ctx, &entity.Menu{TenantID: 1, Name: "x", Path: "/apps/crm/leads", IsActive: true}))

	second, err := s.Sync(ctx, 1, false)
	require.NoError(t, err)
	assert.True(t, second.Throttled)
	assert.NotContains(t, codesOf(t, store, 1), "crm:leads:view")

	forced, err := s.Sync(ctx, 1, true)
	require.NoError(t, err)
	assert.False(t, forced.Throttled)
	assert.Equal(t, 4, forced.Created)
	assert.Contains(t, codesOf(t, store, 1), "crm:leads:view")

	// pasado el intervalo vuelve a ejecutarse, sin duplicar
	*now = now.Add(Throttle + time.Second)
	again, err := s.Sync(ctx, 1, false)
	require.NoError(t, err)
	assert.False(t, again.Throttled)
	assert.Zero(t, again.Created)
}

func TestSync_AislamientoPorTenant(t *testing.T) {
	store := apptest.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Menus().Create(ctx, &entity.Menu{TenantID: 2, Name: "x", Path: "/apps/crm/leads", IsActive: true}))
	s, _, _ := newTestSyncer(store)

	_, err := s.Sync(ctx, 1, true)
	require.NoError(t, err)
	assert.NotContains(t, codesOf(t, store, 1), "crm:leads:view")
}

func TestTrigger_Asincrono(t *testing.T) {
	store := apptest.NewStore()
	s, _, _ := newTestSyncer(store)
	s.Trigger(7)
	s.Wait()
	assert.Contains(t, codesOf(t, store, 7), permission.MaterialRead)
}

func TestNewScheduler_ExpresionInvalida(t *testing.T) {
	s, _, _ := newTestSyncer(apptest.NewStore())
	_, err := NewScheduler("no es cron", s)
	assert.Error(t, err)

	sched, err := NewScheduler("", s)
	require.NoError(t, err)
	sched.Start()
	sched.Stop()
}
