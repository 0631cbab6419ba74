package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveredge/platform-kernel/internal/application/apptest"
	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/permission"
	"github.com/riveredge/platform-kernel/internal/infrastructure/cache"
)

type fixture struct {
	store *apptest.Store
	uc    *AuthzUseCase
	user  *entity.User
	role  *entity.Role
	perms []*entity.Permission
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := apptest.NewStore()
	uc := NewAuthzUseCase(store, apptest.NewTxRunner(store), cache.NewLocal(time.Minute), time.Minute, nil)

	_, err := store.Permissions().BulkCreate(ctx, []*entity.Permission{
		permission.Build(1, "master_data.material:read", "", true),
		permission.Build(1, "master_data.material:create", "", true),
	})
	require.NoError(t, err)
	perms, err := store.Permissions().List(ctx, 1, "")
	require.NoError(t, err)

	u := &entity.User{TenantID: 1, Username: "alice", IsActive: true}
	require.NoError(t, store.Users().Create(ctx, u))
	role, err := uc.CreateRole(ctx, 1, dto.CreateRoleRequest{Code: "VIEWER", Name: "查看者"})
	require.NoError(t, err)
	return &fixture{store: store, uc: uc, user: u, role: role, perms: perms}
}

func TestUserPermissions_UnionDeRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.uc.SetRolePermissions(ctx, 1, f.role.ID, []int64{f.perms[0].ID}))
	require.NoError(t, f.uc.SetUserRoles(ctx, 1, f.user.ID, []int64{f.role.ID}))

	codes, err := f.uc.UserPermissions(ctx, 1, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"master_data.material:read"}, codes)

	ok, err := f.uc.HasPermission(ctx, 1, f.user.ID, "master_data.material:read")
	require.NoError(t, err)
	assert.True(t, ok)

	err = f.uc.RequireAccess(ctx, 1, f.user.ID, "master_data.material:create")
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestUserPermissions_CacheInvalidadaAlCambiarRol(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.uc.SetUserRoles(ctx, 1, f.user.ID, []int64{f.role.ID}))

	codes, err := f.uc.UserPermissions(ctx, 1, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, codes)

	// cambio directo en el store: la caché sigue sirviendo el valor anterior
	require.NoError(t, f.store.Roles().SetPermissions(ctx, 1, f.role.ID, []int64{f.perms[1].ID}))
	codes, err = f.uc.UserPermissions(ctx, 1, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, codes)

	// a través del caso de uso se invalida
	require.NoError(t, f.uc.SetRolePermissions(ctx, 1, f.role.ID, []int64{f.perms[1].ID}))
	codes, err = f.uc.UserPermissions(ctx, 1, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"master_data.material:create"}, codes)
}

func TestUserPermissions_RolBorradoNoCuenta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.uc.SetRolePermissions(ctx, 1, f.role.ID, []int64{f.perms[0].ID}))
	require.NoError(t, f.uc.SetUserRoles(ctx, 1, f.user.ID, []int64{f.role.ID}))

	require.NoError(t, f.uc.DeleteRole(ctx, 1, f.role.ID))
	codes, err := f.uc.UserPermissions(ctx, 1, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, codes)
}

func TestSetRolePermissions_IDDesconocido(t *testing.T) {
	f := newFixture(t)
	err := f.uc.SetRolePermissions(context.Background(), 1, f.role.ID, []int64{9999})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestCreateRole_CodigoDuplicado(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.CreateRole(context.Background(), 1, dto.CreateRoleRequest{Code: "VIEWER", Name: "otro"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestDeleteRole_Sistema(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sys := &entity.Role{TenantID: 1, Code: entity.RoleTenantAdmin, Name: "组织管理员", IsSystem: true, IsActive: true}
	require.NoError(t, f.store.Roles().Create(ctx, sys))

	err := f.uc.DeleteRole(ctx, 1, sys.ID)
	assert.True(t, errors.Is(err, domain.ErrBusinessLogic))

	off := false
	_, err = f.uc.UpdateRole(ctx, 1, sys.ID, dto.UpdateRoleRequest{IsActive: &off})
	assert.True(t, errors.Is(err, domain.ErrBusinessLogic))
}

func TestSetUserRoles_OtroTenant(t *testing.T) {
	f := newFixture(t)
	err := f.uc.SetUserRoles(context.Background(), 2, f.user.ID, []int64{f.role.ID})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
