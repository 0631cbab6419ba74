package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

func TestMenuCode(t *testing.T) {
	cases := []struct {
		path, node, want string
		ok               bool
	}{
		{"/apps/kuaicrm/sales-orders", "", "kuaicrm:sales-orders:view", true},
		{"/apps/kuaicrm/sales-orders/", "", "kuaicrm:sales-orders:view", true},
		{"/apps/kuaicrm/orders", "Sales_Order!", "kuaicrm:sales_order:view", true},
		{"/apps/kuaicrm/Order List", "", "kuaicrm:order-list:view", true},
		{"/apps/kuaicrm/:id", "", "", false},
		{"/system/users", "", "", false},
		{"/apps/kuaicrm/ｏｒｄｅｒｓ", "", "kuaicrm:orders:view", true},
	}
	for _, c := range cases {
		got, ok := MenuCode(c.path, c.node)
		assert.Equal(t, c.ok, ok, c.path)
		assert.Equal(t, c.want, got, c.path)
	}
}

func TestDataScopeCodes_SoloLectura(t *testing.T) {
	got := DataScopeCodes([]string{"kuaicrm:sales-orders:view", "system.user:create", "plain"})
	assert.Equal(t, []string{
		"kuaicrm:sales-orders:data:all",
		"kuaicrm:sales-orders:data:department",
		"kuaicrm:sales-orders:data:self",
	}, got)
}

func TestSplit(t *testing.T) {
	r, a := Split("kuaicrm:sales-orders:view")
	assert.Equal(t, "kuaicrm_sales_orders", r)
	assert.Equal(t, "view", a)

	r, a = Split("dashboard")
	assert.Equal(t, "dashboard", r)
	assert.Equal(t, "read", a)
}

func TestInferType(t *testing.T) {
	assert.Equal(t, entity.PermissionField, InferType("sales_order:view:amount"))
	assert.Equal(t, entity.PermissionData, InferType("sales_order:data:self"))
	assert.Equal(t, entity.PermissionData, InferType("sales_order:scope"))
	assert.Equal(t, entity.PermissionFunction, InferType("sales_order:create"))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "查看sales_order（功能）", DisplayName("sales_order", "view", entity.PermissionFunction))
	assert.Equal(t, "pushsales_order（数据）", DisplayName("sales_order", "push", entity.PermissionData))
}

func TestManifestCodes_Recursivo(t *testing.T) {
	m := entity.ApplicationManifest{
		Permissions: []string{"kuaimes:work-order:view", " "},
		MenuConfig: []any{
			map[string]any{
				"permission": "kuaimes:board:view",
				"children": []any{
					map[string]any{"permission_code": "kuaimes:report:view"},
				},
			},
		},
	}
	assert.Equal(t, []string{"kuaimes:board:view", "kuaimes:report:view", "kuaimes:work-order:view"}, ManifestCodes(m))
}

func TestBuild_NombreYTipo(t *testing.T) {
	p := Build(4, "master_data.material:read", "", true)
	assert.Equal(t, int64(4), p.TenantID)
	assert.Equal(t, "master_data.material", p.Resource)
	assert.Equal(t, "read", p.Action)
	assert.Equal(t, entity.PermissionFunction, p.PermissionType)
	assert.Equal(t, "查看master_data.material（功能）", p.Name)

	d := Build(4, "kuaicrm:sales-orders:data:self", "", false)
	assert.Equal(t, entity.PermissionData, d.PermissionType)
	assert.True(t, IsRead("kuaicrm:sales-orders:view"))
	assert.False(t, IsRead("document:create"))
}
