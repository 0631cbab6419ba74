package suggestion

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
)

type failingRule struct{}

func (failingRule) Name() string { return "falla" }
func (failingRule) Check(context.Context, int64, map[string]any) ([]dto.Suggestion, error) {
	return nil, errors.New("boom")
}

func titles(items []dto.Suggestion) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		out = append(out, s.Title)
	}
	return out
}

func TestSuggest_EscenaDesconocida(t *testing.T) {
	e := NewEngine(apptest.NewStore(), nil)

	_, err := e.Suggest(context.Background(), 1, dto.SuggestionRequest{Scene: "ventas"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Error(t, e.Register("ventas", failingRule{}))
}

func TestSuggest_InitTenantVacio(t *testing.T) {
	e := NewEngine(apptest.NewStore(), nil)

	got, err := e.Suggest(context.Background(), 1, dto.SuggestionRequest{Scene: SceneInit})

	require.NoError(t, err)
	assert.Equal(t, []string{"尚未维护物料", "未启用编码规则", "邀请团队成员"}, titles(got))
	for _, s := range got {
		assert.NotEmpty(t, s.ID)
		assert.False(t, s.CreatedAt.IsZero())
	}
}

func TestSuggest_OrdenaPorPrioridad(t *testing.T) {
	e := NewEngine(nil, nil)
	require.NoError(t, e.Register(SceneWorkOrder, failingRule{}))

	got, err := e.Suggest(context.Background(), 1, dto.SuggestionRequest{
		Scene: SceneWorkOrder,
		Context: map[string]any{
			"delayed_work_orders": []any{
				map[string]any{"code": "WO-1", "delay_days": 1},
				map[string]any{"code": "WO-2", "delay_days": "5"},
			},
			"material_shortages": []any{map[string]any{"material_code": "M1", "shortage_qty": 3}},
		},
	})

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, dto.PriorityUrgent, got[0].Priority)
	assert.Equal(t, "工单 WO-2 已延期", got[0].Title)
	assert.Equal(t, dto.PriorityHigh, got[1].Priority)
	assert.Equal(t, dto.PriorityHigh, got[2].Priority)
}

func TestSuggest_Produccion(t *testing.T) {
	e := NewEngine(nil, nil)
	ctx := context.Background()

	got, err := e.Suggest(ctx, 1, dto.SuggestionRequest{Scene: SceneProduction, Context: map[string]any{"capacity_utilization": 0.97}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, dto.SuggestionWarning, got[0].Type)

	got, err = e.Suggest(ctx, 1, dto.SuggestionRequest{Scene: SceneProduction})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRegisterExpr(t *testing.T) {
	e := NewEngine(nil, nil)
	require.NoError(t, e.RegisterExpr(ExprRuleConfig{
		ID: "stock-bajo", Scene: SceneInventory, Priority: dto.PriorityUrgent,
		Condition: "stock_days < 3", Title: "库存天数不足",
		Content: `="仅剩 " + string(stock_days) + " 天库存"`,
	}))

	got, err := e.Suggest(context.Background(), 1, dto.SuggestionRequest{Scene: SceneInventory, Context: map[string]any{"stock_days": 2}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "仅剩 2 天库存", got[0].Content)
	assert.Equal(t, dto.SuggestionInfo, got[0].Type)
	assert.Equal(t, "stock-bajo", got[0].Metadata["rule_id"])

	got, err = e.Suggest(context.Background(), 1, dto.SuggestionRequest{Scene: SceneInventory, Context: map[string]any{"stock_days": 9}})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRegisterExpr_Invalida(t *testing.T) {
	e := NewEngine(nil, nil)

	err := e.RegisterExpr(ExprRuleConfig{ID: "x", Scene: SceneInventory, Condition: "a <", Title: "t"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
	err = e.RegisterExpr(ExprRuleConfig{ID: "y", Scene: SceneInventory, Condition: "true", Title: "t", Priority: "máxima"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestSuggest_ReglasDelTenant(t *testing.T) {
	store := apptest.NewStore()
	ctx := context.Background()
	tenant := &entity.Tenant{Name: "Acme", Domain: "acme", Status: entity.TenantActive}
	tenant.SetSetting(entity.SettingSuggestionRules, []any{
		map[string]any{"id": "r1", "scene": "reporting", "condition": "tenant_id > 0 && backlog > 10", "title": "积压", "priority": "high"},
		map[string]any{"id": "r2", "scene": "production", "condition": "true", "title": "otra escena"},
		map[string]any{"id": "r3", "scene": "reporting", "condition": "((", "title": "rota"},
	})
	require.NoError(t, store.Tenants().Create(ctx, tenant))
	e := NewEngine(store, nil)

	got, err := e.Suggest(ctx, tenant.ID, dto.SuggestionRequest{Scene: SceneReporting, Context: map[string]any{"backlog": 12}})

	require.NoError(t, err)
	assert.Equal(t, []string{"积压"}, titles(got))
}
