package suggestion

import (
	"context"
	"fmt"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

// setupRule guía de arranque basada en los datos maestros del tenant.
type setupRule struct{ store repository.Store }

func (setupRule) Name() string { return "init.setup" }

func (r setupRule) Check(ctx context.Context, tenantID int64, _ map[string]any) ([]dto.Suggestion, error) {
	var out []dto.Suggestion
	materials, err := r.store.Materials().Count(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if materials == 0 {
		out = append(out, dto.Suggestion{
			Type: dto.SuggestionWarning, Priority: dto.PriorityHigh,
			Title: "尚未维护物料", Content: "系统中还没有物料数据，建议先导入物料主数据。",
			Action: "/materials/import", ActionLabel: "导入物料",
		})
	}
	rule, err := r.store.CodeRules().GetActiveMain(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		out = append(out, dto.Suggestion{
			Type: dto.SuggestionInfo, Priority: dto.PriorityMedium,
			Title: "未启用编码规则", Content: "物料编码将使用默认格式 MAT-{TYPE}-{SEQUENCE}，可配置企业自己的编码规则。",
			Action: "/code-rules", ActionLabel: "配置编码规则",
		})
	}
	users, err := r.store.Users().Count(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if users <= 1 {
		out = append(out, dto.Suggestion{
			Type: dto.SuggestionInfo, Priority: dto.PriorityLow,
			Title: "邀请团队成员", Content: "当前组织只有一个用户，邀请同事一起使用系统。",
			Action: "/users", ActionLabel: "添加用户",
		})
	}
	return out, nil
}

type delayedWorkOrder struct {
	Code      string `mapstructure:"code"`
	DelayDays int    `mapstructure:"delay_days"`
}

// delayedWorkOrderRule órdenes de trabajo retrasadas (contexto delayed_work_orders[]).
type delayedWorkOrderRule struct{}

func (delayedWorkOrderRule) Name() string { return "work_order.delayed" }

func (delayedWorkOrderRule) Check(_ context.Context, _ int64, sctx map[string]any) ([]dto.Suggestion, error) {
	var items []delayedWorkOrder
	if err := decode(sctx["delayed_work_orders"], &items); err != nil {
		return nil, err
	}
	out := make([]dto.Suggestion, 0, len(items))
	for _, wo := range items {
		s := dto.Suggestion{
			Type: dto.SuggestionWarning, Priority: dto.PriorityHigh,
			Title:    fmt.Sprintf("工单 %s 已延期", wo.Code),
			Content:  fmt.Sprintf("工单 %s 已延期 %d 天，请确认生产进度或调整计划。", wo.Code, wo.DelayDays),
			Action:   "/work-orders/" + wo.Code, ActionLabel: "查看工单",
			Metadata: map[string]any{"work_order_code": wo.Code, "delay_days": wo.DelayDays},
		}
		if wo.DelayDays >= 3 {
			s.Type, s.Priority = dto.SuggestionError, dto.PriorityUrgent
		}
		out = append(out, s)
	}
	return out, nil
}

type shortage struct {
	MaterialCode string  `mapstructure:"material_code"`
	MaterialName string  `mapstructure:"material_name"`
	ShortageQty  float64 `mapstructure:"shortage_qty"`
}

// shortageRule faltantes de material (contexto material_shortages[]).
type shortageRule struct{}

func (shortageRule) Name() string { return "material.shortage" }

func (shortageRule) Check(_ context.Context, _ int64, sctx map[string]any) ([]dto.Suggestion, error) {
	var items []shortage
	if err := decode(sctx["material_shortages"], &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	codes := make([]string, 0, len(items))
	for _, it := range items {
		codes = append(codes, it.MaterialCode)
	}
	priority := dto.PriorityHigh
	if len(items) >= 5 {
		priority = dto.PriorityUrgent
	}
	return []dto.Suggestion{{
		Type: dto.SuggestionWarning, Priority: priority,
		Title:   fmt.Sprintf("%d 种物料缺料", len(items)),
		Content: "以下物料库存不足，建议尽快安排采购或调拨。",
		Action:  "/purchase/requisitions/new", ActionLabel: "生成采购申请",
		Metadata: map[string]any{"material_codes": codes},
	}}, nil
}

// overstockRule materiales con exceso de stock (contexto overstock_items[]).
type overstockRule struct{}

func (overstockRule) Name() string { return "inventory.overstock" }

func (overstockRule) Check(_ context.Context, _ int64, sctx map[string]any) ([]dto.Suggestion, error) {
	var items []shortage
	if err := decode(sctx["overstock_items"], &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return []dto.Suggestion{{
		Type: dto.SuggestionOptimization, Priority: dto.PriorityLow,
		Title:   fmt.Sprintf("%d 种物料库存积压", len(items)),
		Content: "部分物料库存高于安全上限，可考虑调整采购批量。",
	}}, nil
}

type reportingContext struct {
	UnreportedWorkOrders int     `mapstructure:"unreported_work_orders"`
	DefectRate           float64 `mapstructure:"defect_rate"`
}

// reportingRule partes de trabajo pendientes y tasa de defectos.
type reportingRule struct{}

func (reportingRule) Name() string { return "reporting.quality" }

func (reportingRule) Check(_ context.Context, _ int64, sctx map[string]any) ([]dto.Suggestion, error) {
	var c reportingContext
	if err := decode(sctx, &c); err != nil {
		return nil, err
	}
	var out []dto.Suggestion
	if c.UnreportedWorkOrders > 0 {
		out = append(out, dto.Suggestion{
			Type: dto.SuggestionWarning, Priority: dto.PriorityMedium,
			Title:   "存在未报工的工单",
			Content: fmt.Sprintf("有 %d 个工单今日尚未报工。", c.UnreportedWorkOrders),
			Action:  "/reporting", ActionLabel: "去报工",
		})
	}
	if c.DefectRate > 0.05 {
		out = append(out, dto.Suggestion{
			Type: dto.SuggestionError, Priority: dto.PriorityHigh,
			Title:   "不良率偏高",
			Content: fmt.Sprintf("当前不良率 %.1f%%，超过 5%% 的警戒线。", c.DefectRate*100),
		})
	}
	return out, nil
}

// capacityRule utilización de capacidad.
type capacityRule struct{}

func (capacityRule) Name() string { return "production.capacity" }

func (capacityRule) Check(_ context.Context, _ int64, sctx map[string]any) ([]dto.Suggestion, error) {
	var c struct {
		Utilization *float64 `mapstructure:"capacity_utilization"`
	}
	if err := decode(sctx, &c); err != nil {
		return nil, err
	}
	switch {
	case c.Utilization == nil:
		return nil, nil
	case *c.Utilization > 0.95:
		return []dto.Suggestion{{
			Type: dto.SuggestionWarning, Priority: dto.PriorityHigh,
			Title:   "产能接近饱和",
			Content: fmt.Sprintf("产能利用率 %.0f%%，建议调整排产或增加班次。", *c.Utilization*100),
		}}, nil
	case *c.Utilization < 0.5:
		return []dto.Suggestion{{
			Type: dto.SuggestionOptimization, Priority: dto.PriorityLow,
			Title:   "产能利用率偏低",
			Content: fmt.Sprintf("产能利用率 %.0f%%，可考虑合并生产批次。", *c.Utilization*100),
		}}, nil
	}
	return nil, nil
}
