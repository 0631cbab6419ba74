// Package onboarding escenarios por rol y checklist de puesta en marcha del tenant.
package onboarding

import (
	"context"
	"math"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/application/ports"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/document"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
	"github.com/riveredge/platform-kernel/pkg/logger"
)

// Categorías del checklist.
const (
	CategoryInit     = "initialization"
	CategoryBasic    = "basic_data"
	CategoryBusiness = "business_flow"
)

// OnboardingUseCase lectura de escenarios y evaluación del checklist.
type OnboardingUseCase struct {
	store repository.Store
	tx    ports.TxRunner
	log   *logger.Logger
}

// NewOnboardingUseCase construye el caso de uso.
func NewOnboardingUseCase(store repository.Store, tx ports.TxRunner, log *logger.Logger) *OnboardingUseCase {
	return &OnboardingUseCase{store: store, tx: tx, log: logger.OrNop(log).Component("onboarding")}
}

// findRole busca por id y, si no, por código. Devuelve nil sin selector.
func (uc *OnboardingUseCase) findRole(ctx context.Context, tenantID int64, q dto.RoleQuery) (*entity.Role, error) {
	switch {
	case q.RoleID > 0:
		return uc.store.Roles().GetByID(ctx, tenantID, q.RoleID)
	case q.RoleCode != "":
		return uc.store.Roles().GetByCode(ctx, tenantID, q.RoleCode)
	}
	return nil, nil
}

func roleRef(r *entity.Role) *dto.RoleRef {
	return &dto.RoleRef{ID: r.ID, UUID: r.UUID, Code: r.Code, Name: r.Name}
}

// RoleScenarios escenarios del perfil del rol; sin rol (o rol inexistente) devuelve
// el catálogo completo.
func (uc *OnboardingUseCase) RoleScenarios(ctx context.Context, tenantID int64, q dto.RoleQuery) (*dto.RoleScenariosResponse, error) {
	role, err := uc.findRole(ctx, tenantID, q)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return &dto.RoleScenariosResponse{Scenarios: Profiles()}, nil
	}
	return &dto.RoleScenariosResponse{Role: roleRef(role), Scenarios: []dto.RoleScenarios{MatchProfile(role.Code)}}, nil
}

// RoleDashboard widgets del perfil del rol; manager por defecto.
func (uc *OnboardingUseCase) RoleDashboard(ctx context.Context, tenantID int64, q dto.RoleQuery) (*dto.RoleDashboardResponse, error) {
	role, err := uc.findRole(ctx, tenantID, q)
	if err != nil {
		return nil, err
	}
	out := &dto.RoleDashboardResponse{}
	code := ""
	if role != nil {
		out.Role = roleRef(role)
		code = role.Code
	}
	p := MatchProfile(code)
	out.Profile, out.Dashboard = p.Key, p.Dashboard
	return out, nil
}

// RolePermissions permisos efectivamente asignados al rol.
func (uc *OnboardingUseCase) RolePermissions(ctx context.Context, tenantID int64, q dto.RoleQuery) (*dto.RolePermissionsResponse, error) {
	role, err := uc.findRole(ctx, tenantID, q)
	if err != nil {
		return nil, err
	}
	if role == nil {
		key := any(q.RoleCode)
		if q.RoleID > 0 {
			key = q.RoleID
		}
		return nil, domain.NotFound("角色", key)
	}
	perms, err := uc.store.Roles().ListPermissions(ctx, tenantID, role.ID)
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(perms))
	for _, p := range perms {
		codes = append(codes, p.Code)
	}
	return &dto.RolePermissionsResponse{
		RoleID:      role.ID,
		RoleCode:    role.Code,
		Profile:     MatchProfile(role.Code).Key,
		Permissions: codes,
	}, nil
}

type check struct {
	key, category, title, desc, action string
	required                           int
	count                              func(ctx context.Context, tenantID int64) (int, error)
}

func (uc *OnboardingUseCase) docCount(docType string) func(context.Context, int64) (int, error) {
	return func(ctx context.Context, tenantID int64) (int, error) {
		return uc.store.Documents().CountByType(ctx, tenantID, docType, nil)
	}
}

func (uc *OnboardingUseCase) checks(t *entity.Tenant) []check {
	return []check{
		{key: "init_completed", category: CategoryInit, title: "系统初始化", desc: "完成初始化向导", action: "/onboarding/init", required: 1,
			count: func(context.Context, int64) (int, error) {
				if done, _ := t.Settings[entity.SettingInitCompleted].(bool); done {
					return 1, nil
				}
				return 0, nil
			}},
		{key: "code_rule", category: CategoryInit, title: "编码规则", desc: "启用一条主编码规则", action: "/code-rules", required: 1,
			count: func(ctx context.Context, tenantID int64) (int, error) {
				r, err := uc.store.CodeRules().GetActiveMain(ctx, tenantID)
				if err != nil || r == nil {
					return 0, err
				}
				return 1, nil
			}},
		{key: "material_count", category: CategoryBasic, title: "物料/产品", desc: "至少1个物料", action: "/materials", required: 1,
			count: func(ctx context.Context, tenantID int64) (int, error) {
				return uc.store.Materials().Count(ctx, tenantID)
			}},
		{key: "user_count", category: CategoryBasic, title: "业务用户", desc: "除管理员外至少1个用户", action: "/users", required: 1,
			count: uc.businessUsers},
		{key: "data_source_count", category: CategoryBasic, title: "数据连接", desc: "至少1个数据连接（可选）", action: "/data-sources", required: 0,
			count: func(ctx context.Context, tenantID int64) (int, error) {
				_, total, err := uc.store.DataSources().List(ctx, tenantID, repository.ListFilter{Limit: 1})
				return total, err
			}},
		{key: "sales_order_count", category: CategoryBusiness, title: "创建销售订单", desc: "新建并提交销售订单", action: "/documents/sales_order", required: 1,
			count: uc.docCount(document.TypeSalesOrder)},
		{key: "finished_goods_receipt_count", category: CategoryBusiness, title: "成品入库", desc: "成品入库单已创建", action: "/documents/finished_goods_receipt", required: 1,
			count: uc.docCount(document.TypeFinishedGoodsReceipt)},
		{key: "sales_delivery_count", category: CategoryBusiness, title: "销售出库", desc: "销售出库单已创建", action: "/documents/sales_delivery", required: 1,
			count: uc.docCount(document.TypeSalesDelivery)},
	}
}

// businessUsers usuarios activos que no son administradores.
func (uc *OnboardingUseCase) businessUsers(ctx context.Context, tenantID int64) (int, error) {
	active := true
	users, _, err := uc.store.Users().List(ctx, repository.UserFilter{TenantID: &tenantID, IsActive: &active})
	if err != nil {
		return 0, err
	}
	n := 0
	for _, u := range users {
		if !u.IsTenantAdmin && !u.IsPlatformAdmin {
			n++
		}
	}
	return n, nil
}

// Checklist evalúa cada paso sobre los datos actuales del tenant. Los pasos con
// required 0 son opcionales y no cuentan en el progreso.
func (uc *OnboardingUseCase) Checklist(ctx context.Context, tenantID int64) (*dto.OnboardingChecklist, error) {
	t, err := uc.store.Tenants().GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.NotFound("组织", tenantID)
	}
	out := &dto.OnboardingChecklist{TenantID: tenantID, Items: []dto.ChecklistItem{}}
	out.Profile, _ = t.Settings[entity.SettingIndustry].(string)
	for _, c := range uc.checks(t) {
		n, err := c.count(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		item := dto.ChecklistItem{
			Key: c.key, Category: c.category, Title: c.title, Description: c.desc,
			Required: c.required, Current: n, Action: c.action,
			Completed: n >= c.required && n > 0,
		}
		if c.key == "init_completed" {
			out.InitCompleted = item.Completed
		}
		out.Items = append(out.Items, item)
		if c.required == 0 {
			continue
		}
		out.Total++
		if item.Completed {
			out.Completed++
		}
	}
	if out.Total > 0 {
		out.Progress = math.Round(float64(out.Completed)/float64(out.Total)*10000) / 100
	}
	return out, nil
}

// CompleteInit marca el asistente de inicialización como terminado.
func (uc *OnboardingUseCase) CompleteInit(ctx context.Context, tenantID int64) (*dto.OnboardingChecklist, error) {
	err := uc.tx.Run(ctx, func(s repository.Store) error {
		t, err := s.Tenants().GetByID(ctx, tenantID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.NotFound("组织", tenantID)
		}
		t.SetSetting(entity.SettingInitCompleted, true)
		return s.Tenants().Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("tenant_id", tenantID).Msg("inicialización completada")
	return uc.Checklist(ctx, tenantID)
}
