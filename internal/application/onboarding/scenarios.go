package onboarding

import (
	"strings"

	"github.com/riveredge/platform-kernel/internal/application/dto"
)

// Perfiles de rol.
const (
	ProfileSales      = "sales"
	ProfilePurchase   = "purchase"
	ProfileWarehouse  = "warehouse"
	ProfileProduction = "production"
	ProfileQuality    = "quality"
	ProfilePlanning   = "planning"
	ProfileManager    = "manager"
)

type profile struct {
	dto.RoleScenarios
	prefixes []string
}

func sc(id, name, desc string, features, perms []string) dto.Scenario {
	return dto.Scenario{ID: id, Name: name, Description: desc, Features: features, Permissions: perms}
}

func stat(title, api string) dto.DashboardWidget {
	return dto.DashboardWidget{Type: "statistics", Title: title, API: api}
}

func list(title, api string) dto.DashboardWidget {
	return dto.DashboardWidget{Type: "list", Title: title, API: api}
}

// catalog en orden de coincidencia: el primer prefijo que encaja gana.
var catalog = []profile{
	{
		RoleScenarios: dto.RoleScenarios{
			Key: ProfileSales, Name: "销售", Description: "负责销售订单管理、客户管理、销售预测等",
			Scenarios: []dto.Scenario{
				sc("sales_order_management", "销售订单管理", "创建、查看、编辑销售订单",
					[]string{"销售订单列表", "销售订单创建", "销售订单编辑", "销售订单查询"},
					[]string{"sales_order:list", "sales_order:create", "sales_order:update", "sales_order:view"}),
				sc("customer_management", "客户管理", "管理客户信息和客户关系",
					[]string{"客户列表", "客户创建", "客户编辑", "客户查询"},
					[]string{"customer:list", "customer:create", "customer:update", "customer:view"}),
				sc("sales_forecast", "销售预测", "创建和管理销售预测",
					[]string{"销售预测列表", "销售预测创建", "销售预测编辑"},
					[]string{"sales_forecast:list", "sales_forecast:create", "sales_forecast:update"}),
			},
			Dashboard: []dto.DashboardWidget{
				stat("待处理订单", "/documents/sales_order?status=已提交"),
				stat("本月销售额", "/documents/sales_order/statistics"),
				list("待处理订单列表", "/documents/sales_order?status=已提交&limit=10"),
			},
		},
		prefixes: []string{"sales"},
	},
	{
		RoleScenarios: dto.RoleScenarios{
			Key: ProfilePurchase, Name: "采购", Description: "负责采购订单管理、供应商管理、采购入库等",
			Scenarios: []dto.Scenario{
				sc("purchase_order_management", "采购订单管理", "创建、查看、编辑采购订单",
					[]string{"采购订单列表", "采购订单创建", "采购订单编辑", "采购订单查询"},
					[]string{"purchase_order:list", "purchase_order:create", "purchase_order:update", "purchase_order:view"}),
				sc("supplier_management", "供应商管理", "管理供应商信息和供应商关系",
					[]string{"供应商列表", "供应商创建", "供应商编辑", "供应商查询"},
					[]string{"supplier:list", "supplier:create", "supplier:update", "supplier:view"}),
				sc("purchase_receipt", "采购入库", "处理采购入库单",
					[]string{"采购入库列表", "采购入库创建", "采购入库编辑"},
					[]string{"purchase_receipt:list", "purchase_receipt:create", "purchase_receipt:update"}),
			},
			Dashboard: []dto.DashboardWidget{
				stat("待处理订单", "/documents/purchase_receipt?status=待入库"),
				stat("待入库订单", "/documents/purchase_receipt?status=已入库"),
				list("待处理订单列表", "/documents/purchase_receipt?status=待入库&limit=10"),
			},
		},
		prefixes: []string{"purchase"},
	},
	{
		RoleScenarios: dto.RoleScenarios{
			Key: ProfileWarehouse, Name: "仓库", Description: "负责库存管理、出入库管理、库存盘点等",
			Scenarios: []dto.Scenario{
				sc("inventory_management", "库存管理", "查看和管理库存",
					[]string{"库存查询", "库存统计", "库存预警"},
					[]string{"inventory:list", "inventory:view", "inventory:statistics"}),
				sc("stock_in_out", "出入库管理", "处理生产领料、成品入库等",
					[]string{"生产领料", "成品入库", "其他入库", "其他出库"},
					[]string{"production_picking:list", "production_picking:create", "finished_goods_receipt:list", "finished_goods_receipt:create"}),
				sc("stocktaking", "库存盘点", "执行库存盘点",
					[]string{"盘点单创建", "盘点执行", "盘点差异处理"},
					[]string{"stocktaking:list", "stocktaking:create", "stocktaking:execute"}),
			},
			Dashboard: []dto.DashboardWidget{
				stat("库存预警", "/suggestions?scene=inventory"),
				stat("待处理单据", "/documents/finished_goods_receipt?status=待入库"),
				list("库存预警列表", "/suggestions?scene=inventory&limit=10"),
			},
		},
		prefixes: []string{"warehouse"},
	},
	{
		RoleScenarios: dto.RoleScenarios{
			Key: ProfileProduction, Name: "生产", Description: "负责生产报工、生产看板、生产执行等",
			Scenarios: []dto.Scenario{
				sc("work_order_reporting", "生产报工", "执行生产报工",
					[]string{"报工列表", "报工创建", "报工查询"},
					[]string{"reporting:list", "reporting:create", "reporting:view"}),
				sc("production_dashboard", "生产看板", "查看生产看板",
					[]string{"生产看板", "工单进度", "生产效率"},
					[]string{"production:dashboard", "work_order:view"}),
				sc("work_order_management", "工单管理", "查看和管理工单",
					[]string{"工单列表", "工单查询", "工单详情"},
					[]string{"work_order:list", "work_order:view"}),
			},
			Dashboard: []dto.DashboardWidget{
				stat("待报工工单", "/suggestions?scene=reporting"),
				stat("今日报工", "/suggestions?scene=production"),
				list("待报工工单列表", "/suggestions?scene=work_order&limit=10"),
			},
		},
		prefixes: []string{"production"},
	},
	{
		RoleScenarios: dto.RoleScenarios{
			Key: ProfileQuality, Name: "质量", Description: "负责质量检验、质量异常处理、质量报表等",
			Scenarios: []dto.Scenario{
				sc("quality_inspection", "质量检验", "执行质量检验",
					[]string{"来料检验", "过程检验", "成品检验"},
					[]string{"incoming_inspection:list", "incoming_inspection:create", "process_inspection:list",
						"process_inspection:create", "finished_goods_inspection:list", "finished_goods_inspection:create"}),
				sc("quality_exception", "质量异常处理", "处理质量异常",
					[]string{"质量异常列表", "质量异常创建", "质量异常处理"},
					[]string{"quality_exception:list", "quality_exception:create", "quality_exception:handle"}),
				sc("quality_report", "质量报表", "查看质量报表",
					[]string{"质量统计", "合格率报表", "不良品统计"},
					[]string{"quality:report", "quality:statistics"}),
			},
			Dashboard: []dto.DashboardWidget{
				stat("待检验单据", "/documents/purchase_receipt?status=待审核"),
				stat("质量异常", "/suggestions?scene=reporting"),
				list("待检验单据列表", "/documents/purchase_receipt?status=待审核&limit=10"),
			},
		},
		prefixes: []string{"quality"},
	},
	{
		RoleScenarios: dto.RoleScenarios{
			Key: ProfilePlanning, Name: "计划", Description: "负责生产计划、MRP/LRP运算、工单下达等",
			Scenarios: []dto.Scenario{
				sc("production_planning", "生产计划", "创建和管理生产计划",
					[]string{"生产计划列表", "生产计划创建", "生产计划执行"},
					[]string{"production_plan:list", "production_plan:create", "production_plan:execute"}),
				sc("mrp_lrp", "MRP/LRP运算", "执行MRP/LRP运算",
					[]string{"MRP运算", "LRP运算", "运算结果查看"},
					[]string{"mrp:calculate", "lrp:calculate", "mrp:view"}),
				sc("work_order_release", "工单下达", "下达生产工单",
					[]string{"工单列表", "工单下达", "工单查询"},
					[]string{"work_order:list", "work_order:release", "work_order:view"}),
			},
			Dashboard: []dto.DashboardWidget{
				stat("待执行计划", "/documents/sales_order?status=已审核"),
				stat("待下达工单", "/suggestions?scene=work_order"),
				list("待执行计划列表", "/documents/sales_order?status=已审核&limit=10"),
			},
		},
		prefixes: []string{"planning", "planner", "plan"},
	},
	{
		RoleScenarios: dto.RoleScenarios{
			Key: ProfileManager, Name: "管理者", Description: "负责系统管理、数据查看、决策支持等",
			Scenarios: []dto.Scenario{
				sc("dashboard", "工作台", "查看工作台和统计数据",
					[]string{"工作台", "统计数据", "待办事项"},
					[]string{"dashboard:view", "statistics:view"}),
				sc("report_analysis", "报表分析", "查看各类报表和分析",
					[]string{"生产报表", "库存报表", "质量报表", "成本报表"},
					[]string{"report:view", "report:export"}),
				sc("system_management", "系统管理", "管理系统配置和用户",
					[]string{"用户管理", "角色管理", "权限管理", "系统配置"},
					[]string{"user:manage", "role:manage", "permission:manage", "system:config"}),
			},
			Dashboard: []dto.DashboardWidget{
				stat("生产统计", "/reports?keyword=production"),
				stat("库存统计", "/reports?keyword=inventory"),
				stat("质量统计", "/reports?keyword=quality"),
				list("待办事项", "/approval-instances/pending"),
			},
		},
		prefixes: []string{"manager"},
	},
}

// Profiles devuelve una copia del catálogo completo.
func Profiles() []dto.RoleScenarios {
	out := make([]dto.RoleScenarios, 0, len(catalog))
	for _, p := range catalog {
		out = append(out, p.RoleScenarios)
	}
	return out
}

// MatchProfile perfil para un código de rol: igualdad o prefijo, sin distinguir
// mayúsculas. Sin coincidencia se usa manager.
func MatchProfile(roleCode string) dto.RoleScenarios {
	code := strings.ToLower(strings.TrimSpace(roleCode))
	if code != "" {
		for _, p := range catalog {
			for _, pre := range p.prefixes {
				if strings.HasPrefix(code, pre) {
					return p.RoleScenarios
				}
			}
		}
	}
	return catalog[len(catalog)-1].RoleScenarios
}
