package tenant

import (
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/permission"
)

// Roles sembrados en cada organización.
var defaultRoles = []entity.RoleSeed{
	{Code: entity.RoleSystemAdmin, Name: "系统管理员"},
	{Code: entity.RoleTenantAdmin, Name: "组织管理员"},
	{Code: entity.RoleDeptAdmin, Name: "部门管理员"},
	{Code: entity.RoleEmployee, Name: "普通员工", Permissions: []string{
		permission.MaterialRead, permission.DocumentRead, permission.DocumentCreate,
		permission.DatasetRead, permission.DictionaryRead, permission.DepartmentRead,
	}},
	{Code: "SALES_MANAGER", Name: "销售经理", Permissions: []string{
		permission.MaterialRead, permission.DocumentCreate, permission.DocumentRead,
		permission.DocumentUpdate, permission.DocumentApprove, permission.DocumentPush,
	}},
	{Code: "PURCHASER", Name: "采购员", Permissions: []string{
		permission.MaterialRead, permission.DocumentCreate, permission.DocumentRead, permission.DocumentUpdate,
	}},
	{Code: "WAREHOUSE_KEEPER", Name: "仓管员", Permissions: []string{
		permission.MaterialRead, permission.DocumentRead, permission.DocumentUpdate,
	}},
	{Code: "PRODUCTION_MANAGER", Name: "生产主管", Permissions: []string{
		permission.MaterialRead, permission.MaterialCreate, permission.MaterialUpdate, permission.DocumentRead,
	}},
	{Code: "QUALITY_INSPECTOR", Name: "质检员", Permissions: []string{
		permission.MaterialRead, permission.DocumentRead, permission.QualityRead,
	}},
}

var defaultDepartments = []entity.NamedSeed{
	{Code: "HQ", Name: "总经办"},
	{Code: "SALES", Name: "销售部"},
	{Code: "PURCHASE", Name: "采购部"},
	{Code: "PRODUCTION", Name: "生产部"},
	{Code: "WAREHOUSE", Name: "仓储部"},
	{Code: "QUALITY", Name: "质量部"},
	{Code: "FINANCE", Name: "财务部"},
}

var defaultPositions = []entity.NamedSeed{
	{Code: "GM", Name: "总经理"},
	{Code: "MANAGER", Name: "部门经理"},
	{Code: "SUPERVISOR", Name: "主管"},
	{Code: "STAFF", Name: "职员"},
}

var equipmentStatus = []entity.NamedSeed{
	{Code: "RUNNING", Name: "运行中"},
	{Code: "IDLE", Name: "空闲"},
	{Code: "MAINTENANCE", Name: "维修中"},
	{Code: "SCRAPPED", Name: "已报废"},
}

var toolStatus = []entity.NamedSeed{
	{Code: "AVAILABLE", Name: "可用"},
	{Code: "IN_USE", Name: "使用中"},
	{Code: "MAINTENANCE", Name: "维修中"},
	{Code: "SCRAPPED", Name: "已报废"},
}

func materialTypeItems() []entity.NamedSeed {
	order := []string{"FIN", "SEMI", "RAW", "PACK", "AUX"}
	out := make([]entity.NamedSeed, 0, len(order))
	for _, c := range order {
		out = append(out, entity.NamedSeed{Code: c, Name: entity.MaterialTypes[c]})
	}
	return out
}

// Diccionarios del sistema.
var systemDictionaries = []entity.DictionarySeed{
	{Code: "MATERIAL_TYPE", Name: "物料类型", Items: materialTypeItems()},
	{Code: "MATERIAL_UNIT", Name: "计量单位", Items: []entity.NamedSeed{
		{Code: "PCS", Name: "个"}, {Code: "KG", Name: "千克"}, {Code: "M", Name: "米"},
		{Code: "SET", Name: "套"}, {Code: "BOX", Name: "箱"},
	}},
	{Code: "CURRENCY", Name: "币种", Items: []entity.NamedSeed{
		{Code: "CNY", Name: "人民币"}, {Code: "USD", Name: "美元"}, {Code: "EUR", Name: "欧元"},
	}},
	{Code: "TIMEZONE", Name: "时区", Items: []entity.NamedSeed{
		{Code: "Asia/Shanghai", Name: "北京时间"}, {Code: "UTC", Name: "协调世界时"},
	}},
	{Code: "SHIPPING_METHOD", Name: "运输方式", Items: []entity.NamedSeed{
		{Code: "EXPRESS", Name: "快递"}, {Code: "LOGISTICS", Name: "物流"}, {Code: "SELF_PICKUP", Name: "自提"},
	}},
	{Code: "PAYMENT_TERMS", Name: "付款条件", Items: []entity.NamedSeed{
		{Code: "PREPAID", Name: "预付款"}, {Code: "COD", Name: "货到付款"}, {Code: "NET30", Name: "月结30天"},
	}},
	{Code: "EQUIPMENT_TYPE", Name: "设备类型", Items: []entity.NamedSeed{
		{Code: "CNC", Name: "数控机床"}, {Code: "INJECTION", Name: "注塑机"}, {Code: "ASSEMBLY", Name: "装配线"},
	}},
	{Code: "MOLD_TYPE", Name: "模具类型", Items: []entity.NamedSeed{
		{Code: "INJECTION_MOLD", Name: "注塑模"}, {Code: "STAMPING_DIE", Name: "冲压模"},
	}},
	{Code: "TOOL_TYPE", Name: "工装类型", Items: []entity.NamedSeed{
		{Code: "CUTTING", Name: "刀具"}, {Code: "MEASURING", Name: "量具"}, {Code: "FIXTURE", Name: "夹具"},
	}},
	{Code: "EQUIPMENT_STATUS", Name: "设备状态", Items: equipmentStatus},
	{Code: "MOLD_STATUS", Name: "模具状态", Items: toolStatus},
	{Code: "TOOL_STATUS", Name: "工装状态", Items: toolStatus},
}
