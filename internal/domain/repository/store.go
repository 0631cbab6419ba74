package repository

// ListFilter filtros y paginación comunes. Limit <= 0 significa sin límite.
type ListFilter struct {
	Keyword string
	Status  string
	Limit   int
	Offset  int
}

// Store agrupa los puertos de persistencia. La implementación PostgreSQL puede estar
// atada al pool o a una transacción; todos los métodos reciben tenant_id explícito.
type Store interface {
	Tenants() TenantRepository
	IndustryTemplates() IndustryTemplateRepository
	SuperAdmins() SuperAdminRepository
	Users() UserRepository
	Roles() RoleRepository
	Permissions() PermissionRepository
	Departments() DepartmentRepository
	Positions() PositionRepository
	Menus() MenuRepository
	Applications() ApplicationRepository
	Dictionaries() DictionaryRepository
	CodeRules() CodeRuleRepository
	Sequences() SequenceRepository
	Materials() MaterialRepository
	MaterialAliases() MaterialAliasRepository
	BOMs() BOMRepository
	Documents() DocumentRepository
	Relations() RelationRepository
	Approvals() ApprovalRepository
	DataSources() DataSourceRepository
	Datasets() DatasetRepository
	Reports() ReportRepository
}
