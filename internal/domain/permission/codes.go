// Package permission deriva, clasifica y nombra códigos de permiso.
package permission

// Códigos usados por los endpoints del núcleo (RequirePermission).
const (
	UserCreate = "system.user:create"
	UserRead   = "system.user:read"
	UserUpdate = "system.user:update"
	UserDelete = "system.user:delete"

	RoleCreate = "system.role:create"
	RoleRead   = "system.role:read"
	RoleUpdate = "system.role:update"
	RoleDelete = "system.role:delete"
	RoleAssign = "system.role:assign"

	PermissionRead = "system.permission:read"

	MenuCreate = "system.menu:create"
	MenuRead   = "system.menu:read"
	MenuUpdate = "system.menu:update"
	MenuDelete = "system.menu:delete"

	PolicyCreate = "system.policy:create"
	PolicyRead   = "system.policy:read"
	PolicyUpdate = "system.policy:update"
	PolicyDelete = "system.policy:delete"

	DepartmentCreate = "system.department:create"
	DepartmentRead   = "system.department:read"
	DepartmentDelete = "system.department:delete"

	ApplicationCreate = "system.application:create"
	ApplicationRead   = "system.application:read"

	DictionaryCreate = "system.dictionary:create"
	DictionaryRead   = "system.dictionary:read"

	CodeRuleCreate = "system.code_rule:create"
	CodeRuleRead   = "system.code_rule:read"
	CodeRuleUpdate = "system.code_rule:update"

	MaterialCreate = "master_data.material:create"
	MaterialRead   = "master_data.material:read"
	MaterialUpdate = "master_data.material:update"
	MaterialDelete = "master_data.material:delete"

	DocumentCreate  = "document:create"
	DocumentRead    = "document:read"
	DocumentUpdate  = "document:update"
	DocumentDelete  = "document:delete"
	DocumentApprove = "document:approve"
	DocumentPush    = "document:push"

	ApprovalCreate = "approval.process:create"
	ApprovalRead   = "approval.process:read"
	ApprovalAct    = "approval.instance:approve"

	DataSourceCreate = "report.datasource:create"
	DataSourceRead   = "report.datasource:read"
	DataSourceUpdate = "report.datasource:update"
	DataSourceDelete = "report.datasource:delete"

	DatasetCreate = "report.dataset:create"
	DatasetRead   = "report.dataset:read"
	DatasetUpdate = "report.dataset:update"
	DatasetDelete = "report.dataset:delete"
	DatasetShare  = "report.dataset:share"

	QualityRead      = "data_quality:read"
	CompensationExec = "data_compensation:create"
)

// CoreCodes permisos declarados por el núcleo; siempre forman parte de la sincronización.
var CoreCodes = []string{
	UserCreate, UserRead, UserUpdate, UserDelete,
	RoleCreate, RoleRead, RoleUpdate, RoleDelete, RoleAssign,
	PermissionRead,
	MenuCreate, MenuRead, MenuUpdate, MenuDelete,
	PolicyCreate, PolicyRead, PolicyUpdate, PolicyDelete,
	DepartmentCreate, DepartmentRead, DepartmentDelete,
	ApplicationCreate, ApplicationRead,
	DictionaryCreate, DictionaryRead,
	CodeRuleCreate, CodeRuleRead, CodeRuleUpdate,
	MaterialCreate, MaterialRead, MaterialUpdate, MaterialDelete,
	DocumentCreate, DocumentRead, DocumentUpdate, DocumentDelete, DocumentApprove, DocumentPush,
	ApprovalCreate, ApprovalRead, ApprovalAct,
	DataSourceCreate, DataSourceRead, DataSourceUpdate, DataSourceDelete,
	DatasetCreate, DatasetRead, DatasetUpdate, DatasetDelete, DatasetShare,
	QualityRead, CompensationExec,
}
