package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/riveredge/platform-kernel/internal/application/approval"
	"github.com/riveredge/platform-kernel/internal/application/auth"
	"github.com/riveredge/platform-kernel/internal/application/authz"
	"github.com/riveredge/platform-kernel/internal/application/codegen"
	"github.com/riveredge/platform-kernel/internal/application/dataset"
	"github.com/riveredge/platform-kernel/internal/application/document"
	"github.com/riveredge/platform-kernel/internal/application/material"
	"github.com/riveredge/platform-kernel/internal/application/onboarding"
	"github.com/riveredge/platform-kernel/internal/application/org"
	"github.com/riveredge/platform-kernel/internal/application/permsync"
	"github.com/riveredge/platform-kernel/internal/application/quality"
	"github.com/riveredge/platform-kernel/internal/application/suggestion"
	"github.com/riveredge/platform-kernel/internal/application/tenant"
	"github.com/riveredge/platform-kernel/internal/domain/permission"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	TenantUC     *tenant.TenantUseCase
	AuthUC       *auth.AuthUseCase
	AuthzUC      *authz.AuthzUseCase
	OrgUC        *org.OrgUseCase
	CodeRuleUC   *codegen.CodeRuleUseCase
	MaterialUC   *material.MaterialUseCase
	DocumentUC   *document.DocumentUseCase
	ApprovalUC   *approval.ApprovalUseCase
	DatasetUC    *dataset.DatasetUseCase
	Quality      *quality.QualityService
	Suggestions  *suggestion.Engine
	OnboardingUC *onboarding.OnboardingUseCase
	Syncer       *permsync.Syncer
	JWTSecret    string
}

// Router registra las rutas de la API bajo /api/v1.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api/v1")

	authHandler := NewAuthHandler(deps.AuthUC, deps.AuthzUC)
	tenantHandler := NewTenantHandler(deps.TenantUC, deps.OrgUC, deps.Syncer)
	datasetHandler := NewDatasetHandler(deps.DatasetUC)

	// Público
	api.Post("/auth/login", authHandler.Login)
	api.Post("/auth/refresh", authHandler.Refresh)
	api.Post("/superadmin/auth/login", authHandler.SuperAdminLogin)

	register := api.Group("/register")
	register.Get("/check-domain", tenantHandler.CheckDomain)
	register.Post("/organization", tenantHandler.RegisterOrganization)
	register.Post("/personal", tenantHandler.RegisterPersonal)
	register.Post("/join", tenantHandler.JoinTenant)

	api.Get("/datasets/shared", datasetHandler.SharedDataset)
	api.Post("/datasets/shared/execute", datasetHandler.ExecuteSharedDataset)
	api.Get("/reports/shared", datasetHandler.SharedReport)
	api.Post("/reports/shared/execute", datasetHandler.ExecuteSharedReport)

	authn := AuthMiddleware(deps.JWTSecret)

	// Plataforma (superadmin)
	sa := api.Group("/superadmin", authn, RequireSuperAdmin())
	sa.Get("/auth/me", authHandler.Me)
	sa.Get("/tenants", tenantHandler.List)
	sa.Get("/tenants/:id", tenantHandler.Get)
	sa.Post("/tenants/:id/approve", tenantHandler.Approve)
	sa.Post("/tenants/:id/reject", tenantHandler.Reject)
	sa.Post("/tenants/:id/activate", tenantHandler.Activate)
	sa.Post("/tenants/:id/deactivate", tenantHandler.Deactivate)
	sa.Post("/tenants/:id/initialize", tenantHandler.Initialize)
	sa.Post("/tenants/:id/sync-permissions", tenantHandler.SyncPermissions)
	sa.Get("/users", tenantHandler.ListUsers)
	sa.Get("/industry-templates", tenantHandler.ListTemplates)
	sa.Post("/industry-templates", tenantHandler.CreateTemplate)
	sa.Post("/industry-templates/:id/apply/:tenantId", tenantHandler.ApplyTemplate)

	// Tenant
	t := api.Group("/", authn, RequireTenant())
	perm := func(code string) fiber.Handler { return RequirePermission(deps.AuthzUC, code) }

	t.Get("/auth/me", authHandler.Me)
	t.Get("/me/permissions", authHandler.MyPermissions)

	identity := NewIdentityHandler(deps.OrgUC, deps.AuthzUC, deps.Syncer)
	users := t.Group("/users")
	users.Get("/", perm(permission.UserRead), identity.ListUsers)
	users.Post("/", perm(permission.UserCreate), identity.CreateUser)
	users.Get("/:id", perm(permission.UserRead), identity.GetUser)
	users.Put("/:id", perm(permission.UserUpdate), identity.UpdateUser)
	users.Delete("/:id", perm(permission.UserDelete), identity.DeleteUser)
	users.Post("/:id/activate", perm(permission.UserUpdate), identity.ActivateUser)
	users.Post("/:id/deactivate", perm(permission.UserUpdate), identity.DeactivateUser)
	users.Get("/:id/roles", perm(permission.RoleRead), identity.UserRoles)
	users.Put("/:id/roles", perm(permission.RoleAssign), identity.SetUserRoles)

	roles := t.Group("/roles")
	roles.Get("/", perm(permission.RoleRead), identity.ListRoles)
	roles.Post("/", perm(permission.RoleCreate), identity.CreateRole)
	roles.Get("/:id", perm(permission.RoleRead), identity.GetRole)
	roles.Put("/:id", perm(permission.RoleUpdate), identity.UpdateRole)
	roles.Delete("/:id", perm(permission.RoleDelete), identity.DeleteRole)
	roles.Put("/:id/permissions", perm(permission.RoleAssign), identity.SetRolePermissions)

	t.Get("/permissions", perm(permission.PermissionRead), identity.ListPermissions)
	t.Post("/permissions/sync", perm(permission.PermissionRead), identity.SyncPermissions)

	orgHandler := NewOrgHandler(deps.OrgUC)
	t.Get("/departments/tree", perm(permission.DepartmentRead), orgHandler.DepartmentTree)
	t.Post("/departments", perm(permission.DepartmentCreate), orgHandler.CreateDepartment)
	t.Delete("/departments/:id", perm(permission.DepartmentDelete), orgHandler.DeleteDepartment)
	t.Get("/positions", perm(permission.DepartmentRead), orgHandler.ListPositions)
	t.Post("/positions", perm(permission.DepartmentCreate), orgHandler.CreatePosition)
	t.Delete("/positions/:id", perm(permission.DepartmentDelete), orgHandler.DeletePosition)

	t.Get("/menus", perm(permission.MenuRead), orgHandler.ListMenus)
	t.Post("/menus", perm(permission.MenuCreate), orgHandler.CreateMenu)
	t.Put("/menus/:id", perm(permission.MenuUpdate), orgHandler.UpdateMenu)
	t.Delete("/menus/:id", perm(permission.MenuDelete), orgHandler.DeleteMenu)

	t.Get("/applications", perm(permission.ApplicationRead), orgHandler.ListApplications)
	t.Post("/applications", perm(permission.ApplicationCreate), orgHandler.InstallApplication)
	t.Delete("/applications/:code", perm(permission.ApplicationCreate), orgHandler.UninstallApplication)

	t.Get("/dictionaries", perm(permission.DictionaryRead), orgHandler.ListDictionaries)
	t.Post("/dictionaries", perm(permission.DictionaryCreate), orgHandler.CreateDictionary)
	t.Get("/dictionaries/:code", perm(permission.DictionaryRead), orgHandler.GetDictionary)
	t.Post("/dictionaries/:code/items", perm(permission.DictionaryCreate), orgHandler.AddDictionaryItem)

	codeRules := NewCodeRuleHandler(deps.CodeRuleUC)
	cr := t.Group("/code-rules")
	cr.Get("/", perm(permission.CodeRuleRead), codeRules.ListMain)
	cr.Post("/", perm(permission.CodeRuleCreate), codeRules.CreateMain)
	cr.Post("/preview", perm(permission.CodeRuleRead), codeRules.Preview)
	cr.Post("/generate", perm(permission.CodeRuleCreate), codeRules.Generate)
	cr.Get("/aliases", perm(permission.CodeRuleRead), codeRules.ListAlias)
	cr.Post("/aliases", perm(permission.CodeRuleCreate), codeRules.CreateAlias)
	cr.Put("/aliases/:codeType", perm(permission.CodeRuleUpdate), codeRules.UpdateAlias)
	cr.Get("/:id", perm(permission.CodeRuleRead), codeRules.GetMain)
	cr.Put("/:id", perm(permission.CodeRuleUpdate), codeRules.UpdateMain)
	cr.Post("/:id/activate", perm(permission.CodeRuleUpdate), codeRules.ActivateMain)
	cr.Get("/:id/history", perm(permission.CodeRuleRead), codeRules.History)
	cr.Get("/:id/type-configs", perm(permission.CodeRuleRead), codeRules.TypeConfigs)

	materials := NewMaterialHandler(deps.MaterialUC)
	m := t.Group("/materials")
	m.Get("/", perm(permission.MaterialRead), materials.List)
	m.Post("/", perm(permission.MaterialCreate), materials.Create)
	m.Post("/duplicates", perm(permission.MaterialRead), materials.FindDuplicates)
	m.Post("/merge", perm(permission.MaterialDelete), materials.Merge)
	m.Get("/by-code/:code", perm(permission.MaterialRead), materials.GetByCode)
	m.Get("/:id", perm(permission.MaterialRead), materials.Get)
	m.Put("/:id", perm(permission.MaterialUpdate), materials.Update)
	m.Delete("/:id", perm(permission.MaterialDelete), materials.Delete)
	m.Get("/:id/aliases", perm(permission.MaterialRead), materials.ListAliases)
	m.Post("/:id/aliases", perm(permission.MaterialUpdate), materials.AddAlias)
	m.Delete("/:id/aliases/:aliasId", perm(permission.MaterialUpdate), materials.DeleteAlias)
	m.Get("/:id/bom", perm(permission.MaterialRead), materials.ListBOM)
	m.Post("/:id/bom", perm(permission.MaterialUpdate), materials.AddBOMLine)
	m.Post("/:id/bom/approve", perm(permission.MaterialUpdate), materials.ApproveBOM)
	m.Put("/:id/source", perm(permission.MaterialUpdate), materials.ChangeSource)
	m.Get("/:id/source/check", perm(permission.MaterialRead), materials.CheckSource)
	m.Get("/:id/source/suggest", perm(permission.MaterialRead), materials.SuggestSource)

	documents := NewDocumentHandler(deps.DocumentUC, deps.AuthzUC)
	d := t.Group("/documents/:type")
	d.Get("/", perm(permission.DocumentRead), documents.List)
	d.Post("/", perm(permission.DocumentCreate), documents.Create)
	d.Post("/pull/:source/:sourceId", perm(permission.DocumentPush), documents.Pull)
	d.Get("/:id", perm(permission.DocumentRead), documents.Get)
	d.Put("/:id", perm(permission.DocumentUpdate), documents.Update)
	d.Post("/:id/actions", perm(permission.DocumentUpdate), documents.Action)
	d.Get("/:id/relations", perm(permission.DocumentRead), documents.Relations)
	d.Post("/:id/push/:target", perm(permission.DocumentPush), documents.Push)
	t.Post("/compensation", perm(permission.CompensationExec), documents.Compensate)

	approvals := NewApprovalHandler(deps.ApprovalUC)
	t.Get("/approval-processes", perm(permission.ApprovalRead), approvals.ListProcesses)
	t.Post("/approval-processes", perm(permission.ApprovalCreate), approvals.CreateProcess)
	t.Get("/approval-processes/:id", perm(permission.ApprovalRead), approvals.GetProcess)
	t.Get("/approval-instances/pending", approvals.Pending)
	t.Get("/approval-instances/:id", perm(permission.ApprovalRead), approvals.GetInstance)
	t.Post("/approval-instances/:id/actions", perm(permission.ApprovalAct), approvals.Act)

	ds := t.Group("/data-sources")
	ds.Get("/", perm(permission.DataSourceRead), datasetHandler.ListDataSources)
	ds.Post("/", perm(permission.DataSourceCreate), datasetHandler.CreateDataSource)
	ds.Get("/:id", perm(permission.DataSourceRead), datasetHandler.GetDataSource)
	ds.Put("/:id", perm(permission.DataSourceUpdate), datasetHandler.UpdateDataSource)
	ds.Delete("/:id", perm(permission.DataSourceDelete), datasetHandler.DeleteDataSource)
	ds.Post("/:id/test", perm(permission.DataSourceRead), datasetHandler.TestConnection)

	dsets := t.Group("/datasets")
	dsets.Get("/", perm(permission.DatasetRead), datasetHandler.ListDatasets)
	dsets.Post("/", perm(permission.DatasetCreate), datasetHandler.CreateDataset)
	dsets.Get("/:id", perm(permission.DatasetRead), datasetHandler.GetDataset)
	dsets.Put("/:id", perm(permission.DatasetUpdate), datasetHandler.UpdateDataset)
	dsets.Delete("/:id", perm(permission.DatasetDelete), datasetHandler.DeleteDataset)
	dsets.Post("/:id/execute", perm(permission.DatasetRead), datasetHandler.Execute)
	dsets.Post("/:id/share", perm(permission.DatasetShare), datasetHandler.ShareDataset)
	dsets.Delete("/:id/share", perm(permission.DatasetShare), datasetHandler.UnshareDataset)

	reports := t.Group("/reports")
	reports.Get("/", perm(permission.DatasetRead), datasetHandler.ListReports)
	reports.Post("/", perm(permission.DatasetCreate), datasetHandler.CreateReport)
	reports.Get("/:id", perm(permission.DatasetRead), datasetHandler.GetReport)
	reports.Delete("/:id", perm(permission.DatasetDelete), datasetHandler.DeleteReport)
	reports.Post("/:id/execute", perm(permission.DatasetRead), datasetHandler.ExecuteReport)
	reports.Post("/:id/share", perm(permission.DatasetShare), datasetHandler.ShareReport)
	reports.Delete("/:id/share", perm(permission.DatasetShare), datasetHandler.UnshareReport)

	qualityHandler := NewQualityHandler(deps.Quality)
	dq := t.Group("/data-quality", perm(permission.QualityRead))
	dq.Post("/validate", qualityHandler.Validate)
	dq.Post("/suggestions", qualityHandler.Suggestions)
	dq.Post("/report", qualityHandler.Report)
	dq.Post("/upload", qualityHandler.Upload)

	t.Post("/suggestions", NewSuggestionHandler(deps.Suggestions).Suggest)

	ob := NewOnboardingHandler(deps.OnboardingUC)
	t.Get("/onboarding/role-scenarios", ob.RoleScenarios)
	t.Get("/onboarding/role-dashboard", ob.RoleDashboard)
	t.Get("/onboarding/role-permissions", ob.RolePermissions)
	t.Get("/onboarding/checklist", ob.Checklist)
	t.Post("/onboarding/complete", ob.CompleteInit)
}
