package dto

// Scenario escenario de trabajo de un rol.
type Scenario struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Permissions []string `json:"permissions"`
}

// DashboardWidget bloque del tablero de un rol.
type DashboardWidget struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	API   string `json:"api"`
}

// RoleScenarios escenarios y tablero de un perfil de rol.
type RoleScenarios struct {
	Key         string            `json:"key"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Scenarios   []Scenario        `json:"scenarios"`
	Dashboard   []DashboardWidget `json:"dashboard"`
}

// RoleRef identificación resumida de un rol.
type RoleRef struct {
	ID   int64  `json:"id"`
	UUID string `json:"uuid"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// RoleScenariosResponse perfiles aplicables. Sin rol se devuelven todos.
type RoleScenariosResponse struct {
	Role      *RoleRef        `json:"role,omitempty"`
	Scenarios []RoleScenarios `json:"scenarios"`
}

// RoleDashboardResponse tablero del perfil del rol.
type RoleDashboardResponse struct {
	Role      *RoleRef          `json:"role,omitempty"`
	Profile   string            `json:"profile"`
	Dashboard []DashboardWidget `json:"dashboard"`
}

// RolePermissionsResponse permisos asignados a un rol junto a su perfil.
type RolePermissionsResponse struct {
	RoleID      int64    `json:"role_id"`
	RoleCode    string   `json:"role_code"`
	Profile     string   `json:"profile"`
	Permissions []string `json:"permissions"`
}

// ChecklistItem paso del checklist evaluado sobre datos reales.
type ChecklistItem struct {
	Key         string `json:"key"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Required    int    `json:"required"`
	Current     int    `json:"current"`
	Completed   bool   `json:"completed"`
	Action      string `json:"action,omitempty"`
}

// OnboardingChecklist progreso de puesta en marcha del tenant.
type OnboardingChecklist struct {
	TenantID      int64           `json:"tenant_id"`
	Profile       string          `json:"profile"`
	InitCompleted bool            `json:"init_completed"`
	Items         []ChecklistItem `json:"items"`
	Completed     int             `json:"completed"`
	Total         int             `json:"total"`
	Progress      float64         `json:"progress"`
}

// RoleQuery selector de rol por id o código (query string).
type RoleQuery struct {
	RoleID   int64  `query:"role_id"`
	RoleCode string `query:"role_code"`
}
