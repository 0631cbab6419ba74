package dto

// CreateUserRequest alta de usuario por el administrador del tenant.
type CreateUserRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	Email         string `json:"email"`
	FullName      string `json:"full_name"`
	Phone         string `json:"phone"`
	DepartmentID  *int64 `json:"department_id"`
	PositionID    *int64 `json:"position_id"`
	IsTenantAdmin bool   `json:"is_tenant_admin"`
}

// UpdateUserRequest campos opcionales.
type UpdateUserRequest struct {
	Email        *string `json:"email,omitempty"`
	FullName     *string `json:"full_name,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	DepartmentID *int64  `json:"department_id,omitempty"`
	PositionID   *int64  `json:"position_id,omitempty"`
}

// CreateDepartmentRequest alta de departamento.
type CreateDepartmentRequest struct {
	ParentID  *int64 `json:"parent_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	ManagerID *int64 `json:"manager_id"`
	SortOrder int    `json:"sort_order"`
}

// CreatePositionRequest alta de puesto.
type CreatePositionRequest struct {
	DepartmentID *int64 `json:"department_id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	SortOrder    int    `json:"sort_order"`
}

// MenuRequest alta/actualización de menú.
type MenuRequest struct {
	ParentID        *int64         `json:"parent_id"`
	ApplicationCode string         `json:"application_code"`
	Name            string         `json:"name"`
	Path            string         `json:"path"`
	Icon            string         `json:"icon"`
	Meta            map[string]any `json:"meta"`
	PermissionCode  string         `json:"permission_code"`
	SortOrder       int            `json:"sort_order"`
	IsActive        *bool          `json:"is_active"`
}

// InstallApplicationRequest instala (o actualiza) una aplicación con su manifiesto.
type InstallApplicationRequest struct {
	Code     string         `json:"code"`
	Name     string         `json:"name"`
	Version  string         `json:"version"`
	Manifest map[string]any `json:"manifest"`
}

// CreateDictionaryRequest alta de diccionario.
type CreateDictionaryRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DictionaryItemRequest alta de item.
type DictionaryItemRequest struct {
	Label     string `json:"label"`
	Value     string `json:"value"`
	SortOrder int    `json:"sort_order"`
}
