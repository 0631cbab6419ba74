package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/riveredge/platform-kernel/internal/application/authz"
	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/application/org"
	"github.com/riveredge/platform-kernel/internal/application/permsync"
)

// IdentityHandler usuarios, roles y permisos del tenant.
type IdentityHandler struct {
	org   *org.OrgUseCase
	authz *authz.AuthzUseCase
	sync  *permsync.Syncer
}

// NewIdentityHandler construye el handler.
func NewIdentityHandler(o *org.OrgUseCase, az *authz.AuthzUseCase, s *permsync.Syncer) *IdentityHandler {
	return &IdentityHandler{org: o, authz: az, sync: s}
}

// CreateUser godoc
// @Summary      Crear usuario del tenant
// @Tags         users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateUserRequest  true  "usuario"
// @Success      201   {object}  entity.User
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/v1/users [post]
func (h *IdentityHandler) CreateUser(c *fiber.Ctx) error {
	var in dto.CreateUserRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.org.CreateUser(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListUsers godoc
// @Summary      Listar usuarios del tenant
// @Tags         users
// @Security     Bearer
// @Produce      json
// @Param        skip     query  int     false  "desplazamiento"
// @Param        limit    query  int     false  "límite"
// @Param        keyword  query  string  false  "usuario, nombre o email"
// @Success      200  {object}  dto.ListResponse[entity.User]
// @Router       /api/v1/users [get]
func (h *IdentityHandler) ListUsers(c *fiber.Ctx) error {
	out, err := h.org.ListUsers(c.UserContext(), GetTenantID(c), pageQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *IdentityHandler) GetUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.org.GetUser(c.UserContext(), GetTenantID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *IdentityHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.UpdateUserRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.org.UpdateUser(c.UserContext(), GetTenantID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ActivateUser activa a un usuario pendiente (solicitud de unión).
func (h *IdentityHandler) ActivateUser(c *fiber.Ctx) error {
	return h.setActive(c, true)
}

// DeactivateUser desactiva a un usuario.
func (h *IdentityHandler) DeactivateUser(c *fiber.Ctx) error {
	return h.setActive(c, false)
}

func (h *IdentityHandler) setActive(c *fiber.Ctx, active bool) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.org.SetUserActive(c.UserContext(), GetTenantID(c), id, active)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *IdentityHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.org.DeleteUser(c.UserContext(), GetTenantID(c), GetUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UserRoles roles vigentes de un usuario.
func (h *IdentityHandler) UserRoles(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.authz.UserRoles(c.UserContext(), GetTenantID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// SetUserRoles reemplaza los roles de un usuario.
func (h *IdentityHandler) SetUserRoles(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.AssignRolesRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.authz.SetUserRoles(c.UserContext(), GetTenantID(c), id, in.RoleIDs); err != nil {
		return respondError(c, err)
	}
	return ok(c, "角色已分配")
}

// ---------------------------------------------------------------------------
// Roles
// ---------------------------------------------------------------------------

func (h *IdentityHandler) ListRoles(c *fiber.Ctx) error {
	out, err := h.authz.ListRoles(c.UserContext(), GetTenantID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *IdentityHandler) GetRole(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.authz.GetRole(c.UserContext(), GetTenantID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *IdentityHandler) CreateRole(c *fiber.Ctx) error {
	var in dto.CreateRoleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.authz.CreateRole(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *IdentityHandler) UpdateRole(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.UpdateRoleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.authz.UpdateRole(c.UserContext(), GetTenantID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *IdentityHandler) DeleteRole(c *fiber.Ctx) error {
	return deleteByID(c, h.authz.DeleteRole)
}

// SetRolePermissions reemplaza los permisos de un rol.
func (h *IdentityHandler) SetRolePermissions(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.AssignPermissionsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.authz.SetRolePermissions(c.UserContext(), GetTenantID(c), id, in.PermissionIDs); err != nil {
		return respondError(c, err)
	}
	return ok(c, "权限已分配")
}

// ---------------------------------------------------------------------------
// Permisos
// ---------------------------------------------------------------------------

// ListPermissions permisos del tenant; ?permission_type=function|data|field.
func (h *IdentityHandler) ListPermissions(c *fiber.Ctx) error {
	out, err := h.authz.ListPermissions(c.UserContext(), GetTenantID(c), c.Query("permission_type"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// SyncPermissions sincroniza los puntos de permiso declarados; ?force=true omite el throttle.
func (h *IdentityHandler) SyncPermissions(c *fiber.Ctx) error {
	out, err := h.sync.Sync(c.UserContext(), GetTenantID(c), c.QueryBool("force", false))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
