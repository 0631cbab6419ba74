package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/riveredge/platform-kernel/internal/application/auth"
	"github.com/riveredge/platform-kernel/internal/application/authz"
	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/domain"
)

// AuthHandler login, refresh y datos del usuario autenticado.
type AuthHandler struct {
	uc    *auth.AuthUseCase
	authz *authz.AuthzUseCase
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase, az *authz.AuthzUseCase) *AuthHandler {
	return &AuthHandler{uc: uc, authz: az}
}

// Login godoc
// @Summary      Iniciar sesión de usuario de tenant
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "username, password, tenant_id opcional"
// @Success      200   {object}  dto.TokenResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.Username == "" || in.Password == "" {
		return respondError(c, domain.Validation("用户名和密码不能为空"))
	}
	out, err := h.uc.Login(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Refresh godoc
// @Summary      Renovar tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RefreshRequest  true  "refresh_token"
// @Success      200   {object}  dto.TokenResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var in dto.RefreshRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Refresh(c.UserContext(), in.RefreshToken)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// SuperAdminLogin godoc
// @Summary      Iniciar sesión de superadmin (token sin tenant_id)
// @Tags         superadmin
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "username, password"
// @Success      200   {object}  dto.TokenResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/v1/superadmin/auth/login [post]
func (h *AuthHandler) SuperAdminLogin(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.SuperAdminLogin(c.UserContext(), in.Username, in.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Me godoc
// @Summary      Usuario actual con permisos efectivos
// @Tags         auth
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.MeResponse
// @Router       /api/v1/auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	var (
		out *dto.MeResponse
		err error
	)
	if IsSuperAdmin(c) {
		out, err = h.uc.SuperAdminMe(c.UserContext(), GetUserID(c))
	} else {
		out, err = h.uc.Me(c.UserContext(), GetTenantID(c), GetUserID(c))
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// MyPermissions códigos efectivos del usuario actual.
func (h *AuthHandler) MyPermissions(c *fiber.Ctx) error {
	codes, err := h.authz.UserPermissions(c.UserContext(), GetTenantID(c), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"permissions": codes})
}
