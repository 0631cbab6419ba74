package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/pkg/jwt"
)

// Locals keys del contexto de la petición.
const (
	LocalUserID      = "user_id"
	LocalTenantID    = "tenant_id"
	LocalSuperAdmin  = "is_superadmin"
	LocalTenantAdmin = "is_tenant_admin"
	LocalUsername    = "username"
)

// PermissionChecker resuelve si un usuario del tenant tiene un código de permiso (authz).
type PermissionChecker interface {
	HasPermission(ctx context.Context, tenantID, userID int64, code string) (bool, error)
}

func unauthorized(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

// AuthMiddleware valida el Bearer Token JWT y carga en c.Locals el usuario, el tenant
// (si lo hay) y la marca de superadmin. Los refresh tokens no autentican peticiones.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "MISSING_TOKEN", "缺少 Authorization 头")
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return unauthorized(c, "INVALID_TOKEN", "格式: Bearer <token>")
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return unauthorized(c, "MISSING_TOKEN", "token 为空")
		}
		claims, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil || claims.Type == jwt.TypeRefresh {
			return unauthorized(c, "INVALID_TOKEN", "token 无效或已过期")
		}
		c.Locals(LocalUserID, claims.UserID())
		c.Locals(LocalUsername, claims.Username)
		c.Locals(LocalSuperAdmin, claims.IsSuperAdmin)
		c.Locals(LocalTenantAdmin, claims.IsTenantAdmin)
		if claims.TenantID != nil {
			c.Locals(LocalTenantID, *claims.TenantID)
		}
		return c.Next()
	}
}

// RequireSuperAdmin solo deja pasar tokens de superadmin.
func RequireSuperAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !IsSuperAdmin(c) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "需要平台超级管理员权限"})
		}
		return c.Next()
	}
}

// RequireTenant rechaza tokens sin tenant_id (los endpoints de negocio son siempre de un tenant).
func RequireTenant() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := tenantOf(c); !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "TENANT_REQUIRED", Message: "缺少组织上下文"})
		}
		return c.Next()
	}
}

// RequirePermission exige el código de permiso. El superadmin y el administrador
// del tenant no se filtran.
func RequirePermission(checker PermissionChecker, code string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if IsSuperAdmin(c) || IsTenantAdmin(c) {
			return c.Next()
		}
		tenantID, ok := tenantOf(c)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "TENANT_REQUIRED", Message: "缺少组织上下文"})
		}
		allowed, err := checker.HasPermission(c.UserContext(), tenantID, GetUserID(c), code)
		if err != nil {
			return respondError(c, err)
		}
		if !allowed {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "缺少权限: " + code})
		}
		return c.Next()
	}
}

// GetUserID devuelve el sub del token (después del middleware de auth).
func GetUserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(LocalUserID).(int64)
	return id
}

// GetTenantID devuelve el tenant del token; 0 para superadmin.
func GetTenantID(c *fiber.Ctx) int64 {
	id, _ := tenantOf(c)
	return id
}

func tenantOf(c *fiber.Ctx) (int64, bool) {
	id, ok := c.Locals(LocalTenantID).(int64)
	return id, ok && id > 0
}

// IsSuperAdmin indica si el token es de superadmin.
func IsSuperAdmin(c *fiber.Ctx) bool {
	v, _ := c.Locals(LocalSuperAdmin).(bool)
	return v
}

// IsTenantAdmin indica si el usuario administra su tenant.
func IsTenantAdmin(c *fiber.Ctx) bool {
	v, _ := c.Locals(LocalTenantAdmin).(bool)
	return v
}

func userPtr(c *fiber.Ctx) *int64 {
	id := GetUserID(c)
	return &id
}
