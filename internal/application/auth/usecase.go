// Package auth login de usuarios de tenant y de superadmin, renovación de tokens y /me.
package auth

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/riveredge/platform-kernel/internal/application/dto"
	"github.com/riveredge/platform-kernel/internal/application/ports"
	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
	"github.com/riveredge/platform-kernel/pkg/jwt"
	"github.com/riveredge/platform-kernel/pkg/logger"
	"github.com/riveredge/platform-kernel/pkg/password"
)

const tokenType = "bearer"

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret            string
	ExpMinutes        int
	RefreshExpMinutes int
	Issuer            string
}

func (c JWTConfig) access() jwt.Options {
	return jwt.Options{Secret: c.Secret, Issuer: c.Issuer, ExpMinutes: c.ExpMinutes}
}

func (c JWTConfig) refresh() jwt.Options {
	exp := c.RefreshExpMinutes
	if exp <= 0 {
		exp = c.ExpMinutes * 7
	}
	return jwt.Options{Secret: c.Secret, Issuer: c.Issuer, ExpMinutes: exp}
}

// LockoutConfig bloqueo por intentos fallidos. MaxAttempts = 0 lo desactiva.
type LockoutConfig struct {
	MaxAttempts int
	Window      time.Duration
}

// PermissionLoader permisos efectivos de un usuario (lo implementa authz).
type PermissionLoader interface {
	UserPermissions(ctx context.Context, tenantID, userID int64) ([]string, error)
}

// AuthUseCase casos de uso de autenticación.
type AuthUseCase struct {
	store   repository.Store
	cache   ports.Cache
	perms   PermissionLoader
	jwtCfg  JWTConfig
	lockout LockoutConfig
	log     *logger.Logger
	now     func() time.Time
	hash    func(string) (string, error)
}

// NewAuthUseCase construye el caso de uso de auth. cache puede ser nil si el bloqueo está desactivado.
func NewAuthUseCase(store repository.Store, cache ports.Cache, perms PermissionLoader, jwtCfg JWTConfig, lockout LockoutConfig, log *logger.Logger) *AuthUseCase {
	return &AuthUseCase{
		store:   store,
		cache:   cache,
		perms:   perms,
		jwtCfg:  jwtCfg,
		lockout: lockout,
		log:     logger.OrNop(log).Component("auth"),
		now:     func() time.Time { return time.Now().UTC() },
		hash:    password.Hash,
	}
}

// WithHasher reemplaza la función de hash (bootstrap de superadmin).
func (uc *AuthUseCase) WithHasher(h func(string) (string, error)) *AuthUseCase {
	uc.hash = h
	return uc
}

func attemptsKey(username string) string {
	return ports.CacheKey("auth", 0, "login_attempts", strings.ToLower(username))
}

func (uc *AuthUseCase) lockoutEnabled() bool {
	return uc.lockout.MaxAttempts > 0 && uc.cache != nil
}

func (uc *AuthUseCase) checkLocked(ctx context.Context, username string) error {
	if !uc.lockoutEnabled() {
		return nil
	}
	var n int64
	found, err := uc.cache.Get(ctx, attemptsKey(username), &n)
	if err != nil {
		uc.log.Warn().Err(err).Msg("no se pudo leer el contador de intentos")
		return nil
	}
	if found && n >= int64(uc.lockout.MaxAttempts) {
		return domain.Forbidden("登录失败次数过多，请稍后再试")
	}
	return nil
}

func (uc *AuthUseCase) recordFailure(ctx context.Context, username string) {
	if !uc.lockoutEnabled() {
		return
	}
	n, err := uc.cache.Incr(ctx, attemptsKey(username), uc.lockout.Window)
	if err != nil {
		uc.log.Warn().Err(err).Msg("no se pudo incrementar el contador de intentos")
		return
	}
	if n >= int64(uc.lockout.MaxAttempts) {
		uc.log.Warn().Str("username", username).Int64("attempts", n).Msg("cuenta bloqueada temporalmente")
	}
}

func (uc *AuthUseCase) resetFailures(ctx context.Context, username string) {
	if !uc.lockoutEnabled() {
		return
	}
	if err := uc.cache.Delete(ctx, attemptsKey(username)); err != nil {
		uc.log.Warn().Err(err).Msg("no se pudo limpiar el contador de intentos")
	}
}

func invalidCredentials() error { return domain.Unauthorized("用户名或密码错误") }

// Login verifica credenciales y emite el par de tokens. Si el username existe en varios
// tenants y no se indica tenant_id, se emite para el primero y se marca
// requires_tenant_selection. Los administradores de plataforma tienen prioridad.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.TokenResponse, error) {
	if strings.TrimSpace(in.Username) == "" || in.Password == "" {
		return nil, domain.Validation("用户名和密码不能为空")
	}
	if err := uc.checkLocked(ctx, in.Username); err != nil {
		return nil, err
	}
	candidates, err := uc.candidates(ctx, in)
	if err != nil {
		return nil, err
	}
	var matched []*entity.User
	for _, u := range candidates {
		ok, err := password.Compare(in.Password, u.PasswordHash)
		if err != nil {
			uc.log.Warn().Int64("user_id", u.ID).Err(err).Msg("hash de contraseña ilegible")
			continue
		}
		if ok {
			matched = append(matched, u)
		}
	}
	if len(matched) == 0 {
		uc.recordFailure(ctx, in.Username)
		uc.log.Info().Str("username", in.Username).Msg("login rechazado")
		return nil, invalidCredentials()
	}

	user := matched[0]
	if !user.IsActive {
		return nil, domain.Forbidden("用户未激活")
	}
	tenants := make([]dto.TenantSummary, 0, len(matched))
	var current *entity.Tenant
	for _, u := range matched {
		t, err := uc.store.Tenants().GetByID(ctx, u.TenantID)
		if err != nil {
			return nil, err
		}
		if t == nil {
			continue
		}
		tenants = append(tenants, toTenantSummary(t))
		if u.ID == user.ID {
			current = t
		}
	}
	if current == nil {
		return nil, domain.Forbidden("用户所属组织不存在")
	}
	if !current.IsActive() && current.Domain != entity.DefaultTenantDomain && !user.IsPlatformAdmin {
		return nil, domain.Forbidden("组织未激活")
	}

	now := uc.now()
	user.LastLoginAt = &now
	if err := uc.store.Users().Update(ctx, user); err != nil {
		uc.log.Warn().Int64("user_id", user.ID).Err(err).Msg("no se pudo registrar last_login_at")
	}
	uc.resetFailures(ctx, in.Username)

	res, err := uc.issueTenant(user)
	if err != nil {
		return nil, err
	}
	res.Tenants = tenants
	tid := current.ID
	res.DefaultTenantID = &tid
	res.RequiresTenantSelection = in.TenantID == nil && len(matched) > 1
	uc.log.Info().Int64("tenant_id", current.ID).Int64("user_id", user.ID).Msg("login correcto")
	return res, nil
}

func (uc *AuthUseCase) candidates(ctx context.Context, in dto.LoginRequest) ([]*entity.User, error) {
	if in.TenantID != nil {
		u, err := uc.store.Users().GetByUsername(ctx, *in.TenantID, in.Username)
		if err != nil || u == nil {
			return nil, err
		}
		return []*entity.User{u}, nil
	}
	users, err := uc.store.Users().FindByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].IsPlatformAdmin != users[j].IsPlatformAdmin {
			return users[i].IsPlatformAdmin
		}
		return users[i].TenantID < users[j].TenantID
	})
	return users, nil
}

func (uc *AuthUseCase) issueTenant(u *entity.User) (*dto.TokenResponse, error) {
	claims := jwt.TenantUser{
		UserID:          u.ID,
		TenantID:        u.TenantID,
		Username:        u.Username,
		IsPlatformAdmin: u.IsPlatformAdmin,
		IsTenantAdmin:   u.IsTenantAdmin,
	}
	access, err := jwt.GenerateTenant(uc.jwtCfg.access(), claims, jwt.TypeAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := jwt.GenerateTenant(uc.jwtCfg.refresh(), claims, jwt.TypeRefresh)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenType,
		ExpiresIn:    uc.jwtCfg.ExpMinutes * 60,
		User:         ToUserInfo(u),
	}, nil
}

func (uc *AuthUseCase) issueSuperAdmin(a *entity.SuperAdmin) (*dto.TokenResponse, error) {
	access, err := jwt.GenerateSuperAdmin(uc.jwtCfg.access(), a.ID, a.Username, jwt.TypeAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := jwt.GenerateSuperAdmin(uc.jwtCfg.refresh(), a.ID, a.Username, jwt.TypeRefresh)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenType,
		ExpiresIn:    uc.jwtCfg.ExpMinutes * 60,
		User:         toSuperAdminInfo(a),
	}, nil
}

// SuperAdminLogin login de operador de plataforma (token sin tenant_id).
func (uc *AuthUseCase) SuperAdminLogin(ctx context.Context, username, plain string) (*dto.TokenResponse, error) {
	if strings.TrimSpace(username) == "" || plain == "" {
		return nil, domain.Validation("用户名和密码不能为空")
	}
	if err := uc.checkLocked(ctx, "superadmin:"+username); err != nil {
		return nil, err
	}
	a, err := uc.store.SuperAdmins().GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if a == nil {
		uc.recordFailure(ctx, "superadmin:"+username)
		return nil, invalidCredentials()
	}
	ok, err := password.Compare(plain, a.PasswordHash)
	if err != nil || !ok {
		uc.recordFailure(ctx, "superadmin:"+username)
		return nil, invalidCredentials()
	}
	if !a.IsActive {
		return nil, domain.Forbidden("用户未激活")
	}
	now := uc.now()
	a.LastLoginAt = &now
	if err := uc.store.SuperAdmins().Update(ctx, a); err != nil {
		uc.log.Warn().Int64("admin_id", a.ID).Err(err).Msg("no se pudo registrar last_login_at")
	}
	uc.resetFailures(ctx, "superadmin:"+username)
	uc.log.Info().Int64("admin_id", a.ID).Msg("login de superadmin")
	return uc.issueSuperAdmin(a)
}

// Refresh valida un refresh token y emite un par nuevo con los datos actuales del usuario.
func (uc *AuthUseCase) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := jwt.Parse(uc.jwtCfg.Secret, refreshToken)
	if err != nil || claims.Type != jwt.TypeRefresh {
		return nil, domain.Unauthorized("刷新令牌无效或已过期")
	}
	if claims.IsSuperAdmin {
		a, err := uc.store.SuperAdmins().GetByID(ctx, claims.UserID())
		if err != nil {
			return nil, err
		}
		if a == nil || !a.IsActive {
			return nil, domain.Unauthorized("用户不存在或未激活")
		}
		return uc.issueSuperAdmin(a)
	}
	u, err := uc.store.Users().GetByID(ctx, *claims.TenantID, claims.UserID())
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive {
		return nil, domain.Unauthorized("用户不存在或未激活")
	}
	res, err := uc.issueTenant(u)
	if err != nil {
		return nil, err
	}
	tid := u.TenantID
	res.DefaultTenantID = &tid
	return res, nil
}

// Me devuelve el usuario actual, su tenant y sus permisos efectivos.
func (uc *AuthUseCase) Me(ctx context.Context, tenantID, userID int64) (*dto.MeResponse, error) {
	u, err := uc.store.Users().GetByID(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("用户", userID)
	}
	res := &dto.MeResponse{User: ToUserInfo(u), Permissions: []string{}}
	t, err := uc.store.Tenants().GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if t != nil {
		s := toTenantSummary(t)
		res.Tenant = &s
	}
	if uc.perms != nil {
		codes, err := uc.perms.UserPermissions(ctx, tenantID, userID)
		if err != nil {
			return nil, err
		}
		res.Permissions = codes
	}
	return res, nil
}

// SuperAdminMe datos del superadmin autenticado.
func (uc *AuthUseCase) SuperAdminMe(ctx context.Context, adminID int64) (*dto.MeResponse, error) {
	a, err := uc.store.SuperAdmins().GetByID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.NotFound("超级管理员", adminID)
	}
	return &dto.MeResponse{User: toSuperAdminInfo(a), Permissions: []string{}}, nil
}

// EnsureSuperAdmin crea el superadmin inicial si no existe (arranque).
func (uc *AuthUseCase) EnsureSuperAdmin(ctx context.Context, username, plain string) (bool, error) {
	if username == "" || plain == "" {
		return false, nil
	}
	existing, err := uc.store.SuperAdmins().GetByUsername(ctx, username)
	if err != nil || existing != nil {
		return false, err
	}
	hash, err := uc.hash(plain)
	if err != nil {
		return false, err
	}
	a := &entity.SuperAdmin{Username: username, PasswordHash: hash, IsActive: true, FullName: "Platform Admin"}
	if err := uc.store.SuperAdmins().Create(ctx, a); err != nil {
		return false, err
	}
	uc.log.Info().Str("username", username).Msg("superadmin inicial creado")
	return true, nil
}

// ToUserInfo proyección pública de un usuario de tenant.
func ToUserInfo(u *entity.User) dto.UserInfo {
	tid := u.TenantID
	return dto.UserInfo{
		ID:              u.ID,
		UUID:            u.UUID,
		Username:        u.Username,
		Email:           u.Email,
		FullName:        u.FullName,
		TenantID:        &tid,
		IsActive:        u.IsActive,
		IsPlatformAdmin: u.IsPlatformAdmin,
		IsTenantAdmin:   u.IsTenantAdmin,
		LastLoginAt:     u.LastLoginAt,
	}
}

func toSuperAdminInfo(a *entity.SuperAdmin) dto.UserInfo {
	return dto.UserInfo{
		ID:           a.ID,
		UUID:         a.UUID,
		Username:     a.Username,
		Email:        a.Email,
		FullName:     a.FullName,
		IsActive:     a.IsActive,
		IsSuperAdmin: true,
		LastLoginAt:  a.LastLoginAt,
	}
}

func toTenantSummary(t *entity.Tenant) dto.TenantSummary {
	return dto.TenantSummary{ID: t.ID, Name: t.Name, Domain: t.Domain, Status: t.Status}
}
