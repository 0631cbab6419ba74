package jwt

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the "typ" claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims incluye los claims estándar JWT más los campos propios de la plataforma.
// Un token de superadmin lleva IsSuperAdmin=true y nunca TenantID.
type Claims struct {
	jwt.RegisteredClaims
	TenantID        *int64 `json:"tenant_id,omitempty"`
	Username        string `json:"username"`
	IsPlatformAdmin bool   `json:"is_platform_admin,omitempty"`
	IsTenantAdmin   bool   `json:"is_tenant_admin,omitempty"`
	IsSuperAdmin    bool   `json:"is_superadmin,omitempty"`
	Type            string `json:"typ,omitempty"`
}

// UserID devuelve el sub como entero.
func (c *Claims) UserID() int64 {
	id, _ := strconv.ParseInt(c.Subject, 10, 64)
	return id
}

// Options parámetros comunes de firma.
type Options struct {
	Secret     string
	Issuer     string
	ExpMinutes int
}

// TenantUser datos del usuario de tenant a firmar.
type TenantUser struct {
	UserID          int64
	TenantID        int64
	Username        string
	IsPlatformAdmin bool
	IsTenantAdmin   bool
}

// GenerateTenant firma un token de usuario de tenant.
func GenerateTenant(opts Options, u TenantUser, tokenType string) (string, error) {
	tenantID := u.TenantID
	return sign(opts, Claims{
		RegisteredClaims: registered(opts, u.UserID),
		TenantID:         &tenantID,
		Username:         u.Username,
		IsPlatformAdmin:  u.IsPlatformAdmin,
		IsTenantAdmin:    u.IsTenantAdmin,
		Type:             tokenType,
	})
}

// GenerateSuperAdmin firma un token de superadmin (sin tenant_id).
func GenerateSuperAdmin(opts Options, adminID int64, username, tokenType string) (string, error) {
	return sign(opts, Claims{
		RegisteredClaims: registered(opts, adminID),
		Username:         username,
		IsSuperAdmin:     true,
		Type:             tokenType,
	})
}

func registered(opts Options, subject int64) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Issuer:    opts.Issuer,
		Subject:   strconv.FormatInt(subject, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(opts.ExpMinutes) * time.Minute)),
	}
}

func sign(opts Options, claims Claims) (string, error) {
	if opts.Secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(opts.Secret))
}

// Parse valida firma y expiración y devuelve los claims.
func Parse(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("claims inválidos")
	}
	if claims.IsSuperAdmin && claims.TenantID != nil {
		return nil, fmt.Errorf("token de superadmin con tenant_id")
	}
	if !claims.IsSuperAdmin && claims.TenantID == nil {
		return nil, fmt.Errorf("token sin tenant_id")
	}
	return claims, nil
}
