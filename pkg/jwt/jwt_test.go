package jwt_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/riveredge/platform-kernel/pkg/jwt"
)

var opts = pkgjwt.Options{Secret: "test-secret", Issuer: "kernel-test", ExpMinutes: 60}

func payload(t *testing.T, tok string) map[string]any {
	t.Helper()
	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestGenerateTenant_ClaimsDeUsuario(t *testing.T) {
	tok, err := pkgjwt.GenerateTenant(opts, pkgjwt.TenantUser{
		UserID: 7, TenantID: 3, Username: "admin", IsTenantAdmin: true,
	}, pkgjwt.TypeAccess)
	require.NoError(t, err)

	claims, err := pkgjwt.Parse(opts.Secret, tok)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID())
	require.NotNil(t, claims.TenantID)
	assert.Equal(t, int64(3), *claims.TenantID)
	assert.True(t, claims.IsTenantAdmin)
	assert.False(t, claims.IsSuperAdmin)
	assert.Equal(t, "7", payload(t, tok)["sub"])
}

func TestGenerateSuperAdmin_SinTenantID(t *testing.T) {
	tok, err := pkgjwt.GenerateSuperAdmin(opts, 1, "root", pkgjwt.TypeAccess)
	require.NoError(t, err)

	p := payload(t, tok)
	assert.Equal(t, true, p["is_superadmin"])
	_, hasTenant := p["tenant_id"]
	assert.False(t, hasTenant, "superadmin token must not carry tenant_id")

	claims, err := pkgjwt.Parse(opts.Secret, tok)
	require.NoError(t, err)
	assert.True(t, claims.IsSuperAdmin)
	assert.Nil(t, claims.TenantID)
}

func TestParse_TokenExpirado(t *testing.T) {
	expired := opts
	expired.ExpMinutes = -1
	tok, err := pkgjwt.GenerateSuperAdmin(expired, 1, "root", pkgjwt.TypeAccess)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(opts.Secret, tok)
	assert.Error(t, err)
}

func TestParse_SecretIncorrecto(t *testing.T) {
	tok, err := pkgjwt.GenerateTenant(opts, pkgjwt.TenantUser{UserID: 1, TenantID: 1}, pkgjwt.TypeAccess)
	require.NoError(t, err)

	_, err = pkgjwt.Parse("otro-secret", tok)
	assert.Error(t, err)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := pkgjwt.GenerateSuperAdmin(pkgjwt.Options{}, 1, "root", pkgjwt.TypeAccess)
	assert.Error(t, err)
}
