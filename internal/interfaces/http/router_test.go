package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveredge/platform-kernel/internal/application/approval"
	"github.com/riveredge/platform-kernel/internal/application/apptest"
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
	"github.com/riveredge/platform-kernel/internal/infrastructure/cache"
	"github.com/riveredge/platform-kernel/internal/infrastructure/datasource"
	apphttp "github.com/riveredge/platform-kernel/internal/interfaces/http"
)

const (
	rootUser = "root"
	rootPass = "root-secret-123"
)

// buildRouterApp monta la API completa sobre el store en memoria.
func buildRouterApp(t *testing.T) *fiber.App {
	t.Helper()
	ctx := context.Background()
	store := apptest.NewStore()
	tx := apptest.NewTxRunner(store)
	kv := cache.NewLocal(time.Minute)

	tenantUC := tenant.NewTenantUseCase(store, tx, nil, tenant.Options{Hash: apptest.FastHash})
	authzUC := authz.NewAuthzUseCase(store, tx, kv, time.Minute, nil)
	authUC := auth.NewAuthUseCase(store, kv, authzUC,
		auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: 60, Issuer: testIssuer},
		auth.LockoutConfig{}, nil).WithHasher(apptest.FastHash)
	syncer := permsync.NewSyncer(store, kv, authzUC, nil)
	t.Cleanup(syncer.Wait)
	orgUC := org.NewOrgUseCase(org.Deps{
		Store: store, Tx: tx, Cache: kv, CacheTTL: time.Minute,
		Sync: syncer, Invalidator: authzUC, Hash: apptest.FastHash,
	})
	codes := codegen.NewCodeRuleUseCase(store, tx, time.UTC, nil)
	approvals := approval.NewApprovalUseCase(store, tx, nil, nil)
	docUC := document.NewDocumentUseCase(document.Deps{Store: store, Tx: tx, Numbers: codes, Approvals: approvals})
	for _, bt := range document.ApprovalTypes() {
		approvals.RegisterListener(bt, docUC)
	}
	datasetUC := dataset.NewDatasetUseCase(store, datasource.NewConnector(nil), kv, nil, nil,
		dataset.Options{QueryTimeout: time.Second, CacheTTL: time.Minute})
	t.Cleanup(datasetUC.Wait)

	_, err := tenantUC.EnsureDefaultTenant(ctx)
	require.NoError(t, err)
	_, err = authUC.EnsureSuperAdmin(ctx, rootUser, rootPass)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(nil)})
	apphttp.Router(app, apphttp.RouterDeps{
		TenantUC:     tenantUC,
		AuthUC:       authUC,
		AuthzUC:      authzUC,
		OrgUC:        orgUC,
		CodeRuleUC:   codes,
		MaterialUC:   material.NewMaterialUseCase(store, tx, codes, nil),
		DocumentUC:   docUC,
		ApprovalUC:   approvals,
		DatasetUC:    datasetUC,
		Quality:      quality.NewQualityService(nil, nil),
		Suggestions:  suggestion.NewEngine(store, nil),
		OnboardingUC: onboarding.NewOnboardingUseCase(store, tx, nil),
		Syncer:       syncer,
		JWTSecret:    testJWTSecret,
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func login(t *testing.T, app *fiber.App, path string, body map[string]any) string {
	t.Helper()
	status, out := call(t, app, http.MethodPost, path, "", body)
	require.Equal(t, http.StatusOK, status, out)
	tok, _ := out["access_token"].(string)
	require.NotEmpty(t, tok)
	return tok
}

// onboardTenant registra una organización, la aprueba y devuelve el token de su admin.
func onboardTenant(t *testing.T, app *fiber.App) (tenantID int64, adminToken, rootToken string) {
	t.Helper()
	status, out := call(t, app, http.MethodPost, "/api/v1/register/organization", "", map[string]any{
		"tenant_name": "Acme", "tenant_domain": "acme",
		"username": "admin", "password": "secret-123", "email": "admin@acme.test",
	})
	require.Equal(t, http.StatusCreated, status, out)
	tn := out["tenant"].(map[string]any)
	assert.Equal(t, "inactive", tn["status"])
	tenantID = int64(tn["id"].(float64))

	// Inactivo hasta la aprobación.
	status, _ = call(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"username": "admin", "password": "secret-123", "tenant_id": tenantID,
	})
	assert.Equal(t, http.StatusForbidden, status)

	rootToken = login(t, app, "/api/v1/superadmin/auth/login", map[string]any{"username": rootUser, "password": rootPass})
	status, out = call(t, app, http.MethodPost, "/api/v1/superadmin/tenants/"+strconv.FormatInt(tenantID, 10)+"/approve", rootToken, nil)
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, "active", out["status"])

	adminToken = login(t, app, "/api/v1/auth/login", map[string]any{
		"username": "admin", "password": "secret-123", "tenant_id": tenantID,
	})
	return tenantID, adminToken, rootToken
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo completo
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_RegistroAprobacionYLogin(t *testing.T) {
	app := buildRouterApp(t)
	tenantID, adminToken, rootToken := onboardTenant(t, app)

	status, out := call(t, app, http.MethodGet, "/api/v1/auth/me", adminToken, nil)
	require.Equal(t, http.StatusOK, status, out)

	status, out = call(t, app, http.MethodGet, "/api/v1/superadmin/tenants/"+strconv.FormatInt(tenantID, 10), rootToken, nil)
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, "acme", out["domain"])
}

func TestRouter_SeparacionPlataformaYTenant(t *testing.T) {
	app := buildRouterApp(t)
	_, adminToken, rootToken := onboardTenant(t, app)

	status, _ := call(t, app, http.MethodGet, "/api/v1/superadmin/tenants", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, out := call(t, app, http.MethodGet, "/api/v1/materials", rootToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "TENANT_REQUIRED", out["code"])

	status, _ = call(t, app, http.MethodGet, "/api/v1/materials", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRouter_UsuarioSinPermiso_Retorna403(t *testing.T) {
	app := buildRouterApp(t)
	tenantID, adminToken, _ := onboardTenant(t, app)

	status, out := call(t, app, http.MethodPost, "/api/v1/users", adminToken, map[string]any{
		"username": "bob", "password": "secret-123",
	})
	require.Equal(t, http.StatusCreated, status, out)

	bobToken := login(t, app, "/api/v1/auth/login", map[string]any{
		"username": "bob", "password": "secret-123", "tenant_id": tenantID,
	})
	status, out = call(t, app, http.MethodGet, "/api/v1/materials", bobToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", out["code"])
}

func TestRouter_MapeoDeErrores(t *testing.T) {
	app := buildRouterApp(t)
	_, adminToken, _ := onboardTenant(t, app)

	status, out := call(t, app, http.MethodGet, "/api/v1/materials/999", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", out["code"])

	status, _ = call(t, app, http.MethodGet, "/api/v1/materials/abc", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, out = call(t, app, http.MethodPost, "/api/v1/materials", adminToken, "{no-json")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INVALID_BODY", out["code"])

	status, _ = call(t, app, http.MethodGet, "/api/v1/datasets/shared?token=desconocido", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRouter_DominioDuplicado_Retorna409(t *testing.T) {
	app := buildRouterApp(t)
	onboardTenant(t, app)

	status, out := call(t, app, http.MethodGet, "/api/v1/register/check-domain?domain=acme", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, out["available"])

	status, out = call(t, app, http.MethodPost, "/api/v1/register/organization", "", map[string]any{
		"tenant_name": "Otra", "tenant_domain": "acme", "username": "owner", "password": "secret-123", "email": "owner@otra.test",
	})
	assert.Equal(t, http.StatusConflict, status)
	details, _ := out["details"].(map[string]any)
	assert.Equal(t, "tenant_exists", details["error"])
}
