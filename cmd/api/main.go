package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

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
	"github.com/riveredge/platform-kernel/internal/application/ports"
	"github.com/riveredge/platform-kernel/internal/application/quality"
	"github.com/riveredge/platform-kernel/internal/application/suggestion"
	"github.com/riveredge/platform-kernel/internal/application/tenant"
	"github.com/riveredge/platform-kernel/internal/infrastructure/cache"
	"github.com/riveredge/platform-kernel/internal/infrastructure/datasource"
	infrapdf "github.com/riveredge/platform-kernel/internal/infrastructure/pdf"
	"github.com/riveredge/platform-kernel/internal/infrastructure/postgres"
	"github.com/riveredge/platform-kernel/internal/infrastructure/websocket"
	httpRouter "github.com/riveredge/platform-kernel/internal/interfaces/http"
	"github.com/riveredge/platform-kernel/pkg/config"
	"github.com/riveredge/platform-kernel/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		App:   cfg.App.Name,
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	applied, err := postgres.NewMigrator(pool, log).Up(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}
	log.Info().Int("applied", applied).Msg("esquema actualizado")

	store := postgres.NewStore(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Caché: redis si hay URL, si no en proceso (una sola réplica).
	var kv ports.Cache
	if cfg.Cache.URL != "" {
		client, err := cache.NewRedisClient(cfg.Cache.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("configuración de redis")
		}
		rc := cache.NewRedis(client, cfg.Cache.TTL())
		if err := rc.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("conexión a redis")
		}
		defer rc.Close()
		kv = rc
	} else {
		log.Warn().Msg("CACHE_URL vacío: caché en proceso")
		kv = cache.NewLocal(cfg.Cache.TTL())
	}

	origins := splitOrigins(cfg.HTTP.CORSOrigins)
	hub := websocket.NewHub(websocket.JWTAuth(cfg.JWT.Secret), origins, log)
	defer hub.Close()

	tenantUC := tenant.NewTenantUseCase(store, txRunner, log, tenant.Options{
		PasswordMinLength: cfg.Auth.PasswordMinLength,
	})
	authzUC := authz.NewAuthzUseCase(store, txRunner, kv, cfg.Cache.TTL(), log)
	authUC := auth.NewAuthUseCase(store, kv, authzUC, auth.JWTConfig{
		Secret:            cfg.JWT.Secret,
		ExpMinutes:        cfg.JWT.Expiration,
		RefreshExpMinutes: cfg.JWT.RefreshExpiration,
		Issuer:            cfg.JWT.Issuer,
	}, auth.LockoutConfig{
		MaxAttempts: cfg.Auth.MaxLoginAttempts,
		Window:      time.Duration(cfg.Auth.LockoutMinutes) * time.Minute,
	}, log)

	syncer := permsync.NewSyncer(store, kv, authzUC, log)
	scheduler, err := permsync.NewScheduler(cfg.Sync.PermissionCron, syncer)
	if err != nil {
		log.Fatal().Err(err).Str("spec", cfg.Sync.PermissionCron).Msg("programación de sincronización de permisos")
	}

	orgUC := org.NewOrgUseCase(org.Deps{
		Store:             store,
		Tx:                txRunner,
		Cache:             kv,
		CacheTTL:          cfg.Cache.TTL(),
		Sync:              syncer,
		Invalidator:       authzUC,
		Log:               log,
		PasswordMinLength: cfg.Auth.PasswordMinLength,
	})

	codeRuleUC := codegen.NewCodeRuleUseCase(store, txRunner, cfg.App.Location(), log)
	materialUC := material.NewMaterialUseCase(store, txRunner, codeRuleUC, log)
	approvalUC := approval.NewApprovalUseCase(store, txRunner, hub, log)
	documentUC := document.NewDocumentUseCase(document.Deps{
		Store:     store,
		Tx:        txRunner,
		Numbers:   codeRuleUC,
		Approvals: approvalUC,
		Events:    hub,
		Log:       log,
		Location:  cfg.App.Location(),
	})
	for _, bt := range document.ApprovalTypes() {
		approvalUC.RegisterListener(bt, documentUC)
	}

	datasetUC := dataset.NewDatasetUseCase(store, datasource.NewConnector(log), kv, hub, log, dataset.Options{
		QueryTimeout: cfg.Dataset.QueryTimeout(),
		CacheTTL:     cfg.Cache.TTL(),
	})

	// PDF: la fuente CJK es opcional; sin ella el renderer usa la fuente por defecto.
	var renderer ports.ReportRenderer
	if r, err := infrapdf.NewQualityReportRenderer(os.Getenv("PDF_FONT_PATH")); err != nil {
		log.Warn().Err(err).Msg("renderer PDF deshabilitado")
	} else {
		renderer = r
	}
	qualitySvc := quality.NewQualityService(renderer, log)
	suggestionEngine := suggestion.NewEngine(store, log)
	onboardingUC := onboarding.NewOnboardingUseCase(store, txRunner, log)

	if _, err := tenantUC.EnsureDefaultTenant(ctx); err != nil {
		log.Fatal().Err(err).Msg("organización por defecto")
	}
	if cfg.Platform.SuperAdminUsername != "" && cfg.Platform.SuperAdminPassword != "" {
		created, err := authUC.EnsureSuperAdmin(ctx, cfg.Platform.SuperAdminUsername, cfg.Platform.SuperAdminPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("superadmin inicial")
		}
		if created {
			log.Info().Str("username", cfg.Platform.SuperAdminUsername).Msg("superadmin creado")
		}
	}
	scheduler.Start()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.Dataset.QueryTimeout() + 5*time.Second,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Share-Token",
	}))

	// Swagger UI en local: http://localhost:<port>/docs (requiere `swag init`).
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Platform Kernel API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "ws": hub.Stats()})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		TenantUC:     tenantUC,
		AuthUC:       authUC,
		AuthzUC:      authzUC,
		OrgUC:        orgUC,
		CodeRuleUC:   codeRuleUC,
		MaterialUC:   materialUC,
		DocumentUC:   documentUC,
		ApprovalUC:   approvalUC,
		DatasetUC:    datasetUC,
		Quality:      qualitySvc,
		Suggestions:  suggestionEngine,
		OnboardingUC: onboardingUC,
		Syncer:       syncer,
		JWTSecret:    cfg.JWT.Secret,
	})

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	wsServer := &http.Server{
		Addr:              cfg.HTTP.WSAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()
	go func() {
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("servidor WebSocket finalizado")
		}
	}()
	log.Info().Str("http", cfg.HTTP.Addr()).Str("ws", cfg.HTTP.WSAddr()).Msg("escuchando")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	scheduler.Stop()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor WebSocket")
	}
	syncer.Wait()
	datasetUC.Wait()

	log.Info().Msg("aplicación detenida")
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		out = []string{"*"}
	}
	return out
}
