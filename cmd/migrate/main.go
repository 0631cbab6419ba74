// Command migrate aplica o revierte las migraciones embebidas del esquema.
//
//	migrate            aplica las pendientes
//	migrate --down 1   revierte la última
//	migrate --status   lista versiones y su estado
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/riveredge/platform-kernel/internal/infrastructure/postgres"
	"github.com/riveredge/platform-kernel/pkg/config"
	"github.com/riveredge/platform-kernel/pkg/logger"
)

func main() {
	down := pflag.Int("down", 0, "número de migraciones a revertir")
	status := pflag.Bool("status", false, "mostrar el estado de cada migración")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{App: cfg.App.Name, Env: cfg.App.Env, Level: cfg.App.LogLevel}).Component("migrate")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	m := postgres.NewMigrator(pool, log)
	switch {
	case *status:
		migrations, err := postgres.LoadMigrations()
		if err != nil {
			log.Fatal().Err(err).Msg("leer migraciones")
		}
		applied, err := m.Applied(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("leer schema_migrations")
		}
		for _, mg := range migrations {
			state := "pending"
			if applied[mg.Version] {
				state = "applied"
			}
			fmt.Printf("%-8s %s\n", state, mg.Version)
		}
	case *down > 0:
		n, err := m.Down(ctx, *down)
		if err != nil {
			log.Fatal().Err(err).Msg("revertir migraciones")
		}
		log.Info().Int("reverted", n).Msg("migraciones revertidas")
	default:
		n, err := m.Up(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("aplicar migraciones")
		}
		log.Info().Int("applied", n).Msg("migraciones aplicadas")
	}
}
