package postgres

import (
	"context"
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/riveredge/platform-kernel/pkg/logger"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// Migration par up/down identificado por "YYYYMMDDHHMMSS_nombre".
type Migration struct {
	Version string
	Up      string
	Down    string
}

// Migrator aplica las migraciones embebidas registrándolas en schema_migrations.
type Migrator struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewMigrator construye el migrador sobre el pool.
func NewMigrator(pool *pgxpool.Pool, log *logger.Logger) *Migrator {
	return &Migrator{pool: pool, log: logger.OrNop(log).Component("migrate")}
}

// LoadMigrations lee y ordena las migraciones embebidas.
func LoadMigrations() ([]Migration, error) {
	entries, err := embeddedMigrations.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("leer migraciones: %w", err)
	}
	byVersion := map[string]*Migration{}
	for _, e := range entries {
		name := e.Name()
		var version string
		var up bool
		switch {
		case strings.HasSuffix(name, upSuffix):
			version, up = strings.TrimSuffix(name, upSuffix), true
		case strings.HasSuffix(name, downSuffix):
			version = strings.TrimSuffix(name, downSuffix)
		default:
			continue
		}
		if err := checkVersion(version); err != nil {
			return nil, err
		}
		content, err := embeddedMigrations.ReadFile(path.Join("migrations", name))
		if err != nil {
			return nil, fmt.Errorf("leer migración %s: %w", name, err)
		}
		m := byVersion[version]
		if m == nil {
			m = &Migration{Version: version}
			byVersion[version] = m
		}
		if up {
			m.Up = string(content)
		} else {
			m.Down = string(content)
		}
	}
	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" {
			return nil, fmt.Errorf("migración %s sin archivo up", m.Version)
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func checkVersion(version string) error {
	ts, _, ok := strings.Cut(version, "_")
	if !ok || len(ts) != 14 {
		return fmt.Errorf("migración %s no sigue el patrón 'YYYYMMDDHHMMSS_nombre'", version)
	}
	if _, err := time.Parse("20060102150405", ts); err != nil {
		return fmt.Errorf("fecha inválida en migración %s: %w", version, err)
	}
	return nil
}

const createSchemaMigrations = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    VARCHAR(255) PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Applied versiones ya aplicadas.
func (m *Migrator) Applied(ctx context.Context) (map[string]bool, error) {
	if _, err := m.pool.Exec(ctx, createSchemaMigrations); err != nil {
		return nil, fmt.Errorf("crear schema_migrations: %w", err)
	}
	rows, err := m.pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("consultar schema_migrations: %w", err)
	}
	defer rows.Close()
	applied := map[string]bool{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// Up aplica las migraciones pendientes, cada una en su transacción. Devuelve cuántas aplicó.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	all, err := LoadMigrations()
	if err != nil {
		return 0, err
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, mig := range all {
		if applied[mig.Version] {
			continue
		}
		if err := m.run(ctx, mig.Version, mig.Up, `INSERT INTO schema_migrations (version) VALUES ($1)`); err != nil {
			return n, err
		}
		m.log.Info().Str("version", mig.Version).Msg("migración aplicada")
		n++
	}
	return n, nil
}

// Down revierte las últimas steps migraciones aplicadas.
func (m *Migrator) Down(ctx context.Context, steps int) (int, error) {
	all, err := LoadMigrations()
	if err != nil {
		return 0, err
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := len(all) - 1; i >= 0 && n < steps; i-- {
		mig := all[i]
		if !applied[mig.Version] {
			continue
		}
		if mig.Down == "" {
			return n, fmt.Errorf("migración %s sin archivo down", mig.Version)
		}
		if err := m.run(ctx, mig.Version, mig.Down, `DELETE FROM schema_migrations WHERE version = $1`); err != nil {
			return n, err
		}
		m.log.Info().Str("version", mig.Version).Msg("migración revertida")
		n++
	}
	return n, nil
}

func (m *Migrator) run(ctx context.Context, version, script, record string) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err := tx.Exec(ctx, script); err != nil {
		return fmt.Errorf("migración %s: %w", version, err)
	}
	if _, err := tx.Exec(ctx, record, version); err != nil {
		return fmt.Errorf("registrar migración %s: %w", version, err)
	}
	return tx.Commit(ctx)
}
