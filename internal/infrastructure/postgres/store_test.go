package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func TestWriteErr_UnicoEsDuplicado(t *testing.T) {
	err := writeErr("insert role", "admin", &pgconn.PgError{Code: "23505"})
	assert.True(t, errors.Is(err, domain.ErrDuplicate))
	assert.Contains(t, err.Error(), "admin")

	err = writeErr("insert role", "admin", errors.New("conexión perdida"))
	assert.False(t, errors.Is(err, domain.ErrDuplicate))
	assert.NoError(t, writeErr("insert role", "admin", nil))
}

func TestUpdateErr_SinFilasEsNotFound(t *testing.T) {
	assert.True(t, errors.Is(updateErr("update user", "1", pgx.ErrNoRows), domain.ErrNotFound))
	assert.True(t, errors.Is(updateErr("update user", "1", fmt.Errorf("x: %w", &pgconn.PgError{Code: "23505"})), domain.ErrDuplicate))
}

func TestOneRow(t *testing.T) {
	v := 3
	got, err := oneRow(&v, pgx.ErrNoRows, "get")
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = oneRow(&v, nil, "get")
	require.NoError(t, err)
	assert.Equal(t, 3, *got)

	_, err = oneRow(&v, errors.New("boom"), "get")
	assert.EqualError(t, err, "get: boom")
}

func TestLike_EscapaComodines(t *testing.T) {
	assert.Equal(t, "", like(""))
	assert.Equal(t, "%螺丝%", like("螺丝"))
	assert.Equal(t, `%50\%\_a%`, like("50%_a"))
}

func TestPageArgs(t *testing.T) {
	limit, offset := pageArgs(repository.ListFilter{})
	assert.Nil(t, limit)
	assert.Equal(t, 0, offset)

	limit, offset = pageArgs(repository.ListFilter{Limit: 20, Offset: 40})
	require.NotNil(t, limit)
	assert.Equal(t, 20, *limit)
	assert.Equal(t, 40, offset)
}

func TestPrefixed(t *testing.T) {
	assert.Equal(t, "p.id, p.code, p.name", prefixed("p", "id, code,\n\tname"))
}

func TestNullText(t *testing.T) {
	assert.Nil(t, nullText(""))
	assert.Equal(t, "abc", textOf(nullText("abc")))
	assert.Equal(t, "", textOf(nil))
}

func TestNewUUID(t *testing.T) {
	assert.Equal(t, "fijo", newUUID("fijo"))
	assert.Len(t, newUUID(""), 36)
}

// ---------------------------------------------------------------------------
// Migraciones
// ---------------------------------------------------------------------------

func TestLoadMigrations_OrdenadasYCompletas(t *testing.T) {
	migs, err := LoadMigrations()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(migs), 2)

	for i, m := range migs {
		assert.NotEmpty(t, m.Up, m.Version)
		assert.NotEmpty(t, m.Down, m.Version)
		if i > 0 {
			assert.Less(t, migs[i-1].Version, m.Version)
		}
	}
	assert.Contains(t, migs[0].Up, "CREATE TABLE IF NOT EXISTS tenants")
}

func TestMigrations_IndicesUnicosSoloFilasVivas(t *testing.T) {
	migs, err := LoadMigrations()
	require.NoError(t, err)
	var all strings.Builder
	for _, m := range migs {
		all.WriteString(m.Up)
	}
	sql := all.String()
	for _, idx := range []string{"uq_users_tenant_username", "uq_roles_tenant_code", "uq_materials_main_code", "uq_documents_code", "uq_material_aliases_scope"} {
		line := sql[strings.Index(sql, idx):]
		line = line[:strings.Index(line, ";")]
		assert.Contains(t, line, "WHERE deleted_at IS NULL", idx)
	}

	alias := sql[strings.Index(sql, "CREATE UNIQUE INDEX IF NOT EXISTS uq_material_aliases_scope"):]
	alias = alias[:strings.Index(alias, ";")]
	assert.Contains(t, alias, "external_entity_type")
	assert.Contains(t, alias, "COALESCE(external_entity_id, 0)")
}

func TestCheckVersion(t *testing.T) {
	assert.NoError(t, checkVersion("20250101000000_kernel_core"))
	assert.Error(t, checkVersion("kernel_core"))
	assert.Error(t, checkVersion("2025_core"))
	assert.Error(t, checkVersion("20251399000000_core"))
}
