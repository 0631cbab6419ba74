package codegen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveredge/platform-kernel/internal/domain"
	"github.com/riveredge/platform-kernel/internal/domain/entity"
)

var fixed = time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC)

func TestCompile_Validaciones(t *testing.T) {
	_, err := Compile("")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = Compile("MAT-0001")
	assert.ErrorIs(t, err, domain.ErrValidation, "at least one placeholder")

	_, err = Compile("MAT-{COLOR}-{SEQUENCE}")
	assert.ErrorIs(t, err, domain.ErrValidation)

	tpl, err := Compile("MAT-{TYPE}-{SEQUENCE}")
	require.NoError(t, err)
	assert.True(t, tpl.HasSequence())
}

func TestRender_TodosLosMarcadores(t *testing.T) {
	tpl, err := Compile("{PREFIX}{YEAR}{MONTH}{DAY}-{ORG}/{DEPT}-{TYPE}-{DATE}-{SEQUENCE}")
	require.NoError(t, err)
	got := tpl.Render("SO", 7, entity.SequenceConfig{Length: 3}, Context{
		MaterialType: "RAW", Org: "HQ", Dept: "D1", Now: fixed,
	})
	assert.Equal(t, "SO20260307-HQ/D1-RAW-20260307-007", got)
}

func TestPad(t *testing.T) {
	assert.Equal(t, "0001", Pad(1, entity.SequenceConfig{}))
	assert.Equal(t, "1xx", Pad(1, entity.SequenceConfig{Length: 3, Padding: entity.Padding{Char: "x", Direction: "right"}}))
	assert.Equal(t, "123456", Pad(123456, entity.SequenceConfig{Length: 4}), "never truncates")
	assert.Equal(t, "〇〇7", Pad(7, entity.SequenceConfig{Length: 3, Padding: entity.Padding{Char: "〇"}}))
	assert.Equal(t, "7零零", Pad(7, entity.SequenceConfig{Length: 3, Padding: entity.Padding{Char: "零一", Direction: "right"}}))
}

func TestScopeFields(t *testing.T) {
	f, err := ScopeFields(entity.SequenceConfig{IndependentByType: true})
	require.NoError(t, err)
	assert.Equal(t, []string{Type}, f)

	f, err = ScopeFields(entity.SequenceConfig{})
	require.NoError(t, err)
	assert.Empty(t, f)

	f, err = ScopeFields(entity.SequenceConfig{ScopeFields: []string{"type", "DATE"}})
	require.NoError(t, err)
	assert.Equal(t, []string{Type, Date}, f)

	_, err = ScopeFields(entity.SequenceConfig{ScopeFields: []string{"SEQUENCE"}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestScopeKey(t *testing.T) {
	assert.Nil(t, ScopeKey(nil, "P", Context{}))
	k := ScopeKey([]string{Type, Date}, "P", Context{MaterialType: "RAW", Now: fixed})
	require.NotNil(t, k)
	assert.Equal(t, "RAW|20260307", *k)
}

func TestDefaultMaterialCode(t *testing.T) {
	assert.Equal(t, "MAT-SEMI-0012", DefaultMaterialCode("SEMI", 12))
}

func TestSnapshot_ClavesJSON(t *testing.T) {
	snap := Snapshot(&entity.CodeRuleMain{ID: 3, Template: "X{SEQUENCE}", Version: 2})
	assert.Equal(t, "X{SEQUENCE}", snap["template"])
	assert.Equal(t, 2, snap["version"])
	_, hidden := snap["DeletedAt"]
	assert.False(t, hidden)
}
