package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &out))
	return out
}

func TestNew_CamposFijosYSubloggers(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{App: "kernel", Env: "production", Level: "debug", Output: &buf})

	l.Component("permsync").Tenant(7).Info().Str("k", "v").Msg("hola")

	e := lastEntry(t, &buf)
	assert.Equal(t, "kernel", e["app"])
	assert.Equal(t, "production", e["env"])
	assert.Equal(t, "permsync", e["component"])
	assert.Equal(t, 7.0, e["tenant_id"])
	assert.Equal(t, "v", e["k"])
	assert.Equal(t, "info", e["level"])
	assert.Equal(t, "hola", e["message"])
}

func TestNew_NivelFiltra(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Output: &buf})

	l.Info().Msg("oculto")
	assert.Zero(t, buf.Len())
	l.Warn().Msg("visible")
	assert.Equal(t, "visible", lastEntry(t, &buf)["message"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.TraceLevel, parseLevel("trace"))
	assert.Equal(t, zerolog.ErrorLevel, parseLevel(" ERROR "))
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("verbose"))
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := Nop()
	assert.Same(t, l, OrNop(l))
	assert.NotPanics(t, func() { OrNop(nil).Component("x").Tenant(1).Error().Msg("descartado") })
}
