package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fast = Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

func TestHashWith_Formato(t *testing.T) {
	h, err := HashWith("p@ss1234", fast)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(h, "$argon2id$v=19$m=1024,t=1,p=1$"))

	ok, err := Compare("p@ss1234", h)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Compare("otra", h)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHash_SaltAleatorio(t *testing.T) {
	a, err := HashWith("x", fast)
	require.NoError(t, err)
	b, err := HashWith("x", fast)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCompare_BcryptLegado(t *testing.T) {
	h, err := bcrypt.GenerateFromPassword([]byte("legacy"), bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := Compare("legacy", string(h))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Compare("nope", string(h))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompare_HashInvalido(t *testing.T) {
	_, err := Compare("x", "$argon2id$basura")
	assert.ErrorIs(t, err, ErrInvalidHash)
}
