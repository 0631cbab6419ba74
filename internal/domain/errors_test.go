package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_KindAtravesDeWrap(t *testing.T) {
	err := fmt.Errorf("crear usuario: %w", Validation("用户名 %s 已被使用", "alice"))
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "用户名 alice 已被使用")
}

func TestTenantExists_Payload(t *testing.T) {
	err := TenantExists(9, "Acme")
	assert.ErrorIs(t, err, ErrConflict)
	d := DetailsOf(err)
	assert.Equal(t, "tenant_exists", d["error"])
	assert.Equal(t, int64(9), d["tenant_id"])
	assert.Equal(t, "Acme", d["tenant_name"])
}

func TestDetailsOf_ErrorPlano(t *testing.T) {
	assert.Nil(t, DetailsOf(errors.New("x")))
}
