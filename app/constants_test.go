package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefineConstantsIsIdempotent(t *testing.T) {
	store := MapConstants{ConstEnv: "staging"}
	defined, err := DefineConstants(store)
	require.NoError(t, err)
	assert.Equal(t, []string{ConstDebug, ConstEnableExceptionHandler, ConstEnableErrorHandler}, defined)
	assert.Equal(t, "staging", store[ConstEnv])
	assert.Equal(t, "true", store[ConstDebug])

	defined, err = DefineConstants(store)
	require.NoError(t, err)
	assert.Empty(t, defined)
}

func TestProcessConstantsKeepExistingValues(t *testing.T) {
	t.Setenv(ConstDebug, "false")
	v, ok := ProcessConstants{}.Lookup(ConstDebug)
	assert.True(t, ok)
	assert.Equal(t, "false", v)
}
