package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONOrYAMLAcceptsBoth(t *testing.T) {
	var fromJSON, fromYAML map[string]interface{}
	require.NoError(t, ParseJSONOrYAML([]byte(`{"a": {"b": [1, "x"]}}`), &fromJSON))
	require.NoError(t, ParseJSONOrYAML([]byte("a:\n  b:\n    - 1\n    - x\n"), &fromYAML))
	assert.Equal(t, fromJSON, fromYAML)
}

func TestParseJSONOrYAMLRejectsNonStringKeys(t *testing.T) {
	var target interface{}
	assert.Error(t, ParseJSONOrYAML([]byte("? [1, 2]\n: x\n"), &target))
}
