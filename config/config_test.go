package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/app-test-harness/framework/opt"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "suite.yml", `
appPath: /app/index.php
url: http://localhost/app/index.php
transaction: false
part: init
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/app/index.php", c.AppEntryPath)
	assert.Equal(t, "http://localhost/app/index.php", c.AppURL)
	assert.False(t, c.TransactionEnabled())
	assert.Equal(t, PartInit, c.Part)
}

func TestLoadJSONDefaults(t *testing.T) {
	path := writeFile(t, "suite.json", `{"appPath": "/app/index.php", "url": "http://localhost/"}`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.True(t, c.TransactionEnabled())
	assert.Equal(t, Part(""), c.Part)
}

func TestLoadMissingRequiredField(t *testing.T) {
	path := writeFile(t, "suite.yml", "appPath: /app/index.php\n")
	_, err := Load(path)
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "url", ce.Field)
	assert.Equal(t, path, ce.Path)
	assert.Contains(t, err.Error(), `"url"`)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestValidateRejectsUnknownPart(t *testing.T) {
	c := HarnessConfig{AppEntryPath: "/a", AppURL: "http://b/", Part: "everything"}
	var ce *ConfigError
	require.True(t, errors.As(c.Validate(), &ce))
	assert.Equal(t, "part", ce.Field)
}

func TestValidateAcceptsKnownParts(t *testing.T) {
	for _, part := range []Part{"", PartFull, PartInit, PartInitialize} {
		c := HarnessConfig{AppEntryPath: "/a", AppURL: "http://b/", Part: part}
		assert.NoError(t, c.Validate(), string(part))
	}
}

func TestParamsOverrideConfigFile(t *testing.T) {
	path := writeFile(t, "suite.yml", "appPath: /from/file\nurl: http://file/\n")
	var p Params
	require.True(t, p.Read([]string{"-config", path, "-url", "https://flag/", "-transaction", "false"}, io.Discard))
	c, err := p.Config()
	require.NoError(t, err)
	assert.Equal(t, "/from/file", c.AppEntryPath)
	assert.Equal(t, "https://flag/", c.AppURL)
	assert.Equal(t, opt.Some(false), c.Transaction)
}

func TestParamsCanSupplyFieldMissingFromFile(t *testing.T) {
	path := writeFile(t, "suite.yml", "appPath: /from/file\n")
	p := Params{ConfigFile: path, URL: "http://flag/"}
	c, err := p.Config()
	require.NoError(t, err)
	assert.Equal(t, "http://flag/", c.AppURL)
}

func TestParamsRequireConfigOrBothOptions(t *testing.T) {
	var p Params
	assert.False(t, p.Read([]string{"-url", "http://x/"}, io.Discard))
	assert.False(t, p.Read([]string{"-transaction", "maybe"}, io.Discard))
}
