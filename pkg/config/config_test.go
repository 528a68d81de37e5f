package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfiguration(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfiguration()
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultReadTimeout, cfg.ReadTimeout)
	assert.Equal(t, DefaultBufferSize, cfg.BufferSize)
	assert.Equal(t, "Hemera/1.1", cfg.ServerName)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "runtime.yaml", `
port: 9090
readTimeout: 10
serverName: test/1.0
log:
  level: debug
  format: json
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Port)
		assert.Equal(t, 10, cfg.ReadTimeout)
		assert.Equal(t, "test/1.0", cfg.ServerName)
		require.NotNil(t, cfg.Log)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, DefaultBufferSize, cfg.BufferSize, "omitted fields get defaults")
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "runtime.json", `{"port": 9091}`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 9091, cfg.Port)
		assert.Equal(t, DefaultReadTimeout, cfg.ReadTimeout)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := Load("/no/such/runtime.yaml")
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "runtime.yaml", "")
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("broken yaml", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "runtime.yaml", "port: [")
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrInvalidYAML)
	})

	t.Run("broken json", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "runtime.json", "{")
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrInvalidJSON)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("port out of range", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfiguration()
		cfg.Port = 70000
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative timeout", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfiguration()
		cfg.ReadTimeout = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("tls requires the pair", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfiguration()
		cfg.TLS = &TLSConfig{Enabled: true, CertFile: "cert.pem"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("tls files must exist", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfiguration()
		cfg.TLS = &TLSConfig{Enabled: true, CertFile: "/no/cert.pem", KeyFile: "/no/key.pem"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("disabled tls is not checked", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfiguration()
		cfg.TLS = &TLSConfig{Enabled: false}
		assert.NoError(t, cfg.Validate())
	})
}
