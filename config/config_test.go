package config

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, b := range bindings {
		t.Setenv(b.env, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.Equal(t, "a", cfg.Username)
	assert.Equal(t, "Alice", cfg.DisplayName)
	assert.Equal(t, "./private.pem", cfg.PrivateKeyFile)
	assert.Equal(t, "public", cfg.PublicDir)
	assert.Empty(t, cfg.Secret)
	assert.True(t, cfg.AcceptUndoFollow)
	assert.False(t, cfg.GenerateKey)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEnvAndFlags(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("SECRET", "s3cret")
	t.Setenv("HOSTS", "127.0.0.1")
	t.Setenv("GOPUB_ACCEPT_UNDO_FOLLOW", "false")

	cfg, err := Load([]string{"--port", "9100", "--display-name", "Bob"})
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, "s3cret", cfg.Secret)
	assert.Equal(t, "Bob", cfg.DisplayName)
	assert.False(t, cfg.AcceptUndoFollow)
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "gopub.yaml")
	require.NoError(t, os.WriteFile(path, []byte("username: carol\nlog_level: debug\n"), 0o600))

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, "carol", cfg.Username)
	assert.Equal(t, "debug", cfg.LogLevel)

	_, err = Load([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{Username: "a", Port: 8000, PrivateKeyFile: "k.pem"}
	assert.NoError(t, Validate(base))

	bad := base
	bad.Username = "a/b"
	assert.Error(t, Validate(bad))

	bad = base
	bad.Port = 0
	assert.Error(t, Validate(bad))

	bad = base
	bad.PrivateKeyFile = ""
	assert.Error(t, Validate(bad))
}

func TestParsePrivateKeyFormats(t *testing.T) {
	key, pkcs1, err := GenerateKey(DefaultKeyBits)
	require.NoError(t, err)

	parsed, err := ParsePrivateKey(pkcs1)
	require.NoError(t, err)
	assert.True(t, key.Equal(parsed))

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pkcs8 := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
	parsed, err = ParsePrivateKey(pkcs8)
	require.NoError(t, err)
	assert.True(t, key.Equal(parsed))

	// Quoted, single-line form as found in .env files.
	envForm := `"` + strings.ReplaceAll(strings.TrimSpace(pkcs8), "\n", `\n`) + `"`
	parsed, err = ParsePrivateKey(envForm)
	require.NoError(t, err)
	assert.True(t, key.Equal(parsed))

	_, err = ParsePrivateKey("not a key")
	assert.Error(t, err)
	_, err = ParsePrivateKey(string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte{1}})))
	assert.Error(t, err)
}

func TestIdentityFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "private.pem")
	cfg := Config{Username: "a", DisplayName: "Alice", Port: 8000, PrivateKeyFile: path}

	_, err := cfg.Identity()
	assert.Error(t, err)

	cfg.GenerateKey = true
	id, err := cfg.Identity()
	require.NoError(t, err)
	assert.Equal(t, "a", id.Username)
	assert.FileExists(t, path)

	again, err := cfg.Identity()
	require.NoError(t, err)
	assert.True(t, id.PrivateKey.Equal(again.PrivateKey))
}

func TestIdentityInlineKeyWins(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, DefaultKeyBits)
	require.NoError(t, err)
	inline := string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}))

	cfg := Config{Username: "a", Port: 8000, PrivateKeyFile: "/nonexistent", PrivateKey: inline}
	id, err := cfg.Identity()
	require.NoError(t, err)
	assert.True(t, key.Equal(id.PrivateKey))
}
