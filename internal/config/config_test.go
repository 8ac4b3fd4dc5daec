package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
server:
  port: "9090"
database:
  dbname: books
jwt:
  secret: file-secret
  access_token_expiration: 2h
mail:
  driver: smtp
  port: 2525
  use_tls: false
`)

	cfg, err := LoadConfig(path, "")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "books", cfg.Database.DBName)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, 2*time.Hour, cfg.JWT.AccessTokenExpiration)
	assert.Equal(t, "smtp", cfg.Mail.Driver)
	assert.Equal(t, 2525, cfg.Mail.Port)
	assert.Equal(t, 10*time.Second, cfg.Mail.Timeout)
	assert.Equal(t, "local", cfg.Storage.Driver)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "jwt:\n  secret: file-secret\n")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := LoadConfig(path, "")
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "7070", cfg.Server.Port)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "JWT_SECRET=dotenv-secret\nREDIS_ADDR=cache:6379\n")
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("REDIS_ADDR")
	})

	cfg, err := LoadConfig(filepath.Join(dir, "missing.yaml"), envFile)
	require.NoError(t, err)
	assert.Equal(t, "dotenv-secret", cfg.JWT.Secret)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
}

func TestValidateConfig(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(writeFile(t, dir, "nosecret.yaml", "server:\n  port: \"8080\"\n"), "")
	assert.ErrorContains(t, err, "JWT secret is required")

	_, err = LoadConfig(writeFile(t, dir, "mail.yaml", "jwt:\n  secret: s\nmail:\n  driver: pigeon\n"), "")
	assert.ErrorContains(t, err, "unsupported mail driver")

	_, err = LoadConfig(writeFile(t, dir, "tls.yaml", "jwt:\n  secret: s\nmail:\n  use_ssl: true\n"), "")
	assert.ErrorContains(t, err, "mutually exclusive")
}

func TestGetPostgresConnectionString(t *testing.T) {
	cfg := &Config{}
	cfg.Database.User = "lib"
	cfg.Database.Password = "p@ss"
	cfg.Database.Host = "db"
	cfg.Database.Port = "5432"
	cfg.Database.DBName = "library"

	assert.Equal(t, "postgres://lib:p%40ss@db:5432/library?sslmode=disable", cfg.GetPostgresConnectionString())
}

func TestMailTLSDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(writeFile(t, dir, "default.yaml", "jwt:\n  secret: s\n"), "")
	require.NoError(t, err)
	assert.True(t, cfg.Mail.UseTLS)

	cfg, err = LoadConfig(writeFile(t, dir, "plain.yaml", "jwt:\n  secret: s\nmail:\n  use_tls: false\n"), "")
	require.NoError(t, err)
	assert.False(t, cfg.Mail.UseTLS)
}
