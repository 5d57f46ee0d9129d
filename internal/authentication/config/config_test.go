package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silentLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestLoadAppliesDefaultsWhenNoFilesPresent(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BACKEND_APPLICATION__JWT_SECRET", "dev-secret")
	t.Setenv("BACKEND_APPLICATION__JWT_ISSUER", "authentication-service")
	t.Setenv("BACKEND_DATABASE__DATABASE_NAME", "authdb")

	cfg, err := Load(dir, silentLogger())
	require.NoError(t, err)
	assert.Equal(t, 50051, cfg.Application.Port)
	assert.Equal(t, "info", cfg.Application.LogLevel)
	assert.EqualValues(t, 300, cfg.Application.AccessTokenTTL)
	assert.EqualValues(t, 7200, cfg.Application.RefreshTokenTTL)
}

func TestLoadMergesDefaultYAMLFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "default.yaml"), `
application:
  log_level: debug
  jwt_secret: file-secret
  jwt_issuer: authentication-service
database:
  database_name: authdb
`)

	cfg, err := Load(dir, silentLogger())
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Application.LogLevel)
	assert.Equal(t, "file-secret", cfg.Application.JWTSecret)
}

func TestLoadMergesRuntimeEnvironmentFileAfterDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "default.yaml"), `
application:
  runtime_environment: testing
  jwt_secret: base-secret
  jwt_issuer: authentication-service
database:
  database_name: authdb
`)
	writeFile(t, filepath.Join(dir, "testing.yaml"), `
application:
  jwt_secret: testing-secret
`)

	cfg, err := Load(dir, silentLogger())
	require.NoError(t, err)
	assert.Equal(t, "testing-secret", cfg.Application.JWTSecret)
	assert.Equal(t, "testing", cfg.Application.RuntimeEnvironment)
}

func TestLoadEnvOverlayWinsOverFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "default.yaml"), `
application:
  jwt_secret: file-secret
  jwt_issuer: authentication-service
database:
  database_name: authdb
  host: file-host
`)
	t.Setenv("BACKEND_DATABASE__HOST", "env-host")

	cfg, err := Load(dir, silentLogger())
	require.NoError(t, err)
	assert.Equal(t, "env-host", cfg.Database.Host)
}

func TestLoadRejectsMissingJWTSecret(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "default.yaml"), `
application:
  jwt_issuer: authentication-service
database:
  database_name: authdb
`)

	_, err := Load(dir, silentLogger())
	require.Error(t, err)
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "default.yaml"), `
application:
  log_level: chatty
  jwt_secret: s
  jwt_issuer: authentication-service
database:
  database_name: authdb
`)

	_, err := Load(dir, silentLogger())
	require.Error(t, err)
}

func TestConfigDSN(t *testing.T) {
	c := &Config{Database: DatabaseConfig{Host: "db", Port: 5432, Username: "u", Password: "p", DatabaseName: "authdb", RequireSSL: true}}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=authdb sslmode=require", c.DSN())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}
