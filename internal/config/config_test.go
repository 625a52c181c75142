package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
databases:
  master: "postgres://u:p@db1:5432/master?sslmode=disable"
  backup: "postgres://u:p@db2:5432/backup?sslmode=disable"
sync:
  windowDays: 7
files:
  uploadDir: "/var/uploads"
auth:
  jwtSecret: "s3cret"
tables:
  audit_log:
    primaryKey: "audit_id"
    timeColumn: "logged_at"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "postgres://u:p@db1:5432/master?sslmode=disable", cfg.Databases.Master)
	assert.Equal(t, 7, cfg.Sync.WindowDays)
	assert.Equal(t, "public", cfg.Sync.Schema)
	assert.Equal(t, "/var/uploads", cfg.Files.UploadDir)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)

	assert.Equal(t, TableRule{PrimaryKey: "audit_id", TimeColumn: "logged_at"}, cfg.Tables["audit_log"])
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":3000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, 30, cfg.Sync.WindowDays)
	assert.NotEmpty(t, cfg.Databases.Master)
	assert.NotEmpty(t, cfg.Databases.Backup)
	assert.Contains(t, cfg.Tables, "task")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not: valid")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsEmptyRequiredFields(t *testing.T) {
	path := writeConfig(t, `
databases:
  master: ""
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "databases.master")
}

func TestLoad_RejectsNegativeWindow(t *testing.T) {
	path := writeConfig(t, `
sync:
  windowDays: -1
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "windowDays")
}

func TestDefault_HasBuiltInTableRules(t *testing.T) {
	cfg := Default()

	for _, table := range []string{"core_config", "region_module_config", "task", "task_element"} {
		rule, ok := cfg.Tables[table]
		require.True(t, ok, "missing rule for %s", table)
		assert.Equal(t, "id", rule.PrimaryKey)
		assert.Equal(t, "created_time", rule.TimeColumn)
	}
}
