package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "migrations", cfg.MigrationsTable)
	assert.Equal(t, "database/migrations", cfg.Path)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Tables)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("MIGRATEGEN_DATABASE_URL", "sqlite://app.db")
	t.Setenv("MIGRATEGEN_TABLES", "users,posts")
	t.Setenv("MIGRATEGEN_IGNORE", "audit_log")
	t.Setenv("MIGRATEGEN_TIMEOUT", "30s")
	t.Setenv("MIGRATEGEN_CONCURRENCY", "8")
	t.Setenv("MIGRATEGEN_DIALECT", "mysql")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite://app.db", cfg.DatabaseURL)
	assert.Equal(t, []string{"users", "posts"}, cfg.Tables)
	assert.Equal(t, []string{"audit_log"}, cfg.Ignore)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, "mysql", cfg.Dialect)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MIGRATEGEN_SCHEMA=reporting\nMIGRATEGEN_PATH=out\n"), 0644))

	// the environment wins over the file
	t.Setenv("MIGRATEGEN_PATH", "from-env")
	// godotenv sets variables for the whole process
	t.Setenv("MIGRATEGEN_SCHEMA", "")
	require.NoError(t, os.Unsetenv("MIGRATEGEN_SCHEMA"))

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "reporting", cfg.Schema)
	assert.Equal(t, "from-env", cfg.Path)
}

func TestLoadMissingDotEnv(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), ".env"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{name: "zero concurrency", env: map[string]string{"MIGRATEGEN_CONCURRENCY": "0"}, wantErr: true},
		{name: "negative timeout", env: map[string]string{"MIGRATEGEN_TIMEOUT": "-1s"}, wantErr: true},
		{name: "unknown dialect", env: map[string]string{"MIGRATEGEN_DIALECT": "oracle"}, wantErr: true},
		{name: "bad duration", env: map[string]string{"MIGRATEGEN_TIMEOUT": "soon"}, wantErr: true},
		{name: "postgres dialect", env: map[string]string{"MIGRATEGEN_DIALECT": "postgres"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
