package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"inventaris-backend/storage"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Пустые значения окружения не переопределяют значения по умолчанию
	t.Setenv("PORT", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORAGE_DRIVER", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, string(storage.DriverSQL), cfg.Storage.Driver)
	assert.Equal(t, DefaultJWTSecret, cfg.JWTSecret)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlData := []byte(`
port: "9000"
jwt_secret: from-file
log:
  level: debug
storage:
  driver: fs
  fs_root: /tmp/inv
  s3:
    bucket: pantry
`)
	require.NoError(t, os.WriteFile(path, yamlData, 0o600))

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("S3_PATH_STYLE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "fs", cfg.Storage.Driver)
	assert.Equal(t, 3, cfg.Storage.Redis.DB)

	sc := cfg.StorageConfig()
	assert.Equal(t, storage.DriverFilesystem, sc.Driver)
	assert.Equal(t, "/tmp/inv", sc.FSRoot)
	assert.Equal(t, "pantry", sc.S3.Bucket)
	assert.True(t, sc.S3.PathStyle)
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [1, 2"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)

	t.Setenv("REDIS_DB", "zero")
	_, err = Load("")
	assert.Error(t, err)
}

func TestNewLoggerAndLogError(t *testing.T) {
	var buf bytes.Buffer
	logg := NewLogger("warn", "json", &buf)
	assert.Equal(t, logrus.WarnLevel, logg.GetLevel())

	LogError(logg, "inventory", "Save", "write back", map[string]int{"records": 2}, errors.New("disk full"))
	assert.Contains(t, buf.String(), `"module":"inventory"`)
	assert.Contains(t, buf.String(), "disk full")

	assert.Equal(t, logrus.InfoLevel, NewLogger("nonsense", "text", &buf).GetLevel())
}
