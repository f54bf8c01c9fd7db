package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"inventaris-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

// exerciseKeyValue общий сценарий для всех реализаций
func exerciseKeyValue(t *testing.T, kv KeyValue) {
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "missing")
	assert.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "inventoryItems", []byte(`[{"id":"1"}]`)))
	v, ok, err := kv.Get(ctx, "inventoryItems")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, string(v))

	// Повторная запись перезаписывает значение
	require.NoError(t, kv.Set(ctx, "inventoryItems", []byte(`[]`)))
	v, ok, err = kv.Get(ctx, "inventoryItems")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(v))

	// Пустой ключ отклоняется
	assert.ErrorIs(t, kv.Set(ctx, " ", []byte("x")), ErrInvalidKey)
	_, _, err = kv.Get(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestMemoryStore(t *testing.T) {
	m := NewMemory()
	exerciseKeyValue(t, m)
	assert.Equal(t, DriverMemory, m.Driver())
	assert.Equal(t, 1, m.Len())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf))
	buf[0] = 'x'

	v, _, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(v))
}

func TestFilesystemStore(t *testing.T) {
	root := t.TempDir()
	fs, err := NewFilesystem(root)
	require.NoError(t, err)
	exerciseKeyValue(t, fs)

	// Значение лежит в файле под корнем, временных файлов не остается
	b, err := os.ReadFile(filepath.Join(root, "inventoryItems"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFilesystemStoreRejectsTraversal(t *testing.T) {
	fs, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, fs.Set(ctx, "../escape", []byte("x")), ErrInvalidKey)
	assert.ErrorIs(t, fs.Set(ctx, "/etc/passwd", []byte("x")), ErrInvalidKey)

	// Вложенные ключи создают подкаталоги
	require.NoError(t, fs.Set(ctx, "users/7/inventoryItems", []byte("[]")))
	v, ok, err := fs.Get(ctx, "users/7/inventoryItems")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", string(v))
}

func TestSQLStore(t *testing.T) {
	s := NewSQL(setupTestDB(t))
	exerciseKeyValue(t, s)
	assert.Equal(t, DriverSQL, s.Driver())
}

func TestWithPrefixIsolatesAccounts(t *testing.T) {
	base := NewMemory()
	ctx := context.Background()
	a := WithPrefix(base, UserPrefix(1))
	b := WithPrefix(base, UserPrefix(2))

	require.NoError(t, a.Set(ctx, "inventoryItems", []byte("a")))
	_, ok, err := b.Get(ctx, "inventoryItems")
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err := base.Get(ctx, "users/1/inventoryItems")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", string(v))
	assert.Equal(t, DriverMemory, a.Driver())

	assert.ErrorIs(t, a.Set(ctx, "", []byte("x")), ErrInvalidKey)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	kv, err := Open(ctx, Config{Driver: DriverMemory}, nil)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, kv.Driver())

	kv, err = Open(ctx, Config{Driver: DriverFilesystem, FSRoot: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.Equal(t, DriverFilesystem, kv.Driver())

	kv, err = Open(ctx, Config{}, setupTestDB(t))
	require.NoError(t, err)
	assert.Equal(t, DriverSQL, kv.Driver())

	_, err = Open(ctx, Config{Driver: DriverSQL}, nil)
	assert.Error(t, err)

	_, err = Open(ctx, Config{Driver: "tape"}, nil)
	assert.Error(t, err)

	_, err = Open(ctx, Config{Driver: DriverS3}, nil)
	assert.Error(t, err, "bucket is required")
}
