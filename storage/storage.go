// Package storage содержит бэкенды ключ-значение, в которых хранится инвентарь.
// Каждый ключ хранит одно значение целиком, запись всегда перезаписывает прежнее.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Driver идентификатор реализации хранилища
type Driver string

const (
	DriverMemory     Driver = "memory" // в памяти (тесты)
	DriverFilesystem Driver = "fs"     // файлы на диске
	DriverSQL        Driver = "sql"    // таблица kv_entries в основной БД (по умолчанию)
	DriverRedis      Driver = "redis"
	DriverS3         Driver = "s3" // S3 / MinIO
)

// ErrInvalidKey возвращается для пустых и небезопасных ключей
var ErrInvalidKey = errors.New("storage: invalid key")

// KeyValue минимальный интерфейс хранилища
type KeyValue interface {
	// Get возвращает значение ключа; ok == false, если ключа нет
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set безусловно перезаписывает значение ключа
	Set(ctx context.Context, key string, value []byte) error
	// Driver возвращает идентификатор реализации
	Driver() Driver
}

// Config выбор и параметры бэкенда
type Config struct {
	Driver Driver
	FSRoot string
	Redis  RedisConfig
	S3     S3Config
}

// Open выбирает реализацию по конфигурации. db нужен только для драйвера sql.
func Open(ctx context.Context, cfg Config, db *gorm.DB) (KeyValue, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQL
	}
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverSQL:
		if db == nil {
			return nil, fmt.Errorf("storage: sql driver requires a database")
		}
		return NewSQL(db), nil
	case DriverRedis:
		return NewRedis(ctx, cfg.Redis)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", driver)
	}
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	return nil
}

type prefixed struct {
	kv     KeyValue
	prefix string
}

// WithPrefix возвращает представление kv, в котором ко всем ключам добавлен prefix
func WithPrefix(kv KeyValue, prefix string) KeyValue {
	return &prefixed{kv: kv, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	return p.kv.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return p.kv.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Driver() Driver { return p.kv.Driver() }

// UserPrefix префикс ключей одного аккаунта
func UserPrefix(userID uint) string {
	return fmt.Sprintf("users/%d/", userID)
}
