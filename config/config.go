package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"inventaris-backend/storage"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultJWTSecret используется, если секрет не задан
const DefaultJWTSecret = "inventaris-secret-key-change-in-production"

// Config конфигурация приложения
type Config struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`
	JWTSecret   string `yaml:"jwt_secret"`
	CORSOrigins string `yaml:"cors_origins"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json | text
	} `yaml:"log"`

	Storage struct {
		Driver string `yaml:"driver"`
		FSRoot string `yaml:"fs_root"`
		Redis  struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		S3 struct {
			Bucket    string `yaml:"bucket"`
			Region    string `yaml:"region"`
			Endpoint  string `yaml:"endpoint"`
			PathStyle bool   `yaml:"path_style"`
		} `yaml:"s3"`
	} `yaml:"storage"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	cfg := &Config{
		Port:        "8080",
		SQLitePath:  "inventaris.db",
		JWTSecret:   DefaultJWTSecret,
		CORSOrigins: "http://localhost:3000,http://127.0.0.1:3000,http://10.0.2.2:8080",
	}
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	cfg.Storage.Driver = string(storage.DriverSQL)
	cfg.Storage.FSRoot = "./data"
	cfg.Storage.Redis.Addr = "localhost:6379"
	return cfg
}

// Load читает .env (если есть), затем YAML-файл (если есть), затем переменные окружения
func Load(path string) (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.SQLitePath, "SQLITE_PATH")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.CORSOrigins, "CORS_ORIGINS")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setString(&c.Storage.Driver, "STORAGE_DRIVER")
	setString(&c.Storage.FSRoot, "STORAGE_FS_ROOT")
	setString(&c.Storage.Redis.Addr, "REDIS_ADDRESS")
	setString(&c.Storage.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Storage.S3.Bucket, "S3_BUCKET")
	setString(&c.Storage.S3.Region, "S3_REGION")
	setString(&c.Storage.S3.Endpoint, "S3_ENDPOINT")

	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		c.Storage.Redis.DB = n
	}
	if v := os.Getenv("S3_PATH_STYLE"); v != "" {
		c.Storage.S3.PathStyle = strings.EqualFold(v, "true")
	}
	return nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// StorageConfig переводит настройки в параметры пакета storage
func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Driver: storage.Driver(c.Storage.Driver),
		FSRoot: c.Storage.FSRoot,
		Redis: storage.RedisConfig{
			Addr:      c.Storage.Redis.Addr,
			Password:  c.Storage.Redis.Password,
			DB:        c.Storage.Redis.DB,
			KeyPrefix: "inventaris:",
		},
		S3: storage.S3Config{
			Bucket:          c.Storage.S3.Bucket,
			Region:          c.Storage.S3.Region,
			Endpoint:        c.Storage.S3.Endpoint,
			PathStyle:       c.Storage.S3.PathStyle,
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
	}
}
