package models

import (
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Допустимые значения пола в профиле
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// User представляет модель пользователя в системе
type User struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	FirstName    string `json:"first_name" gorm:"not null"`
	LastName     string `json:"last_name" gorm:"not null"`
	Email        string `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"not null"` // Скрываем хэш пароля в JSON
	IsActive     bool   `json:"is_active" gorm:"default:true"`
	// Поля профиля, заполняются после регистрации
	DateOfBirth      *time.Time `json:"dob"`
	Gender           string     `json:"gender" gorm:"default:''"`
	HeightCm         float64    `json:"height_cm" gorm:"default:0"`
	WeightKg         float64    `json:"weight_kg" gorm:"default:0"`
	ProfileCompleted bool       `json:"profile_completed" gorm:"default:false"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// FullName возвращает имя и фамилию
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// DBConfig параметры подключения к базе данных
type DBConfig struct {
	DatabaseURL string // PostgreSQL, если задан
	SQLitePath  string // файл SQLite для разработки
	Silent      bool
}

// InitDB инициализирует подключение к базе данных
func InitDB(cfg DBConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{}
	if cfg.Silent {
		gormCfg.Logger = logger.Default.LogMode(logger.Silent)
	}

	if cfg.DatabaseURL != "" {
		// Используем PostgreSQL для продакшена
		return gorm.Open(postgres.Open(cfg.DatabaseURL), gormCfg)
	}

	// Используем SQLite для разработки
	path := cfg.SQLitePath
	if path == "" {
		path = "inventaris.db"
	}
	return gorm.Open(sqlite.Open(path), gormCfg)
}

// AutoMigrate создает таблицы приложения
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &KVEntry{})
}

// BeforeCreate хук для установки времени создания
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.CreatedAt = time.Now()
	u.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate хук для обновления времени изменения
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
