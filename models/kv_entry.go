package models

import (
	"time"

	"gorm.io/gorm"
)

// KVEntry строка таблицы ключ-значение для SQL-хранилища
type KVEntry struct {
	Key       string    `json:"key" gorm:"column:entry_key;primaryKey;size:255"`
	Value     []byte    `json:"-" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName фиксирует имя таблицы
func (KVEntry) TableName() string { return "kv_entries" }

// BeforeSave хук для обновления времени изменения
func (e *KVEntry) BeforeSave(tx *gorm.DB) error {
	e.UpdatedAt = time.Now()
	return nil
}
