package storage

import (
	"context"
	"errors"

	"inventaris-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQL хранит значения в таблице kv_entries основной базы данных
type SQL struct {
	db *gorm.DB
}

// NewSQL создает хранилище поверх уже открытой базы; таблица создается через models.AutoMigrate
func NewSQL(db *gorm.DB) *SQL { return &SQL{db: db} }

func (s *SQL) Driver() Driver { return DriverSQL }

func (s *SQL) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	var entry models.KVEntry
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return entry.Value, true, nil
}

func (s *SQL) Set(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	entry := models.KVEntry{Key: key, Value: value}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}
