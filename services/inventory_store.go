package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"inventaris-backend/models"
	"inventaris-backend/storage"
)

var (
	// ErrStoreRead ошибка чтения или разбора коллекции
	ErrStoreRead = errors.New("inventory store: read failed")
	// ErrStoreWrite ошибка записи коллекции
	ErrStoreWrite = errors.New("inventory store: write failed")
)

// StoreReadError значение есть, но не читается или не разбирается
type StoreReadError struct {
	Key string
	Err error
}

func (e *StoreReadError) Error() string {
	return fmt.Sprintf("inventory store: read %q: %v", e.Key, e.Err)
}

func (e *StoreReadError) Unwrap() error { return e.Err }

func (e *StoreReadError) Is(target error) bool { return target == ErrStoreRead }

// StoreWriteError запись коллекции не удалась
type StoreWriteError struct {
	Key string
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("inventory store: write %q: %v", e.Key, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

func (e *StoreWriteError) Is(target error) bool { return target == ErrStoreWrite }

// InventoryStore читает и пишет всю коллекцию целиком под одним ключом
type InventoryStore struct {
	kv  storage.KeyValue
	key string
}

// NewInventoryStore создает хранилище коллекции под ключом models.InventoryStorageKey
func NewInventoryStore(kv storage.KeyValue) *InventoryStore {
	return &InventoryStore{kv: kv, key: models.InventoryStorageKey}
}

// Load возвращает пустую коллекцию, если ключа нет. Записи не перепроверяются.
func (s *InventoryStore) Load(ctx context.Context) ([]models.InventoryRecord, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, &StoreReadError{Key: s.key, Err: err}
	}
	if !ok {
		return []models.InventoryRecord{}, nil
	}

	var records []models.InventoryRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, &StoreReadError{Key: s.key, Err: err}
	}
	if records == nil {
		records = []models.InventoryRecord{}
	}
	return records, nil
}

// Save сериализует всю коллекцию и перезаписывает значение ключа
func (s *InventoryStore) Save(ctx context.Context, records []models.InventoryRecord) error {
	if records == nil {
		records = []models.InventoryRecord{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return &StoreWriteError{Key: s.key, Err: err}
	}
	if err := s.kv.Set(ctx, s.key, raw); err != nil {
		return &StoreWriteError{Key: s.key, Err: err}
	}
	return nil
}
