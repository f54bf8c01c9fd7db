package services

import (
	"context"
	"errors"
	"sync"

	"inventaris-backend/metrics"
	"inventaris-backend/storage"

	"github.com/sirupsen/logrus"
)

// SessionHook вызывается один раз после активации модели пользователя
type SessionHook func(userID uint, vm *InventoryViewModel)

// InventorySessions держит по одной активированной модели на аккаунт.
// Коллекция каждого аккаунта лежит в хранилище под префиксом users/<id>/.
type InventorySessions struct {
	kv      storage.KeyValue
	log     logrus.FieldLogger
	metrics *metrics.Metrics
	opts    []ViewModelOption

	mu      sync.Mutex
	byID    map[uint]*InventoryViewModel
	loading map[uint]chan struct{}
	hooks   []SessionHook
}

// NewInventorySessions создает реестр сессий поверх общего хранилища
func NewInventorySessions(kv storage.KeyValue, log logrus.FieldLogger, m *metrics.Metrics, opts ...ViewModelOption) *InventorySessions {
	return &InventorySessions{
		kv:      kv,
		log:     log,
		metrics: m,
		opts:    append([]ViewModelOption{WithMetrics(m)}, opts...),
		byID:    make(map[uint]*InventoryViewModel),
		loading: make(map[uint]chan struct{}),
	}
}

// OnActivate регистрирует хук для новых сессий
func (s *InventorySessions) OnActivate(hook SessionHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// Get возвращает модель пользователя, загружая коллекцию при первом обращении.
// Загрузка идет без общей блокировки: ждут только запросы того же аккаунта.
func (s *InventorySessions) Get(ctx context.Context, userID uint) *InventoryViewModel {
	for {
		s.mu.Lock()
		if vm, ok := s.byID[userID]; ok {
			s.mu.Unlock()
			return vm
		}
		if wait, ok := s.loading[userID]; ok {
			s.mu.Unlock()
			<-wait
			continue
		}
		done := make(chan struct{})
		s.loading[userID] = done
		hooks := append([]SessionHook(nil), s.hooks...)
		s.mu.Unlock()

		vm := s.activate(ctx, userID, hooks)

		s.mu.Lock()
		s.byID[userID] = vm
		delete(s.loading, userID)
		s.mu.Unlock()
		close(done)
		return vm
	}
}

func (s *InventorySessions) activate(ctx context.Context, userID uint, hooks []SessionHook) *InventoryViewModel {
	store := NewInventoryStore(storage.WithPrefix(s.kv, storage.UserPrefix(userID)))
	vm := NewInventoryViewModel(store, s.log.WithField("user_id", userID), s.opts...)
	vm.Activate(ctx)
	s.metrics.AddSessions(1)

	for _, hook := range hooks {
		hook(userID, vm)
	}
	return vm
}

// Lookup возвращает модель, только если она уже активирована
func (s *InventorySessions) Lookup(userID uint) (*InventoryViewModel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vm, ok := s.byID[userID]
	return vm, ok
}

// Drop дописывает и закрывает модель пользователя
func (s *InventorySessions) Drop(ctx context.Context, userID uint) error {
	s.mu.Lock()
	vm, ok := s.byID[userID]
	delete(s.byID, userID)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	s.metrics.AddSessions(-1)
	return vm.Close(ctx)
}

// Close закрывает все модели
func (s *InventorySessions) Close(ctx context.Context) error {
	s.mu.Lock()
	for len(s.loading) > 0 {
		var wait chan struct{}
		for _, ch := range s.loading {
			wait = ch
			break
		}
		s.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.mu.Lock()
	}
	all := s.byID
	s.byID = make(map[uint]*InventoryViewModel)
	s.mu.Unlock()

	var errs []error
	for _, vm := range all {
		s.metrics.AddSessions(-1)
		if err := vm.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Purge стирает коллекцию аккаунта: закрывает сессию и сохраняет пустой список
func (s *InventorySessions) Purge(ctx context.Context, userID uint) error {
	if err := s.Drop(ctx, userID); err != nil {
		return err
	}
	store := NewInventoryStore(storage.WithPrefix(s.kv, storage.UserPrefix(userID)))
	err := store.Save(ctx, nil)
	s.metrics.StoreResult("save", err)
	return err
}
