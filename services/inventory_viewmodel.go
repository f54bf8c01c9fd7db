package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"inventaris-backend/config"
	"inventaris-backend/metrics"
	"inventaris-backend/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrRecordNotFound запись с таким ID отсутствует
	ErrRecordNotFound = errors.New("inventory record not found")
	// ErrNotActivated мутация до загрузки коллекции
	ErrNotActivated = errors.New("inventory view model is not activated")
)

// Snapshot состояние модели представления после изменения
type Snapshot struct {
	Search   string                   `json:"search"`
	Category models.CategoryFilter    `json:"category"`
	Visible  []models.InventoryRecord `json:"visible"`
	Total    int                      `json:"total"`

	// seq номер изменения; подписчики получают снимки строго по возрастанию
	seq uint64
}

// ItemView запись вместе с производными полями срока годности
type ItemView struct {
	models.InventoryRecord
	models.ExpiryInfo
}

// DecorateRecords добавляет к записям сведения о сроке годности относительно now
func DecorateRecords(records []models.InventoryRecord, now time.Time) []ItemView {
	out := make([]ItemView, 0, len(records))
	for _, r := range records {
		out = append(out, ItemView{InventoryRecord: r, ExpiryInfo: models.DescribeExpiry(r, now)})
	}
	return out
}

// FilterRecords оставляет записи выбранной категории, в названии которых
// (без учета регистра) встречается search. Порядок коллекции сохраняется.
func FilterRecords(records []models.InventoryRecord, search string, category models.CategoryFilter) []models.InventoryRecord {
	q := strings.ToLower(strings.TrimSpace(search))
	out := make([]models.InventoryRecord, 0, len(records))
	for _, r := range records {
		if !category.Matches(r.Category) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(r.Name), q) {
			continue
		}
		out = append(out, r.Clone())
	}
	return out
}

// ViewModelOption настройка модели представления
type ViewModelOption func(*InventoryViewModel)

// WithIDGenerator подменяет генератор идентификаторов
func WithIDGenerator(gen func() string) ViewModelOption {
	return func(vm *InventoryViewModel) { vm.newID = gen }
}

// WithMetrics подключает метрики
func WithMetrics(m *metrics.Metrics) ViewModelOption {
	return func(vm *InventoryViewModel) { vm.metrics = m }
}

func newRecordID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// InventoryViewModel держит коллекцию одного аккаунта, состояние поиска и фильтра
// и производный видимый список. Все изменения сериализуются мьютексом,
// сохранение выполняется в фоне и не блокирует вызывающего.
type InventoryViewModel struct {
	store   *InventoryStore
	log     logrus.FieldLogger
	metrics *metrics.Metrics
	newID   func() string

	mu        sync.Mutex
	activated bool
	records   []models.InventoryRecord
	search    string
	category  models.CategoryFilter
	visible   []models.InventoryRecord
	subs      map[int]func(Snapshot)
	nextSub   int
	seq       uint64

	// notifyMu упорядочивает доставку; delivered последний отправленный seq
	notifyMu  sync.Mutex
	delivered uint64

	writer *writeBack
}

// NewInventoryViewModel создает модель и запускает фоновую запись
func NewInventoryViewModel(store *InventoryStore, log logrus.FieldLogger, opts ...ViewModelOption) *InventoryViewModel {
	vm := &InventoryViewModel{
		store:   store,
		log:     log,
		newID:   newRecordID,
		records: []models.InventoryRecord{},
		visible: []models.InventoryRecord{},
		subs:    make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(vm)
	}
	vm.writer = newWriteBack(store, log, vm.metrics)
	return vm
}

// Activate один раз загружает коллекцию. Ошибка чтения логируется,
// модель начинает с пустой коллекции.
func (vm *InventoryViewModel) Activate(ctx context.Context) {
	vm.mu.Lock()
	if vm.activated {
		vm.mu.Unlock()
		return
	}

	records, err := vm.store.Load(ctx)
	vm.metrics.StoreResult("load", err)
	if err != nil {
		config.LogError(vm.log, "inventory", "Activate", "load failed, starting with an empty collection", nil, err)
		records = []models.InventoryRecord{}
	}
	vm.records = records
	vm.activated = true
	vm.metrics.AddRecords(len(records))
	snap := vm.recomputeLocked()
	vm.mu.Unlock()

	vm.notify(snap)
}

// Activated сообщает, загружена ли коллекция
func (vm *InventoryViewModel) Activated() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.activated
}

// Records возвращает копию всей коллекции
func (vm *InventoryViewModel) Records() []models.InventoryRecord {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return models.CloneRecords(vm.records)
}

// Visible возвращает копию видимого списка
func (vm *InventoryViewModel) Visible() []models.InventoryRecord {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return models.CloneRecords(vm.visible)
}

// Snapshot возвращает текущее состояние
func (vm *InventoryViewModel) Snapshot() Snapshot {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.snapshotLocked()
}

// Find ищет запись по ID
func (vm *InventoryViewModel) Find(id string) (models.InventoryRecord, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if i := vm.indexLocked(id); i >= 0 {
		return vm.records[i].Clone(), true
	}
	return models.InventoryRecord{}, false
}

// SetSearch меняет строку поиска
func (vm *InventoryViewModel) SetSearch(text string) Snapshot {
	vm.mu.Lock()
	vm.search = text
	snap := vm.recomputeLocked()
	vm.mu.Unlock()

	vm.notify(snap)
	return snap
}

// SetCategory меняет фильтр категории
func (vm *InventoryViewModel) SetCategory(filter models.CategoryFilter) Snapshot {
	vm.mu.Lock()
	vm.category = filter
	snap := vm.recomputeLocked()
	vm.mu.Unlock()

	vm.notify(snap)
	return snap
}

// SetFilter меняет поиск и категорию одним изменением
func (vm *InventoryViewModel) SetFilter(text string, filter models.CategoryFilter) Snapshot {
	vm.mu.Lock()
	vm.search = text
	vm.category = filter
	snap := vm.recomputeLocked()
	vm.mu.Unlock()

	vm.notify(snap)
	return snap
}

// Create проверяет форму, назначает новый ID и добавляет запись в конец коллекции.
// При отказе валидации коллекция и хранилище не меняются.
func (vm *InventoryViewModel) Create(form models.InventoryForm) (models.InventoryRecord, error) {
	valid, err := form.Validate()
	if err != nil {
		vm.metrics.Rejected("create")
		return models.InventoryRecord{}, err
	}

	vm.mu.Lock()
	if !vm.activated {
		vm.mu.Unlock()
		return models.InventoryRecord{}, ErrNotActivated
	}
	record := models.InventoryRecord{
		ID:         vm.freshIDLocked(),
		Name:       valid.Name,
		Category:   valid.Category,
		Quantity:   valid.Quantity,
		Unit:       valid.Unit,
		ExpiryDate: valid.ExpiryDate,
	}
	vm.records = append(vm.records, record)
	snap := vm.commitLocked()
	vm.mu.Unlock()

	vm.metrics.Mutation("create")
	vm.metrics.AddRecords(1)
	vm.notify(snap)
	return record.Clone(), nil
}

// Update заменяет изменяемые поля записи, сохраняя ID и изображение
func (vm *InventoryViewModel) Update(id string, form models.InventoryForm) (models.InventoryRecord, error) {
	valid, err := form.Validate()
	if err != nil {
		vm.metrics.Rejected("update")
		return models.InventoryRecord{}, err
	}

	vm.mu.Lock()
	if !vm.activated {
		vm.mu.Unlock()
		return models.InventoryRecord{}, ErrNotActivated
	}
	i := vm.indexLocked(id)
	if i < 0 {
		vm.mu.Unlock()
		return models.InventoryRecord{}, ErrRecordNotFound
	}
	r := &vm.records[i]
	r.Name = valid.Name
	r.Category = valid.Category
	r.Quantity = valid.Quantity
	r.Unit = valid.Unit
	r.ExpiryDate = valid.ExpiryDate
	updated := r.Clone()
	snap := vm.commitLocked()
	vm.mu.Unlock()

	vm.metrics.Mutation("update")
	vm.notify(snap)
	return updated, nil
}

// Delete удаляет первую запись с данным ID. Отсутствующий ID ничего не меняет
// и не вызывает сохранения.
func (vm *InventoryViewModel) Delete(id string) (bool, error) {
	vm.mu.Lock()
	if !vm.activated {
		vm.mu.Unlock()
		return false, ErrNotActivated
	}
	i := vm.indexLocked(id)
	if i < 0 {
		vm.mu.Unlock()
		return false, nil
	}
	vm.records = append(vm.records[:i:i], vm.records[i+1:]...)
	snap := vm.commitLocked()
	vm.mu.Unlock()

	vm.metrics.Mutation("delete")
	vm.metrics.AddRecords(-1)
	vm.notify(snap)
	return true, nil
}

// Subscribe регистрирует получателя снимков после каждого изменения
func (vm *InventoryViewModel) Subscribe(fn func(Snapshot)) (cancel func()) {
	vm.mu.Lock()
	id := vm.nextSub
	vm.nextSub++
	vm.subs[id] = fn
	vm.mu.Unlock()

	return func() {
		vm.mu.Lock()
		delete(vm.subs, id)
		vm.mu.Unlock()
	}
}

// Flush ждет, пока будут записаны все переданные на сохранение снимки
func (vm *InventoryViewModel) Flush(ctx context.Context) error {
	return vm.writer.flush(ctx)
}

// Close дописывает ожидающие снимки и останавливает фоновую запись
func (vm *InventoryViewModel) Close(ctx context.Context) error {
	vm.mu.Lock()
	n := len(vm.records)
	activated := vm.activated
	vm.subs = make(map[int]func(Snapshot))
	vm.mu.Unlock()

	if activated {
		vm.metrics.AddRecords(-n)
	}
	return vm.writer.close(ctx)
}

func (vm *InventoryViewModel) indexLocked(id string) int {
	for i := range vm.records {
		if vm.records[i].ID == id {
			return i
		}
	}
	return -1
}

func (vm *InventoryViewModel) freshIDLocked() string {
	for {
		id := vm.newID()
		if id != "" && vm.indexLocked(id) < 0 {
			return id
		}
	}
}

// commitLocked пересчитывает видимый список и передает копию коллекции на сохранение
func (vm *InventoryViewModel) commitLocked() Snapshot {
	vm.writer.enqueue(models.CloneRecords(vm.records))
	return vm.recomputeLocked()
}

func (vm *InventoryViewModel) recomputeLocked() Snapshot {
	vm.visible = FilterRecords(vm.records, vm.search, vm.category)
	vm.seq++
	return vm.snapshotLocked()
}

func (vm *InventoryViewModel) snapshotLocked() Snapshot {
	return Snapshot{
		Search:   vm.search,
		Category: vm.category,
		Visible:  models.CloneRecords(vm.visible),
		Total:    len(vm.records),
		seq:      vm.seq,
	}
}

// notify отправляет снимок подписчикам. Снимок старше уже отправленного
// отбрасывается. Подписчик не должен изменять модель из обработчика.
func (vm *InventoryViewModel) notify(snap Snapshot) {
	vm.notifyMu.Lock()
	defer vm.notifyMu.Unlock()
	if snap.seq <= vm.delivered {
		return
	}
	vm.delivered = snap.seq

	vm.mu.Lock()
	subs := make([]func(Snapshot), 0, len(vm.subs))
	for _, fn := range vm.subs {
		subs = append(subs, fn)
	}
	vm.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
