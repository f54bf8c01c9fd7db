package services

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"inventaris-backend/metrics"
	"inventaris-backend/models"
	"inventaris-backend/storage"
	"inventaris-backend/utils"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSessionsIsolateAccounts(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	log, _ := testLogger()
	m := metrics.New()
	sessions := NewInventorySessions(kv, log, m)

	var activated []uint
	sessions.OnActivate(func(userID uint, vm *InventoryViewModel) {
		activated = append(activated, userID)
	})

	alice := sessions.Get(ctx, 1)
	assert.Same(t, alice, sessions.Get(ctx, 1))
	bob := sessions.Get(ctx, 2)
	assert.Equal(t, []uint{1, 2}, activated)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ActiveSessions))

	_, err := alice.Create(validForm("Apel", models.CategoryFruit, "1", "buah"))
	require.NoError(t, err)
	assert.Empty(t, bob.Records())

	require.NoError(t, sessions.Close(ctx))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveSessions))

	_, ok, err := kv.Get(ctx, "users/1/"+models.InventoryStorageKey)
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, err = kv.Get(ctx, "users/2/"+models.InventoryStorageKey)
	require.NoError(t, err)
	assert.False(t, ok)

	_, found := sessions.Lookup(1)
	assert.False(t, found)
	reopened := sessions.Get(ctx, 1)
	assert.Equal(t, []string{"Apel"}, names(reopened.Records()))
	require.NoError(t, sessions.Close(ctx))
}

func TestSessionsPurge(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	log, _ := testLogger()
	sessions := NewInventorySessions(kv, log, nil)

	vm := sessions.Get(ctx, 5)
	_, err := vm.Create(validForm("Tahu", models.CategoryProtein, "4", "potong/slice"))
	require.NoError(t, err)

	require.NoError(t, sessions.Purge(ctx, 5))
	raw, ok, err := kv.Get(ctx, "users/5/"+models.InventoryStorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[]`, string(raw))

	assert.Empty(t, sessions.Get(ctx, 5).Records())
	require.NoError(t, sessions.Drop(ctx, 5))
	require.NoError(t, sessions.Drop(ctx, 5))
}

func TestHubForwardsSnapshotsToAccountClients(t *testing.T) {
	ctx := context.Background()
	log, _ := testLogger()
	jwt := utils.NewJWTManager("hub-secret")
	hub := NewHub(jwt, log)

	sessions := NewInventorySessions(storage.NewMemory(), log, nil)
	sessions.OnActivate(hub.Attach)
	defer sessions.Close(ctx)

	mine := &Client{UserID: 1, Send: make(chan WSMessage, 4), Hub: hub}
	other := &Client{UserID: 2, Send: make(chan WSMessage, 4), Hub: hub}
	hub.clients[mine] = true
	hub.clients[other] = true
	assert.Equal(t, 1, hub.ConnectedClients(1))

	vm := sessions.Get(ctx, 1)
	_, err := vm.Create(validForm("Apel", models.CategoryFruit, "1", "buah"))
	require.NoError(t, err)

	require.Len(t, mine.Send, 1)
	msg := <-mine.Send
	assert.Equal(t, WSTypeInventoryUpdated, msg.Type)
	update, ok := msg.Payload.(InventoryUpdate)
	require.True(t, ok)
	require.Len(t, update.Items, 1)
	assert.Equal(t, "Apel", update.Items[0].Name)
	assert.Equal(t, 1, update.Total)
	assert.Empty(t, other.Send)

	token, err := jwt.Generate(1, "a@b.c")
	require.NoError(t, err)
	userID, ok := hub.Authenticate(token)
	assert.True(t, ok)
	assert.Equal(t, uint(1), userID)
	_, ok = hub.Authenticate("")
	assert.False(t, ok)
	_, ok = hub.Authenticate("garbage")
	assert.False(t, ok)
}

func TestExportWorkbook(t *testing.T) {
	records := sampleRecords()
	items := DecorateRecords(records, models.MustParseDate("2024-02-27").Time())

	data, err := ExportWorkbook(items)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ExportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Nama", rows[0][0])
	assert.Equal(t, "Telur Ayam", rows[1][0])
	assert.Equal(t, "Susu UHT", rows[2][0])
	assert.Equal(t, "2024-02-29", rows[2][4])
	assert.Equal(t, "2", rows[2][5])
	assert.Equal(t, "2 hari lagi", rows[2][6])
}

// slowLoadKV задерживает чтение ключей одного префикса до сигнала
type slowLoadKV struct {
	*storage.Memory
	prefix  string
	release chan struct{}
	started chan struct{}
}

func (s *slowLoadKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if strings.HasPrefix(key, s.prefix) {
		s.started <- struct{}{}
		<-s.release
	}
	return s.Memory.Get(ctx, key)
}

func TestSessionsLoadDoesNotBlockOtherAccounts(t *testing.T) {
	ctx := context.Background()
	kv := &slowLoadKV{
		Memory:  storage.NewMemory(),
		prefix:  storage.UserPrefix(1),
		release: make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	log, _ := testLogger()
	sessions := NewInventorySessions(kv, log, nil)

	var hooks sync.WaitGroup
	hooks.Add(1)
	calls := 0
	sessions.OnActivate(func(userID uint, vm *InventoryViewModel) {
		if userID == 1 {
			calls++
			hooks.Done()
		}
	})

	first := make(chan *InventoryViewModel, 2)
	go func() { first <- sessions.Get(ctx, 1) }()
	<-kv.started

	// Второй запрос того же аккаунта ждет ту же загрузку
	go func() { first <- sessions.Get(ctx, 1) }()

	other := make(chan *InventoryViewModel, 1)
	go func() { other <- sessions.Get(ctx, 2) }()
	select {
	case vm := <-other:
		assert.True(t, vm.Activated())
	case <-time.After(time.Second):
		t.Fatal("account 2 waited for account 1 load")
	}
	_, found := sessions.Lookup(1)
	assert.False(t, found)
	assert.Empty(t, first)

	close(kv.release)
	a, b := <-first, <-first
	assert.Same(t, a, b)
	hooks.Wait()
	assert.Equal(t, 1, calls)

	vm, found := sessions.Lookup(1)
	require.True(t, found)
	assert.Same(t, a, vm)
	require.NoError(t, sessions.Close(ctx))
}
