package storage

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"guildconf/internal/settings"
)

func newMemoryStore() (*Store, *MemoryBackend) {
	backend := NewMemory()
	return New(backend, Options{}), backend
}

func TestSeedsDefaultsOnFirstTouch(t *testing.T) {
	store, backend := newMemoryStore()
	ctx := context.Background()

	value, err := store.Get(ctx, "g1", settings.P("commands", "prefix"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "!" {
		t.Fatalf("expected default prefix, got %v", value)
	}
	if _, err := backend.Load(ctx, "g1"); err != nil {
		t.Fatalf("expected seeded document persisted: %v", err)
	}
}

func TestChannelRoundTrip(t *testing.T) {
	store, _ := newMemoryStore()
	ctx := context.Background()
	path := settings.P("twitch", "channels")

	_ = store.Push(ctx, "g1", path, "1", false)
	_ = store.Push(ctx, "g1", path, "2", false)
	before, _ := store.Get(ctx, "g1", path)

	if err := store.Push(ctx, "g1", path, "123", false); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := store.Push(ctx, "g1", path, "123", false); err != nil {
		t.Fatalf("push duplicate: %v", err)
	}
	list, _ := store.Get(ctx, "g1", path)
	if len(list.([]any)) != 3 {
		t.Fatalf("expected no duplicate, got %v", list)
	}
	if err := store.Remove(ctx, "g1", path, "123"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	after, _ := store.Get(ctx, "g1", path)
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("expected %v, got %v", before, after)
	}
}

func TestResetIsIdempotent(t *testing.T) {
	store, _ := newMemoryStore()
	ctx := context.Background()
	path := settings.P("twitch")

	_ = store.Set(ctx, "g1", path.Child("enabled"), true)
	_ = store.Push(ctx, "g1", path.Child("channels"), "9", false)

	def, _ := settings.DefaultAt(path)
	_ = store.Set(ctx, "g1", path, def)
	first, _ := store.Get(ctx, "g1", path)
	_ = store.Set(ctx, "g1", path, def)
	second, _ := store.Get(ctx, "g1", path)

	if !reflect.DeepEqual(first, second) || !reflect.DeepEqual(first, def) {
		t.Fatalf("reset not idempotent: %v vs %v", first, second)
	}
}

func TestGuildsAreIsolated(t *testing.T) {
	store, _ := newMemoryStore()
	ctx := context.Background()
	_ = store.Set(ctx, "g1", settings.P("commands", "prefix"), "?")
	value, _ := store.Get(ctx, "g2", settings.P("commands", "prefix"))
	if value != "!" {
		t.Fatalf("expected g2 untouched, got %v", value)
	}
}

func TestReturnedDocumentsAreCopies(t *testing.T) {
	store, _ := newMemoryStore()
	ctx := context.Background()
	doc, _ := store.Document(ctx, "g1")
	doc["commands"] = "tampered"

	value, _ := store.Get(ctx, "g1", settings.P("commands", "prefix"))
	if value != "!" {
		t.Fatalf("cache was mutated through a returned document")
	}
}

func TestConcurrentPushesAreSerialised(t *testing.T) {
	store, _ := newMemoryStore()
	ctx := context.Background()
	path := settings.P("welcomeMessage", "welcome", "channels")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Push(ctx, "g1", path, string(rune('a'+i)), false)
		}(i)
	}
	wg.Wait()

	list, _ := store.Get(ctx, "g1", path)
	if len(list.([]any)) != 20 {
		t.Fatalf("expected 20 entries, got %d", len(list.([]any)))
	}
	if store.locks.size() != 0 {
		t.Fatalf("expected lock entries released")
	}
}

type failingBackend struct {
	*MemoryBackend
	fail bool
}

func (f *failingBackend) Save(ctx context.Context, guildID string, data []byte) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.MemoryBackend.Save(ctx, guildID, data)
}

func TestFailedSaveLeavesDocumentUnchanged(t *testing.T) {
	backend := &failingBackend{MemoryBackend: NewMemory()}
	store := New(backend, Options{})
	ctx := context.Background()
	_, _ = store.Get(ctx, "g1", nil)

	backend.fail = true
	if err := store.Set(ctx, "g1", settings.P("commands", "prefix"), "?"); err == nil {
		t.Fatalf("expected save error")
	}
	backend.fail = false

	value, _ := store.Get(ctx, "g1", settings.P("commands", "prefix"))
	if value != "!" {
		t.Fatalf("expected unchanged prefix, got %v", value)
	}
}

func TestSQLiteBackend(t *testing.T) {
	backend, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	defer backend.Close()
	if err := backend.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	if _, err := backend.Load(ctx, "g1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	store := New(backend, Options{})
	if err := store.Set(ctx, "g1", settings.P("serverLock", "role"), "42"); err != nil {
		t.Fatalf("set: %v", err)
	}

	reopened := New(backend, Options{})
	value, err := reopened.Get(ctx, "g1", settings.P("serverLock", "role"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "42" {
		t.Fatalf("expected persisted role, got %v", value)
	}

	entry := AuditLog{GuildID: "g1", UserID: "u1", Operation: "set", Path: "serverLock.role", Details: "42", CreatedAt: time.Now()}
	if err := backend.AddAuditLog(ctx, entry); err != nil {
		t.Fatalf("add audit log: %v", err)
	}
	logs, err := backend.ListAuditLogs(ctx, "g1", time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("list audit logs: %v", err)
	}
	if len(logs) != 1 || logs[0].Path != "serverLock.role" {
		t.Fatalf("unexpected audit logs: %+v", logs)
	}
}

func seedAuditLogs(t *testing.T, recorder AuditRecorder) {
	t.Helper()
	ctx := context.Background()
	for _, entry := range []AuditLog{
		{GuildID: "g1", UserID: "u1", Operation: "set", Path: "g1.twitch.enabled", Details: "old", CreatedAt: time.Now().AddDate(0, 0, -30)},
		{GuildID: "g2", UserID: "u1", Operation: "set", Path: "g2.twitch.enabled", Details: "old", CreatedAt: time.Now().AddDate(0, 0, -15)},
		{GuildID: "g1", UserID: "u2", Operation: "push", Path: "g1.twitch.channels", Details: "new", CreatedAt: time.Now().Add(-time.Hour)},
	} {
		if err := recorder.AddAuditLog(ctx, entry); err != nil {
			t.Fatalf("add audit log: %v", err)
		}
	}
}

func checkAuditCleanup(t *testing.T, recorder AuditRecorder) {
	t.Helper()
	ctx := context.Background()
	seedAuditLogs(t, recorder)

	if err := recorder.CleanupAuditLogs(ctx, 14); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	for guildID, want := range map[string]int{"g1": 1, "g2": 0} {
		logs, err := recorder.ListAuditLogs(ctx, guildID, time.Time{})
		if err != nil {
			t.Fatalf("list audit logs: %v", err)
		}
		if len(logs) != want {
			t.Fatalf("%s: expected %d entries after cleanup, got %+v", guildID, want, logs)
		}
		for _, log := range logs {
			if log.Details != "new" {
				t.Fatalf("%s: expired entry survived: %+v", guildID, log)
			}
		}
	}
}

func TestMemoryCleanupAuditLogs(t *testing.T) {
	checkAuditCleanup(t, NewMemory())
}

func TestSQLiteCleanupAuditLogs(t *testing.T) {
	backend, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	defer backend.Close()
	if err := backend.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	checkAuditCleanup(t, backend)
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "etcd", ""); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
