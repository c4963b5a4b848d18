package backend

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"taskfin/internal/config"
	"taskfin/internal/core"
	"taskfin/internal/storage/memory"
	"taskfin/internal/store"
)

type recorder struct {
	mu      sync.Mutex
	changes []store.Change
	got     chan struct{}
}

func newRecorder() *recorder { return &recorder{got: make(chan struct{}, 64)} }

func (r *recorder) record(ch store.Change) {
	r.mu.Lock()
	r.changes = append(r.changes, ch)
	r.mu.Unlock()
	r.got <- struct{}{}
}

func (r *recorder) wait(t *testing.T, n int) []store.Change {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.got:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for change %d of %d", i+1, n)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]store.Change(nil), r.changes...)
}

func TestLocalBusDeliversPerUser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := NewLocalBus()
	defer bus.Close()

	mine, theirs := newRecorder(), newRecorder()
	if err := bus.Subscribe(ctx, "u1", mine.record); err != nil {
		t.Fatal(err)
	}
	if err := bus.Subscribe(ctx, "u2", theirs.record); err != nil {
		t.Fatal(err)
	}

	bus.Publish(ctx, store.Change{Table: store.TableTasks, UserID: "u1"})
	bus.Publish(ctx, store.Change{Table: store.TableBudgets, UserID: "u2"})

	got := mine.wait(t, 1)
	if len(got) != 1 || got[0].Table != store.TableTasks {
		t.Errorf("u1 got %+v", got)
	}
	got = theirs.wait(t, 1)
	if len(got) != 1 || got[0].Table != store.TableBudgets {
		t.Errorf("u2 got %+v", got)
	}
}

func TestLocalBusClose(t *testing.T) {
	bus := NewLocalBus()
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got %v", err)
	}
	if err := bus.Subscribe(context.Background(), "u", func(store.Change) {}); err == nil {
		t.Error("Subscribe after Close should fail")
	}
	if err := bus.Publish(context.Background(), store.Change{UserID: "u"}); err != nil {
		t.Errorf("Publish after Close should be ignored, got %v", err)
	}
}

func TestComposePublishesSuccessfulWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := NewLocalBus()
	defer bus.Close()
	collab := Compose(memory.New(), bus)

	rec := newRecorder()
	if err := collab.Subscribe(ctx, "u", rec.record); err != nil {
		t.Fatal(err)
	}

	if _, err := collab.Lists().Create(ctx, core.TaskList{ID: "l1", UserID: "u", Name: "Home"}); err != nil {
		t.Fatal(err)
	}
	if _, err := collab.Lists().Create(ctx, core.TaskList{ID: "l2", UserID: "u"}); err == nil {
		t.Fatal("invalid list should fail")
	}
	if err := collab.Accounts().Delete(ctx, "u", "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := collab.Lists().Delete(ctx, "u", "l1"); err != nil {
		t.Fatal(err)
	}

	got := rec.wait(t, 2)
	if len(got) != 2 {
		t.Fatalf("expected only successful writes to publish, got %+v", got)
	}
	for _, ch := range got {
		if ch.Table != store.TableLists || ch.UserID != "u" || ch.At.IsZero() {
			t.Errorf("unexpected change %+v", ch)
		}
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config should fail")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("unknown backend should fail")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", UserID: "u", DataDir: "data"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" || cfg.UserID != "u" || cfg.DataDirectory != "data" {
		t.Errorf("FromAppConfig() = %+v", cfg)
	}
	if err := (Config{Type: SQLiteBackend}).Validate(); err == nil {
		t.Error("sqlite without path should fail validation")
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		config  Config
		hasPing bool
	}{
		{name: "memory", config: Config{Type: MemoryBackend, UserID: "u", DataDirectory: t.TempDir()}},
		{name: "sqlite", config: Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "t.db"), UserID: "u", DataDirectory: t.TempDir()}, hasPing: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewFactory(nil).CreateBackend(ctx, tt.config)
			if err != nil {
				t.Fatal(err)
			}
			defer res.Cleanup()

			if res.Remote {
				t.Error("no broker configured, changes should stay local")
			}
			if (res.Ping != nil) != tt.hasPing {
				t.Errorf("Ping set = %v, want %v", res.Ping != nil, tt.hasPing)
			}
			lists, err := res.Collaborator.Lists().List(ctx, "u")
			if err != nil {
				t.Fatal(err)
			}
			if len(lists) != 1 {
				t.Errorf("expected the seeded inbox, got %+v", lists)
			}
		})
	}

	if _, err := NewFactory(nil).CreateBackend(ctx, Config{Type: "sheets"}); err == nil {
		t.Error("unknown backend should fail")
	}
}
