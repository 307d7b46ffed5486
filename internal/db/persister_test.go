package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	persister, cleanup := newTestPersister(t)
	defer cleanup()
	ctx := context.Background()

	created := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	first := model.Task{
		ID:          1,
		Title:       "Call dentist",
		Description: "reschedule",
		Kind:        model.KindTask,
		Status:      model.StatusDone,
		CreatedAt:   created,
		UpdatedAt:   created.Add(2 * time.Hour),
	}
	first.History = []model.Snapshot{
		{ID: 1, Title: "Call", Kind: model.KindTask, Status: model.StatusPending, CreatedAt: created, UpdatedAt: created, SnapshotAt: created.Add(time.Hour)},
		{ID: 1, Title: "Call dentist", Kind: model.KindTask, Status: model.StatusPending, CreatedAt: created, UpdatedAt: created.Add(time.Hour), SnapshotAt: created.Add(2 * time.Hour)},
	}
	second := model.Task{
		ID:        3,
		Title:     "Yoga",
		Kind:      "activity",
		Due:       "every tuesday",
		Status:    model.StatusPending,
		Deleted:   true,
		CreatedAt: created,
		UpdatedAt: created,
		History:   []model.Snapshot{},
	}

	if err := persister.Save(ctx, []model.Task{first, second}); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := persister.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(loaded))
	}
	if loaded[0].ID != 1 || loaded[1].ID != 3 {
		t.Fatalf("expected tasks ordered by id, got %d, %d", loaded[0].ID, loaded[1].ID)
	}
	if !loaded[1].Deleted || loaded[1].Due != "every tuesday" || loaded[1].Kind != "activity" {
		t.Fatalf("unexpected second task: %+v", loaded[1])
	}
	if len(loaded[0].History) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(loaded[0].History))
	}
	if loaded[0].History[0].Title != "Call" || loaded[0].History[1].Title != "Call dentist" {
		t.Fatalf("expected snapshots in recorded order, got %+v", loaded[0].History)
	}
	if !loaded[0].History[1].SnapshotAt.Equal(created.Add(2 * time.Hour)) {
		t.Fatalf("unexpected snapshot_at %v", loaded[0].History[1].SnapshotAt)
	}
}

func TestSaveReplacesCollection(t *testing.T) {
	persister, cleanup := newTestPersister(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC()
	tasksA := []model.Task{
		{ID: 1, Title: "a", Kind: model.KindTask, Status: model.StatusPending, CreatedAt: now, UpdatedAt: now,
			History: []model.Snapshot{{ID: 1, Title: "old a", Status: model.StatusPending}}},
		{ID: 2, Title: "b", Kind: model.KindTask, Status: model.StatusPending, CreatedAt: now, UpdatedAt: now},
	}
	if err := persister.Save(ctx, tasksA); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := persister.Save(ctx, tasksA[1:]); err != nil {
		t.Fatalf("save reduced: %v", err)
	}

	loaded, err := persister.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != 2 {
		t.Fatalf("expected only task 2, got %+v", loaded)
	}

	var snapshots int
	if err := persister.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshots").Scan(&snapshots); err != nil {
		t.Fatalf("count snapshots: %v", err)
	}
	if snapshots != 0 {
		t.Fatalf("expected purged history removed, got %d snapshots", snapshots)
	}
}

func TestLoadRejectsUnknownStatus(t *testing.T) {
	persister, cleanup := newTestPersister(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := persister.DB.ExecContext(ctx, `INSERT INTO tasks (id, title, status, created_at, updated_at)
		VALUES (1, 'x', 'someday', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := persister.Load(ctx); !errors.Is(err, tasks.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestStoreOverSqliteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")
	ctx := context.Background()

	sqlDB, err := Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	store, err := tasks.Open(ctx, NewPersister(sqlDB))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	created, err := store.Create(ctx, tasks.NewTask{Title: "Survive restart", Kind: "event"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.ToggleStatus(ctx, created.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopenedDB, err := Open(path)
	if err != nil {
		t.Fatalf("reopen db: %v", err)
	}
	defer reopenedDB.Close()
	reopened, err := tasks.Open(ctx, NewPersister(reopenedDB))
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	found, err := reopened.Find(created.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Status != model.StatusDone || found.Kind != "event" {
		t.Fatalf("unexpected reloaded task: %+v", found)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func newTestPersister(t *testing.T) (*Persister, func()) {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return NewPersister(db), func() {
		_ = db.Close()
	}
}
