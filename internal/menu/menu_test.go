package menu

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
)

func TestAddAndListTask(t *testing.T) {
	store := newTestStore(t)

	out := runMenu(t, store,
		"1", "Buy milk", "", "two cartons", "",
		"1", "Standup", "event", "", "09:30",
		"5",
		"0",
	)

	if !strings.Contains(out, "✅ Task added (id=1)") || !strings.Contains(out, "✅ Task added (id=2)") {
		t.Fatalf("expected both tasks added, got:\n%s", out)
	}
	if !strings.Contains(out, "ID:  1 ⏳ 🛠️ Buy milk\n    two cartons") {
		t.Fatalf("expected first task listed with description, got:\n%s", out)
	}
	if !strings.Contains(out, "ID:  2 ⏳ 📅 Standup | 🕒 09:30") {
		t.Fatalf("expected event listed with due, got:\n%s", out)
	}
	if !strings.HasSuffix(out, "Goodbye!\n") {
		t.Fatalf("expected goodbye, got:\n%s", out)
	}
}

func TestAddRejectsBlankTitle(t *testing.T) {
	store := newTestStore(t)

	out := runMenu(t, store, "1", "   ", "0")

	if !strings.Contains(out, "❌ Title must not be empty") {
		t.Fatalf("expected validation message, got:\n%s", out)
	}
	if len(store.List(true)) != 0 {
		t.Fatalf("expected no task created")
	}
}

func TestEditKeepsBlankFields(t *testing.T) {
	store := newTestStore(t)
	created := mustCreate(t, store, tasks.NewTask{Title: "Buy milk", Description: "corner shop"})

	out := runMenu(t, store, "2", "1", "Buy oat milk", "", "", "", "maybe", "done", "0")

	if !strings.Contains(out, "Status must be done or pending") {
		t.Fatalf("expected status retry prompt, got:\n%s", out)
	}
	if !strings.Contains(out, "📝 Title [Buy milk]: ") {
		t.Fatalf("expected current value in prompt, got:\n%s", out)
	}
	task, err := store.Find(created.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if task.Title != "Buy oat milk" || task.Description != "corner shop" || task.Status != model.StatusDone {
		t.Fatalf("unexpected edited task: %+v", task)
	}
	if len(task.History) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(task.History))
	}
}

func TestInvalidIDInput(t *testing.T) {
	store := newTestStore(t)

	out := runMenu(t, store, "3", "abc", "7", "12", "0")

	if !strings.Contains(out, "Invalid id") {
		t.Fatalf("expected invalid id message, got:\n%s", out)
	}
	if !strings.Contains(out, "Task not found") {
		t.Fatalf("expected not found message, got:\n%s", out)
	}
}

func TestDeleteRestoreAndPurge(t *testing.T) {
	store := newTestStore(t)
	mustCreate(t, store, tasks.NewTask{Title: "Old"})
	mustCreate(t, store, tasks.NewTask{Title: "Keep"})

	out := runMenu(t, store,
		"3", "1", "n",
		"3", "1", "y",
		"3", "1",
		"2", "1",
		"6",
		"4", "2",
		"10", "n",
		"10", "y",
		"0",
	)

	for _, want := range []string{
		"✖️ Cancelled",
		"🗑️ Task moved to trash",
		"ℹ️ Task is already in the trash",
		"Task is in the trash. Restore it first.",
		"ID:  1 🗑️ ⏳ 🛠️ Old",
		"ℹ️ Task is not in the trash",
		"🧹 Trash emptied (1 removed)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	remaining := store.List(true)
	if len(remaining) != 1 || remaining[0].Title != "Keep" {
		t.Fatalf("unexpected remaining tasks: %+v", remaining)
	}
}

func TestToggleStatus(t *testing.T) {
	store := newTestStore(t)
	mustCreate(t, store, tasks.NewTask{Title: "Run"})

	out := runMenu(t, store, "7", "1", "7", "1", "0")

	if !strings.Contains(out, "🔁 Status changed to: done") || !strings.Contains(out, "🔁 Status changed to: pending") {
		t.Fatalf("expected both toggles reported, got:\n%s", out)
	}
}

func TestHistoryAndRevert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created := mustCreate(t, store, tasks.NewTask{Title: "Draft"})
	for _, title := range []string{"Second", "Third"} {
		title := title
		if _, err := store.Edit(ctx, created.ID, tasks.Update{Title: &title}); err != nil {
			t.Fatalf("edit: %v", err)
		}
	}

	out := runMenu(t, store, "8", "1", "9", "1", "5", "9", "1", "1", "0")

	second := strings.Index(out, "Version 2")
	first := strings.Index(out, "Version 1")
	if second < 0 || first < 0 || second > first {
		t.Fatalf("expected newest version listed first, got:\n%s", out)
	}
	if !strings.Contains(out, "1. Draft (snapshot_at=") || !strings.Contains(out, "2. Second (snapshot_at=") {
		t.Fatalf("expected versions listed oldest first, got:\n%s", out)
	}
	if strings.Count(out, "✖️ Cancelled") != 1 {
		t.Fatalf("expected out-of-range revert cancelled, got:\n%s", out)
	}
	if !strings.Contains(out, "✅ Revert done") {
		t.Fatalf("expected revert, got:\n%s", out)
	}

	task, err := store.Find(created.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if task.Title != "Draft" || len(task.History) != 3 {
		t.Fatalf("unexpected reverted task: %+v", task)
	}
}

func TestHistoryEmpty(t *testing.T) {
	store := newTestStore(t)
	mustCreate(t, store, tasks.NewTask{Title: "Fresh"})

	out := runMenu(t, store, "8", "1", "9", "1", "0")

	if !strings.Contains(out, "ℹ️ This task has no edit history yet.") {
		t.Fatalf("expected empty history notice, got:\n%s", out)
	}
	if !strings.Contains(out, "ℹ️ No versions to revert to") {
		t.Fatalf("expected no versions notice, got:\n%s", out)
	}
}

func TestUnknownCommandAndEOF(t *testing.T) {
	store := newTestStore(t)

	out := runMenu(t, store, "42", "5")

	if !strings.Contains(out, "Unknown command") {
		t.Fatalf("expected unknown command, got:\n%s", out)
	}
	if !strings.Contains(out, "No tasks.") {
		t.Fatalf("expected empty listing, got:\n%s", out)
	}
	if !strings.HasSuffix(out, "Goodbye!\n") {
		t.Fatalf("expected clean exit on end of input, got:\n%s", out)
	}
}

func TestSaveFailureIsReported(t *testing.T) {
	persister := tasks.NewMemoryPersister()
	store, err := tasks.Open(context.Background(), persister)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	persister.FailNext(nil)

	out := runMenu(t, store, "1", "Unsaved", "", "", "", "0")

	if !strings.Contains(out, "⚠️ Could not save tasks") {
		t.Fatalf("expected save failure message, got:\n%s", out)
	}
}

func TestKindIcon(t *testing.T) {
	cases := map[string]string{
		"task":     "🛠️",
		"Activity": "🎯",
		"acara":    "📅",
		"errand":   "🏷️",
	}
	for kind, want := range cases {
		if got := kindIcon(kind); got != want {
			t.Fatalf("kindIcon(%q) = %q, want %q", kind, got, want)
		}
	}
}

func runMenu(t *testing.T, store *tasks.Store, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	input := strings.NewReader(strings.Join(lines, "\n") + "\n")
	if err := New(store, input, &out).Run(context.Background()); err != nil {
		t.Fatalf("run menu: %v", err)
	}
	return out.String()
}

func mustCreate(t *testing.T, store *tasks.Store, input tasks.NewTask) model.Task {
	t.Helper()
	created, err := store.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return created
}

func newTestStore(t *testing.T) *tasks.Store {
	t.Helper()
	store, err := tasks.Open(context.Background(), tasks.NewMemoryPersister())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}
