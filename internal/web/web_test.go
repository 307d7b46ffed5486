package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
)

func TestAPITasksFiltersTrash(t *testing.T) {
	store := newTestStore(t)
	handler := NewServer(store).Handler()

	var visible []model.Task
	getJSON(t, handler, "/api/tasks", http.StatusOK, &visible)
	if len(visible) != 1 || visible[0].Title != "Active" {
		t.Fatalf("unexpected visible tasks: %+v", visible)
	}

	var all []model.Task
	getJSON(t, handler, "/api/tasks?deleted=1", http.StatusOK, &all)
	if len(all) != 2 || all[0].ID != 1 || all[1].ID != 2 {
		t.Fatalf("unexpected tasks with trash: %+v", all)
	}
}

func TestAPITaskReturnsHistoryNewestFirst(t *testing.T) {
	store := newTestStore(t)
	handler := NewServer(store).Handler()

	var payload struct {
		Task    model.Task   `json:"task"`
		History []historyRow `json:"history"`
	}
	getJSON(t, handler, "/api/tasks/1", http.StatusOK, &payload)
	if payload.Task.Title != "Active" {
		t.Fatalf("unexpected task: %+v", payload.Task)
	}
	if len(payload.History) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(payload.History))
	}
	if payload.History[0].Version != 2 || payload.History[0].Snapshot.Title != "Second" {
		t.Fatalf("expected newest first, got %+v", payload.History[0])
	}
}

func TestAPITaskErrors(t *testing.T) {
	handler := NewServer(newTestStore(t)).Handler()

	cases := map[string]int{
		"/api/tasks/99":  http.StatusNotFound,
		"/api/tasks/abc": http.StatusBadRequest,
		"/api/tasks/":    http.StatusBadRequest,
		"/tasks/99":      http.StatusNotFound,
		"/nope":          http.StatusNotFound,
	}
	for path, want := range cases {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Fatalf("%s: expected %d, got %d", path, want, rec.Code)
		}
	}
}

func TestHTMLPages(t *testing.T) {
	handler := NewServer(newTestStore(t)).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?deleted=true", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("index: expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Tasks (2)") || !strings.Contains(body, `<a href="/tasks/2">Gone</a> (trash)`) {
		t.Fatalf("unexpected index body:\n%s", body)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks/1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("task page: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Version 2 at") {
		t.Fatalf("expected history on task page:\n%s", rec.Body.String())
	}
}

func getJSON(t *testing.T, handler http.Handler, path string, wantStatus int, dst any) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if rec.Code != wantStatus {
		t.Fatalf("%s: expected %d, got %d: %s", path, wantStatus, rec.Code, rec.Body.String())
	}
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("%s: decode: %v", path, err)
	}
}

func newTestStore(t *testing.T) *tasks.Store {
	t.Helper()
	ctx := context.Background()
	store, err := tasks.Open(ctx, tasks.NewMemoryPersister())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	active, err := store.Create(ctx, tasks.NewTask{Title: "First"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, title := range []string{"Second", "Active"} {
		title := title
		if _, err := store.Edit(ctx, active.ID, tasks.Update{Title: &title}); err != nil {
			t.Fatalf("edit: %v", err)
		}
	}
	gone, err := store.Create(ctx, tasks.NewTask{Title: "Gone"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.SoftDelete(ctx, gone.ID, true); err != nil {
		t.Fatalf("delete: %v", err)
	}
	return store
}
