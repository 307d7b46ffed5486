package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.tmpl"))
	taskTemplate  = template.Must(template.ParseFS(templateFS, "templates/task.tmpl"))
)

type Server struct {
	store *tasks.Store
}

type historyRow struct {
	Version  int            `json:"version"`
	Snapshot model.Snapshot `json:"snapshot"`
}

func NewServer(store *tasks.Store) *Server {
	return &Server{store: store}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.indexHandler)
	mux.HandleFunc("/tasks/", s.taskHandler)
	mux.HandleFunc("/api/tasks", s.apiTasksHandler)
	mux.HandleFunc("/api/tasks/", s.apiTaskHandler)
	return mux
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	includeDeleted := includeDeletedFromRequest(r)
	list := s.store.List(includeDeleted)

	data := struct {
		Total          int
		IncludeDeleted bool
		Tasks          []model.Task
	}{Total: len(list), IncludeDeleted: includeDeleted, Tasks: list}

	if err := indexTemplate.Execute(w, data); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
}

func (s *Server) taskHandler(w http.ResponseWriter, r *http.Request) {
	task, history, status, err := s.lookup(r.URL.Path, "/tasks/")
	if err != nil {
		writeError(w, status, err)
		return
	}

	data := struct {
		Task    model.Task
		History []historyRow
	}{Task: task, History: history}

	if err := taskTemplate.Execute(w, data); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
}

func (s *Server) apiTasksHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.List(includeDeletedFromRequest(r)))
}

func (s *Server) apiTaskHandler(w http.ResponseWriter, r *http.Request) {
	task, history, status, err := s.lookup(r.URL.Path, "/api/tasks/")
	if err != nil {
		writeError(w, status, err)
		return
	}

	// History is served separately, newest first.
	task.History = nil
	payload := struct {
		Task    model.Task   `json:"task"`
		History []historyRow `json:"history"`
	}{Task: task, History: history}

	writeJSON(w, payload)
}

func (s *Server) lookup(path, prefix string) (model.Task, []historyRow, int, error) {
	id, err := parseID(path, prefix)
	if err != nil {
		return model.Task{}, nil, http.StatusBadRequest, err
	}

	task, err := s.store.Find(id)
	if err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			return model.Task{}, nil, http.StatusNotFound, err
		}
		return model.Task{}, nil, http.StatusInternalServerError, err
	}

	versions, err := s.store.VersionedHistory(id)
	if err != nil {
		return model.Task{}, nil, http.StatusInternalServerError, err
	}
	history := make([]historyRow, 0, len(versions))
	for _, version := range versions {
		history = append(history, historyRow{Version: version.Number, Snapshot: version.Snapshot})
	}
	return task, history, http.StatusOK, nil
}

func includeDeletedFromRequest(r *http.Request) bool {
	value := strings.TrimSpace(r.URL.Query().Get("deleted"))
	include, err := strconv.ParseBool(value)
	return err == nil && include
}

func parseID(path, prefix string) (int64, error) {
	if !strings.HasPrefix(path, prefix) {
		return 0, fmt.Errorf("invalid path")
	}
	value := strings.TrimPrefix(path, prefix)
	value = strings.Trim(value, "/")
	if value == "" {
		return 0, fmt.Errorf("missing id")
	}
	return strconv.ParseInt(value, 10, 64)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(err.Error()))
}
