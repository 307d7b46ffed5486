package tasks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

// Persister loads and saves the whole task collection.
type Persister interface {
	Load(ctx context.Context) ([]model.Task, error)
	Save(ctx context.Context, tasks []model.Task) error
}

type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Outcome reports what a trash operation did.
type Outcome int

const (
	OutcomeApplied Outcome = iota
	OutcomeUnchanged
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "unknown"
}

type NewTask struct {
	Title       string
	Kind        string
	Description string
	Due         string
}

// Update holds the fields an edit replaces. Nil fields keep their current value.
type Update struct {
	Title       *string
	Description *string
	Kind        *string
	Due         *string
	Status      *model.Status
}

// Version is a history snapshot with its 1-based chronological number.
type Version struct {
	Number   int
	Snapshot model.Snapshot
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithLogger(logger Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.log = logger
		}
	}
}

// Store owns the task collection. Every mutation rewrites the whole collection
// through the persister before it returns.
type Store struct {
	mu        sync.Mutex
	tasks     []model.Task
	persister Persister
	now       func() time.Time
	log       Logger
	pending   []string
}

func Open(ctx context.Context, persister Persister, opts ...Option) (*Store, error) {
	s := &Store{
		persister: persister,
		now:       time.Now,
		log:       nopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}

	loaded, err := persister.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkLoaded(loaded); err != nil {
		return nil, err
	}
	sort.SliceStable(loaded, func(i, j int) bool { return loaded[i].ID < loaded[j].ID })
	s.tasks = loaded
	return s, nil
}

func checkLoaded(tasks []model.Task) error {
	seen := make(map[int64]struct{}, len(tasks))
	for i := range tasks {
		task := &tasks[i]
		if task.ID <= 0 {
			return Corruptf(nil, "task at position %d has id %d", i, task.ID)
		}
		if _, ok := seen[task.ID]; ok {
			return Corruptf(nil, "duplicate id %d", task.ID)
		}
		seen[task.ID] = struct{}{}
		if task.Status == "" {
			task.Status = model.StatusPending
		}
		if task.History == nil {
			task.History = []model.Snapshot{}
		}
	}
	return nil
}

func (s *Store) Create(ctx context.Context, input NewTask) (model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return model.Task{}, invalidf("title must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	task := model.Task{
		ID:          s.nextID(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Kind:        model.NormalizeKind(input.Kind),
		Due:         strings.TrimSpace(input.Due),
		Status:      model.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		History:     []model.Snapshot{},
	}

	before := s.tasks
	s.tasks = append(cloneTasks(before), task)
	if err := s.persist(ctx, before); err != nil {
		return model.Task{}, err
	}
	s.log.Printf("created task %d", task.ID)
	return task.Clone(), nil
}

func (s *Store) nextID() int64 {
	var maxID int64
	for _, task := range s.tasks {
		if task.ID > maxID {
			maxID = task.ID
		}
	}
	return maxID + 1
}

func (s *Store) Find(id int64) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexOf(id)
	if index < 0 {
		return model.Task{}, notFound(id)
	}
	return s.tasks[index].Clone(), nil
}

func (s *Store) indexOf(id int64) int {
	for i, task := range s.tasks {
		if task.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) Edit(ctx context.Context, id int64, update Update) (model.Task, error) {
	if update.Status != nil {
		if _, err := model.ParseStatus(string(*update.Status)); err != nil {
			return model.Task{}, invalidf("%v", err)
		}
	}

	return s.mutate(ctx, id, func(task *model.Task, now time.Time) error {
		if task.Deleted {
			return deleted(id)
		}
		task.History = append(task.History, task.Snapshot(now))
		if update.Title != nil {
			task.Title = strings.TrimSpace(*update.Title)
		}
		if update.Description != nil {
			task.Description = strings.TrimSpace(*update.Description)
		}
		if update.Kind != nil {
			task.Kind = model.NormalizeKind(*update.Kind)
		}
		if update.Due != nil {
			task.Due = strings.TrimSpace(*update.Due)
		}
		if update.Status != nil {
			status, _ := model.ParseStatus(string(*update.Status))
			task.Status = status
		}
		task.UpdatedAt = now
		s.note("edited task %d (version %d recorded)", id, len(task.History))
		return nil
	})
}

func (s *Store) SoftDelete(ctx context.Context, id int64, confirmed bool) (Outcome, error) {
	outcome := OutcomeApplied
	_, err := s.mutate(ctx, id, func(task *model.Task, now time.Time) error {
		if task.Deleted {
			outcome = OutcomeUnchanged
			return errSkip
		}
		if !confirmed {
			outcome = OutcomeCancelled
			return errSkip
		}
		task.Deleted = true
		task.UpdatedAt = now
		s.note("moved task %d to trash", id)
		return nil
	})
	return outcome, err
}

func (s *Store) Restore(ctx context.Context, id int64) (Outcome, error) {
	outcome := OutcomeApplied
	_, err := s.mutate(ctx, id, func(task *model.Task, now time.Time) error {
		if !task.Deleted {
			outcome = OutcomeUnchanged
			return errSkip
		}
		task.Deleted = false
		task.UpdatedAt = now
		s.note("restored task %d", id)
		return nil
	})
	return outcome, err
}

func (s *Store) ToggleStatus(ctx context.Context, id int64) (model.Task, error) {
	return s.mutate(ctx, id, func(task *model.Task, now time.Time) error {
		if task.Deleted {
			return deleted(id)
		}
		task.Status = task.Status.Toggle()
		task.UpdatedAt = now
		s.note("task %d is now %s", id, task.Status)
		return nil
	})
}

func (s *Store) List(includeDeleted bool) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]model.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if task.Deleted && !includeDeleted {
			continue
		}
		result = append(result, task.Clone())
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// History returns the snapshots of a task, most recent first.
func (s *Store) History(id int64) ([]model.Snapshot, error) {
	task, err := s.Find(id)
	if err != nil {
		return nil, err
	}
	history := make([]model.Snapshot, 0, len(task.History))
	for i := len(task.History) - 1; i >= 0; i-- {
		history = append(history, task.History[i])
	}
	return history, nil
}

// VersionedHistory is History with each snapshot's chronological version number.
func (s *Store) VersionedHistory(id int64) ([]Version, error) {
	history, err := s.History(id)
	if err != nil {
		return nil, err
	}
	versions := make([]Version, 0, len(history))
	for i, snapshot := range history {
		versions = append(versions, Version{Number: len(history) - i, Snapshot: snapshot})
	}
	return versions, nil
}

// RevertTo restores the editable fields of the given 1-based version, oldest
// first, after recording the current state as a new snapshot.
func (s *Store) RevertTo(ctx context.Context, id int64, version int) (model.Task, error) {
	return s.mutate(ctx, id, func(task *model.Task, now time.Time) error {
		if len(task.History) == 0 {
			return &Error{Kind: ErrNoHistory, ID: id}
		}
		if version < 1 || version > len(task.History) {
			return &Error{Kind: ErrInvalidSelection, ID: id, Msg: versionRange(version, len(task.History))}
		}
		target := task.History[version-1]
		task.History = append(task.History, task.Snapshot(now))
		task.Title = target.Title
		task.Description = target.Description
		task.Kind = target.Kind
		task.Due = target.Due
		task.Status = target.Status
		task.UpdatedAt = now
		s.note("reverted task %d to version %d", id, version)
		return nil
	})
}

func versionRange(version, count int) string {
	return fmt.Sprintf("version %d not in 1..%d", version, count)
}

// Purge permanently drops every task in the trash and reports how many went.
func (s *Store) Purge(ctx context.Context, confirmed bool) (int, error) {
	if !confirmed {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.tasks
	kept := make([]model.Task, 0, len(before))
	for _, task := range before {
		if !task.Deleted {
			kept = append(kept, task)
		}
	}
	removed := len(before) - len(kept)
	s.tasks = kept
	if err := s.persist(ctx, before); err != nil {
		return 0, err
	}
	s.log.Printf("purged %d tasks", removed)
	return removed, nil
}

// errSkip ends a mutation without writing anything.
var errSkip = &Error{Kind: ErrValidation, Msg: "skip"}

func (s *Store) mutate(ctx context.Context, id int64, apply func(task *model.Task, now time.Time) error) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexOf(id)
	if index < 0 {
		return model.Task{}, notFound(id)
	}

	before := s.tasks
	working := cloneTasks(before)
	task := &working[index]
	if err := apply(task, s.now()); err != nil {
		s.pending = nil
		if err == errSkip {
			return before[index].Clone(), nil
		}
		return model.Task{}, err
	}

	s.tasks = working
	if err := s.persist(ctx, before); err != nil {
		return model.Task{}, err
	}
	return task.Clone(), nil
}

// persist saves the current collection, rolling back to before on failure.
func (s *Store) persist(ctx context.Context, before []model.Task) error {
	if err := s.persister.Save(ctx, cloneTasks(s.tasks)); err != nil {
		s.tasks = before
		s.pending = nil
		s.log.Printf("save failed: %v", err)
		return persistFailed(err)
	}
	for _, line := range s.pending {
		s.log.Printf("%s", line)
	}
	s.pending = nil
	return nil
}

// note queues a log line until the mutation holding the lock is saved.
func (s *Store) note(format string, args ...any) {
	s.pending = append(s.pending, fmt.Sprintf(format, args...))
}

func cloneTasks(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks), len(tasks)+1)
	for i, task := range tasks {
		out[i] = task.Clone()
	}
	return out
}
