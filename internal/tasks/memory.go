package tasks

import (
	"context"
	"errors"
	"sync"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

// MemoryPersister keeps the collection in memory. Tests use it in place of a file.
type MemoryPersister struct {
	mu       sync.Mutex
	tasks    []model.Task
	saves    int
	failNext error
}

func NewMemoryPersister(initial ...model.Task) *MemoryPersister {
	return &MemoryPersister{tasks: cloneTasks(initial)}
}

func (m *MemoryPersister) Load(_ context.Context) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneTasks(m.tasks), nil
}

func (m *MemoryPersister) Save(_ context.Context, tasks []model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	m.tasks = cloneTasks(tasks)
	m.saves++
	return nil
}

// FailNext makes the next Save return err. A nil err uses a generic failure.
func (m *MemoryPersister) FailNext(err error) {
	if err == nil {
		err = errors.New("save failed")
	}
	m.mu.Lock()
	m.failNext = err
	m.mu.Unlock()
}

// Saves counts successful saves.
func (m *MemoryPersister) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Tasks returns what was last saved.
func (m *MemoryPersister) Tasks() []model.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneTasks(m.tasks)
}
