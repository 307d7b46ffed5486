// Package menu is the line-based front end: a numbered menu read from an
// input stream, one prompt per line.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
)

type Menu struct {
	store *tasks.Store
	in    *bufio.Scanner
	out   io.Writer
}

type command struct {
	key   string
	label string
	run   func(m *Menu, ctx context.Context) error
}

var commands = []command{
	{"1", "➕ Add task", (*Menu).addTask},
	{"2", "✏️ Edit task", (*Menu).editTask},
	{"3", "🗑️ Delete (to trash)", (*Menu).deleteTask},
	{"4", "♻️ Restore from trash", (*Menu).restoreTask},
	{"5", "📄 List tasks", (*Menu).listActive},
	{"6", "📁 List including trash", (*Menu).listAll},
	{"7", "✅ Toggle done/pending", (*Menu).toggleStatus},
	{"8", "🕘 View edit history", (*Menu).viewHistory},
	{"9", "🔁 Revert edit", (*Menu).revertTask},
	{"10", "🧹 Empty trash (permanent)", (*Menu).purgeTrash},
}

func New(store *tasks.Store, in io.Reader, out io.Writer) *Menu {
	return &Menu{store: store, in: bufio.NewScanner(in), out: out}
}

// Run reads commands until the user quits or input ends.
func (m *Menu) Run(ctx context.Context) error {
	for {
		m.printMenu()
		choice, err := m.prompt("Choose: ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				m.println("Goodbye!")
				return nil
			}
			return err
		}
		if choice == "0" {
			m.println("Goodbye!")
			return nil
		}

		cmd, ok := lookup(choice)
		if !ok {
			m.println("Unknown command")
			continue
		}
		if err := cmd.run(m, ctx); err != nil {
			if errors.Is(err, io.EOF) {
				m.println("Goodbye!")
				return nil
			}
			if !m.report(err) {
				return err
			}
		}
	}
}

func lookup(key string) (command, bool) {
	for _, cmd := range commands {
		if cmd.key == key {
			return cmd, true
		}
	}
	return command{}, false
}

func (m *Menu) printMenu() {
	m.println("\n📋 === To-Do List ===")
	for _, cmd := range commands {
		m.printf("%s. %s\n", cmd.key, cmd.label)
	}
	m.println("0. ❌ Quit")
}

// report prints a store failure. It returns false for errors the loop cannot
// recover from.
func (m *Menu) report(err error) bool {
	switch {
	case errors.Is(err, tasks.ErrValidation):
		m.printf("❌ %v\n", err)
	case errors.Is(err, tasks.ErrNotFound):
		m.println("Task not found")
	case errors.Is(err, tasks.ErrDeleted):
		m.println("🗑️ Task is in the trash. Restore it first.")
	case errors.Is(err, tasks.ErrNoHistory):
		m.println("ℹ️ No versions to revert to")
	case errors.Is(err, tasks.ErrInvalidSelection):
		m.println("✖️ Cancelled")
	case errors.Is(err, tasks.ErrPersist):
		m.printf("⚠️ Could not save tasks: %v\n", err)
	default:
		return false
	}
	return true
}

func (m *Menu) prompt(label string) (string, error) {
	m.printf("%s", label)
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(m.in.Text()), nil
}

// promptID reads a task id. ok is false when the input was not an integer.
func (m *Menu) promptID(label string) (id int64, ok bool, err error) {
	value, err := m.prompt(label)
	if err != nil {
		return 0, false, err
	}
	id, convErr := strconv.ParseInt(value, 10, 64)
	if convErr != nil {
		m.println("Invalid id")
		return 0, false, nil
	}
	return id, true, nil
}

func (m *Menu) confirm(label string) (bool, error) {
	answer, err := m.prompt(label + " (y/n): ")
	if err != nil {
		return false, err
	}
	return strings.ToLower(answer) == "y", nil
}

func (m *Menu) addTask(ctx context.Context) error {
	title, err := m.prompt("📝 Title: ")
	if err != nil {
		return err
	}
	if title == "" {
		m.println("❌ Title must not be empty")
		return nil
	}
	kind, err := m.prompt("🏷️ Kind (task/activity/event) [task]: ")
	if err != nil {
		return err
	}
	description, err := m.prompt("🗒️ Description (optional): ")
	if err != nil {
		return err
	}
	due, err := m.prompt("🕒 Date/time (optional, e.g. 2026-01-31 15:00): ")
	if err != nil {
		return err
	}

	created, err := m.store.Create(ctx, tasks.NewTask{Title: title, Kind: kind, Description: description, Due: due})
	if err != nil {
		return err
	}
	m.printf("✅ Task added (id=%d)\n", created.ID)
	return nil
}

func (m *Menu) editTask(ctx context.Context) error {
	id, ok, err := m.promptID("Id of the task to edit: ")
	if err != nil || !ok {
		return err
	}
	task, err := m.store.Find(id)
	if err != nil {
		return err
	}
	if task.Deleted {
		return &tasks.Error{Kind: tasks.ErrDeleted, ID: id}
	}

	m.println("(Leave blank to keep the current value)")
	var update tasks.Update
	fields := []struct {
		label   string
		current string
		target  **string
	}{
		{"📝 Title", task.Title, &update.Title},
		{"🗒️ Description", task.Description, &update.Description},
		{"🏷️ Kind", task.Kind, &update.Kind},
		{"🕒 Date/time", task.Due, &update.Due},
	}
	for _, field := range fields {
		value, err := m.prompt(fmt.Sprintf("%s [%s]: ", field.label, field.current))
		if err != nil {
			return err
		}
		if value != "" {
			v := value
			*field.target = &v
		}
	}

	for {
		value, err := m.prompt(fmt.Sprintf("✅ Status (done/pending) [%s]: ", task.Status))
		if err != nil {
			return err
		}
		if value == "" {
			break
		}
		status, parseErr := model.ParseStatus(value)
		if parseErr != nil {
			m.println("Status must be done or pending")
			continue
		}
		update.Status = &status
		break
	}

	if _, err := m.store.Edit(ctx, id, update); err != nil {
		return err
	}
	m.println("✅ Edit saved. History is available for revert.")
	return nil
}

func (m *Menu) deleteTask(ctx context.Context) error {
	id, ok, err := m.promptID("Id of the task to delete: ")
	if err != nil || !ok {
		return err
	}
	task, err := m.store.Find(id)
	if err != nil {
		return err
	}
	if task.Deleted {
		m.println("ℹ️ Task is already in the trash")
		return nil
	}
	confirmed, err := m.confirm("🗑️ Move to trash?")
	if err != nil {
		return err
	}

	outcome, err := m.store.SoftDelete(ctx, id, confirmed)
	if err != nil {
		return err
	}
	switch outcome {
	case tasks.OutcomeApplied:
		m.println("🗑️ Task moved to trash")
	case tasks.OutcomeUnchanged:
		m.println("ℹ️ Task is already in the trash")
	case tasks.OutcomeCancelled:
		m.println("✖️ Cancelled")
	}
	return nil
}

func (m *Menu) restoreTask(ctx context.Context) error {
	id, ok, err := m.promptID("Id of the task to restore: ")
	if err != nil || !ok {
		return err
	}
	outcome, err := m.store.Restore(ctx, id)
	if err != nil {
		return err
	}
	if outcome == tasks.OutcomeUnchanged {
		m.println("ℹ️ Task is not in the trash")
		return nil
	}
	m.println("♻️ Task restored")
	return nil
}

func (m *Menu) listActive(context.Context) error {
	m.printTasks(m.store.List(false))
	return nil
}

func (m *Menu) listAll(context.Context) error {
	m.printTasks(m.store.List(true))
	return nil
}

func (m *Menu) toggleStatus(ctx context.Context) error {
	id, ok, err := m.promptID("Id of the task to toggle: ")
	if err != nil || !ok {
		return err
	}
	task, err := m.store.ToggleStatus(ctx, id)
	if err != nil {
		return err
	}
	m.printf("🔁 Status changed to: %s\n", task.Status)
	return nil
}

func (m *Menu) viewHistory(context.Context) error {
	id, ok, err := m.promptID("Id of the task to show history for: ")
	if err != nil || !ok {
		return err
	}
	versions, err := m.store.VersionedHistory(id)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		m.println("ℹ️ This task has no edit history yet.")
		return nil
	}
	for _, version := range versions {
		m.printVersion(version)
	}
	return nil
}

func (m *Menu) revertTask(ctx context.Context) error {
	id, ok, err := m.promptID("Id of the task to revert: ")
	if err != nil || !ok {
		return err
	}
	task, err := m.store.Find(id)
	if err != nil {
		return err
	}
	if len(task.History) == 0 {
		m.println("ℹ️ No versions to revert to")
		return nil
	}

	for i, snapshot := range task.History {
		m.printf("%d. %s (snapshot_at=%s)\n", i+1, snapshot.Title, formatTime(snapshot.SnapshotAt))
	}
	value, err := m.prompt("Pick a version to restore (0 to cancel): ")
	if err != nil {
		return err
	}
	version, convErr := strconv.Atoi(value)
	if convErr != nil {
		m.println("Invalid choice")
		return nil
	}
	if version <= 0 || version > len(task.History) {
		m.println("✖️ Cancelled")
		return nil
	}

	if _, err := m.store.RevertTo(ctx, id, version); err != nil {
		return err
	}
	m.println("✅ Revert done")
	return nil
}

func (m *Menu) purgeTrash(ctx context.Context) error {
	confirmed, err := m.confirm("🧹 Permanently delete everything in the trash?")
	if err != nil {
		return err
	}
	if !confirmed {
		m.println("✖️ Cancelled")
		return nil
	}
	removed, err := m.store.Purge(ctx, true)
	if err != nil {
		return err
	}
	m.printf("🧹 Trash emptied (%d removed)\n", removed)
	return nil
}

func (m *Menu) printf(format string, args ...any) {
	fmt.Fprintf(m.out, format, args...)
}

func (m *Menu) println(line string) {
	fmt.Fprintln(m.out, line)
}
