package menu

import (
	"time"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
)

var kindIcons = map[string]string{
	model.KindTask:     "🛠️",
	model.KindActivity: "🎯",
	model.KindEvent:    "📅",
}

func kindIcon(kind string) string {
	if known, ok := model.KnownKind(kind); ok {
		return kindIcons[known]
	}
	return "🏷️"
}

func statusIcon(status model.Status) string {
	if status == model.StatusDone {
		return "✅"
	}
	return "⏳"
}

func (m *Menu) printTasks(list []model.Task) {
	if len(list) == 0 {
		m.println("No tasks.")
		return
	}
	for _, task := range list {
		trash := ""
		if task.Deleted {
			trash = " 🗑️"
		}
		due := ""
		if task.Due != "" {
			due = " | 🕒 " + task.Due
		}
		m.printf("ID:%3d%s %s %s %s%s\n", task.ID, trash, statusIcon(task.Status), kindIcon(task.Kind), task.Title, due)
		if task.Description != "" {
			m.printf("    %s\n", task.Description)
		}
	}
}

func (m *Menu) printVersion(version tasks.Version) {
	snapshot := version.Snapshot
	m.printf("Version %d (snapshot_at=%s):\n", version.Number, formatTime(snapshot.SnapshotAt))
	m.printf("  Title: %s\n", snapshot.Title)
	m.printf("  Description: %s\n", snapshot.Description)
	m.printf("  Kind: %s\n", snapshot.Kind)
	m.printf("  Due: %s\n", snapshot.Due)
	m.printf("  Status: %s\n", snapshot.Status)
}

func formatTime(value time.Time) string {
	return value.Format("2006-01-02T15:04:05")
}
