package tui

import (
	"fmt"
	"strings"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
)

// kindMarkers are single-cell so columns stay aligned in the terminal.
var kindMarkers = map[string]string{
	model.KindTask:     "T",
	model.KindActivity: "A",
	model.KindEvent:    "E",
}

func kindMarker(kind string) string {
	if known, ok := model.KnownKind(kind); ok {
		return kindMarkers[known]
	}
	return "?"
}

func statusMarker(status model.Status) string {
	if status == model.StatusDone {
		return "[x]"
	}
	return "[ ]"
}

func formatTaskSummary(task model.Task) string {
	parts := []string{
		statusMarker(task.Status),
		kindMarker(task.Kind),
		fmt.Sprintf("#%d", task.ID),
		task.Title,
	}
	if task.Due != "" {
		parts = append(parts, "@ "+task.Due)
	}
	if task.Deleted {
		parts = append(parts, "(trash)")
	}
	return strings.Join(parts, " ")
}

func formatVersion(version tasks.Version) string {
	snapshot := version.Snapshot
	return fmt.Sprintf("v%d %s %s %s | %s",
		version.Number,
		snapshot.SnapshotAt.Format("2006-01-02 15:04"),
		statusMarker(snapshot.Status),
		snapshot.Title,
		valueOrNone(snapshot.Due),
	)
}

func valueOrNone(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "none"
	}
	return trimmed
}
