package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
)

// Values written by older task files.
var statusAliases = map[string]Status{
	"pending": StatusPending,
	"todo":    StatusPending,
	"belum":   StatusPending,
	"done":    StatusDone,
	"selesai": StatusDone,
}

func ParseStatus(value string) (Status, error) {
	status, ok := statusAliases[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return "", fmt.Errorf("unknown status %q", value)
	}
	return status, nil
}

func (s Status) Toggle() Status {
	if s == StatusDone {
		return StatusPending
	}
	return StatusDone
}

// StoredStatus reads a status from a task file. Older files kept whatever the
// user typed and only treated "selesai" as finished, so anything unrecognised
// is pending.
func StoredStatus(value string) Status {
	if status, err := ParseStatus(value); err == nil {
		return status
	}
	return StatusPending
}

func (s *Status) UnmarshalText(text []byte) error {
	*s = StoredStatus(string(text))
	return nil
}

const (
	KindTask     = "task"
	KindActivity = "activity"
	KindEvent    = "event"
)

var kindAliases = map[string]string{
	KindTask:     KindTask,
	KindActivity: KindActivity,
	KindEvent:    KindEvent,
	"tugas":      KindTask,
	"kegiatan":   KindActivity,
	"acara":      KindEvent,
}

// NormalizeKind trims a kind and defaults it to KindTask. Unknown kinds are kept.
func NormalizeKind(kind string) string {
	trimmed := strings.TrimSpace(kind)
	if trimmed == "" {
		return KindTask
	}
	return trimmed
}

// KnownKind maps a kind onto one of the conventional kinds, if it is one.
func KnownKind(kind string) (string, bool) {
	known, ok := kindAliases[strings.ToLower(strings.TrimSpace(kind))]
	return known, ok
}

type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Kind        string     `json:"kind"`
	Due         string     `json:"due"`
	Status      Status     `json:"status"`
	Deleted     bool       `json:"deleted"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	History     []Snapshot `json:"history"`
}

// Snapshot is a copy of a task's fields, minus history, taken before an overwrite.
type Snapshot struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Kind        string    `json:"kind"`
	Due         string    `json:"due"`
	Status      Status    `json:"status"`
	Deleted     bool      `json:"deleted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	SnapshotAt  time.Time `json:"snapshot_at"`
}

func (t Task) Snapshot(at time.Time) Snapshot {
	return Snapshot{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Kind:        t.Kind,
		Due:         t.Due,
		Status:      t.Status,
		Deleted:     t.Deleted,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		SnapshotAt:  at,
	}
}

// Clone returns a copy that shares no history backing array with t.
func (t Task) Clone() Task {
	clone := t
	clone.History = make([]Snapshot, len(t.History))
	copy(clone.History, t.History)
	return clone
}

func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	aux := struct {
		*plain
		LegacyKind string `json:"type"`
		CreatedAt  string `json:"created_at"`
		UpdatedAt  string `json:"updated_at"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if t.Kind == "" {
		t.Kind = aux.LegacyKind
	}
	var err error
	if t.CreatedAt, err = parseTimestamp(aux.CreatedAt); err != nil {
		return fmt.Errorf("created_at: %w", err)
	}
	if t.UpdatedAt, err = parseTimestamp(aux.UpdatedAt); err != nil {
		return fmt.Errorf("updated_at: %w", err)
	}
	if t.History == nil {
		t.History = []Snapshot{}
	}
	return nil
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	type plain Snapshot
	aux := struct {
		*plain
		LegacyKind string `json:"type"`
		CreatedAt  string `json:"created_at"`
		UpdatedAt  string `json:"updated_at"`
		SnapshotAt string `json:"snapshot_at"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if s.Kind == "" {
		s.Kind = aux.LegacyKind
	}
	var err error
	if s.CreatedAt, err = parseTimestamp(aux.CreatedAt); err != nil {
		return fmt.Errorf("created_at: %w", err)
	}
	if s.UpdatedAt, err = parseTimestamp(aux.UpdatedAt); err != nil {
		return fmt.Errorf("updated_at: %w", err)
	}
	if s.SnapshotAt, err = parseTimestamp(aux.SnapshotAt); err != nil {
		return fmt.Errorf("snapshot_at: %w", err)
	}
	return nil
}

// Older files carry ISO-8601 timestamps without a zone offset.
const localTimestampLayout = "2006-01-02T15:04:05.999999999"

func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return parsed, nil
	}
	return time.ParseInLocation(localTimestampLayout, value, time.Local)
}
