package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
)

// Persister keeps the task collection in sqlite. Save replaces both tables in
// one transaction.
type Persister struct {
	DB *sql.DB
}

func NewPersister(db *sql.DB) *Persister {
	return &Persister{DB: db}
}

func (p *Persister) Close() error {
	return p.DB.Close()
}

func (p *Persister) Save(ctx context.Context, collection []model.Task) (err error) {
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM snapshots"); err != nil {
		return fmt.Errorf("clear snapshots: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM tasks"); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}

	insertTask, err := tx.PrepareContext(ctx, `INSERT INTO tasks
		(id, title, description, kind, due, status, deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare task insert: %w", err)
	}
	defer insertTask.Close()

	insertSnapshot, err := tx.PrepareContext(ctx, `INSERT INTO snapshots
		(task_id, seq, title, description, kind, due, status, deleted, created_at, updated_at, snapshot_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer insertSnapshot.Close()

	for _, task := range collection {
		if _, err = insertTask.ExecContext(ctx,
			task.ID, task.Title, task.Description, task.Kind, task.Due, string(task.Status),
			task.Deleted, formatTime(task.CreatedAt), formatTime(task.UpdatedAt),
		); err != nil {
			return fmt.Errorf("insert task %d: %w", task.ID, err)
		}
		for seq, snapshot := range task.History {
			if _, err = insertSnapshot.ExecContext(ctx,
				task.ID, seq+1, snapshot.Title, snapshot.Description, snapshot.Kind, snapshot.Due,
				string(snapshot.Status), snapshot.Deleted, formatTime(snapshot.CreatedAt),
				formatTime(snapshot.UpdatedAt), formatTime(snapshot.SnapshotAt),
			); err != nil {
				return fmt.Errorf("insert snapshot %d of task %d: %w", seq+1, task.ID, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func (p *Persister) Load(ctx context.Context) ([]model.Task, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT id, title, description, kind, due, status, deleted, created_at, updated_at
		FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var collection []model.Task
	indexByID := make(map[int64]int)
	for rows.Next() {
		var (
			task               model.Task
			status             string
			createdAt, updated string
		)
		if err := rows.Scan(&task.ID, &task.Title, &task.Description, &task.Kind, &task.Due,
			&status, &task.Deleted, &createdAt, &updated); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if task.Status, err = model.ParseStatus(status); err != nil {
			return nil, tasks.Corruptf(err, "task %d", task.ID)
		}
		if task.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, tasks.Corruptf(err, "task %d created_at", task.ID)
		}
		if task.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, tasks.Corruptf(err, "task %d updated_at", task.ID)
		}
		task.History = []model.Snapshot{}
		indexByID[task.ID] = len(collection)
		collection = append(collection, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := p.loadSnapshots(ctx, collection, indexByID); err != nil {
		return nil, err
	}
	if collection == nil {
		collection = []model.Task{}
	}
	return collection, nil
}

func (p *Persister) loadSnapshots(ctx context.Context, collection []model.Task, indexByID map[int64]int) error {
	rows, err := p.DB.QueryContext(ctx, `SELECT task_id, title, description, kind, due, status, deleted, created_at, updated_at, snapshot_at
		FROM snapshots ORDER BY task_id, seq`)
	if err != nil {
		return fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			snapshot                      model.Snapshot
			status                        string
			createdAt, updated, snappedAt string
		)
		if err := rows.Scan(&snapshot.ID, &snapshot.Title, &snapshot.Description, &snapshot.Kind, &snapshot.Due,
			&status, &snapshot.Deleted, &createdAt, &updated, &snappedAt); err != nil {
			return fmt.Errorf("scan snapshot: %w", err)
		}
		index, ok := indexByID[snapshot.ID]
		if !ok {
			return tasks.Corruptf(nil, "snapshot for missing task %d", snapshot.ID)
		}
		if snapshot.Status, err = model.ParseStatus(status); err != nil {
			return tasks.Corruptf(err, "snapshot of task %d", snapshot.ID)
		}
		if snapshot.CreatedAt, err = parseTime(createdAt); err != nil {
			return tasks.Corruptf(err, "snapshot of task %d created_at", snapshot.ID)
		}
		if snapshot.UpdatedAt, err = parseTime(updated); err != nil {
			return tasks.Corruptf(err, "snapshot of task %d updated_at", snapshot.ID)
		}
		if snapshot.SnapshotAt, err = parseTime(snappedAt); err != nil {
			return tasks.Corruptf(err, "snapshot of task %d snapshot_at", snapshot.ID)
		}
		collection[index].History = append(collection[index].History, snapshot)
	}
	return rows.Err()
}

func formatTime(value time.Time) string {
	return value.Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}
