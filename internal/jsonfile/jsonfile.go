// Package jsonfile stores the task collection as one indented JSON array.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
)

type Persister struct {
	path string
}

func New(path string) (*Persister, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("data path is required")
	}
	return &Persister{path: path}, nil
}

func (p *Persister) Path() string {
	return p.path
}

// Load treats a missing or empty file as an empty collection.
func (p *Persister) Load(_ context.Context) ([]model.Task, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.Task{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", p.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []model.Task{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	var loaded []model.Task
	if err := dec.Decode(&loaded); err != nil {
		return nil, tasks.Corruptf(err, "decode %s", p.path)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, tasks.Corruptf(nil, "decode %s: trailing content", p.path)
	}
	if loaded == nil {
		loaded = []model.Task{}
	}
	return loaded, nil
}

func (p *Persister) Save(_ context.Context, collection []model.Task) error {
	if collection == nil {
		collection = []model.Task{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(collection); err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}
	if err := writeFileAtomic(p.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", p.path, err)
	}
	return nil
}

// writeFileAtomic writes to a temp file in the same directory and renames it
// over path, so a reader sees either the old or the new collection.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
