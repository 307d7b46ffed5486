package tui

import (
	"strings"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
)

type formField struct {
	Label string
	Value string
}

const (
	fieldTitle = iota
	fieldKind
	fieldDescription
	fieldDue
	fieldStatus
)

func buildFormFields(task *model.Task) []formField {
	fields := []formField{
		{Label: "Title"},
		{Label: "Kind (task/activity/event)"},
		{Label: "Description"},
		{Label: "Due"},
	}

	if task == nil {
		fields[fieldKind].Value = model.KindTask
		return fields
	}

	fields = append(fields, formField{Label: "Status (space/←→)"})
	fields[fieldTitle].Value = task.Title
	fields[fieldKind].Value = task.Kind
	fields[fieldDescription].Value = task.Description
	fields[fieldDue].Value = task.Due
	fields[fieldStatus].Value = string(task.Status)
	return fields
}

func parseNewTask(fields []formField) tasks.NewTask {
	return tasks.NewTask{
		Title:       strings.TrimSpace(fields[fieldTitle].Value),
		Kind:        strings.TrimSpace(fields[fieldKind].Value),
		Description: strings.TrimSpace(fields[fieldDescription].Value),
		Due:         strings.TrimSpace(fields[fieldDue].Value),
	}
}

// parseUpdate supplies only the fields that differ from the task being edited.
func parseUpdate(fields []formField, task model.Task) (tasks.Update, error) {
	var update tasks.Update
	changed := func(index int, current string) *string {
		value := strings.TrimSpace(fields[index].Value)
		if value == current {
			return nil
		}
		return &value
	}
	update.Title = changed(fieldTitle, task.Title)
	update.Kind = changed(fieldKind, task.Kind)
	update.Description = changed(fieldDescription, task.Description)
	update.Due = changed(fieldDue, task.Due)

	if len(fields) > fieldStatus {
		status, err := model.ParseStatus(fields[fieldStatus].Value)
		if err != nil {
			return tasks.Update{}, err
		}
		if status != task.Status {
			update.Status = &status
		}
	}
	return update, nil
}

func isStatusField(label string) bool {
	return strings.HasPrefix(label, "Status")
}
