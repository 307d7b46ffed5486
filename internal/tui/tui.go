package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
)

const (
	viewTasks   = "tasks"
	viewHistory = "history"
	viewFooter  = "footer"
	viewForm    = "form"
	viewConfirm = "confirm"
)

type UI struct {
	store *tasks.Store
	gui   *gocui.Gui

	items   []model.Task
	history []tasks.Version

	selectedTask    int
	selectedHistory int
	focus           string
	showTrash       bool

	form       *formState
	formEditor *formEditor
	confirm    *confirmState
	status     string
}

type formState struct {
	task   *model.Task
	fields []formField
	index  int
}

type formEditor struct {
	ui *UI
}

type confirmState struct {
	prompt string
	action func(ctx context.Context) error
}

func Run(store *tasks.Store) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := newUI(store)
	ui.gui = gui
	ui.formEditor = &formEditor{ui: ui}

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}
	if err := ui.loadTasks(); err != nil {
		return err
	}

	if err := gui.MainLoop(); err != nil && !goerrors.Is(err, gocui.ErrQuit) {
		return err
	}

	return nil
}

func newUI(store *tasks.Store) *UI {
	return &UI{store: store, focus: viewTasks}
}

type binding struct {
	view    string
	key     any
	handler func(*gocui.Gui, *gocui.View) error
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	bindings := []binding{
		{"", gocui.KeyCtrlC, u.quit},
		{"", 'q', u.quit},
		{"", 'a', u.addTask},
		{"", 'e', u.editTask},
		{"", 'x', u.toggleDone},
		{"", 'd', u.deleteTask},
		{"", 'u', u.restoreTask},
		{"", 't', u.toggleTrash},
		{"", 'P', u.purgeTrash},
		{"", 'r', u.reload},
		{"", gocui.KeyTab, u.switchFocus},
		{"", 'h', u.focusHistory},
		{"", 'l', u.focusTasks},
		{viewTasks, gocui.KeyArrowDown, u.moveDown},
		{viewTasks, 'j', u.moveDown},
		{viewTasks, gocui.KeyArrowUp, u.moveUp},
		{viewTasks, 'k', u.moveUp},
		{viewHistory, gocui.KeyArrowDown, u.moveDown},
		{viewHistory, 'j', u.moveDown},
		{viewHistory, gocui.KeyArrowUp, u.moveUp},
		{viewHistory, 'k', u.moveUp},
		{viewHistory, gocui.KeyEnter, u.revertToSelected},
		{viewForm, gocui.KeyEnter, u.submitForm},
		{viewForm, gocui.KeyEsc, u.cancelForm},
		{viewForm, gocui.KeyTab, u.nextFormField},
		{viewForm, gocui.KeyArrowDown, u.nextFormField},
		{viewForm, gocui.KeyArrowUp, u.prevFormField},
		{viewConfirm, 'y', u.confirmYes},
		{viewConfirm, 'n', u.confirmNo},
		{viewConfirm, gocui.KeyEsc, u.confirmNo},
	}
	for _, b := range bindings {
		if err := gui.SetKeybinding(b.view, b.key, gocui.ModNone, b.handler); err != nil {
			return err
		}
	}
	return nil
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	footerY0 := max(maxY-4, 1)
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, maxY-1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	u.renderFooter(footerView)

	bodyBottom := footerY0 - 1
	if bodyBottom < 2 {
		return nil
	}
	split := max(maxX/2, 30)
	if split > maxX-10 {
		split = maxX - 1
	}

	tasksView, err := gui.SetView(viewTasks, 0, 0, split-1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	tasksView.Title = "Tasks"
	if u.showTrash {
		tasksView.Title = "Tasks (incl. trash)"
	}
	applyViewStyle(tasksView, u.focus == viewTasks)
	u.renderTasks(tasksView)

	if split < maxX-1 {
		historyView, err := gui.SetView(viewHistory, split, 0, maxX-1, bodyBottom, 0)
		if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		historyView.Title = "History (enter reverts)"
		applyViewStyle(historyView, u.focus == viewHistory)
		u.renderHistory(historyView)
	}

	if u.form != nil {
		if err := u.showForm(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewForm)
	}

	if u.confirm != nil {
		if err := u.showConfirm(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewConfirm)
	}

	if u.form == nil && u.confirm == nil {
		_, _ = gui.SetCurrentView(u.focus)
	}
	gui.Cursor = u.form != nil

	return nil
}

func (u *UI) loadTasks() error {
	u.items = u.store.List(u.showTrash)
	if u.selectedTask >= len(u.items) {
		u.selectedTask = max(len(u.items)-1, 0)
	}
	return u.loadHistory()
}

func (u *UI) loadHistory() error {
	selected := u.current()
	if selected == nil {
		u.history = nil
		return nil
	}

	history, err := u.store.VersionedHistory(selected.ID)
	if err != nil {
		return err
	}
	u.history = history
	if u.selectedHistory >= len(u.history) {
		u.selectedHistory = max(len(u.history)-1, 0)
	}
	return nil
}

func (u *UI) current() *model.Task {
	if u.selectedTask >= 0 && u.selectedTask < len(u.items) {
		return &u.items[u.selectedTask]
	}
	return nil
}

func (u *UI) selectedVersion() *tasks.Version {
	if u.selectedHistory >= 0 && u.selectedHistory < len(u.history) {
		return &u.history[u.selectedHistory]
	}
	return nil
}

func (u *UI) renderTasks(view *gocui.View) {
	view.Clear()
	if len(u.items) == 0 {
		fmt.Fprintln(view, "  no tasks, press a to add one")
		return
	}
	for i, task := range u.items {
		prefix := " "
		if i == u.selectedTask {
			prefix = ">"
		}
		fmt.Fprintf(view, "%s %s\n", prefix, formatTaskSummary(task))
	}
	if u.focus == viewTasks {
		view.SetCursor(0, u.selectedTask)
	}
}

func (u *UI) renderHistory(view *gocui.View) {
	view.Clear()
	if len(u.history) == 0 {
		fmt.Fprintln(view, "  no edits yet")
		return
	}
	for i, version := range u.history {
		prefix := " "
		if i == u.selectedHistory && u.focus == viewHistory {
			prefix = ">"
		}
		fmt.Fprintf(view, "%s %s\n", prefix, formatVersion(version))
	}
	if u.focus == viewHistory {
		view.SetCursor(0, u.selectedHistory)
	}
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	view.SetOrigin(0, 0)
	fmt.Fprintln(view, "a add | e edit | x done | d trash | u restore | t show trash | P empty trash")
	fmt.Fprintln(view, "j/k move | tab/h/l panes | enter revert (history) | r reload | q quit")
	if u.status != "" {
		fmt.Fprint(view, u.status)
	}
}

func (u *UI) showForm(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := len(u.form.fields) + 1
	x0 := max((maxX-width)/2, 0)
	y0 := max((maxY-height)/2, 0)

	view, err := gui.SetView(viewForm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	view.Title = "New Task"
	if u.form.task != nil {
		view.Title = fmt.Sprintf("Edit Task #%d", u.form.task.ID)
	}
	view.Editable = true
	view.KeybindOnEdit = true
	view.Editor = u.formEditor
	u.renderForm(view)
	_, _ = gui.SetViewOnTop(viewForm)
	_, _ = gui.SetCurrentView(viewForm)
	return nil
}

func (u *UI) renderForm(view *gocui.View) {
	if u.form == nil || view == nil {
		return
	}
	view.Clear()
	for index, field := range u.form.fields {
		prefix := "  "
		if index == u.form.index {
			prefix = "> "
		}
		fmt.Fprintf(view, "%s%s: %s\n", prefix, field.Label, field.Value)
	}
	field := u.form.fields[u.form.index]
	cursorX := len([]rune(field.Label)) + len([]rune(field.Value)) + 4
	view.SetCursor(cursorX, u.form.index)
}

func (u *UI) showConfirm(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(len([]rune(u.confirm.prompt))+4, 30)
	x0 := max((maxX-width)/2, 0)
	y0 := max(maxY/2-1, 0)

	view, err := gui.SetView(viewConfirm, x0, y0, x0+width, y0+2, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	view.Title = "Confirm (y/n)"
	view.Clear()
	fmt.Fprint(view, u.confirm.prompt)
	_, _ = gui.SetViewOnTop(viewConfirm)
	_, _ = gui.SetCurrentView(viewConfirm)
	return nil
}

func (e *formEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.form == nil || view == nil {
		return false
	}
	field := &ui.form.fields[ui.form.index]

	if isStatusField(field.Label) {
		switch key {
		case gocui.KeyArrowRight, gocui.KeyArrowLeft, gocui.KeySpace:
			field.Value = string(model.Status(field.Value).Toggle())
		}
		ui.renderForm(view)
		return true
	}

	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(field.Value)
		if len(runes) > 0 {
			field.Value = string(runes[:len(runes)-1])
		}
	case gocui.KeySpace:
		field.Value += " "
	case gocui.KeyCtrlU:
		field.Value = ""
	}

	if ch != 0 && ch != '\n' && ch != '\r' && mod == 0 {
		field.Value += string(ch)
	}

	ui.renderForm(view)
	return true
}

func (u *UI) inputActive() bool {
	return u.form != nil || u.confirm != nil
}

func (u *UI) moveDown(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.focus {
	case viewTasks:
		if u.selectedTask < len(u.items)-1 {
			u.selectedTask++
			u.selectedHistory = 0
			return u.loadHistory()
		}
	case viewHistory:
		if u.selectedHistory < len(u.history)-1 {
			u.selectedHistory++
		}
	}
	return nil
}

func (u *UI) moveUp(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.focus {
	case viewTasks:
		if u.selectedTask > 0 {
			u.selectedTask--
			u.selectedHistory = 0
			return u.loadHistory()
		}
	case viewHistory:
		if u.selectedHistory > 0 {
			u.selectedHistory--
		}
	}
	return nil
}

func (u *UI) switchFocus(gui *gocui.Gui, _ *gocui.View) error {
	if u.focus == viewTasks {
		return u.setFocus(gui, viewHistory)
	}
	return u.setFocus(gui, viewTasks)
}

func (u *UI) focusHistory(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewHistory)
}

func (u *UI) focusTasks(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewTasks)
}

func (u *UI) setFocus(gui *gocui.Gui, name string) error {
	if u.inputActive() {
		return nil
	}
	u.focus = name
	if gui != nil {
		_, _ = gui.SetCurrentView(name)
	}
	return nil
}

func (u *UI) reload(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.status = ""
	return u.loadTasks()
}

func (u *UI) toggleTrash(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.showTrash = !u.showTrash
	return u.reload(gui, nil)
}

func (u *UI) addTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.form = &formState{fields: buildFormFields(nil)}
	return nil
}

func (u *UI) editTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.current()
	if selected == nil {
		return nil
	}
	if selected.Deleted {
		u.status = "task is in the trash, press u to restore it first"
		return nil
	}
	task := selected.Clone()
	u.form = &formState{task: &task, fields: buildFormFields(&task)}
	return nil
}

func (u *UI) submitForm(gui *gocui.Gui, _ *gocui.View) error {
	if u.form == nil {
		return nil
	}

	ctx := context.Background()
	if u.form.task == nil {
		if _, err := u.store.Create(ctx, parseNewTask(u.form.fields)); err != nil {
			u.status = err.Error()
			return nil
		}
	} else {
		update, err := parseUpdate(u.form.fields, *u.form.task)
		if err != nil {
			u.status = err.Error()
			return nil
		}
		if _, err := u.store.Edit(ctx, u.form.task.ID, update); err != nil {
			u.status = err.Error()
			return nil
		}
	}

	u.form = nil
	u.status = ""
	u.closePopup(gui, viewForm)
	return u.loadTasks()
}

func (u *UI) cancelForm(gui *gocui.Gui, _ *gocui.View) error {
	u.form = nil
	u.closePopup(gui, viewForm)
	return nil
}

func (u *UI) nextFormField(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index < len(u.form.fields)-1 {
		u.form.index++
	}
	u.renderForm(view)
	return nil
}

func (u *UI) prevFormField(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index > 0 {
		u.form.index--
	}
	u.renderForm(view)
	return nil
}

func (u *UI) toggleDone(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.current()
	if selected == nil {
		return nil
	}
	task, err := u.store.ToggleStatus(context.Background(), selected.ID)
	if err != nil {
		u.status = describe(err)
		return nil
	}
	u.status = fmt.Sprintf("#%d is now %s", task.ID, task.Status)
	return u.loadTasks()
}

func (u *UI) deleteTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.current()
	if selected == nil {
		return nil
	}
	if selected.Deleted {
		u.status = fmt.Sprintf("#%d is already in the trash", selected.ID)
		return nil
	}
	id := selected.ID
	u.confirm = &confirmState{
		prompt: fmt.Sprintf("Move #%d %q to the trash?", id, selected.Title),
		action: func(ctx context.Context) error {
			if _, err := u.store.SoftDelete(ctx, id, true); err != nil {
				return err
			}
			u.status = fmt.Sprintf("#%d moved to trash", id)
			return nil
		},
	}
	return nil
}

func (u *UI) restoreTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.current()
	if selected == nil {
		return nil
	}
	outcome, err := u.store.Restore(context.Background(), selected.ID)
	if err != nil {
		u.status = describe(err)
		return nil
	}
	if outcome == tasks.OutcomeUnchanged {
		u.status = fmt.Sprintf("#%d is not in the trash", selected.ID)
		return nil
	}
	u.status = fmt.Sprintf("#%d restored", selected.ID)
	return u.loadTasks()
}

func (u *UI) purgeTrash(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.confirm = &confirmState{
		prompt: "Permanently delete everything in the trash?",
		action: func(ctx context.Context) error {
			removed, err := u.store.Purge(ctx, true)
			if err != nil {
				return err
			}
			u.status = fmt.Sprintf("trash emptied, %d removed", removed)
			return nil
		},
	}
	return nil
}

func (u *UI) revertToSelected(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.focus != viewHistory {
		return nil
	}
	selected := u.current()
	version := u.selectedVersion()
	if selected == nil || version == nil {
		return nil
	}
	task, err := u.store.RevertTo(context.Background(), selected.ID, version.Number)
	if err != nil {
		u.status = describe(err)
		return nil
	}
	u.status = fmt.Sprintf("#%d reverted to v%d", task.ID, version.Number)
	u.selectedHistory = 0
	return u.loadTasks()
}

func (u *UI) confirmYes(gui *gocui.Gui, _ *gocui.View) error {
	if u.confirm == nil {
		return nil
	}
	action := u.confirm.action
	u.confirm = nil
	u.closePopup(gui, viewConfirm)
	if err := action(context.Background()); err != nil {
		u.status = describe(err)
		return nil
	}
	return u.loadTasks()
}

func (u *UI) confirmNo(gui *gocui.Gui, _ *gocui.View) error {
	if u.confirm == nil {
		return nil
	}
	u.confirm = nil
	u.status = "cancelled"
	u.closePopup(gui, viewConfirm)
	return nil
}

func (u *UI) closePopup(gui *gocui.Gui, name string) {
	if gui == nil {
		return
	}
	_ = gui.DeleteView(name)
	_, _ = gui.SetCurrentView(u.focus)
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	return gocui.ErrQuit
}

func describe(err error) string {
	switch {
	case errors.Is(err, tasks.ErrDeleted):
		return "task is in the trash, press u to restore it first"
	case errors.Is(err, tasks.ErrNoHistory):
		return "no versions to revert to"
	default:
		return strings.TrimSpace(err.Error())
	}
}

func applyViewStyle(view *gocui.View, focused bool) {
	view.Frame = true
	view.Highlight = focused
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	if focused {
		view.FrameColor = gocui.ColorCyan
		view.TitleColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
		view.TitleColor = gocui.ColorDefault
	}
}
