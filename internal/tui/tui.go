package tui

import (
	"fmt"
	"time"

	"github.com/Tiliavir/tasker/internal/model"
	"github.com/Tiliavir/tasker/internal/ticker"
	"github.com/Tiliavir/tasker/internal/timecalc"
	"github.com/Tiliavir/tasker/internal/tracker"
	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
)

const (
	viewHeader = "header"
	viewFooter = "footer"
	viewTasks  = "tasks"
	viewTiers  = "tiers"
	viewInput  = "input"
)

type inputKind int

const (
	inputAddTask inputKind = iota
	inputTierField
)

type inputState struct {
	kind  inputKind
	title string
	value string
}

// widget holds the screen state kept alongside a Tracker.
type widget struct {
	tracker *tracker.Tracker
	now     func() time.Time

	selected     int
	tiersOpen    bool
	tierSelected int
	tierField    int

	input       *inputState
	inputEditor *inputEditor
	status      string
}

type inputEditor struct {
	ui *widget
}

// Run shows the widget until the user quits. Every tick of tk redraws the
// screen; tk is stopped before Run returns.
func Run(tr *tracker.Tracker, tk *ticker.Ticker) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	stopTicks := func() {}
	defer func() {
		// Ticks call gui.Update, so they must be drained before the gui closes.
		stopTicks()
		gui.Close()
	}()

	ui := newUI(tr, time.Now)
	gui.Mouse = true

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}

	forwarded := forwardTicks(tk.Subscribe(1), func() {
		gui.Update(func(*gocui.Gui) error { return nil })
	})
	tk.Start()
	stopTicks = func() {
		tk.Stop()
		<-forwarded
	}

	if err := gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}
	return nil
}

// forwardTicks calls redraw for every tick until ticks is closed. The
// returned channel is closed once the last redraw has been issued.
func forwardTicks(ticks <-chan time.Time, redraw func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range ticks {
			redraw()
		}
	}()
	return done
}

func newUI(tr *tracker.Tracker, now func() time.Time) *widget {
	ui := &widget{tracker: tr, now: now}
	ui.inputEditor = &inputEditor{ui: ui}
	return ui
}

func (u *widget) bindKeys(gui *gocui.Gui) error {
	if err := gui.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, u.quit); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'q', gocui.ModNone, u.quitUnlessTyping); err != nil {
		return err
	}

	if err := gui.SetKeybinding(viewTasks, gocui.KeyArrowDown, gocui.ModNone, u.moveDown); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, 'j', gocui.ModNone, u.moveDown); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, gocui.KeyArrowUp, gocui.ModNone, u.moveUp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, 'k', gocui.ModNone, u.moveUp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, gocui.KeyEnter, gocui.ModNone, u.toggleSelected); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, gocui.KeySpace, gocui.ModNone, u.toggleSelected); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, 'a', gocui.ModNone, u.openAddTask); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, 's', gocui.ModNone, u.stopActive); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, 't', gocui.ModNone, u.openTiers); err != nil {
		return err
	}

	if err := gui.SetKeybinding(viewTiers, gocui.KeyArrowDown, gocui.ModNone, u.tierDown); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTiers, 'j', gocui.ModNone, u.tierDown); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTiers, gocui.KeyArrowUp, gocui.ModNone, u.tierUp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTiers, 'k', gocui.ModNone, u.tierUp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTiers, gocui.KeyTab, gocui.ModNone, u.nextTierField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTiers, gocui.KeyEnter, gocui.ModNone, u.openTierEdit); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTiers, 'a', gocui.ModNone, u.addTier); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTiers, 'd', gocui.ModNone, u.removeTier); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTiers, gocui.KeyEsc, gocui.ModNone, u.closeTiers); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTiers, 't', gocui.ModNone, u.closeTiers); err != nil {
		return err
	}

	if err := gui.SetKeybinding(viewInput, gocui.KeyEnter, gocui.ModNone, u.submitInput); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewInput, gocui.KeyEsc, gocui.ModNone, u.cancelInput); err != nil {
		return err
	}

	return gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: viewTasks, Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
		return u.onTaskClick(gui, opts)
	}})
}

func (u *widget) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}
	now := u.now()

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	u.renderHeader(headerView, now)

	footerY1 := max(maxY-1, 3)
	footerY0 := footerY1 - 2
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	u.renderFooter(footerView)

	tasksView, err := gui.SetView(viewTasks, 0, 2, maxX-1, max(footerY0-1, 3), 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		tasksView.Title = "Tasks"
	}
	applyViewStyle(tasksView, !u.tiersOpen && u.input == nil)
	u.renderTasks(tasksView, now, maxX-2)

	if u.tiersOpen {
		if err := u.showTiers(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewTiers)
	}

	if u.input != nil {
		if err := u.showInput(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewInput)
	}

	_, _ = gui.SetCurrentView(u.focus())
	gui.Cursor = u.input != nil
	return nil
}

func (u *widget) focus() string {
	switch {
	case u.input != nil:
		return viewInput
	case u.tiersOpen:
		return viewTiers
	default:
		return viewTasks
	}
}

func (u *widget) renderHeader(view *gocui.View, now time.Time) {
	view.Clear()
	task, ok := u.tracker.Task(u.tracker.ActiveID())
	if !ok {
		fmt.Fprint(view, "tasker  idle")
		return
	}
	fmt.Fprintf(view, "tasker  running: %s  %s", task.Name, timecalc.FormatClock(u.tracker.Elapsed(task, now)))
}

func (u *widget) renderFooter(view *gocui.View) {
	view.Clear()
	if u.tiersOpen {
		fmt.Fprintln(view, "a add tier | d remove | enter edit | tab next field | esc close | q quit")
	} else {
		fmt.Fprintln(view, "a add | enter/space/click start-stop | s stop | t story points | q quit")
	}
	if u.status != "" {
		fmt.Fprint(view, u.status)
	}
}

func (u *widget) renderTasks(view *gocui.View, now time.Time, width int) {
	view.Clear()
	tasks := u.tracker.Tasks()
	if len(tasks) == 0 {
		fmt.Fprint(view, "  no tasks yet, press a to add one")
		return
	}
	u.selected = clamp(u.selected, len(tasks))
	for i, task := range tasks {
		active := task.ID == u.tracker.ActiveID()
		line := taskRow(task, active, u.tracker.Elapsed(task, now), u.tracker.Points(task, now), width)
		if i == u.selected {
			line = ">" + line[1:]
		}
		fmt.Fprintln(view, line)
	}
	view.SetCursor(0, u.selected)
}

// taskRow renders one list line: a marker column, the name padded to fit
// width, the elapsed clock and the story points.
func taskRow(task model.Task, active bool, elapsed time.Duration, pts int, width int) string {
	marker := " "
	if active {
		marker = "●"
	}
	clock := timecalc.FormatClock(elapsed)
	suffix := fmt.Sprintf("  %9s  %3d pts", clock, pts)
	nameWidth := max(width-3-len(suffix), 8)
	name := []rune(task.Name)
	if len(name) > nameWidth {
		name = append(name[:nameWidth-1], '…')
	}
	return fmt.Sprintf("  %s %-*s%s", marker, nameWidth, string(name), suffix)
}

func (u *widget) moveDown(_ *gocui.Gui, _ *gocui.View) error {
	if u.selected < len(u.tracker.Tasks())-1 {
		u.selected++
	}
	return nil
}

func (u *widget) moveUp(_ *gocui.Gui, _ *gocui.View) error {
	if u.selected > 0 {
		u.selected--
	}
	return nil
}

func (u *widget) toggleSelected(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	tasks := u.tracker.Tasks()
	if len(tasks) == 0 {
		return nil
	}
	u.selected = clamp(u.selected, len(tasks))
	u.tracker.Toggle(tasks[u.selected].ID)
	u.status = ""
	return nil
}

func (u *widget) stopActive(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.tracker.Stop()
	return nil
}

func (u *widget) onTaskClick(gui *gocui.Gui, opts gocui.ViewMouseBindingOpts) error {
	if u.inputActive() || u.tiersOpen {
		return nil
	}
	view, err := gui.View(viewTasks)
	if err != nil {
		return nil
	}
	_, y0, _, _ := view.Dimensions()
	_, oy := view.Origin()
	row := opts.Y - y0 - 1 + oy
	if row < 0 || row >= len(u.tracker.Tasks()) {
		return nil
	}
	u.selected = row
	return u.toggleSelected(gui, view)
}

func (u *widget) openAddTask(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.input = &inputState{kind: inputAddTask, title: "New task"}
	return nil
}

func (u *widget) submitInput(_ *gocui.Gui, _ *gocui.View) error {
	if u.input == nil {
		return nil
	}
	in := u.input
	u.input = nil
	switch in.kind {
	case inputAddTask:
		if _, ok := u.tracker.CreateTask(in.value); ok {
			u.selected = len(u.tracker.Tasks()) - 1
		}
	case inputTierField:
		if err := u.tracker.UpdateTier(u.tierSelected, tierFields[u.tierField], in.value); err != nil {
			u.status = err.Error()
		}
	}
	return nil
}

func (u *widget) cancelInput(_ *gocui.Gui, _ *gocui.View) error {
	u.input = nil
	return nil
}

func (u *widget) showInput(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(40, maxX/3)
	height := 2
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewInput, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	view.Title = u.input.title
	view.Editable = true
	view.Editor = u.inputEditor
	u.renderInput(view)
	_, _ = gui.SetViewOnTop(viewInput)
	return nil
}

func (u *widget) renderInput(view *gocui.View) {
	view.Clear()
	fmt.Fprint(view, u.input.value)
	view.SetCursor(len([]rune(u.input.value)), 0)
}

func (e *inputEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.input == nil {
		return false
	}
	ui.input.value = editValue(ui.input.value, key, ch, mod)
	if view != nil {
		ui.renderInput(view)
	}
	return true
}

// editValue applies a single keystroke to an input line.
func editValue(value string, key gocui.Key, ch rune, mod gocui.Modifier) string {
	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(value)
		if len(runes) > 0 {
			value = string(runes[:len(runes)-1])
		}
		return value
	case gocui.KeySpace:
		return value + " "
	case gocui.KeyCtrlU:
		return ""
	}
	if ch != 0 && ch != '\n' && ch != '\r' && mod == 0 {
		value += string(ch)
	}
	return value
}

func (u *widget) inputActive() bool {
	return u.input != nil
}

func (u *widget) quitUnlessTyping(gui *gocui.Gui, view *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	return u.quit(gui, view)
}

func (u *widget) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func applyViewStyle(view *gocui.View, focused bool) {
	view.Frame = true
	if focused {
		view.FrameColor = gocui.ColorCyan
		view.TitleColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
		view.TitleColor = gocui.ColorDefault
	}
}

// clamp keeps an index inside [0, n).
func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	return min(i, n-1)
}
