// Package tracker holds the timer state for a set of tasks and the story
// point tiers used to estimate them. A Tracker is owned by a single
// controller; it is not safe for concurrent use.
package tracker

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/Tiliavir/tasker/internal/model"
	"github.com/Tiliavir/tasker/internal/points"
	"github.com/Tiliavir/tasker/internal/storage"
	"github.com/Tiliavir/tasker/internal/timecalc"
)

// Tracker is the in-memory task collection plus the single active task.
type Tracker struct {
	store  storage.KV
	logger *log.Logger
	now    func() time.Time

	tasks    []model.Task
	tiers    []model.Tier
	activeID string

	// loaded guards against writing defaults over saved state before Load ran.
	loaded bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger used for persistence failures.
func WithLogger(l *log.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New creates an empty Tracker with the default tiers. Call Load before
// mutating it, otherwise nothing is persisted.
func New(store storage.KV, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		logger: log.New(io.Discard, "", 0),
		now:    time.Now,
		tasks:  []model.Task{},
		tiers:  points.DefaultTiers(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Load reads the saved snapshots. Missing or unreadable snapshots leave the
// defaults in place; problems are logged, never returned.
func (t *Tracker) Load(ctx context.Context) {
	tasks, err := storage.ReadTasks(ctx, t.store)
	switch {
	case err == nil:
		t.tasks = tasks
	case errors.Is(err, storage.ErrNotFound):
	default:
		t.logger.Printf("loading tasks, starting empty: %v", err)
	}

	tiers, err := storage.ReadTiers(ctx, t.store)
	switch {
	case err == nil && len(tiers) > 0:
		t.tiers = tiers
	case err == nil:
		t.logger.Printf("saved tier list is empty, using defaults")
	case errors.Is(err, storage.ErrNotFound):
	default:
		t.logger.Printf("loading story point tiers, using defaults: %v", err)
	}

	t.activeID = ""
	t.loaded = true
}

// Loaded reports whether Load has run.
func (t *Tracker) Loaded() bool {
	return t.loaded
}

// CreateTask appends a new task. Blank names are ignored and reported
// with false.
func (t *Tracker) CreateTask(name string) (model.Task, bool) {
	if strings.TrimSpace(name) == "" {
		return model.Task{}, false
	}
	task := model.Task{
		ID:   timecalc.NewID(),
		Name: name,
		Logs: []model.Interval{},
	}
	t.tasks = append(t.tasks, task)
	t.saveTasks()
	return task.Clone(), true
}

// Toggle starts taskID, or stops it when it is already running. Starting a
// task stops whichever task was running before. Unknown IDs are ignored.
func (t *Tracker) Toggle(taskID string) {
	target := t.indexOf(taskID)
	if target < 0 {
		return
	}
	now := t.now().UnixMilli()

	if t.activeID != "" {
		if i := t.indexOf(t.activeID); i >= 0 {
			closeOpen(&t.tasks[i], now)
		}
	}

	if taskID != t.activeID {
		t.tasks[target].Logs = append(t.tasks[target].Logs, model.Interval{StartTime: now})
		t.activeID = taskID
	} else {
		t.activeID = ""
	}
	t.saveTasks()
}

// Stop stops the running task, if any.
func (t *Tracker) Stop() {
	if t.activeID == "" {
		return
	}
	t.Toggle(t.activeID)
}

// closeOpen ends the task's last interval at now and folds its duration
// into TotalTime. Already-closed logs are left alone.
func closeOpen(task *model.Task, now int64) {
	n := len(task.Logs)
	if n == 0 || !task.Logs[n-1].Open() {
		return
	}
	end := now
	task.Logs[n-1].EndTime = &end
	task.TotalTime += now - task.Logs[n-1].StartTime
}

// Elapsed returns the task's tracked time at now, including the running
// interval when task is the active one.
func (t *Tracker) Elapsed(task model.Task, now time.Time) time.Duration {
	total := task.TotalTime
	if task.ID == t.activeID && task.ID != "" {
		if open, ok := task.OpenInterval(); ok {
			total += now.UnixMilli() - open.StartTime
		}
	}
	return time.Duration(total) * time.Millisecond
}

// Points classifies the task's elapsed time at now with the current tiers.
func (t *Tracker) Points(task model.Task, now time.Time) int {
	return points.Classify(t.Elapsed(task, now), t.tiers)
}

// Tasks returns a copy of all tasks in insertion order.
func (t *Tracker) Tasks() []model.Task {
	out := make([]model.Task, len(t.tasks))
	for i, task := range t.tasks {
		out[i] = task.Clone()
	}
	return out
}

// Task looks up a task by ID.
func (t *Tracker) Task(id string) (model.Task, bool) {
	i := t.indexOf(id)
	if i < 0 {
		return model.Task{}, false
	}
	return t.tasks[i].Clone(), true
}

// ActiveID returns the running task's ID, or "" when idle.
func (t *Tracker) ActiveID() string {
	return t.activeID
}

func (t *Tracker) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range t.tasks {
		if t.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (t *Tracker) saveTasks() {
	if !t.loaded {
		return
	}
	if err := storage.WriteTasks(context.Background(), t.store, t.tasks); err != nil {
		t.logger.Printf("saving tasks: %v", err)
	}
}

func (t *Tracker) saveTiers() {
	if !t.loaded {
		return
	}
	if err := storage.WriteTiers(context.Background(), t.store, t.tiers); err != nil {
		t.logger.Printf("saving story point tiers: %v", err)
	}
}
