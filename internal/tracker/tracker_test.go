package tracker

import (
	"bytes"
	"context"
	"errors"
	"log"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Tiliavir/tasker/internal/model"
	"github.com/Tiliavir/tasker/internal/points"
	"github.com/Tiliavir/tasker/internal/storage"
)

// fakeClock returns a settable time starting at the Unix epoch.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Set(ms int64)            { c.t = time.UnixMilli(ms) }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
func (c *fakeClock) At(ms int64) time.Time   { return time.UnixMilli(ms) }

func newTestTracker(t *testing.T, kv storage.KV) (*Tracker, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.UnixMilli(0)}
	tr := New(kv, WithClock(clock.Now))
	tr.Load(context.Background())
	return tr, clock
}

func openIntervals(tasks []model.Task) int {
	n := 0
	for _, task := range tasks {
		for _, l := range task.Logs {
			if l.Open() {
				n++
			}
		}
	}
	return n
}

func TestCreateTask(t *testing.T) {
	tr, _ := newTestTracker(t, storage.NewMemory())

	task, ok := tr.CreateTask("Write report")
	if !ok {
		t.Fatal("CreateTask returned false")
	}
	if task.ID == "" {
		t.Error("expected generated ID")
	}
	if task.TotalTime != 0 || len(task.Logs) != 0 {
		t.Errorf("new task = %+v, want empty log and zero total", task)
	}

	for _, blank := range []string{"", "   ", "\t\n"} {
		if _, ok := tr.CreateTask(blank); ok {
			t.Errorf("CreateTask(%q) accepted a blank name", blank)
		}
	}
	if got := len(tr.Tasks()); got != 1 {
		t.Errorf("tasks = %d, want 1", got)
	}

	other, _ := tr.CreateTask("Review")
	if other.ID == task.ID {
		t.Error("IDs are not unique")
	}
	tasks := tr.Tasks()
	if tasks[0].Name != "Write report" || tasks[1].Name != "Review" {
		t.Errorf("order = %q, %q", tasks[0].Name, tasks[1].Name)
	}
}

func TestToggleStartStopScenario(t *testing.T) {
	tr, clock := newTestTracker(t, storage.NewMemory())
	a, _ := tr.CreateTask("A")

	clock.Set(0)
	tr.Toggle(a.ID)
	if tr.ActiveID() != a.ID {
		t.Fatalf("ActiveID = %q, want %q", tr.ActiveID(), a.ID)
	}

	got, _ := tr.Task(a.ID)
	if e := tr.Elapsed(got, clock.At(5000)); e != 5000*time.Millisecond {
		t.Errorf("Elapsed at 5s = %v, want 5s", e)
	}

	clock.Set(5000)
	tr.Toggle(a.ID)
	if tr.ActiveID() != "" {
		t.Errorf("ActiveID = %q after stopping, want none", tr.ActiveID())
	}
	got, _ = tr.Task(a.ID)
	if got.TotalTime != 5000 {
		t.Errorf("TotalTime = %d, want 5000", got.TotalTime)
	}
	if len(got.Logs) != 1 || got.Logs[0].EndTime == nil || *got.Logs[0].EndTime != 5000 {
		t.Fatalf("logs = %+v, want one interval ending at 5000", got.Logs)
	}
	if e := tr.Elapsed(got, clock.At(60000)); e != 5000*time.Millisecond {
		t.Errorf("Elapsed after stop = %v, want 5s", e)
	}
}

func TestToggleSwitchesTasks(t *testing.T) {
	tr, clock := newTestTracker(t, storage.NewMemory())
	a, _ := tr.CreateTask("A")
	b, _ := tr.CreateTask("B")

	clock.Set(1000)
	tr.Toggle(a.ID)
	clock.Set(1250)
	tr.Toggle(b.ID)

	if tr.ActiveID() != b.ID {
		t.Errorf("ActiveID = %q, want B", tr.ActiveID())
	}
	gotA, _ := tr.Task(a.ID)
	if len(gotA.Logs) != 1 || gotA.Logs[0].Open() {
		t.Fatalf("A logs = %+v, want one closed interval", gotA.Logs)
	}
	if gotA.TotalTime != 250 {
		t.Errorf("A TotalTime = %d, want 250", gotA.TotalTime)
	}
	gotB, _ := tr.Task(b.ID)
	if len(gotB.Logs) != 1 || !gotB.Logs[0].Open() || gotB.Logs[0].StartTime != 1250 {
		t.Errorf("B logs = %+v, want one open interval from 1250", gotB.Logs)
	}

	// Switching back closes B once and opens a second interval on A.
	clock.Set(2000)
	tr.Toggle(a.ID)
	gotA, _ = tr.Task(a.ID)
	gotB, _ = tr.Task(b.ID)
	if len(gotA.Logs) != 2 || !gotA.Logs[1].Open() {
		t.Errorf("A logs = %+v", gotA.Logs)
	}
	if len(gotB.Logs) != 1 || gotB.TotalTime != 750 {
		t.Errorf("B = %+v, want one closed interval of 750ms", gotB)
	}
}

func TestToggleUnknownIDIsNoop(t *testing.T) {
	kv := storage.NewMemory()
	tr, clock := newTestTracker(t, kv)
	a, _ := tr.CreateTask("A")
	tr.Toggle(a.ID)
	before := tr.Tasks()

	clock.Advance(time.Minute)
	tr.Toggle("does-not-exist")
	tr.Toggle("")

	if tr.ActiveID() != a.ID {
		t.Errorf("ActiveID = %q, want A still running", tr.ActiveID())
	}
	if !reflect.DeepEqual(tr.Tasks(), before) {
		t.Errorf("tasks changed: %+v", tr.Tasks())
	}
}

func TestAtMostOneOpenInterval(t *testing.T) {
	tr, clock := newTestTracker(t, storage.NewMemory())
	var ids []string
	for _, name := range []string{"A", "B", "C"} {
		task, _ := tr.CreateTask(name)
		ids = append(ids, task.ID)
	}

	sequence := []int{0, 0, 1, 2, 2, 2, 1, 0, 1, 1, 0, 2, 0}
	for step, idx := range sequence {
		clock.Advance(time.Duration(step+1) * time.Second)
		tr.Toggle(ids[idx])

		open := openIntervals(tr.Tasks())
		if open > 1 {
			t.Fatalf("step %d: %d open intervals", step, open)
		}
		if (tr.ActiveID() == "") != (open == 0) {
			t.Fatalf("step %d: active=%q but %d open intervals", step, tr.ActiveID(), open)
		}
		if tr.ActiveID() != "" {
			active, _ := tr.Task(tr.ActiveID())
			if _, ok := active.OpenInterval(); !ok {
				t.Fatalf("step %d: active task has no open interval", step)
			}
		}
	}
}

func TestElapsedMonotonicWhileActive(t *testing.T) {
	tr, clock := newTestTracker(t, storage.NewMemory())
	a, _ := tr.CreateTask("A")
	clock.Set(10_000)
	tr.Toggle(a.ID)
	clock.Set(20_000)
	tr.Toggle(a.ID)
	clock.Set(30_000)
	tr.Toggle(a.ID)

	task, _ := tr.Task(a.ID)
	prev := time.Duration(-1)
	for ms := int64(30_000); ms <= 40_000; ms += 500 {
		e := tr.Elapsed(task, time.UnixMilli(ms))
		if e < prev {
			t.Fatalf("Elapsed decreased at %d: %v < %v", ms, e, prev)
		}
		prev = e
	}
	if prev != 20*time.Second {
		t.Errorf("final Elapsed = %v, want 20s", prev)
	}
}

func TestElapsedIgnoresOpenIntervalOfInactiveTask(t *testing.T) {
	tr, _ := newTestTracker(t, storage.NewMemory())
	task := model.Task{
		ID:        "dangling",
		Logs:      []model.Interval{{StartTime: 0}},
		TotalTime: 1000,
	}
	if got := tr.Elapsed(task, time.UnixMilli(999_999)); got != time.Second {
		t.Errorf("Elapsed = %v, want 1s", got)
	}
}

func TestStop(t *testing.T) {
	tr, clock := newTestTracker(t, storage.NewMemory())
	tr.Stop() // idle: nothing happens

	a, _ := tr.CreateTask("A")
	tr.Toggle(a.ID)
	clock.Advance(3 * time.Second)
	tr.Stop()

	if tr.ActiveID() != "" {
		t.Error("Stop left a task running")
	}
	got, _ := tr.Task(a.ID)
	if got.TotalTime != 3000 {
		t.Errorf("TotalTime = %d, want 3000", got.TotalTime)
	}
}

func TestPointsUseCurrentTiers(t *testing.T) {
	tr, clock := newTestTracker(t, storage.NewMemory())
	a, _ := tr.CreateTask("A")
	tr.Toggle(a.ID)
	task, _ := tr.Task(a.ID)

	tests := []struct {
		at   time.Duration
		want int
	}{
		{3 * time.Hour, 1},
		{4 * time.Hour, 2},
		{100 * time.Hour, 13},
	}
	for _, tt := range tests {
		if got := tr.Points(task, clock.Now().Add(tt.at)); got != tt.want {
			t.Errorf("Points after %v = %d, want %d", tt.at, got, tt.want)
		}
	}
}

func TestTasksReturnsCopy(t *testing.T) {
	tr, _ := newTestTracker(t, storage.NewMemory())
	a, _ := tr.CreateTask("A")
	tr.Toggle(a.ID)
	tr.Toggle(a.ID)

	tasks := tr.Tasks()
	tasks[0].Name = "changed"
	*tasks[0].Logs[0].EndTime = 42

	got, _ := tr.Task(a.ID)
	if got.Name != "A" || *got.Logs[0].EndTime == 42 {
		t.Errorf("internal state aliased: %+v", got)
	}
}

func TestPersistsAfterEveryMutation(t *testing.T) {
	kv := storage.NewMemory()
	tr, clock := newTestTracker(t, kv)
	ctx := context.Background()

	a, _ := tr.CreateTask("A")
	saved, err := storage.ReadTasks(ctx, kv)
	if err != nil || len(saved) != 1 {
		t.Fatalf("after CreateTask: saved=%v err=%v", saved, err)
	}

	tr.Toggle(a.ID)
	clock.Advance(time.Second)
	tr.Toggle(a.ID)
	saved, _ = storage.ReadTasks(ctx, kv)
	if saved[0].TotalTime != 1000 {
		t.Errorf("saved TotalTime = %d, want 1000", saved[0].TotalTime)
	}

	tr.AddTier()
	tiers, err := storage.ReadTiers(ctx, kv)
	if err != nil || len(tiers) != 7 {
		t.Fatalf("after AddTier: tiers=%d err=%v", len(tiers), err)
	}
}

func TestNoWritesBeforeLoad(t *testing.T) {
	kv := storage.NewMemory()
	ctx := context.Background()
	existing := []model.Task{{ID: "keep", Name: "Saved", Logs: []model.Interval{}}}
	if err := storage.WriteTasks(ctx, kv, existing); err != nil {
		t.Fatal(err)
	}

	tr := New(kv)
	if tr.Loaded() {
		t.Fatal("Loaded before Load")
	}
	tr.CreateTask("unsaved")
	tr.AddTier()

	saved, _ := storage.ReadTasks(ctx, kv)
	if !reflect.DeepEqual(saved, existing) {
		t.Errorf("state overwritten before Load: %+v", saved)
	}
	if _, err := storage.ReadTiers(ctx, kv); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("tiers written before Load: %v", err)
	}

	tr.Load(ctx)
	if got := tr.Tasks(); len(got) != 1 || got[0].ID != "keep" {
		t.Errorf("after Load tasks = %+v", got)
	}
}

func TestLoadRestoresStateButNotActiveTask(t *testing.T) {
	kv := storage.NewMemory()
	tr, clock := newTestTracker(t, kv)
	a, _ := tr.CreateTask("A")
	tr.RemoveTier(5)
	tr.Toggle(a.ID)
	clock.Advance(time.Minute)

	reloaded := New(kv, WithClock(clock.Now))
	reloaded.Load(context.Background())

	if reloaded.ActiveID() != "" {
		t.Errorf("ActiveID restored as %q", reloaded.ActiveID())
	}
	if !reflect.DeepEqual(reloaded.Tasks(), tr.Tasks()) {
		t.Errorf("tasks = %+v, want %+v", reloaded.Tasks(), tr.Tasks())
	}
	if !reflect.DeepEqual(reloaded.Tiers(), tr.Tiers()) {
		t.Errorf("tiers = %+v, want %+v", reloaded.Tiers(), tr.Tiers())
	}

	// The dangling interval stays open and does not count.
	task, _ := reloaded.Task(a.ID)
	if _, ok := task.OpenInterval(); !ok {
		t.Error("dangling interval was closed on load")
	}
	if e := reloaded.Elapsed(task, clock.Now().Add(time.Hour)); e != 0 {
		t.Errorf("Elapsed of dangling task = %v, want 0", e)
	}
}

func TestToggleKeepsDanglingIntervalFromEarlierSession(t *testing.T) {
	kv := storage.NewMemory()
	tr, clock := newTestTracker(t, kv)
	a, _ := tr.CreateTask("A")
	clock.Set(0)
	tr.Toggle(a.ID)

	// Quit without stopping, relaunch a day later and start A again.
	day := int64(24 * time.Hour / time.Millisecond)
	reloaded := New(kv, WithClock(clock.Now))
	reloaded.Load(context.Background())
	clock.Set(day)
	reloaded.Toggle(a.ID)

	task, _ := reloaded.Task(a.ID)
	if task.TotalTime != 0 {
		t.Errorf("TotalTime = %d, want 0: the offline gap must not be counted", task.TotalTime)
	}
	if len(task.Logs) != 2 {
		t.Fatalf("logs = %+v, want dangling interval plus a new one", task.Logs)
	}
	if !task.Logs[0].Open() || task.Logs[0].StartTime != 0 {
		t.Errorf("dangling interval = %+v, want it preserved as-is", task.Logs[0])
	}
	if !task.Logs[1].Open() || task.Logs[1].StartTime != day {
		t.Errorf("new interval = %+v, want open from %d", task.Logs[1], day)
	}
	if reloaded.ActiveID() != a.ID {
		t.Errorf("ActiveID = %q, want %q", reloaded.ActiveID(), a.ID)
	}

	clock.Set(day + 10*60_000)
	if got := reloaded.Points(task, clock.Now()); got != 1 {
		t.Errorf("Points after 10 minutes = %d, want 1", got)
	}
	reloaded.Stop()
	task, _ = reloaded.Task(a.ID)
	if task.TotalTime != 10*60_000 {
		t.Errorf("TotalTime after stop = %d, want %d", task.TotalTime, 10*60_000)
	}
	if !task.Logs[0].Open() {
		t.Error("stop closed the dangling interval instead of the last one")
	}
}

func TestLoadFallsBackOnCorruptSnapshot(t *testing.T) {
	kv := storage.NewMemory()
	ctx := context.Background()
	_ = kv.Set(ctx, storage.KeyTasks, "{not json")
	_ = kv.Set(ctx, storage.KeyTiers, "[]")

	var buf bytes.Buffer
	tr := New(kv, WithLogger(log.New(&buf, "", 0)))
	tr.Load(ctx)

	if len(tr.Tasks()) != 0 {
		t.Errorf("tasks = %d, want 0", len(tr.Tasks()))
	}
	if !reflect.DeepEqual(tr.Tiers(), points.DefaultTiers()) {
		t.Errorf("tiers = %+v, want defaults", tr.Tiers())
	}
	if !strings.Contains(buf.String(), "loading tasks") {
		t.Errorf("corrupt tasks not logged: %q", buf.String())
	}
	if !tr.Loaded() {
		t.Error("Load did not set the guard")
	}
}

// failingKV reads like an empty store and fails every write.
type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, error) { return "", storage.ErrNotFound }
func (failingKV) Set(context.Context, string, string) error   { return errors.New("disk full") }
func (failingKV) Close() error                                 { return nil }

func TestSaveFailureKeepsMemoryState(t *testing.T) {
	var buf bytes.Buffer
	clock := &fakeClock{}
	tr := New(failingKV{}, WithLogger(log.New(&buf, "", 0)), WithClock(clock.Now))
	tr.Load(context.Background())

	a, ok := tr.CreateTask("A")
	if !ok {
		t.Fatal("CreateTask failed")
	}
	tr.Toggle(a.ID)
	if tr.ActiveID() != a.ID {
		t.Error("toggle rolled back after failed save")
	}
	if len(tr.Tasks()) != 1 {
		t.Error("task rolled back after failed save")
	}
	if !strings.Contains(buf.String(), "disk full") {
		t.Errorf("save failure not logged: %q", buf.String())
	}
}

func TestTierEdits(t *testing.T) {
	tr, _ := newTestTracker(t, storage.NewMemory())

	for len(tr.Tiers()) > 1 {
		if !tr.RemoveTier(0) {
			t.Fatal("RemoveTier refused with more than one tier")
		}
	}
	if tr.RemoveTier(0) {
		t.Error("removed the last tier")
	}
	if len(tr.Tiers()) != 1 {
		t.Errorf("tiers = %d, want 1", len(tr.Tiers()))
	}

	added := tr.AddTier()
	if added.MinHours != 999 || added.MaxHours != 1007 || added.Points != 14 {
		t.Errorf("AddTier = %+v", added)
	}

	if err := tr.UpdateTier(1, points.FieldMaxHours, "oops"); err != nil {
		t.Fatalf("UpdateTier: %v", err)
	}
	if tr.Tiers()[1].MaxHours != 0 {
		t.Errorf("non-numeric input not coerced: %+v", tr.Tiers()[1])
	}
	if err := tr.UpdateTier(5, points.FieldPoints, "1"); err == nil {
		t.Error("expected out-of-range error")
	}

	// Display order stays as inserted even though tier 1 now sorts first.
	if err := tr.UpdateTier(1, points.FieldMinHours, "-5"); err != nil {
		t.Fatal(err)
	}
	if tr.Tiers()[0].Points != 13 {
		t.Errorf("tiers reordered: %+v", tr.Tiers())
	}

	if err := tr.ReplaceTiers(nil); !errors.Is(err, points.ErrNoTiers) {
		t.Errorf("ReplaceTiers(nil) = %v", err)
	}
	if err := tr.ReplaceTiers(points.DefaultTiers()); err != nil {
		t.Fatal(err)
	}
	if len(tr.Tiers()) != 6 {
		t.Errorf("tiers = %d after replace", len(tr.Tiers()))
	}
}
