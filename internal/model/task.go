package model

import "time"

// Interval is a single start/stop record of a task. Times are Unix
// milliseconds; EndTime is nil while the interval is open.
type Interval struct {
	StartTime int64  `json:"startTime"`
	EndTime   *int64 `json:"endTime"`
}

// Open reports whether the interval has not been stopped yet.
func (i Interval) Open() bool {
	return i.EndTime == nil
}

// Start returns the start of the interval as a time.Time.
func (i Interval) Start() time.Time {
	return time.UnixMilli(i.StartTime)
}

// End returns the end of the interval, or the zero time while open.
func (i Interval) End() time.Time {
	if i.EndTime == nil {
		return time.Time{}
	}
	return time.UnixMilli(*i.EndTime)
}

// Task is a named unit of work with its log of intervals.
// TotalTime holds the milliseconds of all closed intervals.
type Task struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Logs      []Interval `json:"logs"`
	TotalTime int64      `json:"totalTime"`
}

// LastLog returns the most recent interval, if any.
func (t Task) LastLog() (Interval, bool) {
	if len(t.Logs) == 0 {
		return Interval{}, false
	}
	return t.Logs[len(t.Logs)-1], true
}

// OpenInterval returns the last interval when it is still open.
func (t Task) OpenInterval() (Interval, bool) {
	last, ok := t.LastLog()
	if !ok || !last.Open() {
		return Interval{}, false
	}
	return last, true
}

// Clone returns a deep copy so callers cannot alias the log slice.
func (t Task) Clone() Task {
	c := t
	c.Logs = make([]Interval, len(t.Logs))
	for i, l := range t.Logs {
		c.Logs[i] = l
		if l.EndTime != nil {
			end := *l.EndTime
			c.Logs[i].EndTime = &end
		}
	}
	return c
}

// Tier maps an hour range [MinHours, MaxHours) to a story point value.
type Tier struct {
	Points   int     `json:"points" yaml:"points"`
	MinHours float64 `json:"minHours" yaml:"min_hours"`
	MaxHours float64 `json:"maxHours" yaml:"max_hours"`
}
