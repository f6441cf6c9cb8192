package ticker

import (
	"sync"
	"time"
)

// Ticker fans a periodic tick out to subscribers. It only signals that the
// display should be recomputed; it never carries state.
type Ticker struct {
	mu       sync.Mutex
	interval time.Duration
	subs     []chan time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// New creates a Ticker. Non-positive intervals default to one second.
func New(interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Ticker{interval: interval}
}

// Interval returns the tick period.
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// Subscribe registers a new observer channel. Ticks are dropped for an
// observer whose buffer is full.
func (t *Ticker) Subscribe(buffer int) <-chan time.Time {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan time.Time, buffer)
	t.mu.Lock()
	t.subs = append(t.subs, ch)
	t.mu.Unlock()
	return ch
}

// Start launches the ticking loop. Calling Start on a running Ticker does nothing.
func (t *Ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.running = true
	t.stopCh = make(chan struct{})
	t.doneCh = make(chan struct{})
	go t.run(t.stopCh, t.doneCh)
}

// Stop terminates the ticking loop and closes all observer channels.
// It waits for the loop to exit, so no tick is delivered after Stop returns.
func (t *Ticker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	close(t.stopCh)
	done := t.doneCh
	t.mu.Unlock()

	<-done

	t.mu.Lock()
	subs := t.subs
	t.subs = nil
	t.mu.Unlock()
	for _, ch := range subs {
		close(ch)
	}
}

func (t *Ticker) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	for {
		select {
		case <-stopCh:
			return
		case now := <-tk.C:
			t.emit(now)
		}
	}
}

func (t *Ticker) emit(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ch := range t.subs {
		select {
		case ch <- now:
		default:
		}
	}
}
