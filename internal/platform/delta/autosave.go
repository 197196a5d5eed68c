package delta

import (
	"sync"
	"time"
)

// AutoSaver flushes a tracking session after a quiet period. Every call to
// Touch re-arms a single-shot timer; when it fires, the flush callback
// receives the closed session and the tracker re-anchors at the text passed
// to the latest Touch.
type AutoSaver struct {
	mu      sync.Mutex
	tracker *Tracker
	delay   time.Duration
	flush   func(Session)
	timer   *time.Timer
	latest  string
	stopped bool
}

// NewAutoSaver wraps tracker with a debounce of delay. flush is invoked on
// the timer goroutine; callers persisting the session must synchronize in
// the callback.
func NewAutoSaver(tracker *Tracker, delay time.Duration, flush func(Session)) *AutoSaver {
	return &AutoSaver{tracker: tracker, delay: delay, flush: flush}
}

// Touch records edit activity with the note's current text and re-arms the
// debounce timer.
func (a *AutoSaver) Touch(currentText string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.latest = currentText
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.fire)
}

func (a *AutoSaver) fire() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	baseline := a.latest
	a.mu.Unlock()

	session := a.tracker.ResetBaseline(baseline)
	if len(session.Changes) > 0 && a.flush != nil {
		a.flush(session)
	}
}

// Stop cancels any pending flush. It does not flush.
func (a *AutoSaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
	}
}
