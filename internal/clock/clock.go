package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer is a pending delayed callback.
type Timer interface {
	// Stop cancels the callback and reports whether it was still pending.
	Stop() bool
}

// Clock supplies the current time and schedules delayed callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real is backed by the time package.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Fake is a manually advanced clock. Callbacks run synchronously inside Advance,
// on the caller's goroutine, in deadline order.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers map[uint64]*fakeTimer
}

type fakeTimer struct {
	clock *Fake
	id    uint64
	when  time.Time
	fn    func()
}

// NewFake returns a fake clock frozen at now.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now, timers: make(map[uint64]*fakeTimer)}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &fakeTimer{clock: f, id: f.seq, when: f.now.Add(d), fn: fn}
	f.timers[t.id] = t
	return t
}

// Advance moves the clock forward, firing every callback that comes due.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	for {
		next := f.nextDueLocked(target)
		if next == nil {
			break
		}
		delete(f.timers, next.id)
		f.now = next.when
		f.mu.Unlock()
		next.fn()
		f.mu.Lock()
	}
	f.now = target
	f.mu.Unlock()
}

// Pending returns the number of scheduled callbacks.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

func (f *Fake) nextDueLocked(target time.Time) *fakeTimer {
	due := make([]*fakeTimer, 0, len(f.timers))
	for _, t := range f.timers {
		if !t.when.After(target) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].when.Equal(due[j].when) {
			return due[i].when.Before(due[j].when)
		}
		return due[i].id < due[j].id
	})
	return due[0]
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if _, ok := t.clock.timers[t.id]; !ok {
		return false
	}
	delete(t.clock.timers, t.id)
	return true
}
