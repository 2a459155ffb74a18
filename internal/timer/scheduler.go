package timer

import (
	"sort"
	"sync"
	"time"
)

// CancelFunc stops a scheduled callback. Calling it more than once is safe.
type CancelFunc func()

// Scheduler runs callbacks after a delay or at a fixed interval.
type Scheduler interface {
	After(d time.Duration, fn func()) CancelFunc
	Every(d time.Duration, fn func()) CancelFunc
}

// Real schedules on the wall clock.
func Real() Scheduler { return realScheduler{} }

type realScheduler struct{}

func (realScheduler) After(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

func (realScheduler) Every(d time.Duration, fn func()) CancelFunc {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	var once sync.Once
	go func() {
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

// Manual is a Scheduler driven by Advance, for tests that simulate time.
// Callbacks run synchronously on the goroutine calling Advance.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	nextID int
	jobs   map[int]*manualJob
}

type manualJob struct {
	id       int
	due      time.Duration
	interval time.Duration
	fn       func()
}

func NewManual() *Manual {
	return &Manual{jobs: make(map[int]*manualJob)}
}

func (m *Manual) After(d time.Duration, fn func()) CancelFunc {
	return m.add(d, 0, fn)
}

func (m *Manual) Every(d time.Duration, fn func()) CancelFunc {
	if d <= 0 {
		d = time.Nanosecond
	}
	return m.add(d, d, fn)
}

// Pending reports how many callbacks are still scheduled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// Advance moves the clock forward, firing every callback that comes due in order.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		job := m.nextDueLocked(target)
		if job == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = job.due
		if job.interval > 0 {
			job.due += job.interval
		} else {
			delete(m.jobs, job.id)
		}
		fn := job.fn
		m.mu.Unlock()
		fn()
	}
}

func (m *Manual) add(d, interval time.Duration, fn func()) CancelFunc {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.jobs[id] = &manualJob{id: id, due: m.now + d, interval: interval, fn: fn}
	return func() {
		m.mu.Lock()
		delete(m.jobs, id)
		m.mu.Unlock()
	}
}

func (m *Manual) nextDueLocked(target time.Duration) *manualJob {
	due := make([]*manualJob, 0, len(m.jobs))
	for _, j := range m.jobs {
		if j.due <= target {
			due = append(due, j)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, k int) bool {
		if due[i].due != due[k].due {
			return due[i].due < due[k].due
		}
		return due[i].id < due[k].id
	})
	return due[0]
}
