package timer

import (
	"fmt"
	"sync"
	"time"
)

type Mode string

const (
	ModePomodoro   Mode = "pomodoro"
	ModeShortBreak Mode = "shortBreak"
	ModeLongBreak  Mode = "longBreak"
)

// LongBreakEvery is how many completed pomodoros earn a long break.
const LongBreakEvery = 4

type Durations struct {
	Pomodoro   time.Duration `yaml:"pomodoro"`
	ShortBreak time.Duration `yaml:"shortBreak"`
	LongBreak  time.Duration `yaml:"longBreak"`
}

func DefaultDurations() Durations {
	return Durations{
		Pomodoro:   25 * time.Minute,
		ShortBreak: 5 * time.Minute,
		LongBreak:  15 * time.Minute,
	}
}

func (d Durations) of(m Mode) time.Duration {
	switch m {
	case ModeShortBreak:
		return d.ShortBreak
	case ModeLongBreak:
		return d.LongBreak
	default:
		return d.Pomodoro
	}
}

type Stats struct {
	PomodorosCompleted int           `json:"pomodorosCompleted"`
	FocusTime          time.Duration `json:"focusTime"`
	Streak             int           `json:"streak"`
}

type State struct {
	Mode      Mode          `json:"mode"`
	Remaining time.Duration `json:"remaining"`
	Running   bool          `json:"running"`
	Stats     Stats         `json:"stats"`
}

// Clock renders the remaining time as MM:SS.
func (s State) Clock() string {
	secs := int(s.Remaining / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Pomodoro is a focus/break countdown ticking once per second on a Scheduler.
type Pomodoro struct {
	sched     Scheduler
	durations Durations

	mu        sync.Mutex
	mode      Mode
	remaining time.Duration
	running   bool
	stats     Stats
	cancel    CancelFunc

	onTick     func(State)
	onComplete func(finished Mode, next State)
}

func NewPomodoro(sched Scheduler, durations Durations) *Pomodoro {
	if durations.Pomodoro <= 0 {
		durations = DefaultDurations()
	}
	return &Pomodoro{
		sched:     sched,
		durations: durations,
		mode:      ModePomodoro,
		remaining: durations.Pomodoro,
	}
}

// OnTick is called after every one-second tick.
func (p *Pomodoro) OnTick(fn func(State)) {
	p.mu.Lock()
	p.onTick = fn
	p.mu.Unlock()
}

// OnComplete is called when a countdown reaches zero, with the mode that finished.
func (p *Pomodoro) OnComplete(fn func(finished Mode, next State)) {
	p.mu.Lock()
	p.onComplete = fn
	p.mu.Unlock()
}

func (p *Pomodoro) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running || p.remaining <= 0 {
		return
	}
	p.running = true
	p.cancel = p.sched.Every(time.Second, p.tick)
}

func (p *Pomodoro) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Pomodoro) Toggle() {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()
	if running {
		p.Pause()
	} else {
		p.Start()
	}
}

// Reset stops the countdown and refills the current mode.
func (p *Pomodoro) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.remaining = p.durations.of(p.mode)
}

// SwitchMode stops the countdown and loads another mode.
func (p *Pomodoro) SwitchMode(m Mode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.mode = m
	p.remaining = p.durations.of(m)
}

func (p *Pomodoro) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Pomodoro) tick() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.remaining -= time.Second
	if p.mode == ModePomodoro {
		p.stats.FocusTime += time.Second
	}

	var finished Mode
	if p.remaining <= 0 {
		finished = p.mode
		p.stopLocked()
		p.rollOverLocked()
	}
	state := p.stateLocked()
	onTick, onComplete := p.onTick, p.onComplete
	p.mu.Unlock()

	if onTick != nil {
		onTick(state)
	}
	if finished != "" && onComplete != nil {
		onComplete(finished, state)
	}
}

// rollOverLocked picks the next mode after a countdown finishes.
func (p *Pomodoro) rollOverLocked() {
	if p.mode != ModePomodoro {
		p.mode = ModePomodoro
		p.remaining = p.durations.Pomodoro
		return
	}
	p.stats.PomodorosCompleted++
	p.stats.Streak++
	next := ModeShortBreak
	if p.stats.PomodorosCompleted%LongBreakEvery == 0 {
		next = ModeLongBreak
	}
	p.mode = next
	p.remaining = p.durations.of(next)
}

func (p *Pomodoro) stopLocked() {
	p.running = false
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Pomodoro) stateLocked() State {
	return State{Mode: p.mode, Remaining: p.remaining, Running: p.running, Stats: p.stats}
}
