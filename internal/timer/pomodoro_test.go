package timer

import (
	"testing"
	"time"
)

func shortDurations() Durations {
	return Durations{Pomodoro: 3 * time.Second, ShortBreak: 2 * time.Second, LongBreak: 4 * time.Second}
}

func TestPomodoroCountsDown(t *testing.T) {
	m := NewManual()
	p := NewPomodoro(m, shortDurations())
	var last State
	p.OnTick(func(s State) { last = s })

	p.Start()
	m.Advance(2 * time.Second)

	if last.Remaining != time.Second || !last.Running || last.Clock() != "00:01" {
		t.Fatalf("unexpected state %+v", last)
	}
	if last.Stats.FocusTime != 2*time.Second {
		t.Fatalf("expected 2s focus, got %v", last.Stats.FocusTime)
	}
}

func TestPomodoroRollsOverToBreaks(t *testing.T) {
	m := NewManual()
	p := NewPomodoro(m, shortDurations())
	var finished []Mode
	p.OnComplete(func(done Mode, next State) {
		finished = append(finished, done)
		p.Start()
	})

	p.Start()
	m.Advance(3 * time.Second)
	s := p.State()
	if s.Mode != ModeShortBreak || s.Stats.PomodorosCompleted != 1 || s.Stats.Streak != 1 {
		t.Fatalf("expected short break after first pomodoro, got %+v", s)
	}

	m.Advance(2 * time.Second)
	if s := p.State(); s.Mode != ModePomodoro || s.Stats.FocusTime != 3*time.Second {
		t.Fatalf("breaks must not add focus time, got %+v", s)
	}

	// Three more cycles: the fourth pomodoro earns a long break.
	for i := 0; i < 2; i++ {
		m.Advance(3 * time.Second)
		m.Advance(2 * time.Second)
	}
	m.Advance(3 * time.Second)
	if s := p.State(); s.Mode != ModeLongBreak || s.Stats.PomodorosCompleted != LongBreakEvery || s.Remaining != 4*time.Second {
		t.Fatalf("expected long break after four pomodoros, got %+v", s)
	}
	if len(finished) != 7 || finished[6] != ModePomodoro {
		t.Fatalf("unexpected completion log %v", finished)
	}
}

func TestPomodoroPauseResetSwitch(t *testing.T) {
	m := NewManual()
	p := NewPomodoro(m, shortDurations())

	p.Toggle()
	m.Advance(time.Second)
	p.Toggle()
	m.Advance(5 * time.Second)
	if s := p.State(); s.Running || s.Remaining != 2*time.Second {
		t.Fatalf("paused timer must not tick, got %+v", s)
	}

	p.Reset()
	if s := p.State(); s.Remaining != 3*time.Second || m.Pending() != 0 {
		t.Fatalf("reset must refill and stop, got %+v", s)
	}

	p.Start()
	p.SwitchMode(ModeLongBreak)
	if s := p.State(); s.Mode != ModeLongBreak || s.Running || s.Remaining != 4*time.Second {
		t.Fatalf("switch must stop and load the mode, got %+v", s)
	}
}

func TestPomodoroDefaults(t *testing.T) {
	p := NewPomodoro(NewManual(), Durations{})
	if s := p.State(); s.Remaining != 25*time.Minute || s.Clock() != "25:00" {
		t.Fatalf("expected 25 minute default, got %+v", s)
	}
}
