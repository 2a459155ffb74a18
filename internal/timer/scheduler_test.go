package timer

import (
	"testing"
	"time"
)

func TestManualAfterFiresOnce(t *testing.T) {
	m := NewManual()
	fired := 0
	m.After(10*time.Second, func() { fired++ })

	m.Advance(9 * time.Second)
	if fired != 0 {
		t.Fatalf("fired early")
	}
	m.Advance(time.Second)
	m.Advance(time.Minute)
	if fired != 1 || m.Pending() != 0 {
		t.Fatalf("expected a single firing, got %d (pending %d)", fired, m.Pending())
	}
}

func TestManualEveryAndCancel(t *testing.T) {
	m := NewManual()
	ticks := 0
	cancel := m.Every(time.Second, func() { ticks++ })

	m.Advance(3 * time.Second)
	if ticks != 3 {
		t.Fatalf("expected 3 ticks, got %d", ticks)
	}
	cancel()
	cancel()
	m.Advance(3 * time.Second)
	if ticks != 3 || m.Pending() != 0 {
		t.Fatalf("cancelled job kept ticking: %d", ticks)
	}
}

func TestManualRunsInDueOrder(t *testing.T) {
	m := NewManual()
	var order []string
	m.After(2*time.Second, func() { order = append(order, "late") })
	m.After(time.Second, func() { order = append(order, "early") })

	m.Advance(5 * time.Second)
	if len(order) != 2 || order[0] != "early" || order[1] != "late" {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestRealAfterCancel(t *testing.T) {
	fired := make(chan struct{}, 1)
	cancel := Real().After(time.Hour, func() { fired <- struct{}{} })
	cancel()
	select {
	case <-fired:
		t.Fatalf("cancelled timer fired")
	default:
	}

	done := make(chan struct{})
	stop := Real().Every(time.Millisecond, func() {
		select {
		case done <- struct{}{}:
		default:
		}
	})
	defer stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("ticker never fired")
	}
}
