package scheduler

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

// ErrExactDenied reports that the host refuses exact-time wake-ups. The
// coordinator downgrades to inexact arming; the prompt may fire late but
// still fires.
var ErrExactDenied = errors.New("exact wake-ups not permitted")

// Host is the one-shot timer facility. At most one live wake-up exists per
// id; arming an id again replaces its previous wake-up. Elapsed wake-ups
// are delivered asynchronously through the callback the concrete host was
// constructed with.
type Host interface {
	ArmExact(id string, at time.Time) error
	ArmInexact(id string, at time.Time)
	Cancel(id string)
}

// SystemTimers implements Host on time.AfterFunc. Like the platform alarm
// it stands in for, it is one-shot and loses all state on process exit;
// the coordinator's boot sync rebuilds it.
type SystemTimers struct {
	mu         sync.Mutex
	timers     map[string]*time.Timer
	fire       func(id string)
	allowExact bool
	slack      time.Duration
}

// NewSystemTimers wires elapsed wake-ups to fire. allowExact=false models
// a host that denies the exact-alarm capability; slack bounds the extra
// delay applied to inexact wake-ups.
func NewSystemTimers(fire func(id string), allowExact bool, slack time.Duration) *SystemTimers {
	return &SystemTimers{
		timers:     make(map[string]*time.Timer),
		fire:       fire,
		allowExact: allowExact,
		slack:      slack,
	}
}

func (t *SystemTimers) ArmExact(id string, at time.Time) error {
	if !t.allowExact {
		return ErrExactDenied
	}
	t.arm(id, at)
	return nil
}

func (t *SystemTimers) ArmInexact(id string, at time.Time) {
	if t.slack > 0 {
		at = at.Add(time.Duration(rand.Int63n(int64(t.slack))))
	}
	t.arm(id, at)
}

func (t *SystemTimers) arm(id string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.timers[id]; ok {
		old.Stop()
	}
	d := time.Until(at)
	if d < 0 {
		d = 0
	}
	t.timers[id] = time.AfterFunc(d, func() {
		t.mu.Lock()
		delete(t.timers, id)
		t.mu.Unlock()
		t.fire(id)
	})
}

func (t *SystemTimers) Cancel(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[id]; ok {
		timer.Stop()
		delete(t.timers, id)
	}
}

// Close stops every pending wake-up; used on shutdown.
func (t *SystemTimers) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
}
