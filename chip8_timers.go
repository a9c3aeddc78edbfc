// chip8_timers.go - Delay and sound timers decremented at a fixed 60Hz rate

/*
chirp8 - a CHIP-8 virtual machine for the desktop and the terminal

https://github.com/chirp8/chirp8
License: GPLv3 or later
*/

package main

import "time"

const (
	TIMER_FREQUENCY = 60
	TIMER_PERIOD    = time.Second / TIMER_FREQUENCY
)

// Timers holds the two free-running 8-bit counters. Instruction throughput
// is configurable and must not change the decrement rate, so Update gates
// real decrements behind accumulated wall time: it is safe to call once
// per emulated cycle at any cycle rate. Tick bypasses the clock entirely
// for deterministic tests.
type Timers struct {
	delay byte
	sound byte

	lastUpdate  time.Time
	accumulated time.Duration
}

func NewTimers() *Timers {
	return &Timers{lastUpdate: time.Now()}
}

func (t *Timers) Reset() {
	t.delay = 0
	t.sound = 0
	t.lastUpdate = time.Now()
	t.accumulated = 0
}

func (t *Timers) GetDelay() byte {
	return t.delay
}

func (t *Timers) SetDelay(value byte) {
	t.delay = value
}

func (t *Timers) GetSound() byte {
	return t.sound
}

func (t *Timers) SetSound(value byte) {
	t.sound = value
}

// ShouldPlaySound reports whether the tone should be audible.
func (t *Timers) ShouldPlaySound() bool {
	return t.sound > 0
}

// Update accumulates elapsed wall time and performs one decrement per full
// 60Hz period, looping so a long stall cannot cause drift. Returns whether
// any counter changed.
func (t *Timers) Update() bool {
	now := time.Now()
	t.accumulated += now.Sub(t.lastUpdate)
	t.lastUpdate = now

	decremented := false
	for t.accumulated >= TIMER_PERIOD {
		decremented = t.decrementOnce() || decremented
		t.accumulated -= TIMER_PERIOD
	}
	return decremented
}

// Tick performs n logical decrements immediately, ignoring wall time.
func (t *Timers) Tick(n int) bool {
	decremented := false
	for i := 0; i < n; i++ {
		decremented = t.decrementOnce() || decremented
	}
	return decremented
}

// decrementOnce drops each nonzero counter by one, never below zero.
func (t *Timers) decrementOnce() bool {
	changed := false
	if t.delay > 0 {
		t.delay--
		changed = true
	}
	if t.sound > 0 {
		t.sound--
		changed = true
	}
	return changed
}
