// Package debounce delays a changing value until it has been stable for
// a fixed duration, using bubbletea ticks instead of timers.
//
// Every Bump schedules a tagged message. When the messages come back
// through Update, only the one carrying the latest tag is Settled; the
// rest are ignored. Nothing is cancelled and nothing queues up.
package debounce

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Scheduler arranges for fn to run after d and returns its message as a
// command. tea.Tick is the default.
type Scheduler func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd

// Msg is delivered when a scheduled delay elapses.
type Msg[T any] struct {
	Tag   uint64
	Value T
}

// Debouncer is a trailing-edge debouncer. The zero value is not usable;
// build one with New.
type Debouncer[T any] struct {
	delay    time.Duration
	tag      uint64
	schedule Scheduler
}

// New returns a debouncer with the given quiet period.
func New[T any](delay time.Duration) Debouncer[T] {
	return Debouncer[T]{delay: delay, schedule: tea.Tick}
}

// WithScheduler returns a copy that schedules through s.
func (d Debouncer[T]) WithScheduler(s Scheduler) Debouncer[T] {
	d.schedule = s
	return d
}

// Delay returns the quiet period.
func (d Debouncer[T]) Delay() time.Duration {
	return d.delay
}

// Bump records a new value and schedules its delivery.
func (d Debouncer[T]) Bump(v T) (Debouncer[T], tea.Cmd) {
	d.tag++
	tag := d.tag
	cmd := d.schedule(d.delay, func(time.Time) tea.Msg {
		return Msg[T]{Tag: tag, Value: v}
	})
	return d, cmd
}

// Settled reports whether msg is the latest scheduled value.
func (d Debouncer[T]) Settled(msg Msg[T]) bool {
	return msg.Tag == d.tag
}
