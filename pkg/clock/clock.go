// Package clock abstracts wall-clock timers so the notification and carousel
// schedulers can be driven deterministically in tests.
package clock

import "time"

// Timer is a scheduled callback. Stop reports whether the call prevented the
// callback from running.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. Callbacks run on their own goroutine for the
// real clock and synchronously inside Fake.Advance for the fake one.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

type realClock struct{}

// Real returns the clock backed by package time.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
