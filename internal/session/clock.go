package session

import "time"

// Clock schedules the pacing pauses of a session.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// RealClock - pauses for the requested duration.
func RealClock() Clock {
	return realClock{}
}

type noDelay struct{}

func (noDelay) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()

	return ch
}

// NoDelay - fires every pause immediately.
func NoDelay() Clock {
	return noDelay{}
}
