package utils

import "time"

// Clock abstracts time retrieval so business logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant.
type FixedClock struct {
	t time.Time
}

func NewFixedClock(t time.Time) FixedClock { return FixedClock{t: t} }

func (c FixedClock) Now() time.Time { return c.t }
