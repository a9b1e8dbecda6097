package data

import "time"

// TimeProvider supplies the timestamps repositories write.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider reads the system clock.
type RealTimeProvider struct{}

// Now returns the current system time.
func (RealTimeProvider) Now() time.Time { return time.Now() }

// FixedTimeProvider always returns T.
type FixedTimeProvider struct {
	T time.Time
}

// Now returns the fixed time.
func (f FixedTimeProvider) Now() time.Time { return f.T }
