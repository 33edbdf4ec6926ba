package clock

import "time"

// Clock supplies wall-clock time for record timestamps. Game hours are not
// derived from it; they advance only through the turn barrier.
type Clock interface {
	Now() time.Time
}

// UTC is a Clock backed by time.Now in UTC
type UTC struct{}

// New returns the system clock
func New() UTC {
	return UTC{}
}

// Now returns the current UTC time
func (UTC) Now() time.Time {
	return time.Now().UTC()
}
