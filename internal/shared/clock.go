package shared

import "time"

// Clock supplies the current time. Services take a Clock instead of calling
// time.Now directly so cutoff computations stay deterministic in tests.
type Clock func() time.Time

// UTCClock returns the current time in UTC.
func UTCClock() time.Time {
	return time.Now().UTC()
}
