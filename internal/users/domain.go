package users

import "time"

// hoursPerYear converts an elapsed duration into fractional years using the
// mean Gregorian year length.
const hoursPerYear = 24 * 365.2425

// User is a registered participant profile. BirthDate drives age tier
// resolution for activity thresholds.
type User struct {
	ID        int64
	Email     string
	Name      string
	BirthDate time.Time
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AgeYearsAt returns the user's fractional age in years at the given instant.
func (u User) AgeYearsAt(at time.Time) float64 {
	return at.Sub(u.BirthDate).Hours() / hoursPerYear
}
