package leagues

import (
	"errors"
	"fmt"
	"math"
)

// Scoring ratio range. This is a fixed policy constant independent of the raw
// value thresholds stored per activity.
const (
	RatioRangeMin = 1.0
	RatioRangeMax = 2.0
)

// Age tier boundaries in years.
const (
	below40Cutoff = 40
	above60Cutoff = 60
)

// ErrInvalidAge indicates the participant age is not a finite non-negative
// number.
var ErrInvalidAge = errors.New("leagues: invalid age")

// TierForAge maps a participant age to its tier. Ages that are NaN, infinite
// or negative are rejected rather than silently defaulting to the base tier.
func TierForAge(ageYears float64) (AgeTier, error) {
	if math.IsNaN(ageYears) || math.IsInf(ageYears, 0) || ageYears < 0 {
		return "", fmt.Errorf("%w: %v", ErrInvalidAge, ageYears)
	}
	switch {
	case ageYears < below40Cutoff:
		return TierBelow40, nil
	case ageYears >= above60Cutoff:
		return TierAbove60, nil
	default:
		return TierBase, nil
	}
}

// ResolveActivityMinimum computes the applicable min and max for a participant.
// Tier overrides win when present; otherwise the base threshold applies. A
// missing bound resolves to an unbounded limit, never zero.
func ResolveActivityMinimum(activity Activity, ageYears float64) (ResolvedThreshold, error) {
	tier, err := TierForAge(ageYears)
	if err != nil {
		return ResolvedThreshold{}, err
	}

	threshold := activity.Base
	switch tier {
	case TierBelow40:
		if activity.Below40 != nil {
			threshold = *activity.Below40
		}
	case TierAbove60:
		if activity.Above60 != nil {
			threshold = *activity.Above60
		}
	}

	return ResolvedThreshold{
		Min:  limitFrom(threshold.Min),
		Max:  limitFrom(threshold.Max),
		Tier: tier,
	}, nil
}

// RatioRange returns the fixed scoring ratio interval.
func RatioRange() (min, max float64) {
	return RatioRangeMin, RatioRangeMax
}

func limitFrom(bound *float64) Limit {
	if bound == nil {
		return Limit{Unbounded: true}
	}
	return Limit{Value: *bound}
}
