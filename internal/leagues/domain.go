package leagues

import "time"

// League is a competitive group of teams tracked over a season.
type League struct {
	ID        int64
	Name      string
	Season    string
	HostID    int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AgeTier selects which threshold row applies to a participant.
type AgeTier string

const (
	// TierBelow40 applies to participants younger than 40.
	TierBelow40 AgeTier = "below40"
	// TierBase applies to participants aged 40 up to 60.
	TierBase AgeTier = "base"
	// TierAbove60 applies to participants aged 60 and over.
	TierAbove60 AgeTier = "above60"
)

// Threshold holds a configured min/max pair. A nil side means the league does
// not enforce that bound.
type Threshold struct {
	Min *float64
	Max *float64
}

// Activity is an activity type configured for a league. Base thresholds apply
// to the base age tier; the override rows are optional.
type Activity struct {
	ID        int64
	LeagueID  int64
	Name      string
	Unit      string
	Base      Threshold
	Below40   *Threshold
	Above60   *Threshold
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Limit is one side of a resolved threshold. Unbounded means no configured
// limit; Value is meaningless in that case.
type Limit struct {
	Value     float64 `json:"value"`
	Unbounded bool    `json:"unbounded"`
}

// ResolvedThreshold is the applicable min/max for a participant plus the age
// tier that supplied it.
type ResolvedThreshold struct {
	Min  Limit   `json:"min"`
	Max  Limit   `json:"max"`
	Tier AgeTier `json:"tier"`
}
