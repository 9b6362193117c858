package teams

import "time"

// Team is a roster of league members led by a captain.
type Team struct {
	ID        int64
	LeagueID  int64
	Name      string
	CaptainID int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Member links a user to a team.
type Member struct {
	TeamID   int64
	UserID   int64
	JoinedAt time.Time
}
