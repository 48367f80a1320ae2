package models

// Giveaway is a prize draw announced in the giveaway channel. Members enter by reacting
// to the announcement, whose message id is the giveaway id.
type Giveaway struct {
	ID          string   `json:"id"`
	ChannelID   string   `json:"channel_id"`
	HostID      string   `json:"host_id"`
	Prize       string   `json:"prize"`
	WinnerCount int      `json:"winner_count"`
	EndsAt      int64    `json:"ends_at"`
	Ended       bool     `json:"ended"`
	EndedAt     int64    `json:"ended_at,omitempty"`
	Winners     []string `json:"winners"`
}

// Due reports whether a running giveaway has reached its end time.
func (g *Giveaway) Due(now int64) bool {
	return !g.Ended && now >= g.EndsAt
}

// HasWon reports whether userID was drawn, including rerolls.
func (g *Giveaway) HasWon(userID string) bool {
	return contains(g.Winners, userID)
}
