package models

import "strings"

type GuildStatus string

const (
	GuildPending  GuildStatus = "pending"
	GuildOfficial GuildStatus = "official"
)

// GuildRecord is a player clan, not a Discord server.
type GuildRecord struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	OwnerID   string      `json:"owner_id"`
	Members   []string    `json:"members"`
	Status    GuildStatus `json:"status"`
	CreatedAt int64       `json:"created_at"`
	TotalXP   int64       `json:"total_xp"`
	WeeklyXP  int64       `json:"weekly_xp"`
	RoleID    string      `json:"role_id"`
	ChannelID string      `json:"channel_id"`
}

func (g *GuildRecord) HasMember(userID string) bool {
	return contains(g.Members, userID)
}

func (g *GuildRecord) RemoveMember(userID string) {
	kept := g.Members[:0]
	for _, m := range g.Members {
		if m != userID {
			kept = append(kept, m)
		}
	}
	g.Members = kept
}

func (g *GuildRecord) NameMatches(name string) bool {
	return strings.EqualFold(strings.TrimSpace(g.Name), strings.TrimSpace(name))
}
