package leaderboard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MyelinBots/resellboost-go/internal/models"
	"github.com/MyelinBots/resellboost-go/internal/services/ledger"
)

type Entry struct {
	Rank   int
	UserID string
	Value  float64
}

// Board is a named ranking over one ledger balance.
type Board struct {
	Kind  models.Kind
	Title string
	Unit  string
}

var Boards = map[string]Board{
	"xp":       {models.KindXP, "🏆 Top XP:", "XP"},
	"weekly":   {models.KindWeeklyXP, "📅 Top XP this week:", "XP"},
	"earnings": {models.KindWeeklyAffiliateEarnings, "💸 Top affiliates this week:", "credits"},
	"credit":   {models.KindStoreCredit, "💰 Top store credit:", "credits"},
}

// Render ranks users on b and formats the first n.
func (b Board) Render(users []*models.UserRecord, n int, mention func(id string) string) string {
	return Format(b.Title, Top(users, b.Kind, n), b.Unit, mention)
}

// Top ranks users by the balance of kind, highest first. Ties go to the lower id and
// members with nothing on that balance are left out.
func Top(users []*models.UserRecord, kind models.Kind, n int) []Entry {
	entries := make([]Entry, 0, len(users))
	for _, u := range users {
		v, ok := ledger.Balance(u, kind)
		if !ok || v <= 0 {
			continue
		}
		entries = append(entries, Entry{UserID: u.ID, Value: v})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].UserID < entries[j].UserID
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// TopGuilds ranks official guilds by total XP.
func TopGuilds(guilds []*models.GuildRecord, n int) []*models.GuildRecord {
	var out []*models.GuildRecord
	for _, g := range guilds {
		if g.Status == models.GuildOfficial {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalXP != out[j].TotalXP {
			return out[i].TotalXP > out[j].TotalXP
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Format renders entries on one line, e.g. "#1 <@42> (1200 XP)  •  #2 ...".
func Format(title string, entries []Entry, unit string, mention func(id string) string) string {
	if len(entries) == 0 {
		return title + " nobody yet."
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("#%d %s (%s %s)", e.Rank, mention(e.UserID), formatValue(e.Value), unit))
	}
	return title + " " + strings.Join(parts, "  •  ")
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
