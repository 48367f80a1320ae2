package achievements

import (
	"context"
	"fmt"
	"strings"

	"github.com/MyelinBots/resellboost-go/internal/models"
	"github.com/MyelinBots/resellboost-go/internal/services/platform"
	"go.uber.org/zap"
)

type Achievement struct {
	ID          string
	Name        string
	Description string
	unlocked    func(u *models.UserRecord) bool
}

// All is ordered from easiest to hardest within each family.
var All = []Achievement{
	{"first_message", "🗨️ First Words", "Send your first message", func(u *models.UserRecord) bool { return u.MessageCount >= 1 }},
	{"chatterbox", "📣 Chatterbox", "Send 1000 messages", func(u *models.UserRecord) bool { return u.MessageCount >= 1000 }},
	{"level_10", "⭐ Rising Reseller", "Reach level 10", func(u *models.UserRecord) bool { return u.Level >= 10 }},
	{"level_25", "🌟 Veteran Reseller", "Reach level 25", func(u *models.UserRecord) bool { return u.Level >= 25 }},
	{"first_purchase", "🛒 First Cop", "Make your first purchase", func(u *models.UserRecord) bool { return u.PurchaseCount >= 1 }},
	{"first_referral", "🤝 Connector", "Refer your first member", func(u *models.UserRecord) bool { return u.ReferralCount >= 1 }},
	{"first_sale", "💸 First Commission", "Earn your first affiliate commission", func(u *models.UserRecord) bool { return u.AffiliateSaleCount >= 1 }},
	{"ten_sales", "🏆 Super Affiliate", "Earn 10 affiliate commissions", func(u *models.UserRecord) bool { return u.AffiliateSaleCount >= 10 }},
	{"first_cashout", "🏦 Paid Out", "Complete your first cashout", func(u *models.UserRecord) bool { return u.CashoutCount >= 1 }},
	{"guild_member", "🛡️ Banner Bearer", "Join a guild", func(u *models.UserRecord) bool { return u.GuildID != "" }},
}

func ByID(id string) (Achievement, bool) {
	for _, a := range All {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// Evaluate records every achievement u now qualifies for and returns the new ones.
// The set only grows: an achievement stays even if its condition stops holding.
func Evaluate(u *models.UserRecord) []Achievement {
	var out []Achievement
	for _, a := range All {
		if a.unlocked(u) && u.AddAchievement(a.ID) {
			out = append(out, a)
		}
	}
	return out
}

func Names(list []Achievement) string {
	if len(list) == 0 {
		return "None yet"
	}
	names := make([]string, 0, len(list))
	for _, a := range list {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// Tracker evaluates achievements and tells the member about new ones.
type Tracker struct {
	notify *platform.Notifier
	log    *zap.Logger
}

func NewTracker(n *platform.Notifier, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{notify: n, log: log}
}

func (t *Tracker) Check(ctx context.Context, u *models.UserRecord) []Achievement {
	unlocked := Evaluate(u)
	if len(unlocked) == 0 {
		return nil
	}
	t.log.Info("achievements unlocked", zap.String("user_id", u.ID), zap.Int("count", len(unlocked)))
	if t.notify != nil {
		t.notify.DM(ctx, u.ID, fmt.Sprintf("🏅 Achievement unlocked: %s", Names(unlocked)))
	}
	return unlocked
}
