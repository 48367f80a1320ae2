package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MyelinBots/resellboost-go/internal/models"
	"github.com/MyelinBots/resellboost-go/internal/services/leaderboard"
	"go.uber.org/zap"
)

// RolloverResult lists the leaderboard winners of the closed week.
type RolloverResult struct {
	Winners []leaderboard.Entry
	Reset   int
}

// WeeklyRollover awards leaderboard commission boosters to the week's top affiliates, then
// zeroes every weekly counter. Weekly balances are reset through the ledger so the log
// still explains every balance.
func (m *Monitor) WeeklyRollover(ctx context.Context) (RolloverResult, error) {
	var res RolloverResult
	users := m.repo.Users()
	expires := m.now().Add(time.Duration(m.cfg.Affiliate.LeaderboardBoosterDays) * 24 * time.Hour).Unix()

	top := leaderboard.Top(users, models.KindWeeklyAffiliateEarnings, len(m.cfg.Affiliate.LeaderboardBoosters))
	for _, entry := range top {
		rate, ok := m.bonus.LeaderboardBoosterForRank(entry.Rank)
		if !ok {
			continue
		}
		u, _ := m.repo.User(entry.UserID)
		u.ActiveBoosts = append(u.ActiveBoosts, models.Boost{
			Kind:      models.BoostCommission,
			Source:    models.SourceLeaderboard,
			Rate:      rate,
			ExpiresAt: expires,
		})
		res.Winners = append(res.Winners, entry)
		m.notify.DM(ctx, u.ID, fmt.Sprintf("🏆 You finished #%d in this week's affiliate leaderboard: +%.0f%% commission until <t:%d:D>.",
			entry.Rank, rate*100, expires))
	}

	for _, u := range users {
		touched := false
		if u.WeeklyXP != 0 {
			if err := m.ledger.ApplyTo(u, models.KindWeeklyXP, float64(-u.WeeklyXP), "weekly reset"); err != nil {
				m.log.Error("weekly xp reset failed", zap.String("user_id", u.ID), zap.Error(err))
			}
			touched = true
		}
		if u.WeeklyAffiliateEarnings != 0 {
			if err := m.ledger.ApplyTo(u, models.KindWeeklyAffiliateEarnings, -u.WeeklyAffiliateEarnings, "weekly reset"); err != nil {
				m.log.Error("weekly earnings reset failed", zap.String("user_id", u.ID), zap.Error(err))
			}
			touched = true
		}
		if touched {
			res.Reset++
		}
	}
	for _, g := range m.repo.Guilds() {
		g.WeeklyXP = 0
	}

	m.log.Info("weekly rollover", zap.Int("winners", len(res.Winners)), zap.Int("reset", res.Reset))
	return res, errors.Join(m.repo.SaveUsers(ctx), m.repo.SaveGuilds(ctx))
}
