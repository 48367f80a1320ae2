package progression

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/MyelinBots/resellboost-go/config"
	"github.com/MyelinBots/resellboost-go/internal/metrics"
	"github.com/MyelinBots/resellboost-go/internal/models"
	"github.com/MyelinBots/resellboost-go/internal/services/achievements"
	"github.com/MyelinBots/resellboost-go/internal/services/bonus"
	"github.com/MyelinBots/resellboost-go/internal/services/ledger"
	"github.com/MyelinBots/resellboost-go/internal/services/platform"
	"github.com/MyelinBots/resellboost-go/internal/store"
	"go.uber.org/zap"
)

// maxLevel bounds the forward scan in LevelForXP.
const maxLevel = 1000

var (
	ErrCooldown      = errors.New("message xp on cooldown")
	ErrInvalidAmount = errors.New("xp amount must be positive")
	ErrNotGated      = errors.New("user is not at a prestige gate")
)

// Hook runs after an event was booked for u, inside the same serialized job.
type Hook func(ctx context.Context, u *models.UserRecord)

// Engine grants experience and moves members through levels and prestige gates.
// It must only be called from the serialized command queue.
type Engine struct {
	cfg            config.GamificationConfig
	levelUpChannel string
	repo           store.Repository
	ledger         *ledger.Ledger
	bonus          *bonus.Resolver
	notify         *platform.Notifier
	achievements   *achievements.Tracker
	log            *zap.Logger

	now          func() time.Time
	rng          *rand.Rand
	messageHooks []Hook
}

func New(
	cfg config.GamificationConfig,
	levelUpChannel string,
	repo store.Repository,
	l *ledger.Ledger,
	b *bonus.Resolver,
	n *platform.Notifier,
	a *achievements.Tracker,
	log *zap.Logger,
) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:            cfg,
		levelUpChannel: levelUpChannel,
		repo:           repo,
		ledger:         l,
		bonus:          b,
		notify:         n,
		achievements:   a,
		log:            log,
		now:            time.Now,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func (e *Engine) WithRand(rng *rand.Rand) *Engine {
	e.rng = rng
	return e
}

// OnMessage registers a hook that runs after every message that earned XP.
func (e *Engine) OnMessage(h Hook) {
	e.messageHooks = append(e.messageHooks, h)
}

// LevelThreshold is the cumulative XP needed to hold level.
func (e *Engine) LevelThreshold(level int) float64 {
	return e.cfg.XP.BaseXP * math.Pow(e.cfg.XP.Multiplier, float64(level-1))
}

// LevelForXP scans upward from level 1 until the next threshold is out of reach.
func (e *Engine) LevelForXP(xp int64) int {
	level := 1
	for level < maxLevel && float64(xp) >= e.LevelThreshold(level+1) {
		level++
	}
	return level
}

// GrantMessageExperience applies the anti-farm rules and grants a random amount from the
// configured message range. Short messages and gated members earn nothing without error.
func (e *Engine) GrantMessageExperience(ctx context.Context, userID, content string) (int64, error) {
	if len(strings.Fields(content)) < e.cfg.AntiFarm.MinWords {
		return 0, nil
	}
	u := e.repo.GetOrCreateUser(userID)
	if u.XPGated {
		return 0, nil
	}

	now := e.now().Unix()
	if u.LastMessageAt != 0 && now-u.LastMessageAt < int64(e.cfg.AntiFarm.CooldownSeconds) {
		return 0, ErrCooldown
	}
	u.LastMessageAt = now
	if err := e.ledger.ApplyTo(u, models.KindMessageCount, 1, "message"); err != nil {
		e.log.Error("message count not booked", zap.String("user_id", userID), zap.Error(err))
	}

	raw := e.cfg.XP.MessageMin
	if span := e.cfg.XP.MessageMax - e.cfg.XP.MessageMin; span > 0 {
		raw += e.rng.Intn(span + 1)
	}
	granted := e.grant(ctx, u, int64(raw), "message")
	for _, h := range e.messageHooks {
		h(ctx, u)
	}
	return granted, e.persist(ctx)
}

// GrantExperience grants a fixed amount, for purchases, milestones and rewards.
// Gated members still bank the XP; only their level is frozen.
func (e *Engine) GrantExperience(ctx context.Context, userID string, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	u := e.repo.GetOrCreateUser(userID)
	granted := e.grant(ctx, u, amount, reason)
	return granted, e.persist(ctx)
}

// GrantTo is GrantExperience for a record the caller holds. It does not persist.
func (e *Engine) GrantTo(ctx context.Context, u *models.UserRecord, amount int64, reason string) int64 {
	if amount <= 0 {
		return 0
	}
	return e.grant(ctx, u, amount, reason)
}

func (e *Engine) grant(ctx context.Context, u *models.UserRecord, raw int64, reason string) int64 {
	multiplier := e.bonus.XPMultiplier(u, e.now().Unix())
	final := int64(math.Floor(float64(raw) * multiplier))
	if final <= 0 {
		return 0
	}

	// xp feeds the all-time board, weekly_xp the rolling one.
	for _, kind := range []models.Kind{models.KindXP, models.KindWeeklyXP} {
		if err := e.ledger.ApplyTo(u, kind, float64(final), reason); err != nil {
			e.log.Error("xp not booked", zap.String("user_id", u.ID), zap.String("kind", string(kind)), zap.Error(err))
		}
	}
	if g, ok := e.repo.Guild(u.GuildID); ok {
		g.TotalXP += final
		g.WeeklyXP += final
	}

	e.log.Debug("xp granted",
		zap.String("user_id", u.ID),
		zap.String("reason", reason),
		zap.Int64("raw", raw),
		zap.Float64("multiplier", multiplier),
		zap.Int64("final", final))

	e.CheckLevelUp(ctx, u)
	if e.achievements != nil {
		e.achievements.Check(ctx, u)
	}
	return final
}

// LevelChange describes what a CheckLevelUp call did.
type LevelChange struct {
	From  int
	To    int
	Gated bool
	Gate  *models.PrestigeChallenge
}

// CheckLevelUp advances u to the level its XP supports, stopping at the first uncleared
// prestige gate on the way. It is a no-op while u is gated or when XP is unchanged.
func (e *Engine) CheckLevelUp(ctx context.Context, u *models.UserRecord) (LevelChange, bool) {
	if u.XPGated {
		return LevelChange{}, false
	}
	target := e.LevelForXP(u.XP)
	if target <= u.Level {
		return LevelChange{}, false
	}

	change := LevelChange{From: u.Level, To: target}
	for _, gate := range e.cfg.PrestigeGates {
		if gate.Level <= u.Level || gate.Level > target || u.HasCompletedChallenge(gate.ChallengeID) {
			continue
		}
		change.To = gate.Level
		change.Gated = true
		change.Gate = &models.PrestigeChallenge{
			ID:          gate.ChallengeID,
			Level:       gate.Level,
			Title:       gate.Title,
			Description: gate.Description,
		}
		break
	}

	u.Level = change.To
	metrics.LevelUps.Add(float64(change.To - change.From))
	if change.Gated {
		u.XPGated = true
		u.CurrentPrestigeChallenge = change.Gate
		metrics.PrestigeGates.Inc()
	}

	e.log.Info("level up",
		zap.String("user_id", u.ID),
		zap.Int("from", change.From),
		zap.Int("to", change.To),
		zap.Bool("gated", change.Gated))

	e.announce(ctx, u, change)
	if e.achievements != nil {
		e.achievements.Check(ctx, u)
	}
	e.checkReferralMilestone(ctx, u, change.From)
	return change, true
}

func (e *Engine) announce(ctx context.Context, u *models.UserRecord, change LevelChange) {
	if e.notify == nil {
		return
	}
	e.notify.Announce(ctx, e.levelUpChannel, fmt.Sprintf("🎉 <@%s> reached level %d!", u.ID, change.To))

	var rewards []string
	for _, r := range e.cfg.RoleRewards {
		if r.Level > change.From && r.Level <= change.To {
			e.notify.AddRole(ctx, u.ID, r.RoleID)
			if r.Reward != "" {
				rewards = append(rewards, r.Reward)
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎉 You are now level %d.", change.To)
	if len(rewards) > 0 {
		fmt.Fprintf(&b, "\nRewards unlocked: %s", strings.Join(rewards, ", "))
	}
	rate := e.bonus.BaseCommissionRate(change.To)
	fmt.Fprintf(&b, "\nYour affiliate commission is %.0f%%.", rate*100)
	if next, ok := e.bonus.NextCommissionTier(change.To); ok {
		fmt.Fprintf(&b, " Reach level %d for %.0f%%.", next.Level, next.Rate*100)
	}
	if change.Gated {
		fmt.Fprintf(&b, "\n🔒 Prestige gate: **%s**. %s\nYour XP keeps counting, but you will not level up until a staff member validates the challenge.",
			change.Gate.Title, change.Gate.Description)
	}
	e.notify.DM(ctx, u.ID, b.String())
}

func (e *Engine) checkReferralMilestone(ctx context.Context, u *models.UserRecord, from int) {
	m := e.cfg.ReferralMilestone
	if u.ReferrerID == "" || u.ReferralMilestonePaid || m.BonusXP <= 0 {
		return
	}
	if from >= m.Level || u.Level < m.Level {
		return
	}
	if e.now().Unix()-u.JoinedAt > int64(m.WithinDays)*86400 {
		return
	}
	referrer, ok := e.repo.User(u.ReferrerID)
	if !ok {
		return
	}

	u.ReferralMilestonePaid = true
	granted := e.grant(ctx, referrer, int64(m.BonusXP), fmt.Sprintf("referral milestone %s", u.ID))
	if e.notify != nil {
		e.notify.DM(ctx, referrer.ID, fmt.Sprintf("🚀 <@%s> reached level %d thanks to you! You earned %d bonus XP.", u.ID, m.Level, granted))
	}
}

// ClearPrestigeGate records the current challenge as completed and lets banked XP
// carry the member past the gate.
func (e *Engine) ClearPrestigeGate(ctx context.Context, userID string) (LevelChange, error) {
	u, ok := e.repo.User(userID)
	if !ok || !u.XPGated {
		return LevelChange{}, ErrNotGated
	}
	if u.CurrentPrestigeChallenge != nil {
		u.CompleteChallenge(u.CurrentPrestigeChallenge.ID)
	}
	u.XPGated = false
	u.CurrentPrestigeChallenge = nil
	if e.notify != nil {
		e.notify.DM(ctx, u.ID, "✅ Your prestige challenge was validated. Leveling is unlocked again!")
	}

	change, _ := e.CheckLevelUp(ctx, u)
	return change, e.persist(ctx)
}

func (e *Engine) persist(ctx context.Context) error {
	return errors.Join(e.repo.SaveUsers(ctx), e.repo.SaveGuilds(ctx))
}
