package bot

import (
	"context"
	"time"

	"github.com/MyelinBots/resellboost-go/internal/services/timer"
	"go.uber.org/zap"
)

const (
	sweepInterval    = time.Hour
	giveawayInterval = 15 * time.Second
	missionInterval  = 24 * time.Hour
	rolloverInterval = 7 * 24 * time.Hour
	jobTimeout       = 5 * time.Minute
)

// RunSweep expires lapsed entitlements and prunes expired boosters.
func (a *App) RunSweep(ctx context.Context) error {
	return a.Queue.Do(ctx, func(ctx context.Context) error {
		res, err := a.Subscription.Sweep(ctx)
		a.Log.Debug("subscription sweep",
			zap.Int("vip_lapsed", res.VIPLapsed),
			zap.Int("affiliate_pro_lapsed", res.AffiliateProLapsed),
			zap.Int("boosts_pruned", res.BoostsPruned),
			zap.Error(err))
		return err
	})
}

// RunRollover awards the weekly leaderboard boosters and resets weekly counters.
func (a *App) RunRollover(ctx context.Context) error {
	return a.Queue.Do(ctx, func(ctx context.Context) error {
		res, err := a.Subscription.WeeklyRollover(ctx)
		a.Log.Debug("weekly rollover", zap.Int("winners", len(res.Winners)), zap.Int("reset", res.Reset), zap.Error(err))
		return err
	})
}

// RunMissionAssignment gives a mission to everyone without one.
func (a *App) RunMissionAssignment(ctx context.Context) error {
	return a.Queue.Do(ctx, func(ctx context.Context) error {
		assigned, err := a.Missions.AssignSweep(ctx)
		a.Log.Debug("mission assignment", zap.Int("assigned", assigned), zap.Error(err))
		return err
	})
}

// RunGiveaways ends the giveaways that are due.
func (a *App) RunGiveaways(ctx context.Context) error {
	return a.Queue.Do(ctx, func(ctx context.Context) error {
		ended, err := a.Giveaways.EndDue(ctx)
		if ended > 0 {
			a.Log.Debug("giveaways ended", zap.Int("ended", ended), zap.Error(err))
		}
		return err
	})
}

// StartSchedules starts the recurring jobs. Stop the returned timers on shutdown.
func (a *App) StartSchedules(ctx context.Context) []*timer.RepeatedTimer {
	jobs := []struct {
		name     string
		interval time.Duration
		run      func(context.Context) error
	}{
		{"subscription_sweep", sweepInterval, a.RunSweep},
		{"giveaway_sweep", giveawayInterval, a.RunGiveaways},
		{"mission_assignment", missionInterval, a.RunMissionAssignment},
		{"weekly_rollover", rolloverInterval, a.RunRollover},
	}

	timers := make([]*timer.RepeatedTimer, 0, len(jobs))
	for _, j := range jobs {
		t := timer.NewRepeatedTimer(j.interval, func() {
			jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
			defer cancel()
			if err := j.run(jobCtx); err != nil {
				a.Log.Error("scheduled job failed", zap.String("job", j.name), zap.Error(err))
			}
		})
		t.Start()
		timers = append(timers, t)
	}
	return timers
}
