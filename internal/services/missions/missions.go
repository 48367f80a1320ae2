package missions

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/MyelinBots/resellboost-go/config"
	"github.com/MyelinBots/resellboost-go/internal/models"
	"github.com/MyelinBots/resellboost-go/internal/services/platform"
	"github.com/MyelinBots/resellboost-go/internal/services/progression"
	"github.com/MyelinBots/resellboost-go/internal/store"
	"go.uber.org/zap"
)

const (
	MetricMessages  = "messages"
	MetricSales     = "sales"
	MetricReferrals = "referrals"
)

// Service hands out personal missions and tracks their progress.
// It must only be called from the serialized command queue.
type Service struct {
	templates   []config.MissionTemplate
	repo        store.Repository
	progression *progression.Engine
	notify      *platform.Notifier
	log         *zap.Logger
	now         func() time.Time
	rng         *rand.Rand
}

func New(templates []config.MissionTemplate, repo store.Repository, p *progression.Engine, n *platform.Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		templates:   templates,
		repo:        repo,
		progression: p,
		notify:      n,
		log:         log,
		now:         time.Now,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) WithRand(rng *rand.Rand) *Service {
	s.rng = rng
	return s
}

// available lists the templates u has not completed yet.
func (s *Service) available(u *models.UserRecord) []config.MissionTemplate {
	var out []config.MissionTemplate
	for _, t := range s.templates {
		if !u.HasCompletedChallenge(t.ID) {
			out = append(out, t)
		}
	}
	return out
}

// AssignSweep gives every member without an active mission a random one they have not
// completed. It returns how many missions were handed out.
func (s *Service) AssignSweep(ctx context.Context) (int, error) {
	assigned := 0
	for _, u := range s.repo.Users() {
		if u.ActiveMission != nil {
			continue
		}
		choices := s.available(u)
		if len(choices) == 0 {
			continue
		}
		t := choices[s.rng.Intn(len(choices))]
		u.ActiveMission = &models.Mission{
			ID:         t.ID,
			Metric:     t.Metric,
			Target:     t.Target,
			RewardXP:   t.RewardXP,
			AssignedAt: s.now().Unix(),
		}
		assigned++
		s.notify.DM(ctx, u.ID, fmt.Sprintf("🎯 New mission: %s (reward: %d XP).", t.Description, t.RewardXP))
	}
	if assigned == 0 {
		return 0, nil
	}
	s.log.Info("missions assigned", zap.Int("count", assigned))
	return assigned, s.repo.SaveUsers(ctx)
}

// Progress advances u's mission when it tracks metric. Completion pays the reward XP and
// records the mission so it is never assigned again.
func (s *Service) Progress(ctx context.Context, u *models.UserRecord, metric string, delta int) bool {
	m := u.ActiveMission
	if m == nil || m.Metric != metric || delta <= 0 {
		return false
	}
	m.Progress += delta
	if m.Progress < m.Target {
		return false
	}

	u.ActiveMission = nil
	u.CompleteChallenge(m.ID)
	granted := s.progression.GrantTo(ctx, u, int64(m.RewardXP), fmt.Sprintf("mission %s", m.ID))
	s.log.Info("mission completed", zap.String("user_id", u.ID), zap.String("mission_id", m.ID), zap.Int64("xp", granted))
	s.notify.DM(ctx, u.ID, fmt.Sprintf("✅ Mission complete! You earned %d XP.", granted))
	return true
}

func (s *Service) OnMessage(ctx context.Context, u *models.UserRecord) {
	s.Progress(ctx, u, MetricMessages, 1)
}

func (s *Service) OnSale(ctx context.Context, u *models.UserRecord) {
	s.Progress(ctx, u, MetricSales, 1)
}

func (s *Service) OnReferral(ctx context.Context, u *models.UserRecord) {
	s.Progress(ctx, u, MetricReferrals, 1)
}
