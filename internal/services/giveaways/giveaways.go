package giveaways

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/MyelinBots/resellboost-go/internal/metrics"
	"github.com/MyelinBots/resellboost-go/internal/models"
	"github.com/MyelinBots/resellboost-go/internal/services/platform"
	"github.com/MyelinBots/resellboost-go/internal/store"
	"go.uber.org/zap"
)

const (
	Emoji      = "🎉"
	MaxWinners = 25
	// Ended giveaways stay rerollable this long.
	retention = 30 * 24 * time.Hour
)

var (
	ErrInvalidGiveaway = errors.New("a giveaway needs a prize, a positive duration and 1 to 25 winners")
	ErrNoChannel       = errors.New("the giveaway channel is not configured")
	ErrUnknownGiveaway = errors.New("unknown giveaway")
	ErrStillRunning    = errors.New("the giveaway has not ended yet")
	ErrNoEntrants      = errors.New("nobody left to draw")
)

// Service runs reaction giveaways: members enter by reacting to the announcement.
// It must only be called from the serialized command queue.
type Service struct {
	channel string
	repo    store.Repository
	notify  *platform.Notifier
	log     *zap.Logger
	now     func() time.Time
	rng     *rand.Rand
}

func New(channelID string, repo store.Repository, n *platform.Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		channel: channelID,
		repo:    repo,
		notify:  n,
		log:     log,
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
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

// Start announces a giveaway ending after d. The announcement id becomes the giveaway id.
func (s *Service) Start(ctx context.Context, hostID, prize string, d time.Duration, winners int) (*models.Giveaway, error) {
	prize = strings.TrimSpace(prize)
	if prize == "" || d <= 0 || winners < 1 || winners > MaxWinners {
		return nil, ErrInvalidGiveaway
	}
	if s.channel == "" {
		return nil, ErrNoChannel
	}

	endsAt := s.now().Add(d).Unix()
	p := s.notify.Platform()
	msgID, err := p.SendChannelMessage(ctx, s.channel, announcement(prize, winners, endsAt))
	if err != nil {
		return nil, fmt.Errorf("post giveaway: %w", err)
	}
	if err := p.AddReaction(ctx, s.channel, msgID, Emoji); err != nil {
		s.log.Warn("giveaway reaction not added", zap.String("giveaway_id", msgID), zap.Error(err))
	}

	g := &models.Giveaway{
		ID:          msgID,
		ChannelID:   s.channel,
		HostID:      hostID,
		Prize:       prize,
		WinnerCount: winners,
		EndsAt:      endsAt,
		Winners:     []string{},
	}
	s.repo.PutGiveaway(g)
	metrics.Giveaways.WithLabelValues("started").Inc()
	s.log.Info("giveaway started",
		zap.String("giveaway_id", g.ID),
		zap.String("host_id", hostID),
		zap.String("prize", prize),
		zap.Int("winners", winners),
		zap.Int64("ends_at", endsAt))
	return g, s.repo.SaveGiveaways(ctx)
}

// Running lists the giveaways that have not ended, soonest first.
func (s *Service) Running() []*models.Giveaway {
	var out []*models.Giveaway
	for _, g := range s.repo.Giveaways() {
		if !g.Ended {
			out = append(out, g)
		}
	}
	return out
}

// EndDue ends every giveaway past its end time and forgets ended giveaways older than
// the retention window. It returns how many giveaways ended.
func (s *Service) EndDue(ctx context.Context) (int, error) {
	now := s.now()
	ended, pruned := 0, 0
	for _, g := range s.repo.Giveaways() {
		switch {
		case g.Due(now.Unix()):
			s.end(ctx, g)
			ended++
		case g.Ended && now.Sub(time.Unix(g.EndedAt, 0)) > retention:
			s.repo.DeleteGiveaway(g.ID)
			pruned++
		}
	}
	if ended == 0 && pruned == 0 {
		return 0, nil
	}
	return ended, s.repo.SaveGiveaways(ctx)
}

// end draws the winners. A giveaway whose announcement is gone ends without winners.
func (s *Service) end(ctx context.Context, g *models.Giveaway) {
	g.Ended = true
	g.EndedAt = s.now().Unix()
	metrics.Giveaways.WithLabelValues("ended").Inc()

	p := s.notify.Platform()
	entrants, err := p.ReactionUsers(ctx, g.ChannelID, g.ID, Emoji)
	if err != nil {
		s.log.Warn("giveaway entrants unavailable", zap.String("giveaway_id", g.ID), zap.Error(err))
		return
	}
	g.Winners = s.draw(entrants, nil, g.WinnerCount)

	if len(g.Winners) == 0 {
		s.notify.Announce(ctx, g.ChannelID, fmt.Sprintf("The giveaway for **%s** is over. Nobody entered... 😢", g.Prize))
	} else {
		s.notify.Announce(ctx, g.ChannelID, fmt.Sprintf("Congratulations %s! You won **%s**!", mentions(g.Winners), g.Prize))
	}
	if err := p.EditMessage(ctx, g.ChannelID, g.ID, closedAnnouncement(g)); err != nil {
		s.log.Warn("giveaway announcement not closed", zap.String("giveaway_id", g.ID), zap.Error(err))
	}
	s.log.Info("giveaway ended",
		zap.String("giveaway_id", g.ID),
		zap.Int("entrants", len(entrants)),
		zap.Strings("winners", g.Winners))
}

// Reroll draws one more winner among the entrants who have not won yet.
func (s *Service) Reroll(ctx context.Context, id string) (string, error) {
	g, ok := s.repo.Giveaway(id)
	if !ok {
		return "", ErrUnknownGiveaway
	}
	if !g.Ended {
		return "", ErrStillRunning
	}
	entrants, err := s.notify.Platform().ReactionUsers(ctx, g.ChannelID, g.ID, Emoji)
	if err != nil {
		return "", fmt.Errorf("read giveaway entrants: %w", err)
	}
	picked := s.draw(entrants, g.Winners, 1)
	if len(picked) == 0 {
		return "", ErrNoEntrants
	}

	winner := picked[0]
	g.Winners = append(g.Winners, winner)
	metrics.Giveaways.WithLabelValues("rerolled").Inc()
	s.notify.Announce(ctx, g.ChannelID, fmt.Sprintf("🎉 New draw! The new winner of **%s** is <@%s>! Congratulations!", g.Prize, winner))
	s.log.Info("giveaway rerolled", zap.String("giveaway_id", g.ID), zap.String("winner", winner))
	return winner, s.repo.SaveGiveaways(ctx)
}

// draw picks up to n distinct entrants outside exclude.
func (s *Service) draw(entrants, exclude []string, n int) []string {
	seen := make(map[string]bool, len(entrants)+len(exclude))
	for _, id := range exclude {
		seen[id] = true
	}
	pool := make([]string, 0, len(entrants))
	for _, id := range entrants {
		if !seen[id] {
			seen[id] = true
			pool = append(pool, id)
		}
	}
	s.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if n > len(pool) {
		n = len(pool)
	}
	return append([]string{}, pool[:n]...)
}

func announcement(prize string, winners int, endsAt int64) string {
	return fmt.Sprintf("%s **GIVEAWAY** %s\n**Prize:** %s\n**Winners:** %d\nEnds <t:%d:R> (<t:%d:F>)\nReact with %s to enter!",
		Emoji, Emoji, prize, winners, endsAt, endsAt, Emoji)
}

func closedAnnouncement(g *models.Giveaway) string {
	result := "No entrants."
	if len(g.Winners) > 0 {
		result = mentions(g.Winners)
	}
	return fmt.Sprintf("%s **GIVEAWAY ENDED** %s\n**Prize:** %s\n**Winner(s):** %s", Emoji, Emoji, g.Prize, result)
}

func mentions(ids []string) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = "<@" + id + ">"
	}
	return strings.Join(out, ", ")
}
