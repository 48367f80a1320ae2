package discord

import (
	"context"
	"errors"
	"sync"

	"github.com/MyelinBots/resellboost-go/internal/services/commission"
	"github.com/MyelinBots/resellboost-go/internal/services/serial"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// InviteLister is the part of the session the tracker reads invites from.
type InviteLister interface {
	GuildInvites(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Invite, error)
}

// ReferrerBinder records who invited a member.
type ReferrerBinder interface {
	SetReferrer(ctx context.Context, userID, referrerID string) error
}

type inviteUse struct {
	inviterID string
	uses      int
}

// InviteTracker binds a new member to the owner of the invite they joined with. The
// invite is found by comparing use counts against the last snapshot; a join that
// bumped zero or several invites binds nobody.
type InviteTracker struct {
	GuildID string
	Queue   *serial.Queue
	Binder  ReferrerBinder
	Log     *zap.Logger

	mu   sync.Mutex
	uses map[string]inviteUse
}

// Snapshot replaces the cached use counts.
func (t *InviteTracker) Snapshot(ctx context.Context, l InviteLister) error {
	invites, err := l.GuildInvites(t.GuildID, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.uses = indexInvites(invites)
	return nil
}

// Joined resolves the invite userID used and books the referral. It returns the
// referrer id, or "" when the invite could not be attributed.
func (t *InviteTracker) Joined(ctx context.Context, l InviteLister, userID string) (string, error) {
	invites, err := l.GuildInvites(t.GuildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	current := indexInvites(invites)

	t.mu.Lock()
	previous := t.uses
	t.uses = current
	t.mu.Unlock()

	var referrerID string
	for code, now := range current {
		if now.uses <= previous[code].uses {
			continue
		}
		if referrerID != "" {
			t.Log.Info("join matched several invites", zap.String("user_id", userID))
			return "", nil
		}
		referrerID = now.inviterID
	}
	if referrerID == "" || referrerID == userID {
		return "", nil
	}

	err = t.Queue.Do(ctx, func(ctx context.Context) error {
		return t.Binder.SetReferrer(ctx, userID, referrerID)
	})
	switch {
	case errors.Is(err, commission.ErrUnknownReferrer), errors.Is(err, commission.ErrReferrerAlreadySet):
		t.Log.Info("referral not bound", zap.String("user_id", userID), zap.String("referrer_id", referrerID), zap.Error(err))
		return "", nil
	case err != nil:
		return "", err
	}
	t.Log.Info("referral bound from invite", zap.String("user_id", userID), zap.String("referrer_id", referrerID))
	return referrerID, nil
}

func indexInvites(invites []*discordgo.Invite) map[string]inviteUse {
	out := make(map[string]inviteUse, len(invites))
	for _, inv := range invites {
		if inv == nil || inv.Inviter == nil {
			continue
		}
		out[inv.Code] = inviteUse{inviterID: inv.Inviter.ID, uses: inv.Uses}
	}
	return out
}

// OnReady takes the first snapshot.
func (t *InviteTracker) OnReady(s *discordgo.Session, _ *discordgo.Ready) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	if err := t.Snapshot(ctx, s); err != nil {
		t.Log.Warn("invite snapshot failed", zap.Error(err))
	}
}

// OnInviteCreate keeps the snapshot current so the first use of a new invite is seen.
func (t *InviteTracker) OnInviteCreate(_ *discordgo.Session, e *discordgo.InviteCreate) {
	if e.Invite == nil || e.Inviter == nil || e.GuildID != t.GuildID {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.uses == nil {
		t.uses = make(map[string]inviteUse)
	}
	t.uses[e.Code] = inviteUse{inviterID: e.Inviter.ID, uses: e.Uses}
}

func (t *InviteTracker) OnGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.Member == nil || m.User == nil || m.User.Bot || m.GuildID != t.GuildID {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	if _, err := t.Joined(ctx, s, m.User.ID); err != nil {
		t.Log.Error("invite attribution failed", zap.String("user_id", m.User.ID), zap.Error(err))
	}
}
