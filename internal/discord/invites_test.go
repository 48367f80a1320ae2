package discord

import (
	"context"
	"errors"
	"testing"

	"github.com/MyelinBots/resellboost-go/internal/services/commission"
	"github.com/MyelinBots/resellboost-go/internal/services/serial"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type fakeLister struct {
	invites []*discordgo.Invite
	err     error
}

func (f *fakeLister) GuildInvites(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Invite, error) {
	return f.invites, f.err
}

func (f *fakeLister) set(uses map[string]int) {
	f.invites = nil
	for code, n := range uses {
		f.invites = append(f.invites, &discordgo.Invite{Code: code, Uses: n, Inviter: &discordgo.User{ID: "owner-" + code}})
	}
}

type binding struct{ userID, referrerID string }

type stubBinder struct {
	bound []binding
	err   error
}

func (b *stubBinder) SetReferrer(ctx context.Context, userID, referrerID string) error {
	if b.err != nil {
		return b.err
	}
	b.bound = append(b.bound, binding{userID, referrerID})
	return nil
}

func newTracker(t *testing.T, b ReferrerBinder) *InviteTracker {
	t.Helper()
	q := serial.NewQueue(4)
	q.Start()
	t.Cleanup(q.Stop)
	return &InviteTracker{GuildID: "g", Queue: q, Binder: b, Log: zap.NewNop()}
}

func TestJoinedBindsInviteOwner(t *testing.T) {
	b := &stubBinder{}
	tr := newTracker(t, b)
	l := &fakeLister{}
	ctx := context.Background()

	l.set(map[string]int{"abc": 3, "xyz": 0})
	if err := tr.Snapshot(ctx, l); err != nil {
		t.Fatal(err)
	}

	l.set(map[string]int{"abc": 3, "xyz": 1})
	got, err := tr.Joined(ctx, l, "new")
	if err != nil {
		t.Fatal(err)
	}
	if got != "owner-xyz" || len(b.bound) != 1 || b.bound[0] != (binding{"new", "owner-xyz"}) {
		t.Errorf("referrer = %q bound = %+v", got, b.bound)
	}

	// the snapshot advanced, so an unchanged count binds nobody
	if got, _ := tr.Joined(ctx, l, "vanity"); got != "" || len(b.bound) != 1 {
		t.Errorf("unchanged invites bound %q", got)
	}
}

func TestJoinedCountsInviteCreatedAfterSnapshot(t *testing.T) {
	b := &stubBinder{}
	tr := newTracker(t, b)
	l := &fakeLister{}
	ctx := context.Background()

	tr.OnInviteCreate(nil, &discordgo.InviteCreate{GuildID: "g", Invite: &discordgo.Invite{Code: "fresh", Inviter: &discordgo.User{ID: "owner-fresh"}}})
	l.set(map[string]int{"fresh": 1})

	if got, err := tr.Joined(ctx, l, "new"); err != nil || got != "owner-fresh" {
		t.Errorf("referrer = %q err = %v", got, err)
	}
}

func TestJoinedIgnoresAmbiguousAndUnknown(t *testing.T) {
	tests := []struct {
		name   string
		after  map[string]int
		binder *stubBinder
	}{
		{"two invites used", map[string]int{"a": 1, "b": 1}, &stubBinder{}},
		{"referrer has no record", map[string]int{"a": 1, "b": 0}, &stubBinder{err: commission.ErrUnknownReferrer}},
		{"referrer already set", map[string]int{"a": 1, "b": 0}, &stubBinder{err: commission.ErrReferrerAlreadySet}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTracker(t, tt.binder)
			l := &fakeLister{}
			l.set(map[string]int{"a": 0, "b": 0})
			if err := tr.Snapshot(context.Background(), l); err != nil {
				t.Fatal(err)
			}
			l.set(tt.after)

			got, err := tr.Joined(context.Background(), l, "new")
			if err != nil || got != "" || len(tt.binder.bound) != 0 {
				t.Errorf("referrer = %q err = %v bound = %+v", got, err, tt.binder.bound)
			}
		})
	}
}

func TestJoinedReturnsListError(t *testing.T) {
	tr := newTracker(t, &stubBinder{})
	l := &fakeLister{err: errors.New("missing manage guild")}
	if _, err := tr.Joined(context.Background(), l, "new"); err == nil {
		t.Error("expected error")
	}
}
