package achievements

import (
	"context"
	"strings"
	"testing"

	"github.com/MyelinBots/resellboost-go/internal/models"
	"github.com/MyelinBots/resellboost-go/internal/services/platform"
	"github.com/MyelinBots/resellboost-go/internal/services/platform/platformtest"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(u *models.UserRecord)
		want []string
	}{
		{"fresh member", func(u *models.UserRecord) {}, nil},
		{"first message", func(u *models.UserRecord) { u.MessageCount = 1 }, []string{"first_message"}},
		{"level 25 unlocks both level badges", func(u *models.UserRecord) { u.Level = 25 }, []string{"level_10", "level_25"}},
		{"affiliate", func(u *models.UserRecord) { u.AffiliateSaleCount = 12 }, []string{"first_sale", "ten_sales"}},
		{"guild", func(u *models.UserRecord) { u.GuildID = "g1" }, []string{"guild_member"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := models.NewUserRecord("1", 0)
			tt.mod(u)
			got := Evaluate(u)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d achievements, want %d", len(got), len(tt.want))
			}
			for i, a := range got {
				if a.ID != tt.want[i] {
					t.Errorf("achievement %d = %s, want %s", i, a.ID, tt.want[i])
				}
			}
		})
	}
}

func TestEvaluateIsMonotonic(t *testing.T) {
	u := models.NewUserRecord("1", 0)
	u.GuildID = "g1"
	Evaluate(u)

	u.GuildID = ""
	if got := Evaluate(u); len(got) != 0 {
		t.Errorf("expected no new achievements, got %d", len(got))
	}
	if !u.HasAchievement("guild_member") {
		t.Error("achievement lost after leaving guild")
	}
}

func TestTrackerNotifiesOnce(t *testing.T) {
	rec := platformtest.New()
	tr := NewTracker(platform.NewNotifier(rec, nil), nil)
	u := models.NewUserRecord("7", 0)
	u.CashoutCount = 1

	tr.Check(context.Background(), u)
	tr.Check(context.Background(), u)

	dms := rec.DMsTo("7")
	if len(dms) != 1 {
		t.Fatalf("expected 1 DM, got %d", len(dms))
	}
	if !strings.Contains(dms[0], "Paid Out") {
		t.Errorf("unexpected DM %q", dms[0])
	}
}
