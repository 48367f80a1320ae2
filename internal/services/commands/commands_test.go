package commands

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/MyelinBots/resellboost-go/config"
	"github.com/MyelinBots/resellboost-go/internal/models"
	"github.com/MyelinBots/resellboost-go/internal/services/achievements"
	"github.com/MyelinBots/resellboost-go/internal/services/bonus"
	"github.com/MyelinBots/resellboost-go/internal/services/commission"
	"github.com/MyelinBots/resellboost-go/internal/services/context_manager"
	"github.com/MyelinBots/resellboost-go/internal/services/giveaways"
	"github.com/MyelinBots/resellboost-go/internal/services/guilds"
	"github.com/MyelinBots/resellboost-go/internal/services/ledger"
	"github.com/MyelinBots/resellboost-go/internal/services/platform"
	"github.com/MyelinBots/resellboost-go/internal/services/platform/platformtest"
	"github.com/MyelinBots/resellboost-go/internal/services/progression"
	"github.com/MyelinBots/resellboost-go/internal/services/serial"
	"github.com/MyelinBots/resellboost-go/internal/services/subscription"
	"github.com/MyelinBots/resellboost-go/internal/store"
)

var epoch = time.Unix(1_700_000_000, 0)

type fixture struct {
	ctrl    *CommandControllerImpl
	store   *store.Store
	backend *store.MemoryBackend
	rec     *platformtest.Recorder
}

func testConfig() config.GamificationConfig {
	return config.GamificationConfig{
		XP: config.XPConfig{BaseXP: 100, Multiplier: 1.5, MessageMin: 15, MessageMax: 25, PurchaseXPPerUnit: 1},
		Affiliate: config.AffiliateConfig{
			CommissionByLevel: []config.CommissionTier{{Level: 1, Rate: 0.05}, {Level: 5, Rate: 0.10}},
			MarginPolicy:      config.MarginGross,
		},
		VIP:               config.VIPConfig{PeriodDays: 30, Tiers: []config.VIPTier{{Periods: 1, CommissionBonus: 0.02, XPBoost: 0.10}}},
		AffiliatePro:      config.AffiliateProConfig{Rate: 0.05, PeriodDays: 30},
		Cashout:           config.CashoutConfig{EuroPerCredit: 1, MinLevel: 1, Tiers: []config.CashoutTier{{Level: 1, MinCredits: 20}}},
		Guild:             config.GuildConfig{Enabled: true, MinLevelToCreate: 10, CreationCost: 5, ForceOfficialCost: 3, NameChangeCost: 4, MaxMembers: 10, MinMembersForOfficial: 7},
		TransactionLogMax: 100,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testConfig()
	clock := func() time.Time { return epoch }

	f := &fixture{backend: store.NewMemoryBackend(), rec: platformtest.New()}
	f.store = store.New(f.backend, nil).WithClock(clock)
	l := ledger.New(f.store, cfg.TransactionLogMax).WithClock(clock)
	b := bonus.New(cfg)
	n := platform.NewNotifier(f.rec, nil)
	a := achievements.NewTracker(n, nil)
	roles := config.RolesConfig{Premium: "premium", Loyalty: "loyalty", AffiliatePro: "affpro", GuildMaster: "guildmaster", Staff: []string{"staff"}}
	channels := config.ChannelsConfig{LevelUp: "levelup", CashoutApproval: "approvals", GuildCategory: "cat", GuildAnnouncements: "guild-news"}

	prog := progression.New(cfg, channels.LevelUp, f.store, l, b, n, a, nil).WithClock(clock)
	q := serial.NewQueue(8)
	q.Start()
	t.Cleanup(q.Stop)

	f.ctrl = NewCommandController(Deps{
		Prefix:       "!",
		StaffRoles:   roles.Staff,
		Repo:         f.store,
		Queue:        q,
		Notifier:     n,
		Bonus:        b,
		Progression:  prog,
		Commission:   commission.New(cfg, channels.CashoutApproval, f.store, l, b, prog, n, a, nil).WithClock(clock),
		Subscription: subscription.New(cfg, roles, f.store, l, b, n, nil).WithClock(clock),
		Guilds:       guilds.New(cfg.Guild, channels, roles, f.store, l, n, a, nil).WithClock(clock),
		Giveaways:    giveaways.New("giveaways", f.store, n, nil).WithClock(clock),
	}).WithClock(clock)
	f.ctrl.Register()
	return f
}

func memberCtx(userID string, roles ...string) context.Context {
	ctx := context_manager.SetUserContext(context.Background(), userID)
	ctx = context_manager.SetChannelContext(ctx, "general")
	return context_manager.SetRolesContext(ctx, roles)
}

func (f *fixture) run(t *testing.T, ctx context.Context, message string) {
	t.Helper()
	if err := f.ctrl.HandleCommand(ctx, message); err != nil {
		t.Fatalf("%q: unexpected error: %v", message, err)
	}
}

func (f *fixture) lastReply() string {
	msgs := f.rec.MessagesIn("general")
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

func TestHandleCommandIgnoresChatter(t *testing.T) {
	f := newFixture(t)
	f.run(t, memberCtx("1"), "hello everyone")
	f.run(t, memberCtx("1"), "   ")
	f.run(t, memberCtx("1"), "!unknown thing")
	if len(f.rec.ChannelMessages) != 0 {
		t.Errorf("expected no replies, got %v", f.rec.ChannelMessages)
	}
}

func TestUsageAndStaffErrorsAreReplied(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"cashout without args", "!cashout", "Usage: !cashout"},
		{"cashout bad amount", "!cashout lots paypal", "Usage: !cashout"},
		{"approve without staff", "!approve msg-1", "reserved to staff"},
		{"vip without staff", "!vip <@2>", "reserved to staff"},
		{"unknown guild subcommand", "!guild conquer", "Usage: !guild"},
		{"bad leaderboard", "!top karma", "Usage: !top"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.run(t, memberCtx("1"), tt.message)
			if got := f.lastReply(); !strings.Contains(got, tt.want) {
				t.Errorf("reply = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestCashoutApproveAndDeny(t *testing.T) {
	f := newFixture(t)
	u := f.store.GetOrCreateUser("1")
	u.StoreCredit = 50

	f.run(t, memberCtx("1"), "!cashout 20 paypal me@example.com")
	if u.StoreCredit != 30 {
		t.Fatalf("StoreCredit = %v after request, want 30", u.StoreCredit)
	}
	approvals := f.rec.MessagesIn("approvals")
	if len(approvals) != 1 || !strings.Contains(approvals[0], "paypal me@example.com") {
		t.Fatalf("approval post = %v", approvals)
	}

	staff := memberCtx("99", "staff")
	id := f.rec.LastMessageID("approvals")
	f.run(t, staff, "!approve "+id)
	if u.CashoutCount != 1 || u.StoreCredit != 30 {
		t.Errorf("after approve: count=%d credit=%v", u.CashoutCount, u.StoreCredit)
	}

	f.run(t, staff, "!approve "+id)
	if !strings.Contains(f.lastReply(), "already resolved") {
		t.Errorf("second approve reply = %q", f.lastReply())
	}
	if u.CashoutCount != 1 {
		t.Errorf("second approve booked again")
	}

	f.run(t, memberCtx("1"), "!cashout 25 iban FR76")
	if u.StoreCredit != 5 {
		t.Fatalf("StoreCredit = %v after second request, want 5", u.StoreCredit)
	}
	f.run(t, staff, "!deny "+f.rec.LastMessageID("approvals")+" wrong iban")
	if u.StoreCredit != 30 {
		t.Errorf("StoreCredit = %v after deny, want 30", u.StoreCredit)
	}
}

func TestReferralPurchasePaysCommission(t *testing.T) {
	f := newFixture(t)

	f.run(t, memberCtx("1"), "!setreferrer <@1> <@2>")
	if !strings.Contains(f.lastReply(), "staff") {
		t.Errorf("member reply = %q", f.lastReply())
	}
	f.run(t, memberCtx("99", "staff"), "!setreferrer <@1> <@2>")
	if !strings.Contains(f.lastReply(), "not a known member") {
		t.Errorf("unknown referrer reply = %q", f.lastReply())
	}
	if _, ok := f.store.User("2"); ok {
		t.Fatal("unknown referrer got a record")
	}

	f.store.GetOrCreateUser("2")
	f.store.GetOrCreateUser("3")
	f.run(t, memberCtx("99", "staff"), "!setreferrer <@1> <@2>")
	buyer, _ := f.store.User("1")
	if buyer.ReferrerID != "2" {
		t.Fatalf("ReferrerID = %q, want 2", buyer.ReferrerID)
	}

	f.run(t, memberCtx("99", "staff"), "!purchase <@1> 100")
	referrer, _ := f.store.User("2")
	if referrer.StoreCredit != 5 || referrer.AffiliateSaleCount != 1 {
		t.Errorf("referrer credit=%v sales=%d, want 5 and 1", referrer.StoreCredit, referrer.AffiliateSaleCount)
	}
	if buyer.PurchaseCount != 1 || buyer.XP != 100 {
		t.Errorf("buyer purchases=%d xp=%d, want 1 and 100", buyer.PurchaseCount, buyer.XP)
	}
	if got := f.lastReply(); !strings.Contains(got, "earned 5.00 credits") {
		t.Errorf("reply = %q", got)
	}

	f.run(t, memberCtx("99", "staff"), "!setreferrer <@1> <@3>")
	if !strings.Contains(f.lastReply(), "referrer already set") {
		t.Errorf("reply = %q", f.lastReply())
	}
}

func TestTopAndProfile(t *testing.T) {
	f := newFixture(t)
	for id, xp := range map[string]int64{"1": 50, "2": 400, "3": 120} {
		u := f.store.GetOrCreateUser(id)
		u.XP = xp
	}

	f.run(t, memberCtx("1"), "!top")
	if got := f.lastReply(); !strings.HasPrefix(got, "🏆 Top XP: #1 <@2> (400 XP)") {
		t.Errorf("top reply = %q", got)
	}

	f.run(t, memberCtx("1"), "!profile <@3>")
	got := f.lastReply()
	if !strings.Contains(got, "Profile of <@3>") || !strings.Contains(got, "120 XP") || !strings.Contains(got, "Commission rate: 5.0%") {
		t.Errorf("profile reply = %q", got)
	}

	f.run(t, memberCtx("1"), "!profile <@404>")
	if !strings.Contains(f.lastReply(), "no ResellBoost activity") {
		t.Errorf("unknown profile reply = %q", f.lastReply())
	}
}

func TestGuildCommands(t *testing.T) {
	f := newFixture(t)
	owner := f.store.GetOrCreateUser("1")
	owner.Level = 12
	owner.StoreCredit = 20

	f.run(t, memberCtx("1"), "!guild create #FF5733 Les Dragons")
	g, ok := f.store.GuildByName("les dragons")
	if !ok {
		t.Fatalf("guild not created, last reply %q", f.lastReply())
	}

	f.run(t, memberCtx("1"), "!guild invite <@2>")
	if len(f.rec.DMsTo("2")) != 1 {
		t.Fatalf("invite DM not sent")
	}
	f.run(t, memberCtx("2"), "!guild accept")
	if len(g.Members) != 2 {
		t.Errorf("members = %v", g.Members)
	}

	f.run(t, memberCtx("2"), "!guild accept")
	if !strings.Contains(f.lastReply(), "no pending guild invite") {
		t.Errorf("reply = %q", f.lastReply())
	}

	f.run(t, memberCtx("2"), "!guild leave")
	if len(g.Members) != 1 {
		t.Errorf("members after leave = %v", g.Members)
	}
}

func TestStaffMembershipCommands(t *testing.T) {
	f := newFixture(t)
	staff := memberCtx("99", "staff")

	f.run(t, staff, "!vip <@1>")
	u, _ := f.store.User("1")
	if !u.VIPPremium.Active(epoch.Unix()) || !f.rec.HasRole("1", "premium") {
		t.Errorf("vip not activated: %+v", u.VIPPremium)
	}

	f.run(t, staff, "!booster <@1> commission 5% 7")
	if len(u.ActiveBoosts) != 1 || u.ActiveBoosts[0].Rate != 0.05 || u.ActiveBoosts[0].Kind != models.BoostCommission {
		t.Errorf("boosts = %+v", u.ActiveBoosts)
	}
	if want := epoch.Add(7 * 24 * time.Hour).Unix(); u.ActiveBoosts[0].ExpiresAt != want {
		t.Errorf("ExpiresAt = %d, want %d", u.ActiveBoosts[0].ExpiresAt, want)
	}

	f.run(t, staff, "!challenge clear <@1>")
	if !strings.Contains(f.lastReply(), "not at a prestige gate") {
		t.Errorf("reply = %q", f.lastReply())
	}
}

func TestGiveawayCommands(t *testing.T) {
	f := newFixture(t)
	staff := memberCtx("99", "staff")

	f.run(t, memberCtx("1"), "!giveaway start 1h 1 Dunk Low")
	if !strings.Contains(f.lastReply(), "reserved to staff") {
		t.Errorf("reply = %q", f.lastReply())
	}
	f.run(t, staff, "!giveaway start soon 1 Dunk Low")
	if !strings.Contains(f.lastReply(), "Usage: !giveaway") {
		t.Errorf("reply = %q", f.lastReply())
	}
	f.run(t, staff, "!giveaway start 1h 30 Dunk Low")
	if !strings.Contains(f.lastReply(), "1 to 25 winners") {
		t.Errorf("reply = %q", f.lastReply())
	}

	f.run(t, staff, "!giveaway start 1d12h 2 Jordan 4 Retro")
	id := f.rec.LastMessageID("giveaways")
	g, ok := f.store.Giveaway(id)
	if !ok || g.Prize != "Jordan 4 Retro" || g.HostID != "99" || g.EndsAt != epoch.Add(36*time.Hour).Unix() {
		t.Fatalf("giveaway = %+v", g)
	}
	if !strings.Contains(f.lastReply(), "Jordan 4 Retro") {
		t.Errorf("reply = %q", f.lastReply())
	}

	f.run(t, staff, "!giveaway list")
	if !strings.Contains(f.lastReply(), id) {
		t.Errorf("list = %q", f.lastReply())
	}
	f.run(t, staff, "!giveaway reroll "+id)
	if !strings.Contains(f.lastReply(), "not ended yet") {
		t.Errorf("reply = %q", f.lastReply())
	}
	f.run(t, staff, "!giveaway reroll nope")
	if !strings.Contains(f.lastReply(), "unknown giveaway") {
		t.Errorf("reply = %q", f.lastReply())
	}
}

func TestStorageFailureIsReturned(t *testing.T) {
	f := newFixture(t)
	f.backend.FailSaves = true

	err := f.ctrl.HandleCommand(memberCtx("99", "staff"), "!vip <@1>")
	if err == nil {
		t.Fatalf("expected the save failure to be returned")
	}
	if !strings.Contains(f.lastReply(), "Something went wrong") {
		t.Errorf("reply = %q", f.lastReply())
	}
}

func TestAskWithoutAssistant(t *testing.T) {
	f := newFixture(t)
	f.run(t, memberCtx("1"), "!ask how do I cash out?")
	if !strings.Contains(f.lastReply(), "not available") {
		t.Errorf("reply = %q", f.lastReply())
	}
}

func TestHelpShowsStaffSection(t *testing.T) {
	f := newFixture(t)
	f.run(t, memberCtx("1"), "!help")
	if strings.Contains(f.lastReply(), "Staff:") {
		t.Errorf("members should not see staff commands")
	}
	f.run(t, memberCtx("2", "staff"), "!HELP")
	if !strings.Contains(f.lastReply(), "Staff:") {
		t.Errorf("staff should see staff commands")
	}
}

func TestParseUser(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"<@123>", "123", true},
		{"<@!456>", "456", true},
		{"789", "789", true},
		{"@bob", "", false},
		{"<@abc>", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseUser(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseUser(%q) = %q,%v want %q,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"0.05", 0.05, true},
		{"5%", 0.05, true},
		{"8", 0.08, true},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"nan%", 0, false},
		{"Inf", 0, false},
		{"-5%", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseRate(tt.in)
		if ok != tt.ok || (ok && (got-tt.want > 1e-9 || tt.want-got > 1e-9)) {
			t.Errorf("parseRate(%q) = %v,%v want %v,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"20", 20, true},
		{"12,5", 12.5, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"NaN", 0, false},
		{"+Inf", 0, false},
		{"infinity", 0, false},
		{"1e400", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseAmount(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseAmount(%q) = %v,%v want %v,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"7d", 7 * 24 * time.Hour, true},
		{"12h", 12 * time.Hour, true},
		{"1d12h30m", 36*time.Hour + 30*time.Minute, true},
		{"45s", 45 * time.Second, true},
		{"30M", 30 * time.Minute, true},
		{"0h", 0, false},
		{"", 0, false},
		{"h", 0, false},
		{"12h1d", 0, false},
		{"soon", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseDuration(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseDuration(%q) = %v,%v want %v,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
