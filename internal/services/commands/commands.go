package commands

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/MyelinBots/resellboost-go/internal/services/assistant"
	"github.com/MyelinBots/resellboost-go/internal/services/bonus"
	"github.com/MyelinBots/resellboost-go/internal/services/commission"
	"github.com/MyelinBots/resellboost-go/internal/services/context_manager"
	"github.com/MyelinBots/resellboost-go/internal/services/giveaways"
	"github.com/MyelinBots/resellboost-go/internal/services/guilds"
	"github.com/MyelinBots/resellboost-go/internal/services/platform"
	"github.com/MyelinBots/resellboost-go/internal/services/progression"
	"github.com/MyelinBots/resellboost-go/internal/services/serial"
	"github.com/MyelinBots/resellboost-go/internal/services/subscription"
	"github.com/MyelinBots/resellboost-go/internal/store"
	"go.uber.org/zap"
)

var (
	ErrUsage    = errors.New("usage")
	ErrNotStaff = errors.New("this command is reserved to staff")
)

var mentionPattern = regexp.MustCompile(`^<@!?(\d+)>$`)

type Handler func(ctx context.Context, args ...string) error

type CommandController interface {
	HandleCommand(ctx context.Context, message string) error
	AddCommand(command string, handler Handler)
}

// Deps are the services commands drive. Every mutation goes through Queue.
type Deps struct {
	Prefix       string
	StaffRoles   []string
	Repo         store.Repository
	Queue        *serial.Queue
	Notifier     *platform.Notifier
	Bonus        *bonus.Resolver
	Progression  *progression.Engine
	Commission   *commission.Engine
	Subscription *subscription.Monitor
	Guilds       *guilds.Service
	Giveaways    *giveaways.Service
	Assistant    *assistant.Service
	Log          *zap.Logger
}

type CommandControllerImpl struct {
	Deps
	staff    map[string]bool
	commands map[string]Handler
	now      func() time.Time
}

func NewCommandController(d Deps) *CommandControllerImpl {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Prefix == "" {
		d.Prefix = "!"
	}
	c := &CommandControllerImpl{
		Deps:     d,
		staff:    make(map[string]bool),
		commands: make(map[string]Handler),
		now:      time.Now,
	}
	for _, r := range d.StaffRoles {
		c.staff[r] = true
	}
	return c
}

func (c *CommandControllerImpl) WithClock(now func() time.Time) *CommandControllerImpl {
	c.now = now
	return c
}

// Register adds every built-in command.
func (c *CommandControllerImpl) Register() {
	p := c.Prefix
	c.AddCommand(p+"help", c.HelpHandler())
	c.AddCommand(p+"profile", c.ProfileHandler())
	c.AddCommand(p+"top", c.TopHandler())
	c.AddCommand(p+"guilds", c.GuildsHandler())
	c.AddCommand(p+"cashout", c.CashoutHandler())
	c.AddCommand(p+"approve", c.ApproveHandler())
	c.AddCommand(p+"deny", c.DenyHandler())
	c.AddCommand(p+"purchase", c.PurchaseHandler())
	c.AddCommand(p+"setreferrer", c.SetReferrerHandler())
	c.AddCommand(p+"vip", c.VIPHandler())
	c.AddCommand(p+"affpro", c.AffiliateProHandler())
	c.AddCommand(p+"booster", c.BoosterHandler())
	c.AddCommand(p+"challenge", c.ChallengeHandler())
	c.AddCommand(p+"guild", c.GuildHandler())
	c.AddCommand(p+"giveaway", c.GiveawayHandler())
	c.AddCommand(p+"ask", c.AskHandler())
}

// HandleCommand parses a chat message and dispatches to the matching handler.
// Rule violations are answered in the channel and swallowed; anything else is
// answered generically and returned.
func (c *CommandControllerImpl) HandleCommand(ctx context.Context, message string) error {
	fields := strings.Fields(message)
	if len(fields) == 0 {
		return nil
	}

	handler, exists := c.commands[strings.ToLower(fields[0])]
	if !exists {
		return nil
	}
	err := handler(ctx, fields[1:]...)
	if err == nil {
		return nil
	}
	if isUserError(err) {
		c.reply(ctx, "⚠️ "+err.Error())
		return nil
	}
	c.reply(ctx, "⚠️ Something went wrong, please try again later.")
	return err
}

func (c *CommandControllerImpl) AddCommand(command string, handler Handler) {
	c.commands[strings.ToLower(command)] = handler
}

func (c *CommandControllerImpl) reply(ctx context.Context, text string) {
	c.Notifier.Announce(ctx, context_manager.GetChannelContext(ctx), text)
}

func (c *CommandControllerImpl) isStaff(ctx context.Context) bool {
	for _, r := range context_manager.GetRolesContext(ctx) {
		if c.staff[r] {
			return true
		}
	}
	return false
}

func (c *CommandControllerImpl) requireStaff(ctx context.Context) error {
	if !c.isStaff(ctx) {
		return ErrNotStaff
	}
	return nil
}

// serial runs fn on the command queue. Reads of shared records go through it too.
func (c *CommandControllerImpl) serial(ctx context.Context, fn func(ctx context.Context) error) error {
	return c.Queue.Do(ctx, fn)
}

func usage(text string) error {
	return &usageError{text: text}
}

type usageError struct{ text string }

func (e *usageError) Error() string { return "Usage: " + e.text }
func (e *usageError) Unwrap() error { return ErrUsage }

// ParseUser accepts a mention or a raw id.
func ParseUser(arg string) (string, bool) {
	if m := mentionPattern.FindStringSubmatch(arg); m != nil {
		return m[1], true
	}
	if arg == "" {
		return "", false
	}
	for _, r := range arg {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return arg, true
}

func mention(id string) string {
	return "<@" + id + ">"
}

var userErrors = []error{
	ErrUsage, ErrNotStaff,
	commission.ErrInvalidAmount, commission.ErrLevelTooLow, commission.ErrBelowMinimum,
	commission.ErrInsufficientCredit, commission.ErrAlreadyResolved, commission.ErrSelfReferral,
	commission.ErrReferrerAlreadySet, commission.ErrUnknownReferrer,
	guilds.ErrDisabled, guilds.ErrInvalidName, guilds.ErrInvalidColor, guilds.ErrLevelTooLow,
	guilds.ErrInsufficientCredit, guilds.ErrNameTaken, guilds.ErrAlreadyInGuild, guilds.ErrNotInGuild,
	guilds.ErrNotOwner, guilds.ErrGuildFull, guilds.ErrGuildNotFound, guilds.ErrAlreadyOfficial,
	guilds.ErrNoInvite, guilds.ErrInviteUndelivered,
	progression.ErrNotGated, progression.ErrInvalidAmount,
	subscription.ErrInvalidBooster,
	giveaways.ErrInvalidGiveaway, giveaways.ErrNoChannel, giveaways.ErrUnknownGiveaway,
	giveaways.ErrStillRunning, giveaways.ErrNoEntrants,
}

func isUserError(err error) bool {
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
