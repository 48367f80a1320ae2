package guilds

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/MyelinBots/resellboost-go/config"
	"github.com/MyelinBots/resellboost-go/internal/models"
	"github.com/MyelinBots/resellboost-go/internal/services/achievements"
	"github.com/MyelinBots/resellboost-go/internal/services/leaderboard"
	"github.com/MyelinBots/resellboost-go/internal/services/ledger"
	"github.com/MyelinBots/resellboost-go/internal/services/platform"
	"github.com/MyelinBots/resellboost-go/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxNameLength = 32
	inviteTTL     = 24 * time.Hour
)

var (
	ErrDisabled           = errors.New("guilds are disabled")
	ErrInvalidName        = errors.New("invalid guild name")
	ErrInvalidColor       = errors.New("invalid colour, use a hex code such as #FF5733")
	ErrLevelTooLow        = errors.New("level too low to found a guild")
	ErrInsufficientCredit = errors.New("insufficient store credit")
	ErrNameTaken          = errors.New("a guild with this name already exists")
	ErrAlreadyInGuild     = errors.New("already in a guild")
	ErrNotInGuild         = errors.New("not in a guild")
	ErrNotOwner           = errors.New("only the guild owner can do this")
	ErrGuildFull          = errors.New("guild is full")
	ErrGuildNotFound      = errors.New("guild no longer exists")
	ErrAlreadyOfficial    = errors.New("guild is already official")
	ErrNoInvite           = errors.New("no pending guild invite")
	ErrInviteUndelivered  = errors.New("invite could not be delivered")
)

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}){1,2}$`)

type invite struct {
	guildID   string
	inviterID string
	expiresAt time.Time
}

// Service runs the player guild lifecycle. It must only be called from the serialized
// command queue, which is what keeps capacity checks and joins consistent.
type Service struct {
	cfg          config.GuildConfig
	channels     config.ChannelsConfig
	roles        config.RolesConfig
	repo         store.Repository
	ledger       *ledger.Ledger
	notify       *platform.Notifier
	achievements *achievements.Tracker
	log          *zap.Logger
	now          func() time.Time

	invites map[string]invite
}

func New(
	cfg config.GuildConfig,
	channels config.ChannelsConfig,
	roles config.RolesConfig,
	repo store.Repository,
	l *ledger.Ledger,
	n *platform.Notifier,
	a *achievements.Tracker,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		cfg:          cfg,
		channels:     channels,
		roles:        roles,
		repo:         repo,
		ledger:       l,
		notify:       n,
		achievements: a,
		log:          log,
		now:          time.Now,
		invites:      map[string]invite{},
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func ParseColor(hex string) (int, error) {
	if !colorPattern.MatchString(hex) {
		return 0, ErrInvalidColor
	}
	h := strings.TrimPrefix(hex, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	v, err := strconv.ParseInt(h, 16, 32)
	if err != nil {
		return 0, ErrInvalidColor
	}
	return int(v), nil
}

func channelName(name string) string {
	return "🛡️-" + strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > maxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

// guildOf returns the guild userID belongs to, treating a dangling id as no guild.
func (s *Service) guildOf(u *models.UserRecord) (*models.GuildRecord, bool) {
	g, ok := s.repo.Guild(u.GuildID)
	if !ok {
		return nil, false
	}
	return g, true
}

func (s *Service) ownedGuild(userID string) (*models.GuildRecord, *models.UserRecord, error) {
	u := s.repo.GetOrCreateUser(userID)
	g, ok := s.guildOf(u)
	if !ok {
		return nil, u, ErrNotInGuild
	}
	if g.OwnerID != userID {
		return nil, u, ErrNotOwner
	}
	return g, u, nil
}

func (s *Service) charge(u *models.UserRecord, cost float64, desc string) error {
	if cost <= 0 {
		return nil
	}
	return s.ledger.ApplyTo(u, models.KindStoreCredit, -cost, desc)
}

func (s *Service) refund(u *models.UserRecord, cost float64, desc string) {
	if cost <= 0 {
		return
	}
	if err := s.ledger.ApplyTo(u, models.KindStoreCredit, cost, desc); err != nil {
		s.log.Error("guild refund failed", zap.String("user_id", u.ID), zap.Error(err))
	}
}

// Found creates a pending guild owned by ownerID with its own role and private channel.
// Credits are refunded if the platform side cannot be set up.
func (s *Service) Found(ctx context.Context, ownerID, name, colorHex string) (*models.GuildRecord, error) {
	if !s.cfg.Enabled {
		return nil, ErrDisabled
	}
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	color, err := ParseColor(colorHex)
	if err != nil {
		return nil, err
	}
	u := s.repo.GetOrCreateUser(ownerID)
	if _, ok := s.guildOf(u); ok {
		return nil, ErrAlreadyInGuild
	}
	if u.Level < s.cfg.MinLevelToCreate {
		return nil, fmt.Errorf("%w: level %d required", ErrLevelTooLow, s.cfg.MinLevelToCreate)
	}
	if u.StoreCredit < s.cfg.CreationCost {
		return nil, fmt.Errorf("%w: %.0f credits required", ErrInsufficientCredit, s.cfg.CreationCost)
	}
	if _, taken := s.repo.GuildByName(name); taken {
		return nil, ErrNameTaken
	}

	if err := s.charge(u, s.cfg.CreationCost, fmt.Sprintf("founded guild %s", name)); err != nil {
		return nil, err
	}
	p := s.notify.Platform()
	roleID, err := p.CreateRole(ctx, name, color)
	if err != nil {
		s.refund(u, s.cfg.CreationCost, fmt.Sprintf("guild %s creation failed", name))
		_ = s.persist(ctx)
		return nil, fmt.Errorf("create guild role: %w", err)
	}
	s.notify.AddRole(ctx, u.ID, roleID)

	channelID, err := p.CreatePrivateChannel(ctx, s.channels.GuildCategory, channelName(name), platform.Access{RoleID: roleID})
	if err != nil {
		if derr := p.DeleteRole(ctx, roleID); derr != nil {
			s.log.Warn("orphan guild role", zap.String("role_id", roleID), zap.Error(derr))
		}
		s.refund(u, s.cfg.CreationCost, fmt.Sprintf("guild %s creation failed", name))
		_ = s.persist(ctx)
		return nil, fmt.Errorf("create guild channel: %w", err)
	}

	g := &models.GuildRecord{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   u.ID,
		Members:   []string{u.ID},
		Status:    models.GuildPending,
		CreatedAt: s.now().Unix(),
		TotalXP:   u.XP,
		WeeklyXP:  u.WeeklyXP,
		RoleID:    roleID,
		ChannelID: channelID,
	}
	s.repo.PutGuild(g)
	u.GuildID = g.ID
	if s.achievements != nil {
		s.achievements.Check(ctx, u)
	}
	s.log.Info("guild founded", zap.String("guild_id", g.ID), zap.String("name", name), zap.String("owner_id", u.ID))
	return g, s.persist(ctx)
}

// ForceOfficial lets the owner pay to skip the member threshold.
func (s *Service) ForceOfficial(ctx context.Context, ownerID string) (*models.GuildRecord, error) {
	g, u, err := s.ownedGuild(ownerID)
	if err != nil {
		return nil, err
	}
	if g.Status == models.GuildOfficial {
		return nil, ErrAlreadyOfficial
	}
	if u.StoreCredit < s.cfg.ForceOfficialCost {
		return nil, fmt.Errorf("%w: %.0f credits required", ErrInsufficientCredit, s.cfg.ForceOfficialCost)
	}
	if err := s.charge(u, s.cfg.ForceOfficialCost, fmt.Sprintf("guild %s made official", g.Name)); err != nil {
		return nil, err
	}
	s.makeOfficial(ctx, g)
	return g, s.persist(ctx)
}

// makeOfficial is one way: official guilds never go back to pending.
func (s *Service) makeOfficial(ctx context.Context, g *models.GuildRecord) {
	if g.Status == models.GuildOfficial {
		return
	}
	g.Status = models.GuildOfficial
	s.notify.AddRole(ctx, g.OwnerID, s.roles.GuildMaster)
	s.notify.Announce(ctx, s.channels.GuildAnnouncements,
		fmt.Sprintf("🛡️ **%s**, founded by <@%s>, is now an official guild! Give them a warm welcome!", g.Name, g.OwnerID))
	s.log.Info("guild official", zap.String("guild_id", g.ID), zap.String("name", g.Name))
}

// Invite offers targetID a seat in the owner's guild. The offer lives for a day.
func (s *Service) Invite(ctx context.Context, ownerID, targetID string) error {
	g, _, err := s.ownedGuild(ownerID)
	if err != nil {
		return err
	}
	target := s.repo.GetOrCreateUser(targetID)
	if _, ok := s.guildOf(target); ok {
		return ErrAlreadyInGuild
	}
	if len(g.Members) >= s.cfg.MaxMembers {
		return ErrGuildFull
	}

	msg := fmt.Sprintf("🛡️ <@%s> invited you to join the guild **%s**. Reply `!guild accept` or `!guild decline`.", ownerID, g.Name)
	if err := s.notify.Platform().SendDirectMessage(ctx, targetID, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrInviteUndelivered, err)
	}
	s.invites[targetID] = invite{guildID: g.ID, inviterID: ownerID, expiresAt: s.now().Add(inviteTTL)}
	return nil
}

func (s *Service) pendingInvite(userID string) (invite, bool) {
	inv, ok := s.invites[userID]
	if !ok {
		return invite{}, false
	}
	if !s.now().Before(inv.expiresAt) {
		delete(s.invites, userID)
		return invite{}, false
	}
	return inv, true
}

// Accept joins the invited guild. Every check is repeated here because the guild may have
// changed since the invite was sent; a rejected accept changes nothing.
func (s *Service) Accept(ctx context.Context, userID string) (*models.GuildRecord, error) {
	inv, ok := s.pendingInvite(userID)
	if !ok {
		return nil, ErrNoInvite
	}
	u := s.repo.GetOrCreateUser(userID)
	if _, ok := s.guildOf(u); ok {
		return nil, ErrAlreadyInGuild
	}
	g, ok := s.repo.Guild(inv.guildID)
	if !ok {
		delete(s.invites, userID)
		return nil, ErrGuildNotFound
	}
	if len(g.Members) >= s.cfg.MaxMembers {
		return nil, ErrGuildFull
	}

	delete(s.invites, userID)
	g.Members = append(g.Members, u.ID)
	u.GuildID = g.ID
	s.notify.AddRole(ctx, u.ID, g.RoleID)
	if g.Status == models.GuildPending && len(g.Members) >= s.cfg.MinMembersForOfficial {
		s.makeOfficial(ctx, g)
	}
	if s.achievements != nil {
		s.achievements.Check(ctx, u)
	}
	s.log.Info("guild joined", zap.String("guild_id", g.ID), zap.String("user_id", u.ID), zap.Int("members", len(g.Members)))
	return g, s.persist(ctx)
}

func (s *Service) Decline(ctx context.Context, userID string) error {
	if _, ok := s.pendingInvite(userID); !ok {
		return ErrNoInvite
	}
	delete(s.invites, userID)
	return nil
}

// Leave removes userID from their guild. When the owner leaves the guild is dissolved:
// its role and channel are deleted and every member is released.
func (s *Service) Leave(ctx context.Context, userID string) (dissolved bool, err error) {
	u := s.repo.GetOrCreateUser(userID)
	g, ok := s.guildOf(u)
	if !ok {
		return false, ErrNotInGuild
	}
	s.notify.RemoveRole(ctx, u.ID, g.RoleID)
	s.notify.RemoveRole(ctx, u.ID, s.roles.GuildMaster)

	if g.OwnerID != u.ID {
		g.RemoveMember(u.ID)
		u.GuildID = ""
		s.log.Info("guild left", zap.String("guild_id", g.ID), zap.String("user_id", u.ID))
		return false, s.persist(ctx)
	}

	s.notify.Announce(ctx, s.channels.GuildAnnouncements,
		fmt.Sprintf("⚔️ The guild **%s** was dissolved because its leader <@%s> left.", g.Name, u.ID))
	p := s.notify.Platform()
	if err := p.DeleteRole(ctx, g.RoleID); err != nil {
		s.log.Warn("guild role not deleted", zap.String("guild_id", g.ID), zap.Error(err))
	}
	if err := p.DeleteChannel(ctx, g.ChannelID); err != nil {
		s.log.Warn("guild channel not deleted", zap.String("guild_id", g.ID), zap.Error(err))
	}
	for _, id := range g.Members {
		if m, ok := s.repo.User(id); ok && m.GuildID == g.ID {
			m.GuildID = ""
		}
	}
	for target, inv := range s.invites {
		if inv.guildID == g.ID {
			delete(s.invites, target)
		}
	}
	s.repo.DeleteGuild(g.ID)
	s.log.Info("guild dissolved", zap.String("guild_id", g.ID), zap.String("name", g.Name), zap.Int("members", len(g.Members)))
	return true, s.persist(ctx)
}

// Rename charges the owner and renames the guild with its role and channel.
func (s *Service) Rename(ctx context.Context, ownerID, newName string) (*models.GuildRecord, error) {
	g, u, err := s.ownedGuild(ownerID)
	if err != nil {
		return nil, err
	}
	newName, err = cleanName(newName)
	if err != nil {
		return nil, err
	}
	if u.StoreCredit < s.cfg.NameChangeCost {
		return nil, fmt.Errorf("%w: %.0f credits required", ErrInsufficientCredit, s.cfg.NameChangeCost)
	}
	if other, taken := s.repo.GuildByName(newName); taken && other.ID != g.ID {
		return nil, ErrNameTaken
	}
	if err := s.charge(u, s.cfg.NameChangeCost, fmt.Sprintf("renamed guild %s", g.Name)); err != nil {
		return nil, err
	}

	old := g.Name
	g.Name = newName
	p := s.notify.Platform()
	if err := p.EditRoleName(ctx, g.RoleID, newName); err != nil {
		s.log.Warn("guild role not renamed", zap.String("guild_id", g.ID), zap.Error(err))
	}
	if err := p.EditChannelName(ctx, g.ChannelID, channelName(newName)); err != nil {
		s.log.Warn("guild channel not renamed", zap.String("guild_id", g.ID), zap.Error(err))
	}
	s.log.Info("guild renamed", zap.String("guild_id", g.ID), zap.String("from", old), zap.String("to", newName))
	return g, s.persist(ctx)
}

// Leaderboard lists official guilds by total XP.
func (s *Service) Leaderboard(n int) []*models.GuildRecord {
	return leaderboard.TopGuilds(s.repo.Guilds(), n)
}

func (s *Service) persist(ctx context.Context) error {
	return errors.Join(s.repo.SaveUsers(ctx), s.repo.SaveGuilds(ctx))
}
