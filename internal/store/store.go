package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MyelinBots/resellboost-go/internal/models"
	"go.uber.org/zap"
)

const (
	DocUsers     = "user_data"
	DocGuilds    = "guild_data"
	DocPending   = "pending_actions"
	DocChallenge = "current_challenge"
	DocGiveaways = "giveaways"
)

// Documents lists every document the store manages.
var Documents = []string{DocUsers, DocGuilds, DocPending, DocChallenge, DocGiveaways}

// Repository is the entity access the engine depends on. Returned records are live:
// callers mutate them in place and then call the matching Save method.
type Repository interface {
	GetOrCreateUser(id string) *models.UserRecord
	User(id string) (*models.UserRecord, bool)
	Users() []*models.UserRecord

	Guild(id string) (*models.GuildRecord, bool)
	GuildByName(name string) (*models.GuildRecord, bool)
	Guilds() []*models.GuildRecord
	PutGuild(g *models.GuildRecord)
	DeleteGuild(id string)

	PendingCashout(messageID string) (*models.PendingCashout, bool)
	PutPendingCashout(p *models.PendingCashout)
	DeletePendingCashout(messageID string) bool

	CurrentChallenge() *models.CommunityChallenge
	SetCurrentChallenge(c *models.CommunityChallenge)

	Giveaway(id string) (*models.Giveaway, bool)
	Giveaways() []*models.Giveaway
	PutGiveaway(g *models.Giveaway)
	DeleteGiveaway(id string)

	SaveUsers(ctx context.Context) error
	SaveGuilds(ctx context.Context) error
	SavePending(ctx context.Context) error
	SaveChallenge(ctx context.Context) error
	SaveGiveaways(ctx context.Context) error
	SaveAll(ctx context.Context) error
}

// Store keeps every document in memory and flushes whole documents to a Backend.
type Store struct {
	backend Backend
	log     *zap.Logger
	now     func() time.Time

	mu        sync.RWMutex
	users     map[string]*models.UserRecord
	guilds    map[string]*models.GuildRecord
	pending   *models.PendingActions
	challenge *models.CommunityChallenge
	giveaways map[string]*models.Giveaway
}

func New(backend Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		backend:   backend,
		log:       log,
		now:       time.Now,
		users:     make(map[string]*models.UserRecord),
		guilds:    make(map[string]*models.GuildRecord),
		pending:   models.NewPendingActions(),
		giveaways: make(map[string]*models.Giveaway),
	}
}

// WithClock overrides the clock used to stamp newly created users.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Load reads every document. Missing documents are synthesized and written immediately;
// malformed ones are logged and replaced by their empty default. A backend read error
// fails the load and leaves the in-memory state untouched.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := loadDoc[map[string]*models.UserRecord](ctx, s, DocUsers, []byte("{}"))
	if err != nil {
		return err
	}
	if users == nil {
		users = make(map[string]*models.UserRecord)
	}
	for id, u := range users {
		if u == nil {
			delete(users, id)
			continue
		}
		u.ID = id
		normalizeUser(u)
	}

	guilds, err := loadDoc[map[string]*models.GuildRecord](ctx, s, DocGuilds, []byte("{}"))
	if err != nil {
		return err
	}
	if guilds == nil {
		guilds = make(map[string]*models.GuildRecord)
	}

	pending, err := loadDoc[*models.PendingActions](ctx, s, DocPending, []byte(`{"transactions": {}, "cashouts": {}}`))
	if err != nil {
		return err
	}
	if pending == nil {
		pending = models.NewPendingActions()
	}
	if pending.Cashouts == nil {
		pending.Cashouts = map[string]*models.PendingCashout{}
	}
	if pending.Transactions == nil {
		pending.Transactions = map[string]any{}
	}

	challenge, err := loadDoc[*models.CommunityChallenge](ctx, s, DocChallenge, []byte("null"))
	if err != nil {
		return err
	}

	giveaways, err := loadDoc[map[string]*models.Giveaway](ctx, s, DocGiveaways, []byte("{}"))
	if err != nil {
		return err
	}
	if giveaways == nil {
		giveaways = make(map[string]*models.Giveaway)
	}
	for id, g := range giveaways {
		if g == nil {
			delete(giveaways, id)
			continue
		}
		g.ID = id
	}

	s.users, s.guilds, s.pending, s.challenge, s.giveaways = users, guilds, pending, challenge, giveaways
	s.log.Info("store loaded",
		zap.Int("users", len(users)),
		zap.Int("guilds", len(guilds)),
		zap.Int("pending_cashouts", len(pending.Cashouts)),
		zap.Int("giveaways", len(giveaways)))
	return nil
}

// loadDoc decodes one document into a fresh value, so a document that fails halfway
// through never leaks partial entries into the result.
func loadDoc[T any](ctx context.Context, s *Store, name string, empty []byte) (T, error) {
	var out T
	data, found, err := s.backend.Load(ctx, name)
	if err != nil {
		return out, fmt.Errorf("read %s: %w", name, err)
	}
	if !found {
		s.log.Warn("document missing, creating default", zap.String("document", name))
		if err := s.backend.Save(ctx, name, empty); err != nil {
			s.log.Error("creating default document failed", zap.String("document", name), zap.Error(err))
		}
		data = empty
	}
	err = json.Unmarshal(data, &out)
	if err == nil {
		return out, nil
	}
	if found {
		s.log.Error("document malformed, using default", zap.String("document", name), zap.Error(err))
	}

	var def T
	if err := json.Unmarshal(empty, &def); err != nil {
		return def, fmt.Errorf("decode default %s: %w", name, err)
	}
	return def, nil
}

func normalizeUser(u *models.UserRecord) {
	if u.Level < 1 {
		u.Level = 1
	}
	if u.Achievements == nil {
		u.Achievements = []string{}
	}
	if u.ActiveBoosts == nil {
		u.ActiveBoosts = []models.Boost{}
	}
	if u.CompletedChallenges == nil {
		u.CompletedChallenges = []string{}
	}
	if u.TransactionLog == nil {
		u.TransactionLog = []models.Transaction{}
	}
}

func (s *Store) GetOrCreateUser(id string) *models.UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u
	}
	u := models.NewUserRecord(id, s.now().Unix())
	s.users[id] = u
	return u
}

func (s *Store) User(id string) (*models.UserRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

// Users returns every record ordered by id.
func (s *Store) Users() []*models.UserRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.UserRecord, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Guild(id string) (*models.GuildRecord, bool) {
	if id == "" {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.guilds[id]
	return g, ok
}

func (s *Store) GuildByName(name string) (*models.GuildRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name = strings.TrimSpace(name)
	for _, g := range s.guilds {
		if g.NameMatches(name) {
			return g, true
		}
	}
	return nil, false
}

func (s *Store) Guilds() []*models.GuildRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.GuildRecord, 0, len(s.guilds))
	for _, g := range s.guilds {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) PutGuild(g *models.GuildRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guilds[g.ID] = g
}

func (s *Store) DeleteGuild(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.guilds, id)
}

func (s *Store) PendingCashout(messageID string) (*models.PendingCashout, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pending.Cashouts[messageID]
	return p, ok
}

func (s *Store) PutPendingCashout(p *models.PendingCashout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.Cashouts[p.MessageID] = p
}

// DeletePendingCashout removes the request and reports whether it was still present.
func (s *Store) DeletePendingCashout(messageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending.Cashouts[messageID]; !ok {
		return false
	}
	delete(s.pending.Cashouts, messageID)
	return true
}

func (s *Store) CurrentChallenge() *models.CommunityChallenge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.challenge
}

func (s *Store) SetCurrentChallenge(c *models.CommunityChallenge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenge = c
}

func (s *Store) Giveaway(id string) (*models.Giveaway, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.giveaways[id]
	return g, ok
}

// Giveaways returns every giveaway ordered by end time.
func (s *Store) Giveaways() []*models.Giveaway {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Giveaway, 0, len(s.giveaways))
	for _, g := range s.giveaways {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EndsAt != out[j].EndsAt {
			return out[i].EndsAt < out[j].EndsAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) PutGiveaway(g *models.Giveaway) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.giveaways[g.ID] = g
}

func (s *Store) DeleteGiveaway(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.giveaways, id)
}

func (s *Store) SaveUsers(ctx context.Context) error {
	return s.save(ctx, DocUsers, func() any { return s.users })
}

func (s *Store) SaveGuilds(ctx context.Context) error {
	return s.save(ctx, DocGuilds, func() any { return s.guilds })
}

func (s *Store) SavePending(ctx context.Context) error {
	return s.save(ctx, DocPending, func() any { return s.pending })
}

func (s *Store) SaveChallenge(ctx context.Context) error {
	return s.save(ctx, DocChallenge, func() any { return s.challenge })
}

func (s *Store) SaveGiveaways(ctx context.Context) error {
	return s.save(ctx, DocGiveaways, func() any { return s.giveaways })
}

func (s *Store) SaveAll(ctx context.Context) error {
	return errors.Join(s.SaveUsers(ctx), s.SaveGuilds(ctx), s.SavePending(ctx), s.SaveChallenge(ctx), s.SaveGiveaways(ctx))
}

// save serializes the whole document. Failures are logged with detail and returned;
// the in-memory state is left as is.
func (s *Store) save(ctx context.Context, name string, doc func() any) error {
	s.mu.RLock()
	data, err := json.MarshalIndent(doc(), "", "    ")
	s.mu.RUnlock()
	if err != nil {
		s.log.Error("document encode failed", zap.String("document", name), zap.Error(err))
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := s.backend.Save(ctx, name, data); err != nil {
		s.log.Error("document save failed", zap.String("document", name), zap.Int("bytes", len(data)), zap.Error(err))
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}
