package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jinzhu/configor"
)

const DefaultPath = "config/config.dev.json"

type Config struct {
	AppConfig          AppConfig          `env:"APPCONFIG"`
	DiscordConfig      DiscordConfig      `env:"DISCORDCONFIG"`
	StoreConfig        StoreConfig        `env:"STORECONFIG"`
	DBConfig           DBConfig           `env:"DBCONFIG"`
	LogConfig          LogConfig          `env:"LOGCONFIG"`
	AIConfig           AIConfig           `env:"AICONFIG"`
	AssistantConfig    AssistantConfig    `env:"ASSISTANTCONFIG"`
	ModerationConfig   ModerationConfig   `env:"MODERATIONCONFIG"`
	GamificationConfig GamificationConfig `env:"GAMIFICATIONCONFIG"`
}

type AppConfig struct {
	APPName string `default:"resellboost"`
	Version string `default:"x.x.x" env:"VERSION"`
	Port    int    `default:"8080" env:"PORT"`
}

type DiscordConfig struct {
	Token    string `env:"DISCORD_TOKEN"`
	GuildID  string `env:"DISCORD_GUILD_ID"`
	Prefix   string `default:"!"`
	Channels ChannelsConfig
	Roles    RolesConfig
}

type ChannelsConfig struct {
	LevelUp            string
	CashoutApproval    string
	ModAlerts          string
	GuildAnnouncements string
	GuildCategory      string
	SupportTickets     string
	Giveaways          string
	Promo              []string
	AssistantMonitored []string
}

type RolesConfig struct {
	Premium      string
	Loyalty      string
	AffiliatePro string
	GuildMaster  string
	Staff        []string
}

type StoreConfig struct {
	Backend string `default:"file" env:"STORE_BACKEND"`
	DataDir string `default:"data" env:"DATA_DIR"`
}

type DBConfig struct {
	Host     string `default:"localhost" env:"DBHOST"`
	DataBase string `default:"resellboost" env:"DBNAME"`
	User     string `default:"postgres" env:"DBUSERNAME"`
	Password string `env:"DBPASSWORD" default:"mysecretpassword"`
	Port     uint   `default:"5432" env:"DBPORT"`
	SSLMode  string `default:"disable" env:"DBSSL"`
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.Host, c.User, c.Password, c.DataBase, c.Port, c.SSLMode)
}

func (c DBConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DataBase, c.SSLMode)
}

type LogConfig struct {
	Level       string `default:"info" env:"LOG_LEVEL"`
	Format      string `default:"console" env:"LOG_FORMAT"`
	Output      string `default:"stdout"`
	FilePath    string
	Development bool
}

type AIConfig struct {
	APIKey string `env:"GEMINI_API_KEY"`
	Model  string `default:"gemini-1.5-flash"`
}

type FAQ struct {
	Question string
	Answer   string
}

type AssistantConfig struct {
	Enabled         bool
	PassiveKeywords []string
	FAQs            []FAQ
}

type ModerationConfig struct {
	Enabled          bool
	WarningThreshold int    `default:"3"`
	Prompt           string `default:"Analyse this Discord message posted in #{{channel}} and answer with JSON {\"action\": \"PASS|WARN|DELETE_AND_WARN|DELETE_AND_TIMEOUT|WARN_PERSONAL_INFO_SHARING|LOG_MINOR_TOXICITY|NOTIFY_STAFF|CREATE_SUPPORT_TICKET\", \"reason\": \"...\"}. Message: {{message}}"`
}

type GamificationConfig struct {
	XP                XPConfig
	AntiFarm          AntiFarmConfig
	PrestigeGates     []PrestigeGate
	PrestigeBonuses   []LevelBonus
	RoleRewards       []RoleReward
	Affiliate         AffiliateConfig
	VIP               VIPConfig
	AffiliatePro      AffiliateProConfig
	Cashout           CashoutConfig
	ReferralMilestone ReferralMilestoneConfig
	Guild             GuildConfig
	Missions          []MissionTemplate
	TransactionLogMax int `default:"50"`
}

type XPConfig struct {
	BaseXP            float64 `default:"100"`
	Multiplier        float64 `default:"1.5"`
	MessageMin        int     `default:"15"`
	MessageMax        int     `default:"25"`
	PurchaseXPPerUnit float64 `default:"10"`
}

type AntiFarmConfig struct {
	CooldownSeconds int `default:"60"`
	MinWords        int `default:"3"`
}

// PrestigeGate freezes automatic leveling at Level until ChallengeID is cleared.
type PrestigeGate struct {
	Level       int
	ChallengeID string
	Title       string
	Description string
}

type LevelBonus struct {
	Level int
	Bonus float64
}

type RoleReward struct {
	Level  int
	RoleID string
	Reward string
}

type CommissionTier struct {
	Level int
	Rate  float64
}

type LeaderboardBooster struct {
	Rank int
	Rate float64
}

type AffiliateConfig struct {
	CommissionByLevel      []CommissionTier
	MarginPolicy           string `default:"gross"`
	LeaderboardBoosters    []LeaderboardBooster
	LeaderboardBoosterDays int `default:"7"`
}

// VIPTier applies once a subscription has been renewed Periods times in a row.
type VIPTier struct {
	Periods         int
	CommissionBonus float64
	XPBoost         float64
}

type VIPConfig struct {
	Tiers      []VIPTier
	PeriodDays int `default:"30"`
}

type AffiliateProConfig struct {
	Rate       float64 `default:"0.05"`
	PeriodDays int     `default:"30"`
}

type CashoutTier struct {
	Level      int
	MinCredits float64
}

type CashoutConfig struct {
	EuroPerCredit float64 `default:"1"`
	MinLevel      int     `default:"1"`
	Tiers         []CashoutTier
}

type ReferralMilestoneConfig struct {
	Level      int `default:"5"`
	WithinDays int `default:"30"`
	BonusXP    int `default:"500"`
}

type GuildConfig struct {
	Enabled               bool    `default:"true"`
	MinLevelToCreate      int     `default:"10"`
	CreationCost          float64 `default:"5"`
	ForceOfficialCost     float64 `default:"3"`
	NameChangeCost        float64 `default:"4"`
	MaxMembers            int     `default:"10"`
	MinMembersForOfficial int     `default:"7"`
}

type MissionTemplate struct {
	ID          string
	Metric      string
	Target      int
	RewardXP    int
	Description string
}

const (
	MarginGross = "gross"
	MarginNet   = "net"
)

func LoadConfigOrPanic() Config {
	path := DefaultPath
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		path = p
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func LoadConfig(path string) (Config, error) {
	var cfg = Config{}
	if err := configor.Load(&cfg, path); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg.DiscordConfig.Channels.Promo = splitList(cfg.DiscordConfig.Channels.Promo)
	cfg.DiscordConfig.Roles.Staff = splitList(cfg.DiscordConfig.Roles.Staff)

	cfg.GamificationConfig.applyDefaults()
	if err := cfg.GamificationConfig.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// splitList accepts either a JSON list or a single comma separated env value.
func splitList(in []string) []string {
	var out []string
	for _, v := range in {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (g *GamificationConfig) applyDefaults() {
	if len(g.Affiliate.CommissionByLevel) == 0 {
		g.Affiliate.CommissionByLevel = []CommissionTier{{Level: 1, Rate: 0.05}, {Level: 5, Rate: 0.10}, {Level: 10, Rate: 0.12}, {Level: 20, Rate: 0.15}}
	}
	if len(g.VIP.Tiers) == 0 {
		g.VIP.Tiers = []VIPTier{{Periods: 1, CommissionBonus: 0.02, XPBoost: 0.10}, {Periods: 3, CommissionBonus: 0.04, XPBoost: 0.20}, {Periods: 6, CommissionBonus: 0.06, XPBoost: 0.30}}
	}
	if len(g.Cashout.Tiers) == 0 {
		g.Cashout.Tiers = []CashoutTier{{Level: 1, MinCredits: 20}}
	}
}

var ErrInvalidConfig = errors.New("invalid gamification config")

// Validate sorts every tier table ascending and rejects values the engine cannot work with.
func (g *GamificationConfig) Validate() error {
	if g.XP.BaseXP <= 0 || g.XP.Multiplier <= 1 {
		return fmt.Errorf("%w: xp base must be > 0 and multiplier > 1", ErrInvalidConfig)
	}
	if g.XP.MessageMin < 0 || g.XP.MessageMax < g.XP.MessageMin {
		return fmt.Errorf("%w: message xp range [%d,%d]", ErrInvalidConfig, g.XP.MessageMin, g.XP.MessageMax)
	}
	if g.TransactionLogMax <= 0 {
		return fmt.Errorf("%w: transaction log max must be positive", ErrInvalidConfig)
	}
	switch g.Affiliate.MarginPolicy {
	case MarginGross, MarginNet:
	default:
		return fmt.Errorf("%w: unknown margin policy %q", ErrInvalidConfig, g.Affiliate.MarginPolicy)
	}
	if g.Cashout.EuroPerCredit <= 0 {
		return fmt.Errorf("%w: euro per credit must be positive", ErrInvalidConfig)
	}
	for _, m := range g.Missions {
		if m.Target <= 0 {
			return fmt.Errorf("%w: mission %s has no target", ErrInvalidConfig, m.ID)
		}
	}

	sort.SliceStable(g.PrestigeGates, func(i, j int) bool { return g.PrestigeGates[i].Level < g.PrestigeGates[j].Level })
	sort.SliceStable(g.PrestigeBonuses, func(i, j int) bool { return g.PrestigeBonuses[i].Level < g.PrestigeBonuses[j].Level })
	sort.SliceStable(g.RoleRewards, func(i, j int) bool { return g.RoleRewards[i].Level < g.RoleRewards[j].Level })
	sort.SliceStable(g.Affiliate.CommissionByLevel, func(i, j int) bool {
		return g.Affiliate.CommissionByLevel[i].Level < g.Affiliate.CommissionByLevel[j].Level
	})
	sort.SliceStable(g.Affiliate.LeaderboardBoosters, func(i, j int) bool {
		return g.Affiliate.LeaderboardBoosters[i].Rank < g.Affiliate.LeaderboardBoosters[j].Rank
	})
	sort.SliceStable(g.VIP.Tiers, func(i, j int) bool { return g.VIP.Tiers[i].Periods < g.VIP.Tiers[j].Periods })
	sort.SliceStable(g.Cashout.Tiers, func(i, j int) bool { return g.Cashout.Tiers[i].Level < g.Cashout.Tiers[j].Level })
	return nil
}
