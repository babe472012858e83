package config

import (
	"sort"

	"github.com/muselang/progression-api/internal/domain"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"      validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database"    validate:"required"`
	Auth        AuthConfig        `mapstructure:"auth"        validate:"required"`
	Progression ProgressionConfig `mapstructure:"progression" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// ProgressionConfig is the versioned progression catalog: the CEFR level
// threshold scale, the daily challenge templates, and ledger tuning.
// Deployments may revise it without a rebuild.
type ProgressionConfig struct {
	Levels              []LevelThresholdConfig     `mapstructure:"levels"                validate:"required,min=2,dive"`
	Challenges          []domain.ChallengeTemplate `mapstructure:"challenges"            validate:"required,min=1,dive"`
	DailyBonusXP        int                        `mapstructure:"daily_bonus_xp"        validate:"required,gt=0"`
	DedupeRetentionDays int                        `mapstructure:"dedupe_retention_days" validate:"required,gt=0"`
}

// LevelThresholdConfig pairs a CEFR level with its minimum total XP.
type LevelThresholdConfig struct {
	Level string `mapstructure:"level"  validate:"required,oneof=A1 A2 B1 B2 C1 C2"`
	MinXP int    `mapstructure:"min_xp" validate:"gte=0"`
}

// Catalog builds the domain catalog the engine evaluates against.
// Thresholds are sorted ascending by XP regardless of config order.
func (c *ProgressionConfig) Catalog() *domain.Catalog {
	levels := make([]domain.LevelThreshold, len(c.Levels))
	for i, l := range c.Levels {
		levels[i] = domain.LevelThreshold{Level: domain.Level(l.Level), MinXP: l.MinXP}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].MinXP < levels[j].MinXP })

	challenges := make([]domain.ChallengeTemplate, len(c.Challenges))
	copy(challenges, c.Challenges)

	return &domain.Catalog{
		Levels:       levels,
		Challenges:   challenges,
		DailyBonusXP: c.DailyBonusXP,
	}
}
