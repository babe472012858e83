package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally config files.
// Environment variables (prefix PROGRESSION_, dots replaced by underscores,
// e.g. PROGRESSION_SERVER_PORT) take precedence over values from config
// files. Returns a populated Config struct or an error if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("PROGRESSION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults suffice.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks structural constraints plus the catalog invariants the tag
// validator cannot express: thresholds must start at zero and strictly ascend.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	levels := cfg.Progression.Catalog().Levels
	if levels[0].MinXP != 0 {
		return fmt.Errorf("invalid configuration: lowest level threshold must be 0, got %d", levels[0].MinXP)
	}
	for i := 1; i < len(levels); i++ {
		if levels[i].MinXP <= levels[i-1].MinXP {
			return fmt.Errorf("invalid configuration: level thresholds must strictly ascend (%s)", levels[i].Level)
		}
	}

	seen := make(map[string]bool, len(cfg.Progression.Challenges))
	for _, tpl := range cfg.Progression.Challenges {
		if seen[tpl.ID] {
			return fmt.Errorf("invalid configuration: duplicate challenge template %q", tpl.ID)
		}
		seen[tpl.ID] = true
	}

	return nil
}

// setDefaults installs the built-in catalog: the CEFR scale and the stock
// daily challenges. Deployments override these via config file or env.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	// Registered empty so AutomaticEnv can populate them during Unmarshal;
	// validation rejects the zero values if they are never set.
	v.SetDefault("database.url", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)

	v.SetDefault("progression.dedupe_retention_days", 30)
	v.SetDefault("progression.daily_bonus_xp", 50)

	v.SetDefault("progression.levels", []map[string]any{
		{"level": "A1", "min_xp": 0},
		{"level": "A2", "min_xp": 500},
		{"level": "B1", "min_xp": 1500},
		{"level": "B2", "min_xp": 3500},
		{"level": "C1", "min_xp": 7500},
		{"level": "C2", "min_xp": 15500},
	})

	v.SetDefault("progression.challenges", []map[string]any{
		{
			"id":        "daily_review",
			"kind":      "review",
			"title":     "Review 20 vocabulary items",
			"target":    20,
			"xp_reward": 20,
		},
		{
			"id":        "daily_lesson",
			"kind":      "lesson",
			"title":     "Complete 1 lesson",
			"target":    1,
			"xp_reward": 20,
		},
		{
			"id":        "daily_conversation",
			"kind":      "conversation",
			"title":     "Have 3 tutor conversations",
			"target":    3,
			"xp_reward": 30,
		},
		{
			"id":        "daily_pronunciation",
			"kind":      "pronunciation",
			"title":     "Finish 5 pronunciation drills",
			"target":    5,
			"xp_reward": 25,
		},
	})
}
