package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Tavily    TavilyConfig    `yaml:"tavily" mapstructure:"tavily"`
	Maps      MapsConfig      `yaml:"maps" mapstructure:"maps"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Research  ResearchConfig  `yaml:"research" mapstructure:"research"`
	Matching  MatchingConfig  `yaml:"matching" mapstructure:"matching"`
	Routing   RoutingConfig   `yaml:"routing" mapstructure:"routing"`
	Workflow  WorkflowConfig  `yaml:"workflow" mapstructure:"workflow"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the plan persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings for the LLM agents.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	Model       string `yaml:"model" mapstructure:"model"`
	MaxTokens   int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// TavilyConfig holds Tavily search API settings.
type TavilyConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	MaxResults  int     `yaml:"max_results" mapstructure:"max_results"`
	ExtractTop  int     `yaml:"extract_top" mapstructure:"extract_top"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	RateBurst   int     `yaml:"rate_burst" mapstructure:"rate_burst"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// MapsConfig holds route optimization provider settings.
type MapsConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// CacheConfig configures the research cache.
type CacheConfig struct {
	TTLMinutes  int `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
	MaxEntries  int `yaml:"max_entries" mapstructure:"max_entries"`
	HitCostSecs int `yaml:"hit_cost_secs" mapstructure:"hit_cost_secs"`
}

// TTL returns the configured entry time-to-live.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// HitCost returns the assumed time saved by one cache hit.
func (c CacheConfig) HitCost() time.Duration {
	return time.Duration(c.HitCostSecs) * time.Second
}

// ResearchConfig configures the concurrent research stage.
type ResearchConfig struct {
	MaxVenues        int `yaml:"max_venues" mapstructure:"max_venues"`
	PerVenueTimeoutS int `yaml:"per_venue_timeout_secs" mapstructure:"per_venue_timeout_secs"`
}

// PerVenueTimeout returns the timeout applied to each research task.
func (c ResearchConfig) PerVenueTimeout() time.Duration {
	return time.Duration(c.PerVenueTimeoutS) * time.Second
}

// MatchingConfig holds the venue-mention matching thresholds. The values are
// empirical and deliberately tunable.
type MatchingConfig struct {
	Floor          float64 `yaml:"floor" mapstructure:"floor"`
	SubstringScore float64 `yaml:"substring_score" mapstructure:"substring_score"`
	TypoThreshold  float64 `yaml:"typo_threshold" mapstructure:"typo_threshold"`
	TypoMaxLenDiff int     `yaml:"typo_max_len_diff" mapstructure:"typo_max_len_diff"`
	TokenThreshold float64 `yaml:"token_threshold" mapstructure:"token_threshold"`
}

// RoutingConfig holds provider waypoint limits and itinerary timing defaults.
// The waypoint ceilings are provider-specific and must stay configurable.
type RoutingConfig struct {
	WalkingMaxWaypoints int `yaml:"walking_max_waypoints" mapstructure:"walking_max_waypoints"`
	TransitMaxWaypoints int `yaml:"transit_max_waypoints" mapstructure:"transit_max_waypoints"`
	DrivingMaxWaypoints int `yaml:"driving_max_waypoints" mapstructure:"driving_max_waypoints"`
	BaseHour            int `yaml:"base_hour" mapstructure:"base_hour"`
	HoursPerStop        int `yaml:"hours_per_stop" mapstructure:"hours_per_stop"`
}

// WorkflowConfig configures engine-level behavior.
type WorkflowConfig struct {
	DefaultLocation  string `yaml:"default_location" mapstructure:"default_location"`
	StageTimeoutSecs int    `yaml:"stage_timeout_secs" mapstructure:"stage_timeout_secs"`
	ProgressBuffer   int    `yaml:"progress_buffer" mapstructure:"progress_buffer"`
	PersistResults   bool   `yaml:"persist_results" mapstructure:"persist_results"`
	MaxAdventures    int    `yaml:"max_adventures" mapstructure:"max_adventures"`
}

// StageTimeout returns the per-stage collaborator timeout.
func (c WorkflowConfig) StageTimeout() time.Duration {
	return time.Duration(c.StageTimeoutSecs) * time.Second
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MINIQUEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "miniquest.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 2000)
	v.SetDefault("anthropic.timeout_secs", 30)
	v.SetDefault("tavily.base_url", "https://api.tavily.com")
	v.SetDefault("tavily.max_results", 6)
	v.SetDefault("tavily.extract_top", 3)
	v.SetDefault("tavily.rate_per_sec", 5)
	v.SetDefault("tavily.rate_burst", 10)
	v.SetDefault("tavily.timeout_secs", 15)
	v.SetDefault("maps.base_url", "https://maps.googleapis.com/maps/api")
	v.SetDefault("maps.timeout_secs", 10)
	v.SetDefault("cache.ttl_minutes", 60)
	v.SetDefault("cache.max_entries", 200)
	v.SetDefault("cache.hit_cost_secs", 2)
	v.SetDefault("research.max_venues", 8)
	v.SetDefault("research.per_venue_timeout_secs", 15)
	v.SetDefault("matching.floor", 0.5)
	v.SetDefault("matching.substring_score", 0.9)
	v.SetDefault("matching.typo_threshold", 0.85)
	v.SetDefault("matching.typo_max_len_diff", 5)
	v.SetDefault("matching.token_threshold", 0.5)
	v.SetDefault("routing.walking_max_waypoints", 9)
	v.SetDefault("routing.transit_max_waypoints", 9)
	v.SetDefault("routing.driving_max_waypoints", 23)
	v.SetDefault("routing.base_hour", 9)
	v.SetDefault("routing.hours_per_stop", 2)
	v.SetDefault("workflow.default_location", "Boston, MA")
	v.SetDefault("workflow.stage_timeout_secs", 30)
	v.SetDefault("workflow.progress_buffer", 64)
	v.SetDefault("workflow.persist_results", true)
	v.SetDefault("workflow.max_adventures", 3)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
