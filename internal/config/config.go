package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig is populated from defaults, an optional YAML file and
// environment variables (REDIS_URL, DATABASE_URL, ...), in rising priority.
type AppConfig struct {
	RedisURL    string `mapstructure:"redis_url"`
	DatabaseURL string `mapstructure:"database_url"`
	SQLitePath  string `mapstructure:"sqlite_path"`

	WalletURL   string `mapstructure:"wallet_url"`
	WalletToken string `mapstructure:"wallet_token"`

	EventsWSURL         string `mapstructure:"events_ws_url"`
	EventsToken         string `mapstructure:"events_token"`
	EventsChannelPrefix string `mapstructure:"events_channel_prefix"`

	HouseAccountID string `mapstructure:"house_account_id"`

	ChessDefaultDifficulty string `mapstructure:"chess_default_difficulty"`
	ChessPresetFile        string `mapstructure:"chess_preset_file"`
	SearchWorkers          int    `mapstructure:"search_workers"`

	WagerFeeBPS     int64  `mapstructure:"wager_fee_bps"`
	WagerFeeAccount string `mapstructure:"wager_fee_account"`

	MatchTTL    time.Duration `mapstructure:"match_ttl"`
	MessagesDir string        `mapstructure:"messages_dir"`
}

var defaults = map[string]any{
	"redis_url":                "",
	"database_url":             "",
	"sqlite_path":              "",
	"wallet_url":               "",
	"wallet_token":             "",
	"events_ws_url":            "",
	"events_token":             "",
	"events_channel_prefix":    "match:events:",
	"house_account_id":         "house",
	"chess_default_difficulty": "medium",
	"chess_preset_file":        "",
	"search_workers":           0,
	"wager_fee_bps":            0,
	"wager_fee_account":        "",
	"match_ttl":                "24h",
	"messages_dir":             "",
}

// Load reads configuration. configFile may be empty; a missing default
// file is not an error.
func Load(configFile string) (*AppConfig, error) {
	return LoadWith(viper.New(), configFile)
}

func LoadWith(v *viper.Viper, configFile string) (*AppConfig, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if strings.TrimSpace(configFile) != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("wagerchess")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	trim(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func trim(c *AppConfig) {
	for _, p := range []*string{
		&c.RedisURL, &c.DatabaseURL, &c.SQLitePath, &c.WalletURL, &c.WalletToken,
		&c.EventsWSURL, &c.EventsToken, &c.EventsChannelPrefix, &c.HouseAccountID,
		&c.ChessDefaultDifficulty, &c.ChessPresetFile, &c.WagerFeeAccount, &c.MessagesDir,
	} {
		*p = strings.TrimSpace(*p)
	}
}

func (c *AppConfig) Validate() error {
	if c.HouseAccountID == "" {
		return errors.New("HOUSE_ACCOUNT_ID must not be empty")
	}
	if c.SearchWorkers < 0 {
		return fmt.Errorf("SEARCH_WORKERS must be >= 0, got %d", c.SearchWorkers)
	}
	if c.WagerFeeBPS < 0 || c.WagerFeeBPS > 10_000 {
		return fmt.Errorf("WAGER_FEE_BPS must be within 0-10000, got %d", c.WagerFeeBPS)
	}
	if c.WagerFeeBPS > 0 && c.WagerFeeAccount == "" {
		return errors.New("WAGER_FEE_ACCOUNT is required when WAGER_FEE_BPS is set")
	}
	if c.MatchTTL <= 0 {
		return fmt.Errorf("MATCH_TTL must be positive, got %s", c.MatchTTL)
	}
	if c.DatabaseURL != "" && c.SQLitePath != "" {
		return errors.New("set only one of DATABASE_URL and SQLITE_PATH")
	}
	return nil
}
