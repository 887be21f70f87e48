package infra

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nft_market/internal/domain"
	"nft_market/internal/engine"
	"nft_market/internal/market"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when MARKET_CONFIG is unset
	DefaultConfigPath = "configs/config.yaml"

	maxDivisibility = 18
)

// Config holds every setting of the market service.
// Values loaded by LoadConfig are then overridden from the environment.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Market struct {
		ListableResource     string                 `yaml:"listable_resource"`
		CurrencyResource     string                 `yaml:"currency_resource"`
		FeeAuthorityResource string                 `yaml:"fee_authority_resource"`
		FeeRate              decimal.Decimal        `yaml:"fee_rate"`
		CurrencyDivisibility *int32                 `yaml:"currency_divisibility"`
		Badge                domain.BadgeCollection `yaml:"badge"`
	} `yaml:"market"`

	Engine struct {
		InboxSize        int    `yaml:"inbox_size"`
		VerifyInvariants bool   `yaml:"verify_invariants"`
		DumpPath         string `yaml:"dump_path"`
	} `yaml:"engine"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Server struct {
		FeedAddr    string `yaml:"feed_addr"`
		MetricsAddr string `yaml:"metrics_addr"`
	} `yaml:"server"`

	Assets struct {
		IconDir  string `yaml:"icon_dir"`
		IconSize int    `yaml:"icon_size"`
	} `yaml:"assets"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// ConfigPath returns MARKET_CONFIG or DefaultConfigPath.
func ConfigPath() string {
	if p := os.Getenv("MARKET_CONFIG"); p != "" {
		return p
	}
	return DefaultConfigPath
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML, applies defaults and env overrides, then validates.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	// 환경 변수 오버라이드 지원
	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	// Absent means default; an explicit 0 is a whole-unit currency
	if cfg.Market.CurrencyDivisibility == nil {
		cfg.Market.CurrencyDivisibility = market.Divisibility(market.DefaultDivisibility)
	}
	if cfg.Engine.InboxSize == 0 {
		cfg.Engine.InboxSize = 1024
	}
	if cfg.Engine.DumpPath == "" {
		cfg.Engine.DumpPath = "panic_dump.json"
	}
	if cfg.Assets.IconDir == "" {
		cfg.Assets.IconDir = filepath.Join("assets", "icons")
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	m := c.Market
	if m.ListableResource == "" {
		return &domain.ConfigError{Field: "market.listable_resource", Err: errors.New("required")}
	}
	if m.CurrencyResource == "" {
		return &domain.ConfigError{Field: "market.currency_resource", Err: errors.New("required")}
	}
	if m.FeeAuthorityResource == "" {
		return &domain.ConfigError{Field: "market.fee_authority_resource", Err: errors.New("required")}
	}
	if m.ListableResource == m.CurrencyResource ||
		m.ListableResource == m.FeeAuthorityResource ||
		m.CurrencyResource == m.FeeAuthorityResource {
		return &domain.ConfigError{Field: "market", Err: errors.New("resources must be distinct")}
	}
	if m.FeeRate.IsNegative() || m.FeeRate.GreaterThan(decimal.NewFromInt(1)) {
		return &domain.ConfigError{Field: "market.fee_rate", Err: fmt.Errorf("%w: %s not in [0, 1]", domain.ErrInvalidFeeRate, m.FeeRate)}
	}
	if m.CurrencyDivisibility == nil {
		return &domain.ConfigError{Field: "market.currency_divisibility", Err: errors.New("required")}
	}
	if d := *m.CurrencyDivisibility; d < 0 || d > maxDivisibility {
		return &domain.ConfigError{Field: "market.currency_divisibility", Err: fmt.Errorf("%d not in [0, %d]", d, maxDivisibility)}
	}

	if c.Engine.InboxSize <= 0 {
		return &domain.ConfigError{Field: "engine.inbox_size", Err: errors.New("must be positive")}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &domain.ConfigError{Field: "logging.level", Err: fmt.Errorf("unknown level %q", c.Logging.Level)}
	}

	return nil
}

// MarketConfig converts the market section for market.Create.
func (c *Config) MarketConfig() market.Config {
	return market.Config{
		ListableResource:     c.Market.ListableResource,
		CurrencyResource:     c.Market.CurrencyResource,
		FeeAuthorityResource: c.Market.FeeAuthorityResource,
		FeeRate:              c.Market.FeeRate,
		CurrencyDivisibility: c.Market.CurrencyDivisibility,
		Collection:           c.Market.Badge,
	}
}

// EngineOptions converts the engine section; startSeq comes from the journal.
func (c *Config) EngineOptions(startSeq uint64) engine.Options {
	return engine.Options{
		InboxSize:        c.Engine.InboxSize,
		StartSeq:         startSeq,
		VerifyInvariants: c.Engine.VerifyInvariants,
		DumpPath:         c.Engine.DumpPath,
	}
}

// overrideWithEnv overwrites settings when the environment provides them.
func overrideWithEnv(cfg *Config) {
	if path := os.Getenv("MARKET_DB_PATH"); path != "" {
		cfg.Storage.Path = path
	}
	if level := os.Getenv("MARKET_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = strings.ToLower(level)
	}
	if addr := os.Getenv("MARKET_FEED_ADDR"); addr != "" {
		cfg.Server.FeedAddr = addr
	}
	if addr := os.Getenv("MARKET_METRICS_ADDR"); addr != "" {
		cfg.Server.MetricsAddr = addr
	}
}
