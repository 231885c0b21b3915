package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"etf-arb-go/market"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env     string        `yaml:"env"`
	Gateway GatewayConfig `yaml:"gateway"`
	Risk    RiskConfig    `yaml:"risk"`
	Quoter  QuoterConfig  `yaml:"quoter"`
	Hitter  HitterConfig  `yaml:"hitter"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type GatewayConfig struct {
	APIKey    string  `yaml:"apiKey"`
	BaseURL   string  `yaml:"baseURL"`
	TraderID  string  `yaml:"traderID"`
	RateLimit float64 `yaml:"rateLimit"` // requests per second, exchange caps at 100
	RateBurst int     `yaml:"rateBurst"`
	BookDepth int     `yaml:"bookDepth"` // levels requested per book poll
}

type RiskConfig struct {
	GrossCeiling   int            `yaml:"grossCeiling"`
	MaxOrderQty    int            `yaml:"maxOrderQty"`
	PositionLimits map[string]int `yaml:"positionLimits"`
}

type QuoterConfig struct {
	Commission  float64 `yaml:"commission"`  // per-share fee baked into synthetic quotes
	HedgeLegs   int     `yaml:"hedgeLegs"`   // legs charged when pricing a round trip
	MaxClipSize int     `yaml:"maxClipSize"` // per-quote size cap
	ImproveTick float64 `yaml:"improveTick"` // price improvement over the inside
}

type HitterConfig struct {
	BlockSize int `yaml:"blockSize"` // market order block, remainder is dropped
}

type LoggingConfig struct {
	Level      string   `yaml:"level"`
	Format     string   `yaml:"format"`
	Outputs    []string `yaml:"outputs"`
	OutputFile string   `yaml:"outputFile"`
	ErrorFile  string   `yaml:"errorFile"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides sensitive fields from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("RIT_API_KEY"); v != "" {
		cfg.Gateway.APIKey = v
	}
	if v := os.Getenv("RIT_BASE_URL"); v != "" {
		cfg.Gateway.BaseURL = v
	}
	return cfg, Validate(cfg)
}

// Validate ensures required fields are present.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if cfg.Gateway.APIKey == "" {
		return errors.New("gateway.apiKey is required (or RIT_API_KEY)")
	}
	if cfg.Gateway.BaseURL == "" {
		return errors.New("gateway.baseURL is required")
	}
	if cfg.Gateway.TraderID == "" {
		return errors.New("gateway.traderID is required")
	}
	if cfg.Gateway.RateLimit <= 0 || cfg.Gateway.RateLimit > 100 {
		return fmt.Errorf("gateway.rateLimit must be in (0,100], got %v", cfg.Gateway.RateLimit)
	}
	if cfg.Gateway.BookDepth <= 0 {
		return errors.New("gateway.bookDepth must be > 0")
	}
	if cfg.Risk.GrossCeiling <= 0 {
		return errors.New("risk.grossCeiling must be > 0")
	}
	if cfg.Risk.MaxOrderQty <= 0 {
		return errors.New("risk.maxOrderQty must be > 0")
	}
	for _, inst := range market.Instruments() {
		limit, ok := cfg.Risk.PositionLimits[string(inst)]
		if !ok {
			return fmt.Errorf("risk.positionLimits missing %s", inst)
		}
		if limit <= 0 {
			return fmt.Errorf("risk.positionLimits[%s] must be > 0", inst)
		}
	}
	if cfg.Quoter.Commission < 0 {
		return errors.New("quoter.commission must be >= 0")
	}
	if cfg.Quoter.HedgeLegs <= 0 {
		return errors.New("quoter.hedgeLegs must be > 0")
	}
	if cfg.Quoter.MaxClipSize <= 0 {
		return errors.New("quoter.maxClipSize must be > 0")
	}
	if cfg.Quoter.ImproveTick <= 0 {
		return errors.New("quoter.improveTick must be > 0")
	}
	if cfg.Hitter.BlockSize <= 0 {
		return errors.New("hitter.blockSize must be > 0")
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return errors.New("metrics.addr is required when metrics.enabled")
	}
	return nil
}
