package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"portfolioSim/internal/finance"
	"portfolioSim/internal/loader"
	"portfolioSim/internal/pipeline"

	"gopkg.in/yaml.v3"
)

var (
	ErrNoAssets           = errors.New("config: no assets configured")
	ErrMissingToken       = errors.New("config: missing TELEGRAM_BOT_TOKEN")
	ErrMissingWebhookURL  = errors.New("config: missing WEBHOOK_PUBLIC_URL")
	ErrInvalidSimulation  = errors.New("config: invalid simulation settings")
	ErrDuplicateAssetName = errors.New("config: duplicate asset name")
)

type Asset struct {
	Name  string  `yaml:"name"`
	File  string  `yaml:"file"`
	Carry float64 `yaml:"carry"` // Multiple of the risk-free rate added to each return
}

type RiskFree struct {
	File           string  `yaml:"file"`
	Column         string  `yaml:"column"`
	PeriodsPerYear float64 `yaml:"periods_per_year"` // 0 follows the simulation frequency
}

type Simulation struct {
	Trials        int     `yaml:"trials"`
	TopK          int     `yaml:"top_k"`
	Frequency     string  `yaml:"frequency"`
	TrainFraction float64 `yaml:"train_fraction"`
	Seed          uint64  `yaml:"seed"`
	Workers       int     `yaml:"workers"`
	MaxRedraws    int     `yaml:"max_redraws"`
	OOSScale      float64 `yaml:"oos_scale"`
}

type Config struct {
	TelegramToken    string `yaml:"telegram_token"`
	WebhookPublicURL string `yaml:"webhook_public_url"`
	OpenAIKey        string `yaml:"openai_api_key"`
	Port             string `yaml:"port"`
	DBPath           string `yaml:"db_path"`
	LogLevel         string `yaml:"log_level"`

	DataDir     string     `yaml:"data_dir"`
	PriceColumn string     `yaml:"price_column"`
	Assets      []Asset    `yaml:"assets"`
	RiskFree    *RiskFree  `yaml:"risk_free"`
	Simulation  Simulation `yaml:"simulation"`
}

// Default returns the four-series study: two futures and a trend strategy that earn the full
// risk-free rate on their cash, and a pair trade that is half futures.
func Default() *Config {
	p := pipeline.DefaultParams()
	return &Config{
		Port:        "9095",
		DBPath:      "/app/data/portopt.db",
		LogLevel:    "info",
		DataDir:     ".",
		PriceColumn: "close",
		Assets: []Asset{
			{Name: "ES", File: "CME_MINI_DL_ES1!, 1M.csv", Carry: 1},
			{Name: "ZN", File: "CBOT_DL_ZN1!, 1M.csv", Carry: 1},
			{Name: "TF", File: "Trend_Following.csv", Carry: 1},
			{Name: "PAIR", File: "TLT_ZB_Arbitrage.csv", Carry: 0.5},
		},
		RiskFree: &RiskFree{File: "3M_TBill.csv", Column: "yield"},
		Simulation: Simulation{
			Trials:        p.Trials,
			TopK:          p.TopK,
			Frequency:     string(p.Frequency),
			TrainFraction: p.TrainFraction,
			Seed:          p.Seed,
			MaxRedraws:    p.MaxRedraws,
			OOSScale:      p.OOSScale,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrides := []struct {
		key string
		dst *string
	}{
		{"TELEGRAM_BOT_TOKEN", &cfg.TelegramToken},
		{"WEBHOOK_PUBLIC_URL", &cfg.WebhookPublicURL},
		{"OPENAI_API_KEY", &cfg.OpenAIKey},
		{"PORT", &cfg.Port},
		{"DB_PATH", &cfg.DBPath},
		{"PORTOPT_DATA_DIR", &cfg.DataDir},
		{"LOG_LEVEL", &cfg.LogLevel},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.dst = v
		}
	}
}

// Validate checks the data sources and simulation settings
func (c *Config) Validate() error {
	if len(c.Assets) == 0 {
		return ErrNoAssets
	}
	seen := map[string]bool{}
	for _, a := range c.Assets {
		if seen[a.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateAssetName, a.Name)
		}
		seen[a.Name] = true
	}
	if _, err := c.Params(); err != nil {
		return err
	}
	return nil
}

// ValidateBot additionally requires the Telegram secrets
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.TelegramToken == "" {
		return ErrMissingToken
	}
	if c.WebhookPublicURL == "" {
		return ErrMissingWebhookURL
	}
	return nil
}

// Params converts the simulation section into run parameters
func (c *Config) Params() (pipeline.Params, error) {
	s := c.Simulation
	freq, err := finance.ParseFrequency(s.Frequency)
	if err != nil {
		return pipeline.Params{}, fmt.Errorf("%w: %w", ErrInvalidSimulation, err)
	}
	p := pipeline.Params{
		Trials:        s.Trials,
		TopK:          s.TopK,
		Frequency:     freq,
		TrainFraction: s.TrainFraction,
		Seed:          s.Seed,
		Workers:       s.Workers,
		MaxRedraws:    s.MaxRedraws,
		OOSScale:      s.OOSScale,
	}
	if p.Workers <= 0 {
		p.Workers = runtime.NumCPU()
	}
	if p.OOSScale == 0 {
		p.OOSScale = finance.OutOfSampleScale
	}
	if err := p.Validate(); err != nil {
		return pipeline.Params{}, fmt.Errorf("%w: %w", ErrInvalidSimulation, err)
	}
	return p, nil
}

// Sources resolves the data files against DataDir. The risk-free yields are converted with
// the configured periods per year, or with the frequency's own scale when unset.
func (c *Config) Sources(freq finance.Frequency) (loader.Sources, error) {
	src := loader.Sources{PriceColumn: c.PriceColumn}
	for _, a := range c.Assets {
		src.Assets = append(src.Assets, loader.AssetSource{Name: a.Name, Path: c.resolve(a.File), Carry: a.Carry})
	}
	if c.RiskFree != nil && c.RiskFree.File != "" {
		ppy := c.RiskFree.PeriodsPerYear
		if ppy == 0 {
			scale, err := freq.Scale()
			if err != nil {
				return loader.Sources{}, err
			}
			ppy = scale
		}
		column := c.RiskFree.Column
		if column == "" {
			column = "yield"
		}
		src.RiskFree = &loader.RiskFreeSource{Path: c.resolve(c.RiskFree.File), Column: column, PeriodsPerYear: ppy}
	}
	return src, nil
}

func (c *Config) resolve(file string) string {
	if filepath.IsAbs(file) || c.DataDir == "" {
		return file
	}
	return filepath.Join(c.DataDir, file)
}
