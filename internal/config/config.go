// Package config loads the engine's tunable parameters the way
// 0xtitan6-polymarket-mm's internal/config loads its own: a YAML file
// read through viper, mapstructure tags, and env var overrides, with
// hard-coded defaults standing in for an absent file.
package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"fxmarket/internal/market"
)

// EngineConfig holds every parameter a MarketEngine needs that isn't
// derivable from the code itself.
type EngineConfig struct {
	Markup          float32 `mapstructure:"markup"`
	Discount        float32 `mapstructure:"discount"`
	MaxTicks        int64   `mapstructure:"max_ticks"`
	StartingCapital float32 `mapstructure:"starting_capital"`
	ImportTax       float32 `mapstructure:"import_tax"`
	TrackerDwellTicks int   `mapstructure:"tracker_dwell_ticks"`
	ShortageRollProbability float32 `mapstructure:"shortage_roll_probability"`
}

func defaults() EngineConfig {
	return EngineConfig{
		Markup:                  1,
		Discount:                1,
		MaxTicks:                10,
		StartingCapital:         100000,
		ImportTax:               0.25,
		TrackerDwellTicks:       100,
		ShortageRollProbability: 0.05,
	}
}

// ToMarketConfig projects the subset of EngineConfig that
// market.MarketEngine consumes directly. The rebalancer's constants
// (import tax, dwell, shortage roll) are compiled-in and are not wired
// through this path; they're exposed on EngineConfig only so operators
// can see and validate them alongside the rest.
func (c EngineConfig) ToMarketConfig() market.Config {
	return market.Config{
		Markup:          c.Markup,
		Discount:        c.Discount,
		MaxTicks:        c.MaxTicks,
		StartingCapital: c.StartingCapital,
	}
}

// Load reads path (a YAML file) if it exists, falling back to
// defaults(), applies MARKET_* environment overrides, and returns the
// resolved config plus the underlying viper instance so the caller can
// watch it for hot-reload.
func Load(path string) (EngineConfig, *viper.Viper, error) {
	v := viper.New()
	cfg := defaults()
	v.SetDefault("markup", cfg.Markup)
	v.SetDefault("discount", cfg.Discount)
	v.SetDefault("max_ticks", cfg.MaxTicks)
	v.SetDefault("starting_capital", cfg.StartingCapital)
	v.SetDefault("import_tax", cfg.ImportTax)
	v.SetDefault("tracker_dwell_ticks", cfg.TrackerDwellTicks)
	v.SetDefault("shortage_roll_probability", cfg.ShortageRollProbability)

	v.SetEnvPrefix("MARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return EngineConfig{}, nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var resolved EngineConfig
	if err := v.Unmarshal(&resolved); err != nil {
		return EngineConfig{}, nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return resolved, v, nil
}

// engineLock is the subset of synchronization an Engine wiring must
// provide around a *market.MarketEngine; Reloader takes it explicitly
// rather than assuming a global mutex, since the engine itself does
// not synchronize concurrent access.
type engineLock interface {
	Lock()
	Unlock()
}

// Reloader watches a viper instance for file changes and applies
// markup/discount updates to a running engine, under guard. It never
// touches max_ticks, starting_capital, or any rebalancer constant:
// those are structural to reservations and rebalancer state already in
// flight, so a live edit to them is ignored rather than partially
// applied.
type Reloader struct {
	mu     sync.Mutex
	logger market.Logger
}

// NewReloader wires v's file-change notifications to push markup and
// discount into engine, holding guard for the duration of the update
// so it never races a concurrent trader call.
func NewReloader(v *viper.Viper, engine *market.MarketEngine, guard engineLock, logger market.Logger) *Reloader {
	if logger == nil {
		logger = market.NopLogger{}
	}
	r := &Reloader{logger: logger}
	v.OnConfigChange(func(fsnotify.Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		guard.Lock()
		defer guard.Unlock()
		markup := float32(v.GetFloat64("markup"))
		discount := float32(v.GetFloat64("discount"))
		engine.SetMarkup(markup)
		engine.SetDiscount(discount)
		r.logger.Log(fmt.Sprintf("config-reload: markup=%v discount=%v", markup, discount))
	})
	v.WatchConfig()
	return r
}
