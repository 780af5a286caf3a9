package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, _, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := defaults()
	if cfg != want {
		t.Fatalf("Load() without a file = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadAppliesYAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.yaml")
	if err := os.WriteFile(path, []byte("markup: 2.5\ndiscount: 0.5\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Markup != 2.5 || cfg.Discount != 0.5 {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.MaxTicks != defaults().MaxTicks {
		t.Fatalf("expected max_ticks to keep its default, got %v", cfg.MaxTicks)
	}
}

func TestLoadAppliesEnvOverride(t *testing.T) {
	t.Setenv("MARKET_MARKUP", "3")
	cfg, _, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Markup != 3 {
		t.Fatalf("expected env override to win, got markup=%v", cfg.Markup)
	}
}

func TestToMarketConfigProjectsEngineFields(t *testing.T) {
	cfg := defaults()
	mc := cfg.ToMarketConfig()
	if mc.Markup != cfg.Markup || mc.Discount != cfg.Discount ||
		mc.MaxTicks != cfg.MaxTicks || mc.StartingCapital != cfg.StartingCapital {
		t.Fatalf("ToMarketConfig() = %+v, want fields copied from %+v", mc, cfg)
	}
}
