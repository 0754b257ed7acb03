package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.WorkerCount < 1 {
		t.Errorf("default worker count: %d", cfg.WorkerCount)
	}
	if cfg.DockerBinary == "" {
		t.Error("docker binary default missing")
	}
	if cfg.OutputLimitBytes <= 0 {
		t.Error("output limit default missing")
	}
	if cfg.MaxTimeout < cfg.MinTimeout {
		t.Errorf("timeout bounds inverted: [%s, %s]", cfg.MinTimeout, cfg.MaxTimeout)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("MAX_WORKERS", "9")
	t.Setenv("POLL_INTERVAL", "1s")
	t.Setenv("API_PORT", "9999")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.WorkerCount != 9 {
		t.Errorf("MAX_WORKERS not applied: %d", cfg.WorkerCount)
	}
	if cfg.PollInterval != time.Second {
		t.Errorf("POLL_INTERVAL not applied: %s", cfg.PollInterval)
	}
	if cfg.Addr() != "0.0.0.0:9999" {
		t.Errorf("addr: %s", cfg.Addr())
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("MAX_WORKERS", "0")
	if _, err := Load(); err == nil {
		t.Error("MAX_WORKERS=0 must be rejected")
	}
}
