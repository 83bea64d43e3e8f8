package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)
	SetDefaults()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := cfg.ResolveDomains(); len(got) != 1 || got[0] != "code" {
		t.Errorf("ResolveDomains = %v, want [code]", got)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %s, want info", cfg.Log.Level)
	}
	if cfg.ProjectPath != "" {
		t.Errorf("ProjectPath = %s, want empty", cfg.ProjectPath)
	}
}

func TestEnvOverride(t *testing.T) {
	resetViper(t)
	t.Setenv("STEPWISE_DATA_DIR", "/srv/stepwise")
	t.Setenv("STEPWISE_LOG_LEVEL", "debug")
	// Point the file lookup at an empty dir so a developer's real config
	// cannot leak into the test.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if err := Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DataDir != "/srv/stepwise" {
		t.Errorf("DataDir = %s, want /srv/stepwise", cfg.DataDir)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
	}
}

func TestDatabasePath(t *testing.T) {
	cfg := &Config{DataDir: "/var/lib/stepwise"}
	want := filepath.Join("/var/lib/stepwise", "state.db")
	if got := cfg.DatabasePath(); got != want {
		t.Errorf("DatabasePath = %s, want %s", got, want)
	}
}

func TestResolveDataDirHomeExpansion(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	cfg := &Config{DataDir: "~/stepwise-state"}
	want := filepath.Join("/home/tester", "stepwise-state")
	if got := cfg.ResolveDataDir(); got != want {
		t.Errorf("ResolveDataDir = %s, want %s", got, want)
	}
}

func TestResolveDataDirDefault(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	cfg := &Config{}
	want := filepath.Join("/home/tester", ".stepwise")
	if got := cfg.ResolveDataDir(); got != want {
		t.Errorf("ResolveDataDir = %s, want %s", got, want)
	}
}

func TestConfigDirXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	want := filepath.Join("/xdg", "stepwise")
	if got := ConfigDir(); got != want {
		t.Errorf("ConfigDir = %s, want %s", got, want)
	}
}
