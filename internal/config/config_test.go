package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
	if Exists() {
		t.Error("Exists() = true before Save")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.General.DBPath = "/tmp/ledger.db"
	cfg.Appearance.Theme = "shuffle"
	cfg.Daemon.IntervalSec = 5
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("Exists() = false after Save")
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != cfg {
		t.Errorf("Load() = %+v, want %+v", got, cfg)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	writeFile(t, filepath.Join(dir, appName, "config.toml"), "[logging]\nlevel = \"debug\"\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Daemon.Addr != DefaultConfig().Daemon.Addr {
		t.Errorf("Daemon.Addr = %q, want default", cfg.Daemon.Addr)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	writeFile(t, filepath.Join(dir, appName, "config.toml"), "[general\n")

	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want parse error")
	}
}

func TestLoad_EnvFileFeedsOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(EnvDBPath, "")
	_ = os.Unsetenv(EnvDBPath)
	writeFile(t, filepath.Join(dir, appName, ".env"), EnvDBPath+"=/data/from-env.db\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := DBPath(cfg); got != "/data/from-env.db" {
		t.Errorf("DBPath() = %q, want /data/from-env.db", got)
	}
}

func TestDBPath_Precedence(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/xdg/data")
	cfg := DefaultConfig()

	t.Setenv(EnvDBPath, "")
	if got, want := DBPath(cfg), filepath.Join("/xdg/data", appName, "ledger.db"); got != want {
		t.Errorf("default DBPath() = %q, want %q", got, want)
	}

	cfg.General.DBPath = "/cfg/ledger.db"
	if got := DBPath(cfg); got != "/cfg/ledger.db" {
		t.Errorf("config DBPath() = %q", got)
	}

	t.Setenv(EnvDBPath, "/env/ledger.db")
	if got := DBPath(cfg); got != "/env/ledger.db" {
		t.Errorf("env DBPath() = %q", got)
	}
}

func TestLogLevel_EnvWins(t *testing.T) {
	cfg := DefaultConfig()
	t.Setenv(EnvLogLevel, "")
	if got := LogLevel(cfg); got != "info" {
		t.Errorf("LogLevel() = %q, want info", got)
	}
	t.Setenv(EnvLogLevel, "warn")
	if got := LogLevel(cfg); got != "warn" {
		t.Errorf("LogLevel() = %q, want warn", got)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}
