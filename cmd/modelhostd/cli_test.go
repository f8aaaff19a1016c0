package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveConfig_Layering(t *testing.T) {
	t.Setenv("MODELHOSTD_ADDR", ":7000")
	t.Setenv("MODELHOSTD_STORAGE", "")
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "host.yaml")
	if err := os.WriteFile(cfgPath, []byte("addr: \":7500\"\ndata_dir: /srv/host\nstatic_dirs: [/a, /b]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	root := buildRootCmd()
	if err := root.ParseFlags([]string{"--config", cfgPath, "--data-dir", "/override", "--offline"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err := resolveConfig(root)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Addr != ":7500" {
		t.Fatalf("file should override env default, got %q", cfg.Addr)
	}
	if cfg.DataDir != "/override" {
		t.Fatalf("flag should override file, got %q", cfg.DataDir)
	}
	if !cfg.Offline || len(cfg.StaticDirs) != 2 || cfg.Storage != "file" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestResolveConfig_BadFile(t *testing.T) {
	root := buildRootCmd()
	if err := root.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "missing.toml")}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := resolveConfig(root); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestExpandPaths_Defaults(t *testing.T) {
	cfg := defaultConfig()
	cfg.DataDir = "/var/lib/modelhostd"
	cfg.CatalogPath, cfg.WatchdogDir, cfg.HistoryDB = "", "", ""
	got, err := expandPaths(cfg)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if got.CatalogPath != "/var/lib/modelhostd/catalog.yaml" ||
		got.WatchdogDir != "/var/lib/modelhostd/watchdog" ||
		got.HistoryDB != "/var/lib/modelhostd/history.db" {
		t.Fatalf("unexpected defaults: %+v", got)
	}
	cfg.DataDir = ""
	if _, err := expandPaths(cfg); err == nil {
		t.Fatalf("expected error for empty data dir")
	}
}

func TestNewChecker_Offline(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "models--org--m"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfg := defaultConfig()
	cfg.WeightsDir = dir
	cfg.Offline = true
	c := newChecker(cfg, newLogger("error"))
	if !c.HasUsableWeights("org/m") {
		t.Fatalf("local weights not found")
	}
	if c.HasUsableWeights("org/other") {
		t.Fatalf("offline checker must not consult the hub")
	}
}
