package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "addr: :9999\ndata_dir: /tmp/state\ncatalog_path: /etc/catalog.yaml\nstatic_dirs:\n  - /a\n  - /b\nnotify_timeout_sec: 7\n")
	cfg, err := Load(p)
	if err != nil { t.Fatalf("load: %v", err) }
	if cfg.Addr != ":9999" || cfg.DataDir != "/tmp/state" || cfg.CatalogPath != "/etc/catalog.yaml" || len(cfg.StaticDirs) != 2 || cfg.NotifyTimeoutSec != 7 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","weights_dir":"/w","storage":"redis","redis_url":"redis://localhost:6379/0"}`)
	cfg, err := Load(p)
	if err != nil { t.Fatalf("load: %v", err) }
	if cfg.Addr != ":7070" || cfg.WeightsDir != "/w" || cfg.Storage != "redis" || cfg.RedisURL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\nwatchdog_dir=\"/x\"\nhistory_db=\"/h.db\"\nlog_level=\"debug\"\n")
	cfg, err := Load(p)
	if err != nil { t.Fatalf("load: %v", err) }
	if cfg.Addr != ":8081" || cfg.WatchdogDir != "/x" || cfg.HistoryDB != "/h.db" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil { t.Fatalf("expected error on empty path") }
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil { t.Fatalf("expected unsupported extension error") }
}

func TestMerge(t *testing.T) {
	base := Config{Addr: ":8008", DataDir: "/d", NotifyTimeoutSec: 5, StaticDirs: []string{"/s"}}
	got := Merge(base, Config{Addr: ":9000", StaticDirs: []string{"/u1", "/u2"}})
	if got.Addr != ":9000" || got.DataDir != "/d" || got.NotifyTimeoutSec != 5 || len(got.StaticDirs) != 2 {
		t.Fatalf("unexpected merge: %+v", got)
	}
}
