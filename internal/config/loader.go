package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr        string `json:"addr" yaml:"addr" toml:"addr"`
	DataDir     string `json:"data_dir" yaml:"data_dir" toml:"data_dir"`
	CatalogPath string `json:"catalog_path" yaml:"catalog_path" toml:"catalog_path"`
	WeightsDir  string `json:"weights_dir" yaml:"weights_dir" toml:"weights_dir"`
	HubURL      string `json:"hub_url" yaml:"hub_url" toml:"hub_url"`
	HubToken    string `json:"hub_token" yaml:"hub_token" toml:"hub_token"`
	// Offline disables the hub access check; only local weights count.
	Offline bool `json:"offline" yaml:"offline" toml:"offline"`
	WatchdogDir string   `json:"watchdog_dir" yaml:"watchdog_dir" toml:"watchdog_dir"`
	StaticDirs  []string `json:"static_dirs" yaml:"static_dirs" toml:"static_dirs"`
	// Storage backend for the assignment and adapter documents: "file" or "redis".
	Storage   string `json:"storage" yaml:"storage" toml:"storage"`
	RedisURL  string `json:"redis_url" yaml:"redis_url" toml:"redis_url"`
	HistoryDB string `json:"history_db" yaml:"history_db" toml:"history_db"`
	// Upper bound for one watchdog reconciliation, in seconds.
	NotifyTimeoutSec int      `json:"notify_timeout_sec" yaml:"notify_timeout_sec" toml:"notify_timeout_sec"`
	LogLevel         string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	CORSOrigins      []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := Decode(filepath.Ext(path), b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode unmarshals b into v using the format implied by ext.
func Decode(ext string, b []byte, v any) error {
	switch ext = strings.ToLower(ext); ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, v)
	case ".json":
		return json.Unmarshal(b, v)
	case ".toml":
		return toml.Unmarshal(b, v)
	default:
		return fmt.Errorf("unsupported config extension: %s", ext)
	}
}

// Merge returns base with every non-zero field of over applied on top.
func Merge(base, over Config) Config {
	out := base
	setStr := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setStr(&out.Addr, over.Addr)
	setStr(&out.DataDir, over.DataDir)
	setStr(&out.CatalogPath, over.CatalogPath)
	setStr(&out.WeightsDir, over.WeightsDir)
	setStr(&out.HubURL, over.HubURL)
	setStr(&out.HubToken, over.HubToken)
	setStr(&out.WatchdogDir, over.WatchdogDir)
	setStr(&out.Storage, over.Storage)
	setStr(&out.RedisURL, over.RedisURL)
	setStr(&out.HistoryDB, over.HistoryDB)
	setStr(&out.LogLevel, over.LogLevel)
	if len(over.StaticDirs) > 0 {
		out.StaticDirs = append([]string(nil), over.StaticDirs...)
	}
	if len(over.CORSOrigins) > 0 {
		out.CORSOrigins = append([]string(nil), over.CORSOrigins...)
	}
	if over.Offline {
		out.Offline = true
	}
	if over.NotifyTimeoutSec > 0 {
		out.NotifyTimeoutSec = over.NotifyTimeoutSec
	}
	return out
}
