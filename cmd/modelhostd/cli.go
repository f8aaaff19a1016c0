package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"modelhostd/internal/config"
)

// flagConfig maps CLI flags onto config fields. Only flags set explicitly
// override the config file.
func flagConfig(cmd *cobra.Command) config.Config {
	var c config.Config
	f := cmd.Flags()
	str := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	list := func(name string, dst *[]string) {
		if f.Changed(name) {
			v, _ := f.GetString(name)
			*dst = splitCSV(v)
		}
	}
	str("addr", &c.Addr)
	str("data-dir", &c.DataDir)
	str("catalog", &c.CatalogPath)
	str("weights-dir", &c.WeightsDir)
	str("hub-url", &c.HubURL)
	str("hub-token", &c.HubToken)
	str("watchdog-dir", &c.WatchdogDir)
	str("storage", &c.Storage)
	str("redis-url", &c.RedisURL)
	str("history-db", &c.HistoryDB)
	str("log-level", &c.LogLevel)
	list("static-dirs", &c.StaticDirs)
	list("cors-origins", &c.CORSOrigins)
	if f.Changed("offline") {
		c.Offline, _ = f.GetBool("offline")
	}
	if f.Changed("notify-timeout") {
		c.NotifyTimeoutSec, _ = f.GetInt("notify-timeout")
	}
	return c
}

// defaultConfig holds flag defaults, which come from MODELHOSTD_* variables.
func defaultConfig() config.Config {
	return config.Config{
		Addr:             envStr("MODELHOSTD_ADDR", ":8008"),
		DataDir:          envStr("MODELHOSTD_DATA_DIR", "~/.modelhostd"),
		CatalogPath:      envStr("MODELHOSTD_CATALOG", ""),
		WeightsDir:       envStr("MODELHOSTD_WEIGHTS_DIR", "~/.cache/huggingface/hub"),
		HubURL:           envStr("MODELHOSTD_HUB_URL", ""),
		HubToken:         envStr("HF_TOKEN", ""),
		Offline:          envBool("MODELHOSTD_OFFLINE", false),
		WatchdogDir:      envStr("MODELHOSTD_WATCHDOG_DIR", ""),
		StaticDirs:       splitCSV(envStr("MODELHOSTD_STATIC_DIRS", "")),
		Storage:          envStr("MODELHOSTD_STORAGE", "file"),
		RedisURL:         envStr("MODELHOSTD_REDIS_URL", ""),
		HistoryDB:        envStr("MODELHOSTD_HISTORY_DB", ""),
		NotifyTimeoutSec: envInt("MODELHOSTD_NOTIFY_TIMEOUT", 5),
		LogLevel:         envStr("MODELHOSTD_LOG_LEVEL", "info"),
		CORSOrigins:      splitCSV(envStr("MODELHOSTD_CORS_ORIGINS", "")),
	}
}

// resolveConfig layers defaults, the optional config file and explicit flags.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := defaultConfig()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		fileCfg, err := config.Load(path)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = config.Merge(cfg, fileCfg)
	}
	return config.Merge(cfg, flagConfig(cmd)), nil
}

func buildRootCmd() *cobra.Command {
	def := defaultConfig()
	root := &cobra.Command{
		Use:           "modelhostd",
		Short:         "Model-to-GPU assignment and LoRA adapter control surface",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and the host API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return serveMain(cmd.Context(), cfg)
		},
	}
	f := serve.Flags()
	f.String("config", envStr("MODELHOSTD_CONFIG", ""), "Config file (.yaml, .json or .toml)")
	f.String("addr", def.Addr, "HTTP listen address (MODELHOSTD_ADDR)")
	f.String("data-dir", def.DataDir, "Directory for persisted documents (MODELHOSTD_DATA_DIR)")
	f.String("catalog", def.CatalogPath, "Model catalog file or directory (default <data-dir>/catalog.yaml)")
	f.String("weights-dir", def.WeightsDir, "Hugging Face cache directory checked for local weights")
	f.String("hub-url", def.HubURL, "Hub API base URL (default https://huggingface.co)")
	f.String("hub-token", def.HubToken, "Hub access token (HF_TOKEN)")
	f.Bool("offline", def.Offline, "Skip the hub access check")
	f.String("watchdog-dir", def.WatchdogDir, "Directory for watchdog config files (default <data-dir>/watchdog)")
	f.String("static-dirs", strings.Join(def.StaticDirs, ","), "Comma-separated dashboard roots, searched in order")
	f.String("storage", def.Storage, "Document storage backend: file|redis")
	f.String("redis-url", def.RedisURL, "Redis URL for the redis backend")
	f.String("history-db", def.HistoryDB, "sqlite file for the mutation history (default <data-dir>/history.db)")
	f.Int("notify-timeout", def.NotifyTimeoutSec, "Seconds allowed for one watchdog reconciliation")
	f.String("log-level", def.LogLevel, "Log level: debug|info|warn|error")
	f.String("cors-origins", strings.Join(def.CORSOrigins, ","), "Comma-separated allowed CORS origins (empty disables CORS)")
	root.AddCommand(serve)

	// Running the binary without a subcommand serves.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(f)
	return root
}
