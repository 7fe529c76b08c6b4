// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-analyzer CLI and HTTP API.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-analyzer/internal/secrets"
	"github.com/pdiddy/paper-analyzer/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the paper-analyzer CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-analyzer",
	Short: "Summarize, cite, narrate, and synthesize research papers",
	Long: `paper-analyzer turns research papers into summaries, citations, and spoken
audio. Papers come from uploaded PDFs, web URLs, or DOIs; related work can be
searched on arXiv and Semantic Scholar and synthesized across papers.

Run "paper-analyzer serve" for the HTTP API, or use the analyze, search, and
synthesize subcommands directly.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paper-analyzer.yaml or ~/.config/paper-analyzer/paper-analyzer.yaml)")
	defaults := types.DefaultConfig()
	rootCmd.PersistentFlags().String("data-dir", defaults.Storage.DataDir, "directory for uploads, records, and audio")
	rootCmd.PersistentFlags().String("log-level", defaults.Log.Level, "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("offline", false, "never call the summarization model; use the extractive fallback")

	_ = viper.BindPFlag("storage.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("summarizer.offline", rootCmd.PersistentFlags().Lookup("offline"))
}

// envKeys are the config keys that can be set from PAPER_ANALYZER_* variables.
var envKeys = []string{
	"server.addr",
	"storage.data_dir",
	"storage.audio_retention",
	"log.level",
	"log.file",
	"summarizer.model",
	"summarizer.base_url",
	"summarizer.cache_dir",
	"summarizer.offline",
	"fetch.mailto",
}

func initConfig() {
	// A missing .env is fine.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-analyzer")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-analyzer"))
		}
	}

	viper.SetEnvPrefix("PAPER_ANALYZER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, k := range envKeys {
		_ = viper.BindEnv(k)
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig returns the defaults overlaid with the config file,
// environment, flags, and secrets.
func loadConfig() (types.AppConfig, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	applyLegacyEnv(&cfg)
	secrets.Apply(&cfg, loadedSecrets)
	return cfg, nil
}

// applyLegacyEnv honors OFFLINE_MODE and TRANSFORMERS_CACHE.
func applyLegacyEnv(cfg *types.AppConfig) {
	if v := os.Getenv("OFFLINE_MODE"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil && on {
			cfg.Summarizer.Offline = true
		}
	}
	if v := os.Getenv("TRANSFORMERS_CACHE"); v != "" && !viper.IsSet("summarizer.cache_dir") {
		cfg.Summarizer.CacheDir = v
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
