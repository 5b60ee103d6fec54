package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/storyforge/internal/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "storyforge",
	Short: "StoryForge turns natural-language prompts into validated story documents",
	Long: `StoryForge is a generation daemon and CLI. It takes natural-language
prompts, asks an LLM for a JSON story document, validates the result
against the component catalog, and retries with targeted corrections
until the document is clean or the attempt budget runs out.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config",
		filepath.Join(os.Getenv("HOME"), ".storyforge", "config.json"),
		"config file path")
}

// loadConfig loads the config file, exiting on failure. Called from RunE
// so the --config flag has already been parsed.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
