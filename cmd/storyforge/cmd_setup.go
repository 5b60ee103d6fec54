package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/storyforge/internal/config"
)

func init() {
	rootCmd.AddCommand(setupCmd)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("StoryForge Setup Wizard")
		fmt.Println("Press Enter to accept the default value shown in brackets.")
		fmt.Println()

		cfg.LLM.BaseURL = promptLine(scanner, "LLM base URL", cfg.LLM.BaseURL)
		cfg.LLM.APIKey = promptLine(scanner, "LLM API key", cfg.LLM.APIKey)
		cfg.LLM.Model = promptLine(scanner, "LLM model name", cfg.LLM.Model)

		maxTokensStr := promptLine(scanner, "Max output tokens", strconv.Itoa(cfg.LLM.MaxTokens))
		if n, err := strconv.Atoi(maxTokensStr); err == nil {
			cfg.LLM.MaxTokens = n
		}

		maxAttemptsStr := promptLine(scanner, "Max generation attempts", strconv.Itoa(cfg.MaxAttempts))
		if n, err := strconv.Atoi(maxAttemptsStr); err == nil && n > 0 {
			cfg.MaxAttempts = n
		}

		cfg.Capability.CatalogPath = promptLine(scanner, "Component catalog directory", cfg.Capability.CatalogPath)
		cfg.Telegram.Token = promptLine(scanner, "Telegram bot token (optional)", cfg.Telegram.Token)
		cfg.HTTP.Listen = promptLine(scanner, "HTTP listen address", cfg.HTTP.Listen)

		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Println()
		fmt.Println("Configuration saved to", cfgPath)
		return nil
	},
}

// promptLine displays a labeled prompt with a default value and reads user
// input. If the user enters nothing, the default is returned.
func promptLine(scanner *bufio.Scanner, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("%s: ", label)
	}
	if scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input != "" {
			return input
		}
	}
	return defaultVal
}
