package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/user/storyforge/internal/capability"
	"github.com/user/storyforge/internal/delivery"
	"github.com/user/storyforge/internal/gateway"
	"github.com/user/storyforge/internal/generate"
	"github.com/user/storyforge/internal/prompt"
	"github.com/user/storyforge/internal/scheduler"
	"github.com/user/storyforge/internal/state"
	"github.com/user/storyforge/internal/telegram"
	"github.com/user/storyforge/internal/types"
	"github.com/user/storyforge/internal/webhook"
	"github.com/user/storyforge/pkg/llm"
	"github.com/user/storyforge/pkg/llm/openai"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the storyforge daemon",
	RunE:  runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, "storyforge.pid")
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

// seedDefaultCatalog writes a starter catalog so a fresh install can
// generate before the user imports their own component set.
func seedDefaultCatalog(dir, name string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(dir, name+".json")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	cat := capability.Catalog{
		Name: name,
		Components: []capability.Component{
			{Name: "Card", Description: "Container with padding and an optional border"},
			{Name: "Stack", Description: "Vertical layout container"},
			{Name: "Row", Description: "Horizontal layout container"},
			{Name: "Text", Description: "Plain text run"},
			{Name: "Heading", Description: "Section heading"},
			{Name: "Button", Description: "Clickable action button"},
			{Name: "Input", Description: "Single-line text input"},
			{Name: "Checkbox", Description: "Boolean toggle"},
			{Name: "Select", Description: "Dropdown selection"},
			{Name: "Image", Description: "Embedded image by source URL"},
			{Name: "Badge", Description: "Small status label"},
			{Name: "Divider", Description: "Horizontal separator"},
		},
		Deny: []capability.Denied{
			{Name: "RawHTML", Reason: "unsafe markup injection", ReplaceWith: "Text"},
			{Name: "Script", Reason: "executable content is not allowed"},
		},
	}
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := seedDefaultCatalog(cfg.Capability.CatalogPath, cfg.Capability.DefaultCatalog); err != nil {
		return fmt.Errorf("seed default catalog: %w", err)
	}

	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	// Stores
	sessions := state.NewSessionStore(cfg.DataDir)
	events := state.NewEventStore(cfg.DataDir)
	stories := state.NewStoryStore(cfg.DataDir)
	presets := state.NewPresetStore(filepath.Join(cfg.DataDir, "presets.json"))

	// LLM provider
	provider := openai.New(&llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})

	// Prompt builder with token budgeting
	prompts, err := prompt.New(cfg.LLM.Model, cfg.LLM.MaxContextTokens, cfg.LLM.OutputReserve)
	if err != nil {
		return fmt.Errorf("create prompt builder: %w", err)
	}

	// Capability discovery
	discoverer := capability.NewDirDiscoverer(cfg.Capability.CatalogPath)

	// Generation pipeline
	orch := generate.NewOrchestrator(provider, discoverer, prompts, stories,
		&generate.RetryPolicy{MaxAttempts: cfg.MaxAttempts}, cfg.LLM.Model, slog.Default())
	svc := generate.NewService(orch, sessions, events, slog.Default())

	// Gateway
	gw := gateway.New(sessions, events, int64(cfg.MaxConcurrent))
	gw.Queue.SetProcessor(svc.ProcessRun)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gw.Start(ctx)
	defer gw.Stop()

	slog.Info("storyforge started",
		"data_dir", cfg.DataDir,
		"log_level", cfg.LogLevel,
		"max_concurrent", cfg.MaxConcurrent,
		"max_attempts", cfg.MaxAttempts,
		"llm_provider", cfg.LLM.Provider,
		"llm_model", cfg.LLM.Model,
		"catalog_path", cfg.Capability.CatalogPath,
		"pid_file", pidPath,
	)

	// Delivery registry for preset results
	deliveryReg := delivery.NewRegistry()

	// Telegram adapter
	if cfg.Telegram.Token != "" {
		adapter, err := telegram.New(cfg.Telegram.Token, gw, events, sessions, stories)
		if err != nil {
			return fmt.Errorf("create telegram adapter: %w", err)
		}
		go adapter.Start(ctx)
		slog.Info("telegram adapter started")

		deliveryReg.Register("telegram:", adapter.Deliver)
	} else {
		slog.Warn("telegram adapter disabled (no token)")
	}

	// Helper: run a preset through the gateway and wait for its summary.
	runPreset := func(sessionKey, promptText, catalog string) (string, error) {
		done := make(chan string, 1)
		_, err := gw.HandleInbound(ctx, &types.GenerateRequest{
			Source:     "preset",
			SessionKey: types.SessionKey(sessionKey),
			UserID:     "system",
			Prompt:     promptText,
			Catalog:    catalog,
		}, gateway.WithOnComplete(func(summary string) {
			done <- summary
		}))
		if err != nil {
			return "", err
		}
		return <-done, nil
	}

	// Scheduler
	sched := scheduler.New(presets, func(sessionKey, promptText, catalog string) {
		summary, err := runPreset(sessionKey, promptText, catalog)
		if err != nil {
			slog.Error("scheduled preset failed", "session_key", sessionKey, "error", err)
			return
		}
		if err := deliveryReg.Deliver(sessionKey, summary); err != nil {
			slog.Error("preset delivery failed", "session_key", sessionKey, "error", err)
		}
	})
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()
	slog.Info("scheduler started")

	// HTTP server: streaming generation, preset triggers, debug API
	if cfg.HTTP.Enabled {
		srv := webhook.NewServer(gw, presets, sessions, events, stories)
		httpServer := &http.Server{
			Addr:    cfg.HTTP.Listen,
			Handler: srv,
		}
		go func() {
			slog.Info("http server started", "listen", cfg.HTTP.Listen)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("http server error", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			httpServer.Close()
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		sig := <-sigChan
		if sig == syscall.SIGHUP {
			slog.Info("received SIGHUP, restarting")
			execPath, err := os.Executable()
			if err != nil {
				slog.Error("failed to get executable path", "error", err)
				continue
			}
			os.Remove(pidPath)
			if err := syscall.Exec(execPath, os.Args, os.Environ()); err != nil {
				slog.Error("failed to re-exec", "error", err)
				if _, writeErr := writePIDFile(cfg.DataDir); writeErr != nil {
					slog.Error("failed to re-write PID file", "error", writeErr)
				}
				continue
			}
		}
		slog.Info("shutting down", "signal", sig)
		return nil
	}
}
