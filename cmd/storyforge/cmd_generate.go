package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/storyforge/internal/capability"
	"github.com/user/storyforge/internal/gateway"
	"github.com/user/storyforge/internal/generate"
	"github.com/user/storyforge/internal/progress"
	"github.com/user/storyforge/internal/prompt"
	"github.com/user/storyforge/internal/state"
	"github.com/user/storyforge/internal/types"
	"github.com/user/storyforge/pkg/llm"
	"github.com/user/storyforge/pkg/llm/openai"
)

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().String("session-key", "cli:local", "session key for conversation continuity")
	generateCmd.Flags().String("catalog", "", "component catalog name (default from session)")
	generateCmd.Flags().StringSlice("image", nil, "reference image URL (repeatable)")
	generateCmd.Flags().String("out", "", "also write the story document to this file")
}

var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Generate a story document from a prompt",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := seedDefaultCatalog(cfg.Capability.CatalogPath, cfg.Capability.DefaultCatalog); err != nil {
		return fmt.Errorf("seed default catalog: %w", err)
	}

	sessionKey, _ := cmd.Flags().GetString("session-key")
	catalogName, _ := cmd.Flags().GetString("catalog")
	imageURLs, _ := cmd.Flags().GetStringSlice("image")
	outPath, _ := cmd.Flags().GetString("out")

	sessions := state.NewSessionStore(cfg.DataDir)
	events := state.NewEventStore(cfg.DataDir)
	stories := state.NewStoryStore(cfg.DataDir)

	provider := openai.New(&llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	prompts, err := prompt.New(cfg.LLM.Model, cfg.LLM.MaxContextTokens, cfg.LLM.OutputReserve)
	if err != nil {
		return fmt.Errorf("create prompt builder: %w", err)
	}
	discoverer := capability.NewDirDiscoverer(cfg.Capability.CatalogPath)

	orch := generate.NewOrchestrator(provider, discoverer, prompts, stories,
		&generate.RetryPolicy{MaxAttempts: cfg.MaxAttempts}, cfg.LLM.Model, slog.Default())
	svc := generate.NewService(orch, sessions, events, slog.Default())

	gw := gateway.New(sessions, events, 1)
	gw.Queue.SetProcessor(svc.ProcessRun)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gw.Start(ctx)
	defer gw.Stop()

	terminal := make(chan progress.Event, 1)
	_, err = gw.HandleInbound(ctx, &types.GenerateRequest{
		Source:     "cli",
		SessionKey: types.SessionKey(sessionKey),
		UserID:     "cli",
		Prompt:     strings.Join(args, " "),
		Catalog:    catalogName,
		ImageURLs:  imageURLs,
	}, gateway.WithOnEvent(func(ev progress.Event) {
		printEvent(ev)
		if ev.Terminal() {
			terminal <- ev
		}
	}))
	if err != nil {
		return fmt.Errorf("enqueue generation: %w", err)
	}

	ev := <-terminal
	switch {
	case ev.Kind == progress.KindError:
		return fmt.Errorf("generation failed: %s", ev.Error.Message)
	case ev.Completion != nil && outPath != "":
		doc, err := stories.Get(ctx, types.StoryID(ev.Completion.StoryID))
		if err != nil {
			return fmt.Errorf("read story: %w", err)
		}
		if err := os.WriteFile(outPath, []byte(doc), 0644); err != nil {
			return fmt.Errorf("write %s: %w", outPath, err)
		}
		fmt.Printf("Wrote %s\n", outPath)
	}
	return nil
}

func printEvent(ev progress.Event) {
	switch ev.Kind {
	case progress.KindIntent:
		fmt.Printf("Intent: %s via %s\n", ev.Intent.RequestType, ev.Intent.Strategy)
	case progress.KindProgress:
		line := fmt.Sprintf("[%d/%d] %s", ev.Step.Step, ev.Step.TotalSteps, ev.Step.Message)
		if ev.Step.Details != "" {
			line += " (" + ev.Step.Details + ")"
		}
		fmt.Println(line)
	case progress.KindValidation:
		if ev.Validation.IsValid {
			fmt.Println("Validation: clean")
		} else {
			fmt.Printf("Validation: %d error(s)\n", len(ev.Validation.Errors))
			for _, e := range ev.Validation.Errors {
				fmt.Printf("  - %s\n", e)
			}
		}
		if ev.Validation.AutoFixApplied {
			fmt.Printf("Auto-fix: %s\n", ev.Validation.FixDetails)
		}
	case progress.KindRetry:
		fmt.Printf("Retry %d/%d: %s\n", ev.Retry.Attempt, ev.Retry.MaxAttempts, ev.Retry.Reason)
	case progress.KindCompletion:
		c := ev.Completion
		fmt.Println(c.Summary)
		fmt.Printf("Saved as %s (story %s)\n", c.FileName, c.StoryID)
		if !c.Success && c.Validation != nil {
			for _, w := range c.Validation.Warnings {
				fmt.Printf("  warning: %s\n", w)
			}
		}
		fmt.Printf("%d model call(s), %dms\n", c.Metrics.LLMCalls, c.Metrics.TotalTimeMs)
	case progress.KindError:
		fmt.Fprintf(os.Stderr, "Error [%s]: %s\n", ev.Error.Code, ev.Error.Message)
		if ev.Error.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "  %s\n", ev.Error.Suggestion)
		}
	}
}
