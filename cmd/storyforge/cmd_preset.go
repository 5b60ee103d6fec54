package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/user/storyforge/internal/state"
)

func init() {
	rootCmd.AddCommand(presetCmd)
	presetCmd.AddCommand(presetAddCmd, presetListCmd, presetRemoveCmd, presetEnableCmd, presetDisableCmd)

	presetAddCmd.Flags().String("name", "", "preset name (required)")
	presetAddCmd.Flags().String("prompt", "", "generation prompt (required)")
	presetAddCmd.Flags().String("schedule", "", "cron schedule expression")
	presetAddCmd.Flags().String("session-key", "", "session key (required)")
	presetAddCmd.Flags().String("catalog", "", "component catalog name")
	_ = presetAddCmd.MarkFlagRequired("name")
	_ = presetAddCmd.MarkFlagRequired("prompt")
	_ = presetAddCmd.MarkFlagRequired("session-key")
}

func presetStore() *state.PresetStore {
	cfg := loadConfig()
	return state.NewPresetStore(filepath.Join(cfg.DataDir, "presets.json"))
}

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage generation presets",
}

var presetAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new preset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		promptText, _ := cmd.Flags().GetString("prompt")
		schedule, _ := cmd.Flags().GetString("schedule")
		sessionKey, _ := cmd.Flags().GetString("session-key")
		catalog, _ := cmd.Flags().GetString("catalog")

		store := presetStore()
		preset := &state.Preset{
			Name:       name,
			Prompt:     promptText,
			Schedule:   schedule,
			SessionKey: sessionKey,
			Catalog:    catalog,
			Enabled:    true,
		}
		if err := store.Add(preset); err != nil {
			return fmt.Errorf("add preset: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Preset %q added.\n", name)
		return nil
	},
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := presetStore()
		presets, err := store.List()
		if err != nil {
			return fmt.Errorf("list presets: %w", err)
		}

		if len(presets) == 0 {
			fmt.Println("No presets configured.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSCHEDULE\tENABLED\tCATALOG\tSESSION KEY")
		for _, p := range presets {
			catalog := p.Catalog
			if catalog == "" {
				catalog = "default"
			}
			fmt.Fprintf(w, "%s\t%s\t%v\t%s\t%s\n",
				p.Name,
				p.Schedule,
				p.Enabled,
				catalog,
				p.SessionKey,
			)
		}
		return w.Flush()
	},
}

var presetRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := presetStore()
		if err := store.Remove(args[0]); err != nil {
			return fmt.Errorf("remove preset: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Preset %q removed.\n", args[0])
		return nil
	},
}

var presetEnableCmd = &cobra.Command{
	Use:   "enable <name>",
	Short: "Enable a preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := presetStore()
		if err := store.SetEnabled(args[0], true); err != nil {
			return fmt.Errorf("enable preset: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Preset %q enabled.\n", args[0])
		return nil
	},
}

var presetDisableCmd = &cobra.Command{
	Use:   "disable <name>",
	Short: "Disable a preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := presetStore()
		if err := store.SetEnabled(args[0], false); err != nil {
			return fmt.Errorf("disable preset: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Preset %q disabled.\n", args[0])
		return nil
	},
}
