package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/user/storyforge/internal/state"
	"github.com/user/storyforge/internal/types"
)

func init() {
	rootCmd.AddCommand(storyCmd)
	storyCmd.AddCommand(storyListCmd, storyShowCmd)

	storyListCmd.Flags().String("session", "", "limit to one session ID")
}

var storyCmd = &cobra.Command{
	Use:   "story",
	Short: "Inspect generated stories",
}

var storyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List generated stories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		sessions := state.NewSessionStore(cfg.DataDir)
		stories := state.NewStoryStore(cfg.DataDir)
		ctx := context.Background()

		var sessionIDs []types.SessionID
		if filter, _ := cmd.Flags().GetString("session"); filter != "" {
			sessionIDs = []types.SessionID{types.SessionID(filter)}
		} else {
			list, err := sessions.List(ctx)
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}
			for _, s := range list {
				sessionIDs = append(sessionIDs, s.SessionID)
			}
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tFILE\tSESSION\tCREATED")
		count := 0
		for _, sid := range sessionIDs {
			metas, err := stories.List(ctx, sid)
			if err != nil {
				continue
			}
			for _, m := range metas {
				count++
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					m.ID,
					m.Title,
					m.FileName,
					m.SessionID,
					m.CreatedAt.Format("2006-01-02 15:04:05"),
				)
			}
		}
		if count == 0 {
			fmt.Println("No stories found.")
			return nil
		}
		return w.Flush()
	},
}

var storyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a story document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		stories := state.NewStoryStore(cfg.DataDir)

		doc, err := stories.Get(context.Background(), types.StoryID(args[0]))
		if err != nil {
			return fmt.Errorf("get story: %w", err)
		}
		fmt.Println(doc)
		return nil
	},
}
