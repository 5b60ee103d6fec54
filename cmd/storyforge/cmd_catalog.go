package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/user/storyforge/internal/capability"
)

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd, catalogShowCmd, catalogImportCmd)

	catalogImportCmd.Flags().String("name", "", "catalog name (defaults to the file base name)")
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage component catalogs",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available catalogs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		entries, err := os.ReadDir(cfg.Capability.CatalogPath)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Println("No catalogs found.")
				return nil
			}
			return fmt.Errorf("read catalog directory: %w", err)
		}

		discoverer := capability.NewDirDiscoverer(cfg.Capability.CatalogPath)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tCOMPONENTS\tDENIED")
		found := false
		for _, entry := range entries {
			ext := filepath.Ext(entry.Name())
			if ext != ".json" && ext != ".html" {
				continue
			}
			name := strings.TrimSuffix(entry.Name(), ext)
			cat, err := discoverer.Discover(context.Background(), name)
			if err != nil {
				fmt.Fprintf(w, "%s\t(invalid: %v)\t\n", name, err)
				found = true
				continue
			}
			fmt.Fprintf(w, "%s\t%d\t%d\n", cat.Name, len(cat.Components), len(cat.Deny))
			found = true
		}
		if !found {
			fmt.Println("No catalogs found.")
			return nil
		}
		return w.Flush()
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a catalog's components",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		discoverer := capability.NewDirDiscoverer(cfg.Capability.CatalogPath)
		cat, err := discoverer.Discover(context.Background(), args[0])
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "COMPONENT\tDESCRIPTION")
		for _, c := range cat.Components {
			fmt.Fprintf(w, "%s\t%s\n", c.Name, c.Description)
		}
		for _, d := range cat.Deny {
			note := d.Reason
			if d.ReplaceWith != "" {
				note += " (use " + d.ReplaceWith + ")"
			}
			fmt.Fprintf(w, "%s\tDENIED: %s\n", d.Name, note)
		}
		return w.Flush()
	},
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file.html|file.json>",
	Short: "Import a catalog from an exported components page or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		src := args[0]
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		}

		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("read %s: %w", src, err)
		}

		var cat *capability.Catalog
		switch filepath.Ext(src) {
		case ".html":
			cat, err = capability.FromHTML(name, data)
			if err != nil {
				return fmt.Errorf("convert %s: %w", src, err)
			}
		case ".json":
			cat = &capability.Catalog{}
			if err := json.Unmarshal(data, cat); err != nil {
				return fmt.Errorf("parse %s: %w", src, err)
			}
			if cat.Name == "" {
				cat.Name = name
			}
			if len(cat.Components) == 0 {
				return fmt.Errorf("%s has no components", src)
			}
		default:
			return fmt.Errorf("unsupported catalog format: %s", filepath.Ext(src))
		}

		if err := os.MkdirAll(cfg.Capability.CatalogPath, 0755); err != nil {
			return fmt.Errorf("create catalog directory: %w", err)
		}
		out, err := json.MarshalIndent(cat, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal catalog: %w", err)
		}
		dest := filepath.Join(cfg.Capability.CatalogPath, name+".json")
		if err := os.WriteFile(dest, append(out, '\n'), 0644); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}

		fmt.Fprintf(os.Stdout, "Imported catalog %q with %d component(s) to %s.\n", cat.Name, len(cat.Components), dest)
		return nil
	},
}
