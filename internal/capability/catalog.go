// Package capability supplies the catalog of referenceable component names
// available to the target environment, together with deny-listed names and
// per-component usage notes for prompt assembly.
package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Component is one referenceable name in the target environment.
type Component struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// Docs holds markdown usage notes, shown to the model when budget allows.
	Docs string `json:"docs,omitempty"`
}

// Denied is a blacklisted component name with remediation guidance.
type Denied struct {
	Name        string `json:"name"`
	Reason      string `json:"reason"`
	ReplaceWith string `json:"replace_with,omitempty"`
}

// Catalog is the capability context for one generation session.
type Catalog struct {
	Name       string      `json:"name"`
	Components []Component `json:"components"`
	Deny       []Denied    `json:"deny,omitempty"`
}

// Has reports whether name is on the allow-list.
func (c *Catalog) Has(name string) bool {
	for _, comp := range c.Components {
		if comp.Name == name {
			return true
		}
	}
	return false
}

// DeniedEntry returns the deny-list entry for name, if any.
func (c *Catalog) DeniedEntry(name string) (*Denied, bool) {
	for i := range c.Deny {
		if c.Deny[i].Name == name {
			return &c.Deny[i], true
		}
	}
	return nil, false
}

// Names returns all allow-listed component names in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.Components))
	for i, comp := range c.Components {
		out[i] = comp.Name
	}
	return out
}

// Suggest returns the nearest allow-listed name within edit distance 2,
// or "" when nothing is close enough.
func (c *Catalog) Suggest(name string) string {
	best := ""
	bestDist := 3
	for _, comp := range c.Components {
		d := editDistance(strings.ToLower(name), strings.ToLower(comp.Name))
		if d < bestDist {
			best = comp.Name
			bestDist = d
		}
	}
	return best
}

// Discoverer resolves a catalog name to a Catalog. It is the discovery
// collaborator boundary; failures are transport errors, never retried by
// the generation loop.
type Discoverer interface {
	Discover(ctx context.Context, name string) (*Catalog, error)
}

// DirDiscoverer loads catalogs from a directory of <name>.json or
// <name>.html files.
type DirDiscoverer struct {
	dir string
}

// NewDirDiscoverer creates a Discoverer over the given catalog directory.
func NewDirDiscoverer(dir string) *DirDiscoverer {
	return &DirDiscoverer{dir: dir}
}

// Discover loads the named catalog. JSON files are decoded directly; HTML
// files are treated as an exported components page and converted.
func (d *DirDiscoverer) Discover(_ context.Context, name string) (*Catalog, error) {
	jsonPath := filepath.Join(d.dir, name+".json")
	if data, err := os.ReadFile(jsonPath); err == nil {
		return parseJSON(name, data)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read catalog %s: %w", name, err)
	}

	htmlPath := filepath.Join(d.dir, name+".html")
	if data, err := os.ReadFile(htmlPath); err == nil {
		return FromHTML(name, data)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read catalog %s: %w", name, err)
	}

	return nil, fmt.Errorf("catalog not found: %s", name)
}

func parseJSON(name string, data []byte) (*Catalog, error) {
	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", name, err)
	}
	if cat.Name == "" {
		cat.Name = name
	}
	if len(cat.Components) == 0 {
		return nil, fmt.Errorf("catalog %s has no components", name)
	}
	return &cat, nil
}
