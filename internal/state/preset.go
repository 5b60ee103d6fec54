package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Preset is a named generation prompt that can run on a schedule or be
// triggered via webhook. Results are delivered to the preset's session.
type Preset struct {
	Name       string `json:"name"`
	Prompt     string `json:"prompt"`
	Schedule   string `json:"schedule,omitempty"`
	SessionKey string `json:"session_key"`
	Catalog    string `json:"catalog,omitempty"`
	Enabled    bool   `json:"enabled"`
}

// PresetStore is a JSON-file-backed store for presets.
type PresetStore struct {
	path string
	mu   sync.RWMutex
}

// NewPresetStore creates a new file-backed PresetStore at the given file path.
func NewPresetStore(path string) *PresetStore {
	return &PresetStore{path: path}
}

// Path returns the file path used by this store.
func (s *PresetStore) Path() string {
	return s.path
}

// List returns all presets. Returns an empty slice if the file doesn't exist.
func (s *PresetStore) List() ([]*Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	presets, err := s.load()
	if err != nil {
		return nil, err
	}
	if presets == nil {
		return []*Preset{}, nil
	}
	return presets, nil
}

// Get finds a preset by name. Returns an error if not found.
func (s *PresetStore) Get(name string) (*Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	presets, err := s.load()
	if err != nil {
		return nil, err
	}

	for _, preset := range presets {
		if preset.Name == name {
			return preset, nil
		}
	}
	return nil, fmt.Errorf("preset not found: %s", name)
}

// Add appends a preset. Returns an error if a preset with the same name already exists.
func (s *PresetStore) Add(preset *Preset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	presets, err := s.load()
	if err != nil {
		return err
	}

	for _, existing := range presets {
		if existing.Name == preset.Name {
			return fmt.Errorf("preset already exists: %s", preset.Name)
		}
	}

	presets = append(presets, preset)
	return s.save(presets)
}

// Remove deletes a preset by name. Returns an error if not found.
func (s *PresetStore) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	presets, err := s.load()
	if err != nil {
		return err
	}

	for i, preset := range presets {
		if preset.Name == name {
			presets = append(presets[:i], presets[i+1:]...)
			return s.save(presets)
		}
	}
	return fmt.Errorf("preset not found: %s", name)
}

// SetEnabled toggles the enabled flag for a preset. Returns an error if not found.
func (s *PresetStore) SetEnabled(name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	presets, err := s.load()
	if err != nil {
		return err
	}

	for _, preset := range presets {
		if preset.Name == name {
			preset.Enabled = enabled
			return s.save(presets)
		}
	}
	return fmt.Errorf("preset not found: %s", name)
}

// load reads the JSON file and returns the preset list. Returns nil if the file doesn't exist.
func (s *PresetStore) load() ([]*Preset, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read presets file: %w", err)
	}

	var presets []*Preset
	if err := json.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("unmarshal presets: %w", err)
	}
	return presets, nil
}

// save writes the preset list to disk using atomic write (temp file + rename).
func (s *PresetStore) save(presets []*Preset) error {
	data, err := json.MarshalIndent(presets, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal presets: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create presets dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp presets file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp presets file: %w", err)
	}
	return nil
}
