package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.MaxAttempts != 3 {
		t.Errorf("expected default max_attempts 3, got %d", cfg.MaxAttempts)
	}
	if cfg.MaxConcurrent != 2 {
		t.Errorf("expected default max_concurrent 2, got %d", cfg.MaxConcurrent)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("expected default provider openai, got %s", cfg.LLM.Provider)
	}

	// Defaults should have been persisted
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected defaults written to %s: %v", path, err)
	}
}

func TestLoadExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	raw := map[string]any{
		"data_dir":     dir,
		"max_attempts": 5,
		"llm":          map[string]any{"model": "gpt-4o-mini"},
	}
	data, _ := json.Marshal(raw)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxAttempts != 5 {
		t.Errorf("expected max_attempts 5, got %d", cfg.MaxAttempts)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("expected model override, got %s", cfg.LLM.Model)
	}
	// Untouched fields keep defaults
	if cfg.LLM.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("expected default base URL, got %s", cfg.LLM.BaseURL)
	}
	if cfg.Capability.CatalogPath != filepath.Join(dir, "catalogs") {
		t.Errorf("expected catalog path under data dir, got %s", cfg.Capability.CatalogPath)
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:11434/v1")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.APIKey != "sk-from-env" {
		t.Errorf("expected API key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("expected base URL from env, got %q", cfg.LLM.BaseURL)
	}
}

func TestSetAndGetValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	if _, err := Load(path); err != nil {
		t.Fatal(err)
	}

	if err := SetValue(path, "llm.model", "gpt-4o-mini"); err != nil {
		t.Fatal(err)
	}
	val, err := GetValue(path, "llm.model")
	if err != nil {
		t.Fatal(err)
	}
	if val != "gpt-4o-mini" {
		t.Errorf("expected gpt-4o-mini, got %v", val)
	}
}

func TestSetValueUnknownKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	if _, err := Load(path); err != nil {
		t.Fatal(err)
	}
	if err := SetValue(path, "nope.nothing", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestGetValueMasksSecrets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	if _, err := Load(path); err != nil {
		t.Fatal(err)
	}
	if err := SetValue(path, "llm.api_key", "sk-secret"); err != nil {
		t.Fatal(err)
	}
	val, err := GetValue(path, "llm.api_key")
	if err != nil {
		t.Fatal(err)
	}
	if val != "***" {
		t.Errorf("expected masked secret, got %v", val)
	}
}
