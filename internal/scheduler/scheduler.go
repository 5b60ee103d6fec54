// Package scheduler fires preset generation prompts on cron schedules.
package scheduler

import (
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/user/storyforge/internal/state"
)

// Handler is the callback invoked when a scheduled preset fires.
type Handler func(sessionKey, prompt, catalog string)

// Scheduler evaluates cron expressions from the preset store and fires
// presets through a handler callback. Presets without a schedule are
// webhook-only and are never registered here.
type Scheduler struct {
	store   *state.PresetStore
	handler Handler
	cron    *cron.Cron
}

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// New creates a new Scheduler backed by the given preset store. The handler
// is called each time a scheduled preset fires.
func New(store *state.PresetStore, handler Handler) *Scheduler {
	return &Scheduler{
		store:   store,
		handler: handler,
		cron:    cron.New(cron.WithParser(cronParser)),
	}
}

// Start loads presets from the store, registers enabled presets that have a
// schedule as cron entries, and starts the cron ticker.
func (s *Scheduler) Start() error {
	presets, err := s.store.List()
	if err != nil {
		return err
	}

	for _, preset := range presets {
		if preset.Schedule == "" || !preset.Enabled {
			continue
		}

		// Capture loop variables for the closure.
		sessionKey := preset.SessionKey
		prompt := preset.Prompt
		catalog := preset.Catalog
		schedule := preset.Schedule
		name := preset.Name

		_, err := s.cron.AddFunc(schedule, func() {
			slog.Info("cron firing preset", "name", name, "session_key", sessionKey)
			s.handler(sessionKey, prompt, catalog)
		})
		if err != nil {
			slog.Error("invalid cron schedule", "name", name, "schedule", schedule, "error", err)
			continue
		}
		slog.Info("scheduled preset", "name", name, "schedule", schedule)
	}

	s.cron.Start()
	return nil
}

// Reload stops the existing cron, creates a new one, and calls Start() again.
func (s *Scheduler) Reload() error {
	s.cron.Stop()
	s.cron = cron.New(cron.WithParser(cronParser))
	return s.Start()
}

// Stop stops the cron ticker.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
