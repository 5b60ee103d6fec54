package delivery

import (
	"testing"
)

func TestRegistryDeliver(t *testing.T) {
	reg := NewRegistry()

	var gotKey, gotMsg string
	reg.Register("test:", func(sessionKey, message string) error {
		gotKey = sessionKey
		gotMsg = message
		return nil
	})

	err := reg.Deliver("test:123", "story saved")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "test:123" {
		t.Errorf("expected session key %q, got %q", "test:123", gotKey)
	}
	if gotMsg != "story saved" {
		t.Errorf("expected message %q, got %q", "story saved", gotMsg)
	}
}

func TestRegistryNoHandler(t *testing.T) {
	reg := NewRegistry()

	err := reg.Deliver("unknown:123", "hello")
	if err == nil {
		t.Fatal("expected error for unregistered prefix, got nil")
	}
}

func TestRegistryMultiplePrefixes(t *testing.T) {
	reg := NewRegistry()

	var telegramCalls, webhookCalls int
	reg.Register("telegram:", func(sessionKey, message string) error {
		telegramCalls++
		return nil
	})
	reg.Register("webhook:", func(sessionKey, message string) error {
		webhookCalls++
		return nil
	})

	if err := reg.Deliver("telegram:42:100", "msg1"); err != nil {
		t.Fatalf("telegram deliver error: %v", err)
	}
	if err := reg.Deliver("webhook:dashboard", "msg2"); err != nil {
		t.Fatalf("webhook deliver error: %v", err)
	}

	if telegramCalls != 1 {
		t.Errorf("expected 1 telegram call, got %d", telegramCalls)
	}
	if webhookCalls != 1 {
		t.Errorf("expected 1 webhook call, got %d", webhookCalls)
	}
}

func TestRegistryLongestPrefixWins(t *testing.T) {
	reg := NewRegistry()

	var general, specific int
	reg.Register("telegram:", func(sessionKey, message string) error {
		general++
		return nil
	})
	reg.Register("telegram:admin:", func(sessionKey, message string) error {
		specific++
		return nil
	})

	if err := reg.Deliver("telegram:admin:1", "msg"); err != nil {
		t.Fatal(err)
	}
	if specific != 1 || general != 0 {
		t.Errorf("expected the more specific handler, got specific=%d general=%d", specific, general)
	}

	if err := reg.Deliver("telegram:42:7", "msg"); err != nil {
		t.Fatal(err)
	}
	if general != 1 {
		t.Errorf("expected the general handler, got %d", general)
	}
}
