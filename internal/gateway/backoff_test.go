package gateway

import (
	"errors"
	"testing"
	"time"
)

func TestBackoffNextDelay(t *testing.T) {
	b := &Backoff{
		MaxAttempts:  5,
		InitialDelay: 1 * time.Second,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
	}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 5 * time.Second}, // capped
		{10, 5 * time.Second},
	}
	for _, c := range cases {
		if got := b.NextDelay(c.attempt); got != c.want {
			t.Errorf("NextDelay(%d) = %v, want %v", c.attempt, got, c.want)
		}
	}
}

func TestBackoffClassification(t *testing.T) {
	b := DefaultBackoff()

	retryable := []error{
		errors.New("connection refused"),
		errors.New("dial tcp: i/o timeout"),
		errors.New("connection reset by peer"),
		errors.New("something completely novel"),
	}
	for _, err := range retryable {
		if !b.ShouldRetry(err, 1) {
			t.Errorf("expected %v retryable", err)
		}
	}

	permanent := []error{
		errors.New("unauthorized: bad token"),
		errors.New("invalid request payload"),
		errors.New("forbidden"),
	}
	for _, err := range permanent {
		if b.ShouldRetry(err, 1) {
			t.Errorf("expected %v permanent", err)
		}
	}

	if b.ShouldRetry(errors.New("timeout"), b.MaxAttempts+1) {
		t.Error("attempts past the cap must not retry")
	}
}

func TestBackoffExecute(t *testing.T) {
	b := &Backoff{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 1.0, MaxDelay: time.Millisecond}

	calls := 0
	err := b.Execute(func() error {
		calls++
		if calls < 3 {
			return errors.New("timeout")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}

	calls = 0
	err = b.Execute(func() error {
		calls++
		return errors.New("unauthorized")
	})
	if err == nil {
		t.Error("expected permanent error returned")
	}
	if calls != 1 {
		t.Errorf("permanent errors must not be retried, got %d calls", calls)
	}
}
