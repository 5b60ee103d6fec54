// internal/types/models.go
package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Event is a single entry in a session's durable event log.
type Event struct {
	ID        EventID         `json:"id"`
	SessionID SessionID       `json:"session_id"`
	RunID     RunID           `json:"run_id,omitempty"`
	Seq       int64           `json:"seq"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	At        time.Time       `json:"at"`
	Payload   json.RawMessage `json:"payload"`
}

// SessionIndex is the persisted summary record for one session.
type SessionIndex struct {
	SessionID    SessionID  `json:"session_id"`
	SessionKey   SessionKey `json:"session_key"`
	Catalog      string     `json:"catalog"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastRunID    RunID      `json:"last_run_id,omitempty"`
	LastStoryID  StoryID    `json:"last_story_id,omitempty"`
	LastEventSeq int64      `json:"last_event_seq"`
}

// StoryMeta describes a persisted story artifact.
type StoryMeta struct {
	ID        StoryID   `json:"id"`
	SessionID SessionID `json:"session_id"`
	RunID     RunID     `json:"run_id"`
	Title     string    `json:"title"`
	FileName  string    `json:"file_name"`
	CreatedAt time.Time `json:"created_at"`
}

// GenerateRequest is an inbound request to produce a story document.
type GenerateRequest struct {
	Source     string          `json:"source"`
	SessionKey SessionKey      `json:"session_key"`
	UserID     string          `json:"user_id"`
	Prompt     string          `json:"prompt"`
	Catalog    string          `json:"catalog,omitempty"`
	ImageURLs  []string        `json:"image_urls,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

// ErrorCategory classifies a validation error into one of the three
// independent diagnostic lists.
type ErrorCategory string

const (
	CategorySyntax    ErrorCategory = "syntax"
	CategoryPattern   ErrorCategory = "pattern"
	CategoryReference ErrorCategory = "reference"
)

// ValidationError is a single defect found in a candidate story document.
type ValidationError struct {
	Category   ErrorCategory `json:"category"`
	Code       string        `json:"code"`
	Message    string        `json:"message"`
	Line       int           `json:"line,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
}

// String renders the error the way it is fed back to the model.
func (e ValidationError) String() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	b.WriteString(e.Message)
	if e.Suggestion != "" {
		fmt.Fprintf(&b, " (%s)", e.Suggestion)
	}
	return b.String()
}

// Diagnostics holds the three independent error lists produced by
// validating one candidate artifact. It is clean iff all three are empty.
type Diagnostics struct {
	Syntax    []ValidationError `json:"syntax,omitempty"`
	Pattern   []ValidationError `json:"pattern,omitempty"`
	Reference []ValidationError `json:"reference,omitempty"`
}

// Clean reports whether all three lists are empty.
func (d Diagnostics) Clean() bool {
	return len(d.Syntax) == 0 && len(d.Pattern) == 0 && len(d.Reference) == 0
}

// Total is the sum of all three category counts.
func (d Diagnostics) Total() int {
	return len(d.Syntax) + len(d.Pattern) + len(d.Reference)
}

// All returns the errors of every category in category order.
func (d Diagnostics) All() []ValidationError {
	out := make([]ValidationError, 0, d.Total())
	out = append(out, d.Syntax...)
	out = append(out, d.Pattern...)
	out = append(out, d.Reference...)
	return out
}

// Messages returns the rendered message of every error.
func (d Diagnostics) Messages() []string {
	all := d.All()
	out := make([]string, len(all))
	for i, e := range all {
		out[i] = e.String()
	}
	return out
}

// Multiset returns the error multiset as a sorted key list with counts.
// Keys are category|code|message so the same mistake re-emitted at a
// shifted line still compares equal between attempts.
func (d Diagnostics) Multiset() []string {
	counts := make(map[string]int)
	for _, e := range d.All() {
		counts[string(e.Category)+"|"+e.Code+"|"+e.Message]++
	}
	out := make([]string, 0, len(counts))
	for k, n := range counts {
		out = append(out, fmt.Sprintf("%s x%d", k, n))
	}
	sort.Strings(out)
	return out
}

// SameErrors reports whether two diagnostics carry an identical error multiset.
func SameErrors(a, b Diagnostics) bool {
	am, bm := a.Multiset(), b.Multiset()
	if len(am) != len(bm) {
		return false
	}
	for i := range am {
		if am[i] != bm[i] {
			return false
		}
	}
	return true
}

// Attempt records one model call + extraction + validation cycle.
// Immutable once diagnosed; Artifact is empty when HasArtifact is false.
type Attempt struct {
	Ordinal     int         `json:"ordinal"`
	Artifact    string      `json:"artifact,omitempty"`
	HasArtifact bool        `json:"has_artifact"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// RetryDecision is the outcome of the retry policy for one attempt.
type RetryDecision struct {
	Retry  bool   `json:"retry"`
	Reason string `json:"reason"`
}
