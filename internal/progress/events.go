package progress

import "time"

// Kind discriminates the outward event union.
type Kind string

const (
	KindIntent     Kind = "intent"
	KindProgress   Kind = "progress"
	KindValidation Kind = "validation"
	KindRetry      Kind = "retry"
	KindCompletion Kind = "completion"
	KindError      Kind = "error"
)

// Phase labels the pipeline stage a progress event reports on.
type Phase string

const (
	PhaseConfigLoaded         Phase = "config_loaded"
	PhaseComponentsDiscovered Phase = "components_discovered"
	PhasePromptBuilt          Phase = "prompt_built"
	PhaseLLMThinking          Phase = "llm_thinking"
	PhaseValidating           Phase = "validating"
	PhaseCodeExtracted        Phase = "code_extracted"
	PhasePostProcessing       Phase = "post_processing"
	PhaseSaving               Phase = "saving"
)

// Event is one entry in a session's outward stream. Exactly one payload
// field is set, selected by Kind. Events are emitted in transition order
// and never reordered or batched.
type Event struct {
	Kind Kind      `json:"kind"`
	At   time.Time `json:"at"`

	Intent     *Intent     `json:"intent,omitempty"`
	Step       *Step       `json:"progress,omitempty"`
	Validation *Validation `json:"validation,omitempty"`
	Retry      *Retry      `json:"retry,omitempty"`
	Completion *Completion `json:"completion,omitempty"`
	Error      *Failure    `json:"error,omitempty"`
}

// Terminal reports whether the event ends the stream for its run.
func (e Event) Terminal() bool {
	return e.Kind == KindCompletion || e.Kind == KindError
}

// Intent summarizes how the request was understood before generation starts.
type Intent struct {
	RequestType       string   `json:"request_type"`
	CapabilityContext string   `json:"capability_context"`
	Strategy          string   `json:"strategy"`
	EstimatedTargets  []string `json:"estimated_targets,omitempty"`
	AnalysisFlags     []string `json:"analysis_flags,omitempty"`
}

// Step reports progress through the generation pipeline.
type Step struct {
	Step       int    `json:"step"`
	TotalSteps int    `json:"total_steps"`
	Phase      Phase  `json:"phase"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

// Validation reports the outcome of validating one candidate artifact.
type Validation struct {
	IsValid        bool     `json:"is_valid"`
	Errors         []string `json:"errors,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
	AutoFixApplied bool     `json:"auto_fix_applied"`
	FixDetails     string   `json:"fix_details,omitempty"`
}

// Retry announces another attempt after a failed validation.
type Retry struct {
	Attempt     int      `json:"attempt"`
	MaxAttempts int      `json:"max_attempts"`
	Reason      string   `json:"reason"`
	Errors      []string `json:"errors,omitempty"`
}

// Metrics carries run accounting attached to terminal events.
type Metrics struct {
	TotalTimeMs int64 `json:"total_time_ms"`
	LLMCalls    int   `json:"llm_calls_count"`
}

// Completion is the successful (or best-effort) end of a run. Success is
// true only when the delivered artifact validated cleanly; a best-effort
// artifact arrives with Success false and the residual defects listed as
// validation warnings.
type Completion struct {
	Success        bool        `json:"success"`
	Title          string      `json:"title"`
	FileName       string      `json:"file_name"`
	StoryID        string      `json:"story_id"`
	Summary        string      `json:"summary"`
	ComponentsUsed []string    `json:"components_used,omitempty"`
	LayoutChoices  []string    `json:"layout_choices,omitempty"`
	StyleChoices   []string    `json:"style_choices,omitempty"`
	Validation     *Validation `json:"validation,omitempty"`
	Metrics        Metrics     `json:"metrics"`
	Artifact       string      `json:"artifact,omitempty"`
}

// Failure is the terminal error payload. Recoverable marks errors the
// caller may retry by resubmitting the request; transport and
// configuration failures are not.
type Failure struct {
	Code        string  `json:"code"`
	Message     string  `json:"message"`
	Details     string  `json:"details,omitempty"`
	Recoverable bool    `json:"recoverable"`
	Suggestion  string  `json:"suggestion,omitempty"`
	Metrics     Metrics `json:"metrics"`
}
