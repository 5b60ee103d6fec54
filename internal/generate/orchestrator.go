package generate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/storyforge/internal/capability"
	"github.com/user/storyforge/internal/progress"
	"github.com/user/storyforge/internal/prompt"
	"github.com/user/storyforge/internal/types"
	"github.com/user/storyforge/internal/validate"
	"github.com/user/storyforge/pkg/llm"
)

// State is the orchestrator's position in the generation loop. Transitions
// are explicit and each one maps to exactly one outward event.
type State string

const (
	StateInit          State = "init"
	StateCallingModel  State = "calling_model"
	StateExtracting    State = "extracting"
	StateValidating    State = "validating"
	StateClean         State = "clean"
	StateRetryDeciding State = "retry_deciding"
	StateDone          State = "done"
)

const totalSteps = 8

// Orchestrator drives one generation request through the model-call,
// extraction, validation, and retry cycle until it converges or gives up.
// It never panics or returns past its boundary: every run ends with either
// a completion or an error event, which Run also returns to the caller.
type Orchestrator struct {
	provider   llm.Provider
	discoverer capability.Discoverer
	prompts    *prompt.Builder
	stories    types.StoryStore
	retry      *RetryPolicy
	model      string
	logger     *slog.Logger
}

// NewOrchestrator wires an orchestrator to its collaborators. retry may be
// nil for the default policy; model is only used for progress details.
func NewOrchestrator(
	provider llm.Provider,
	discoverer capability.Discoverer,
	prompts *prompt.Builder,
	stories types.StoryStore,
	retry *RetryPolicy,
	model string,
	logger *slog.Logger,
) *Orchestrator {
	if retry == nil {
		retry = DefaultRetryPolicy()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		provider:   provider,
		discoverer: discoverer,
		prompts:    prompts,
		stories:    stories,
		retry:      retry,
		model:      model,
		logger:     logger,
	}
}

func (o *Orchestrator) transition(runID types.RunID, from, to State) State {
	o.logger.Debug("orchestrator transition", "run_id", string(runID), "from", string(from), "to", string(to))
	return to
}

// Run executes one generation request to its terminal event. The returned
// event is the completion or error that ended the stream; it has already
// been emitted. Attempts within the run are strictly sequential; the
// context is checked at every suspension point, and a canceled run stops
// without persisting an artifact.
func (o *Orchestrator) Run(ctx context.Context, runID types.RunID, req types.GenerateRequest, index *types.SessionIndex, em *progress.Emitter) progress.Event {
	sess := NewSession(req, index, nil)
	state := StateInit

	metrics := func() progress.Metrics {
		ms, calls := sess.Metrics()
		return progress.Metrics{TotalTimeMs: ms, LLMCalls: calls}
	}
	fail := func(code, message, details, suggestion string, recoverable bool) progress.Event {
		f := progress.Failure{
			Code:        code,
			Message:     message,
			Details:     details,
			Recoverable: recoverable,
			Suggestion:  suggestion,
			Metrics:     metrics(),
		}
		em.Error(ctx, f)
		o.transition(runID, state, StateDone)
		return progress.Event{Kind: progress.KindError, At: time.Now(), Error: &f}
	}

	em.Step(ctx, 1, totalSteps, progress.PhaseConfigLoaded, "configuration loaded", "model "+o.model)

	catalogName := req.Catalog
	if catalogName == "" && index != nil {
		catalogName = index.Catalog
	}
	if catalogName == "" {
		catalogName = "default"
	}
	catalog, err := o.discoverer.Discover(ctx, catalogName)
	if err != nil {
		return fail("capability_discovery_failed",
			fmt.Sprintf("capability catalog %q could not be loaded", catalogName),
			err.Error(),
			"check capability.catalog_path and the catalog file",
			false)
	}
	em.Step(ctx, 2, totalSteps, progress.PhaseComponentsDiscovered,
		fmt.Sprintf("discovered %d components", len(catalog.Components)),
		"catalog "+catalog.Name)

	em.Intent(ctx, AnalyzeIntent(req, catalog, index))

	sess.Transcript = o.prompts.Initial(catalog, req)
	em.Step(ctx, 3, totalSteps, progress.PhasePromptBuilt, "prompt assembled", "")

	var chosen types.Attempt
	success := false

	for attempt := 1; ; attempt++ {
		state = o.transition(runID, state, StateCallingModel)
		em.Step(ctx, 4, totalSteps, progress.PhaseLLMThinking, "waiting for the model",
			fmt.Sprintf("attempt %d of %d", attempt, o.retry.MaxAttempts))

		resp, err := o.provider.Complete(ctx, sess.Transcript)
		if err != nil {
			if ctx.Err() != nil {
				return fail("canceled", "generation canceled", ctx.Err().Error(),
					"resubmit the request", true)
			}
			return fail("llm_call_failed", "model call failed", err.Error(),
				"check llm.base_url and llm.api_key", false)
		}
		sess.LLMCalls++
		sess.Reply(resp.Content)

		state = o.transition(runID, state, StateExtracting)
		artifact, xerr := Extract(resp.Content)
		if xerr != nil {
			sess.Archive.Add(types.Attempt{Ordinal: attempt})
			state = o.transition(runID, state, StateRetryDeciding)
			dec := o.retry.Decide(sess.Archive.History())
			if !dec.Retry {
				break
			}
			em.Retry(ctx, attempt+1, o.retry.MaxAttempts,
				retryMessage(attempt, types.Diagnostics{}), nil)
			sess.Ask(ClarifyTurn())
			continue
		}
		em.Step(ctx, 5, totalSteps, progress.PhaseCodeExtracted, "story document extracted", "")

		state = o.transition(runID, state, StateValidating)
		em.Step(ctx, 6, totalSteps, progress.PhaseValidating, "validating story document", "")
		res := validate.Run(artifact, catalog)
		att := types.Attempt{
			Ordinal:     attempt,
			Artifact:    res.Artifact,
			HasArtifact: true,
			Diagnostics: res.Diagnostics,
		}
		sess.Archive.Add(att)
		em.Validation(ctx, progress.Validation{
			IsValid:        res.Diagnostics.Clean(),
			Errors:         res.Diagnostics.Messages(),
			AutoFixApplied: res.AutoFixApplied,
			FixDetails:     res.FixDetails,
		})

		if res.Diagnostics.Clean() {
			state = o.transition(runID, state, StateClean)
			chosen, success = att, true
			break
		}

		state = o.transition(runID, state, StateRetryDeciding)
		dec := o.retry.Decide(sess.Archive.History())
		if !dec.Retry {
			o.logger.Info("retry loop stopped", "run_id", string(runID),
				"reason", dec.Reason, "attempts", sess.Archive.Len())
			break
		}
		em.Retry(ctx, attempt+1, o.retry.MaxAttempts,
			retryMessage(attempt, res.Diagnostics), res.Diagnostics.Messages())
		sess.Ask(CorrectionTurn(res.Diagnostics))

		if ctx.Err() != nil {
			return fail("canceled", "generation canceled", ctx.Err().Error(),
				"resubmit the request", true)
		}
	}

	if !success {
		best, ok := sess.Archive.Best()
		if !ok {
			return fail("no_artifact",
				fmt.Sprintf("the model produced no parseable story document in %d attempt(s)", sess.Archive.Len()),
				"", "rephrase the request or try a more capable model", true)
		}
		chosen = best
	}

	if ctx.Err() != nil {
		return fail("canceled", "generation canceled", ctx.Err().Error(),
			"resubmit the request", true)
	}

	em.Step(ctx, 7, totalSteps, progress.PhasePostProcessing, "summarizing story", "")
	facts := inspect(chosen.Artifact)
	title := facts.Title
	if title == "" {
		title = "Untitled"
	}
	warnings := chosen.Diagnostics.Messages()

	em.Step(ctx, 8, totalSteps, progress.PhaseSaving, "saving story", "")
	var sessionID types.SessionID
	if index != nil {
		sessionID = index.SessionID
	}
	meta, err := o.stories.Save(ctx, sessionID, runID, title, chosen.Artifact)
	if err != nil {
		return fail("save_failed", "could not persist story", err.Error(),
			"check data_dir exists and is writable", true)
	}

	c := progress.Completion{
		Success:        success,
		Title:          title,
		FileName:       meta.FileName,
		StoryID:        string(meta.ID),
		Summary:        summarize(facts, success, len(warnings)),
		ComponentsUsed: facts.Components,
		LayoutChoices:  facts.Layout,
		StyleChoices:   facts.Style,
		Validation: &progress.Validation{
			IsValid:  success,
			Warnings: warnings,
		},
		Metrics:  metrics(),
		Artifact: chosen.Artifact,
	}
	em.Completion(ctx, c)
	o.transition(runID, state, StateDone)
	return progress.Event{Kind: progress.KindCompletion, At: time.Now(), Completion: &c}
}
