// Package orchestrator drives the narrator/critic turn loop: it asks the
// director for the next step, builds the prompt, invokes the generation
// backend with bounded retries, and accumulates the transcript. One
// orchestrator may serve many concurrent runs; each run owns its own
// conversation state.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jwebster45206/dialogue-engine/internal/config"
	"github.com/jwebster45206/dialogue-engine/internal/logger"
	"github.com/jwebster45206/dialogue-engine/internal/services"
	"github.com/jwebster45206/dialogue-engine/pkg/chat"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/director"
	"github.com/jwebster45206/dialogue-engine/pkg/prompts"
	"github.com/jwebster45206/dialogue-engine/pkg/textfilter"
	"github.com/jwebster45206/dialogue-engine/pkg/theme"
)

// TurnObserver is notified after each turn is appended. Used by the console
// to display the exchange live; nil is fine.
type TurnObserver func(dialogue.Turn)

// Orchestrator executes dialogue runs against a generation backend.
type Orchestrator struct {
	llm      services.LLMService
	cfg      *config.Config
	detector director.ContradictionDetector
	cleaner  *textfilter.Cleaner
	log      *slog.Logger
	onTurn   TurnObserver
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDetector replaces the contradiction detection strategy.
func WithDetector(d director.ContradictionDetector) Option {
	return func(o *Orchestrator) { o.detector = d }
}

// WithTurnObserver registers a per-turn callback.
func WithTurnObserver(fn TurnObserver) Option {
	return func(o *Orchestrator) { o.onTurn = fn }
}

// WithObserver returns a copy of the orchestrator that reports turns to fn.
// The copy shares the backend and configuration, so it is cheap to make one
// per run.
func (o *Orchestrator) WithObserver(fn TurnObserver) *Orchestrator {
	c := *o
	c.onTurn = fn
	return &c
}

// New creates an orchestrator.
func New(llm services.LLMService, cfg *config.Config, log *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		llm:      llm,
		cfg:      cfg,
		detector: director.KeywordDetector{},
		cleaner:  textfilter.NewCleaner(),
		log:      log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one dialogue to completion. maxTurns overrides the configured
// bound when positive.
//
// Configuration errors and invariant violations are returned as errors;
// backend failures past the retry bound and cancellation degrade the run to
// a truncated transcript instead. A returned transcript always reports how
// the run ended, and for truncated runs, at which turn index and why.
func (o *Orchestrator) Run(ctx context.Context, t *theme.ThemeConfig, maxTurns int) (*dialogue.Transcript, error) {
	if t == nil {
		return nil, &theme.ConfigError{Field: "theme", Reason: "is required"}
	}
	// Fail fast, before any turn executes.
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if maxTurns <= 0 {
		maxTurns = o.cfg.MaxTurns
	}

	runID := uuid.New()
	log := logger.WithRunID(o.log, runID.String()).With("theme", t.Name)
	log.Info("Dialogue run starting", "max_turns", maxTurns)

	sd := director.New(director.Thresholds{
		MaxTurns:           maxTurns,
		MinResolutionTurns: o.cfg.MinResolutionTurns,
		MaxContradictions:  o.cfg.MaxContradictions,
	}, o.detector)

	state := dialogue.NewConversationState()

	for {
		// Cancellation is honored between turns only; an in-flight backend
		// call always completes or fails before the run winds down.
		if ctx.Err() != nil {
			log.Info("Dialogue run cancelled", "turns", state.Len())
			return dialogue.NewTranscript(runID, t.Name, state, dialogue.StatusTruncatedByCancel, "cancelled between turns"), nil
		}

		decision := sd.Decide(state, t)
		if decision.Terminal() {
			log.Info("Dialogue run complete", "turns", state.Len(), "reason", decision.Reason,
				"contradictions", state.ContradictionCount())
			return dialogue.NewTranscript(runID, t.Name, state, dialogue.StatusComplete, ""), nil
		}

		log.Debug("Director decision",
			"next_role", decision.NextRole,
			"action", decision.Action,
			"focus_point", decision.FocusPoint,
			"reason", decision.Reason)

		msgs, err := prompts.BuildMessages(decision.NextRole, t, state.Snapshot(prompts.DefaultHistoryWindow), decision)
		if err != nil {
			return nil, fmt.Errorf("failed to build prompt for turn %d: %w", state.Len(), err)
		}

		text, genErr := o.generateWithRetry(ctx, log, decision.NextRole, msgs)
		if genErr != nil {
			if ctx.Err() != nil {
				log.Info("Dialogue run cancelled during generation", "turns", state.Len())
				return dialogue.NewTranscript(runID, t.Name, state, dialogue.StatusTruncatedByCancel, "cancelled between turns"), nil
			}
			reason := fmt.Sprintf("backend failed at turn %d after %d retries: %v", state.Len(), o.cfg.RetryBound, genErr)
			log.Error("Dialogue run truncated", "turn", state.Len(), "error", genErr)
			return dialogue.NewTranscript(runID, t.Name, state, dialogue.StatusTruncatedByError, reason), nil
		}

		turn := o.buildTurn(state.Len(), decision, t, text)
		if err := state.Append(turn); err != nil {
			// An invariant violation is a logic defect; never recovered.
			return nil, err
		}
		if o.onTurn != nil {
			o.onTurn(turn)
		}

		log.Debug("Turn appended", "index", turn.Index, "role", turn.Role,
			"pattern", turn.Pattern, "flagged", turn.FlaggedContradiction)
	}
}

// generateWithRetry invokes the backend, retrying the identical prompt up to
// the configured bound on backend errors. Other errors are returned as-is.
func (o *Orchestrator) generateWithRetry(ctx context.Context, log *slog.Logger, role dialogue.Role, msgs []chat.ChatMessage) (string, error) {
	rp := o.cfg.ParamsFor(string(role))

	var lastErr error
	for attempt := 0; attempt <= o.cfg.RetryBound; attempt++ {
		resp, err := o.llm.GetChatResponse(ctx, rp.Model, msgs, rp.Params)
		if err == nil {
			return o.cleanFor(role, resp.Message), nil
		}
		lastErr = err

		var be *services.BackendError
		if !errors.As(err, &be) || ctx.Err() != nil {
			// Not a transient backend fault, or the run is being cancelled.
			return "", err
		}
		if attempt < o.cfg.RetryBound {
			log.Warn("Generation failed, retrying with same prompt",
				"role", role, "attempt", attempt+1, "kind", be.Kind, "error", err)
		}
	}
	return "", lastErr
}

func (o *Orchestrator) cleanFor(role dialogue.Role, text string) string {
	if role == dialogue.RoleCritic {
		return o.cleaner.CleanCritic(text)
	}
	return o.cleaner.CleanNarrator(text)
}

// buildTurn constructs the immutable turn record. Critic turns are
// classified and checked for contradictions before appending, since a turn
// is never mutated afterward.
func (o *Orchestrator) buildTurn(index int, d director.Decision, t *theme.ThemeConfig, text string) dialogue.Turn {
	turn := dialogue.Turn{
		Index: index,
		Role:  d.NextRole,
		Text:  text,
	}
	if d.NextRole == dialogue.RoleCritic {
		turn.FlaggedContradiction = o.detector.Detect(text, t.Facts)
		turn.Pattern = director.Classify(text, turn.FlaggedContradiction)
		turn.FocusPoint = d.FocusPoint
	}
	return turn
}
