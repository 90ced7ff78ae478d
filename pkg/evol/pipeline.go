package evol

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/duynguyendang/evogen/internal/logging"
	apperrors "github.com/duynguyendang/evogen/pkg/common/errors"
)

// Phase names the orchestrator states. A run moves strictly forward
// through the generation phases and terminates in either PhaseComplete
// or PhaseAborted.
type Phase string

const (
	PhaseIdle                  Phase = "idle"
	PhaseSeedGeneration        Phase = "seed_generation"
	PhaseSimpleEvolution       Phase = "simple_evolution"
	PhaseMultiContextEvolution Phase = "multi_context_evolution"
	PhaseReasoningEvolution    Phase = "reasoning_evolution"
	PhaseAnswerGeneration      Phase = "answer_generation"
	PhaseContextExtraction     Phase = "context_extraction"
	PhaseComplete              Phase = "complete"
	PhaseAborted               Phase = "aborted"
)

// Pipeline runs the Evol-Instruct workflow: seed generation, the three
// evolution stages, answer generation and context extraction, in that
// order. Stages run sequentially; calls within a stage fan out across a
// bounded worker pool. A Pipeline is reusable across runs; each Run gets
// its own PipelineState.
type Pipeline struct {
	cfg      Config
	backend  Generator
	observer Observer
	picker   *TemplatePicker
	logger   *slog.Logger
}

// NewPipeline wires a pipeline from config, backend and an optional
// observer (nil means events are discarded).
func NewPipeline(cfg Config, backend Generator, observer Observer) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		backend:  backend,
		observer: observer,
		picker:   NewTemplatePicker(cfg.TemplateSeed),
		logger:   logging.New("pipeline"),
	}
}

// Run executes one full pipeline run over docs. target is the overall
// question target; zero means the configured default. Fewer questions
// than requested is a successful outcome; Run returns an error only for
// invalid input, cancellation, or an unreachable backend.
func (p *Pipeline) Run(ctx context.Context, docs []Document, target int) (*Result, error) {
	usable := make([]Document, 0, len(docs))
	for _, d := range docs {
		if strings.TrimSpace(d.Content) == "" {
			continue
		}
		usable = append(usable, d)
	}
	if len(usable) == 0 {
		return nil, fmt.Errorf("no usable documents provided: %w", apperrors.ErrInvalidInput)
	}

	if target == 0 {
		target = p.cfg.TargetQuestions
	}
	if target < MinTargetQuestions || target > MaxTargetQuestions {
		return nil, fmt.Errorf("target questions %d outside [%d, %d]: %w",
			target, MinTargetQuestions, MaxTargetQuestions, apperrors.ErrInvalidInput)
	}

	runID := uuid.NewString()
	perType := PerTypeCap(target)
	state := NewPipelineState(usable)
	start := time.Now()

	p.logger.Info("run started",
		"run_id", runID, "documents", len(usable), "target", target, "per_type", perType)

	stages := []struct {
		phase Phase
		fn    func(context.Context) error
	}{
		{PhaseSeedGeneration, func(ctx context.Context) error {
			return p.generateSeeds(ctx, state, perType)
		}},
		{PhaseSimpleEvolution, func(ctx context.Context) error {
			return p.evolveSeeds(ctx, state, EvolutionSimple, PhaseSimpleEvolution, perType)
		}},
		{PhaseMultiContextEvolution, func(ctx context.Context) error {
			return p.evolveSeeds(ctx, state, EvolutionMultiContext, PhaseMultiContextEvolution, perType)
		}},
		{PhaseReasoningEvolution, func(ctx context.Context) error {
			return p.evolveSeeds(ctx, state, EvolutionReasoning, PhaseReasoningEvolution, perType)
		}},
		{PhaseAnswerGeneration, func(ctx context.Context) error {
			return p.generateAnswers(ctx, state)
		}},
		{PhaseContextExtraction, func(ctx context.Context) error {
			return p.extractContexts(ctx, state)
		}},
	}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, p.abort(runID, stage.phase, err)
		}
		err := timedPhase(p.observer, stage.phase, func() error {
			return stage.fn(ctx)
		})
		if err != nil {
			return nil, p.abort(runID, stage.phase, err)
		}
	}

	elapsed := time.Since(start).Seconds()
	result := &Result{
		RunID:            runID,
		SeedQuestions:    state.SeedQuestions,
		EvolvedQuestions: state.EvolvedQuestions,
		Answers:          state.Answers,
		ContextBundles:   state.ContextBundles,
		TotalQuestions:   len(state.EvolvedQuestions),
		ElapsedTime:      elapsed,
	}

	emitEvent(p.observer, Event{
		Type:    EventComplete,
		Phase:   PhaseComplete,
		Message: "pipeline complete",
		Details: map[string]any{
			"run_id":          runID,
			"total_questions": result.TotalQuestions,
			"elapsed":         elapsed,
		},
	})
	p.logger.Info("run complete",
		"run_id", runID, "total_questions", result.TotalQuestions, "elapsed", elapsed)
	return result, nil
}

// abort emits the single error event for a failed run and returns the
// cause. Partial state is discarded; an aborted run yields no result.
func (p *Pipeline) abort(runID string, phase Phase, cause error) error {
	emitEvent(p.observer, Event{
		Type:    EventError,
		Phase:   PhaseAborted,
		Message: cause.Error(),
		Details: map[string]any{"run_id": runID, "failed_phase": string(phase)},
	})
	p.logger.Error("run aborted", "run_id", runID, "phase", phase, "error", cause)
	return fmt.Errorf("pipeline aborted in %s: %w", phase, cause)
}
