package evol

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/duynguyendang/evogen/pkg/common/errors"
)

// fakeGenerator answers prompts by recognizing which stage built them.
// An optional fail hook injects errors for matching prompts.
type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	fail  func(prompt string) error
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if f.fail != nil {
		if err := f.fail(prompt); err != nil {
			return "", err
		}
	}

	switch {
	case strings.Contains(prompt, "generate one clear, specific question"):
		return fmt.Sprintf("What does source passage %d describe?", n), nil
	case strings.Contains(prompt, "expert at evolving questions"):
		return fmt.Sprintf("Under which constraints does passage %d hold?", n), nil
	case strings.Contains(prompt, "synthesizing information from multiple documents"):
		return fmt.Sprintf("How do the documents relate on point %d?", n), nil
	case strings.Contains(prompt, "examines multiple aspects"):
		return fmt.Sprintf("What facets does topic %d have?", n), nil
	case strings.Contains(prompt, "logical reasoning, cause-effect analysis"):
		return fmt.Sprintf("If condition %d occurs, what follows?", n), nil
	case strings.Contains(prompt, "Answer the following question"):
		return fmt.Sprintf("Detailed answer %d based on the context.", n), nil
	}
	return "", fmt.Errorf("unrecognized prompt")
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.CallTimeout = 2 * time.Second
	cfg.TemplateSeed = 7
	return cfg
}

func testDocs(n int) []Document {
	docs := make([]Document, n)
	for i := range docs {
		docs[i] = Document{
			Content:  fmt.Sprintf("Document %d body with enough content to generate questions from.", i),
			Metadata: map[string]any{"index": i},
		}
	}
	return docs
}

func TestPipelineHappyPath(t *testing.T) {
	tc := &TraceCollector{}
	p := NewPipeline(testConfig(), &fakeGenerator{}, tc)

	result, err := p.Run(context.Background(), testDocs(3), 9)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.RunID)
	assert.Len(t, result.SeedQuestions, 3)
	assert.Len(t, result.EvolvedQuestions, 9)
	assert.Equal(t, 9, result.TotalQuestions)
	assert.Len(t, result.Answers, 9)
	assert.Len(t, result.ContextBundles, 9)
	assert.GreaterOrEqual(t, result.ElapsedTime, 0.0)

	byType := map[EvolutionType]int{}
	for _, q := range result.EvolvedQuestions {
		byType[q.EvolutionType]++
	}
	for _, typ := range EvolutionTypes {
		assert.Equal(t, 3, byType[typ], "type %s", typ)
	}

	// Every evolved question traces back to a seed of this run.
	seedIDs := map[string]bool{}
	for _, s := range result.SeedQuestions {
		seedIDs[s.ID] = true
	}
	for _, q := range result.EvolvedQuestions {
		assert.True(t, seedIDs[q.ParentSeedID], "question %s has orphan parent %s", q.ID, q.ParentSeedID)
	}

	// One start and one complete per phase, one terminal complete event.
	assert.Len(t, tc.EventsOfType(EventPhaseStart), 6)
	assert.Len(t, tc.EventsOfType(EventPhaseComplete), 6)
	assert.Len(t, tc.EventsOfType(EventComplete), 1)
	assert.Empty(t, tc.EventsOfType(EventError))

	phases := []Phase{}
	for _, e := range tc.EventsOfType(EventPhaseStart) {
		phases = append(phases, e.Phase)
	}
	assert.Equal(t, []Phase{
		PhaseSeedGeneration,
		PhaseSimpleEvolution,
		PhaseMultiContextEvolution,
		PhaseReasoningEvolution,
		PhaseAnswerGeneration,
		PhaseContextExtraction,
	}, phases)
}

func TestPipelineSingleDocumentFallsBack(t *testing.T) {
	tc := &TraceCollector{}
	p := NewPipeline(testConfig(), &fakeGenerator{}, tc)

	result, err := p.Run(context.Background(), testDocs(1), 9)
	require.NoError(t, err)

	// One document yields one seed, so at most one question per type.
	assert.Len(t, result.SeedQuestions, 1)
	assert.Len(t, result.EvolvedQuestions, 3)
	for _, typ := range EvolutionTypes {
		count := 0
		for _, q := range result.EvolvedQuestions {
			if q.EvolutionType == typ {
				count++
			}
		}
		assert.Equal(t, 1, count, "type %s", typ)
	}

	// The multi-context question still carries its type despite the
	// single-document fallback.
	warned := false
	for _, e := range tc.EventsOfType(EventWarning) {
		if e.Phase == PhaseMultiContextEvolution {
			warned = true
		}
	}
	assert.True(t, warned, "expected fallback warning")
}

func TestPipelineRejectsEmptyDocuments(t *testing.T) {
	tc := &TraceCollector{}
	p := NewPipeline(testConfig(), &fakeGenerator{}, tc)

	for _, docs := range [][]Document{
		nil,
		{},
		{{Content: "   "}, {Content: "\n\t"}},
	} {
		result, err := p.Run(context.Background(), docs, 9)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	}

	// Rejected runs never start a phase.
	assert.Empty(t, tc.EventsOfType(EventPhaseStart))
}

func TestPipelineRejectsTargetOutOfBounds(t *testing.T) {
	p := NewPipeline(testConfig(), &fakeGenerator{}, nil)

	for _, target := range []int{1, 2, 16, 100, -3} {
		result, err := p.Run(context.Background(), testDocs(2), target)
		assert.Nil(t, result, "target %d", target)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput, "target %d", target)
	}
}

func TestPipelineZeroTargetUsesDefault(t *testing.T) {
	p := NewPipeline(testConfig(), &fakeGenerator{}, nil)

	result, err := p.Run(context.Background(), testDocs(3), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTargetQuestions, result.TotalQuestions)
}

func TestPipelineSkipsFailedItems(t *testing.T) {
	// One reasoning call fails; the run still completes with the rest.
	var failed bool
	var mu sync.Mutex
	gen := &fakeGenerator{
		fail: func(prompt string) error {
			if !strings.Contains(prompt, "logical reasoning, cause-effect analysis") {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			if failed {
				return nil
			}
			failed = true
			return fmt.Errorf("transient model error")
		},
	}

	tc := &TraceCollector{}
	p := NewPipeline(testConfig(), gen, tc)

	result, err := p.Run(context.Background(), testDocs(3), 9)
	require.NoError(t, err)

	reasoning := 0
	for _, q := range result.EvolvedQuestions {
		if q.EvolutionType == EvolutionReasoning {
			reasoning++
		}
	}
	assert.Equal(t, 2, reasoning)
	assert.Equal(t, 8, result.TotalQuestions)
	assert.Len(t, tc.EventsOfType(EventComplete), 1)
	assert.Empty(t, tc.EventsOfType(EventError))
}

func TestPipelineAbortsWhenBackendUnavailable(t *testing.T) {
	gen := &fakeGenerator{
		fail: func(string) error {
			return fmt.Errorf("credentials rejected: %w", ErrBackendUnavailable)
		},
	}
	tc := &TraceCollector{}
	p := NewPipeline(testConfig(), gen, tc)

	result, err := p.Run(context.Background(), testDocs(3), 9)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)

	// Exactly one error event, and no completion.
	assert.Len(t, tc.EventsOfType(EventError), 1)
	assert.Empty(t, tc.EventsOfType(EventComplete))
	assert.Equal(t, PhaseAborted, tc.EventsOfType(EventError)[0].Phase)
}

func TestPipelineHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tc := &TraceCollector{}
	p := NewPipeline(testConfig(), &fakeGenerator{}, tc)

	result, err := p.Run(ctx, testDocs(3), 9)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, tc.EventsOfType(EventError), 1)
}

func TestPipelineUnansweredQuestionsStillGetContexts(t *testing.T) {
	// All answer calls fail; questions stay unanswered but keep their
	// context bundles.
	gen := &fakeGenerator{
		fail: func(prompt string) error {
			if strings.Contains(prompt, "Answer the following question") {
				return fmt.Errorf("transient model error")
			}
			return nil
		},
	}
	p := NewPipeline(testConfig(), gen, nil)

	result, err := p.Run(context.Background(), testDocs(3), 9)
	require.NoError(t, err)
	assert.Empty(t, result.Answers)
	assert.Len(t, result.ContextBundles, 9)
}

func TestPipelineContextBundles(t *testing.T) {
	cfg := testConfig()
	cfg.ContextExcerptChars = 20
	p := NewPipeline(cfg, &fakeGenerator{}, nil)

	result, err := p.Run(context.Background(), testDocs(4), 9)
	require.NoError(t, err)
	require.NotEmpty(t, result.ContextBundles)

	for _, b := range result.ContextBundles {
		assert.Len(t, b.Contexts, 2)
		for _, c := range b.Contexts {
			assert.LessOrEqual(t, len(c), 20)
		}
	}

	// Bundles must not share backing storage.
	result.ContextBundles[0].Contexts[0] = "mutated"
	assert.NotEqual(t, "mutated", result.ContextBundles[1].Contexts[0])
}

func TestPipelineTimeoutSkipsSlowCall(t *testing.T) {
	slow := GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "generate one clear, specific question") {
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		return "What is covered here?", nil
	})

	cfg := testConfig()
	cfg.CallTimeout = 50 * time.Millisecond
	tc := &TraceCollector{}
	p := NewPipeline(cfg, slow, tc)

	// Every seed call times out, so seeds come out empty and the run
	// completes with zero questions.
	result, err := p.Run(context.Background(), testDocs(2), 9)
	require.NoError(t, err)
	assert.Empty(t, result.SeedQuestions)
	assert.Zero(t, result.TotalQuestions)

	warned := false
	for _, e := range tc.EventsOfType(EventWarning) {
		if e.Phase == PhaseSeedGeneration {
			warned = true
		}
	}
	assert.True(t, warned, "expected zero-seed warning")
}

func TestPipelineSkipsDegenerateEvolutions(t *testing.T) {
	// The backend echoes every evolution prompt's seed verbatim, so no
	// evolved question survives the similarity guard.
	echo := GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "generate one clear, specific question") {
			return "What does the document describe?", nil
		}
		if strings.Contains(prompt, "Answer the following question") {
			return "An answer.", nil
		}
		return "What does the document describe?", nil
	})

	p := NewPipeline(testConfig(), echo, nil)
	result, err := p.Run(context.Background(), testDocs(1), 9)
	require.NoError(t, err)
	assert.Len(t, result.SeedQuestions, 1)
	assert.Empty(t, result.EvolvedQuestions)
}

func TestErrBackendUnavailableMapsToBadGateway(t *testing.T) {
	appErr := apperrors.MapError(fmt.Errorf("wrapped: %w", ErrBackendUnavailable))
	assert.Equal(t, 502, appErr.Code)
}

func TestIsDegenerateEvolution(t *testing.T) {
	assert.True(t, isDegenerateEvolution("What is a loan?", "What is a loan?"))
	assert.True(t, isDegenerateEvolution("What is a loan?", "what is a loan?"))
	assert.False(t, isDegenerateEvolution(
		"What is a loan?",
		"Under which regulatory constraints do federal loan programs operate?"))
}

func TestPipelineErrorsAreSilentOmissions(t *testing.T) {
	// A failed simple evolution never yields a placeholder question.
	gen := &fakeGenerator{
		fail: func(prompt string) error {
			if strings.Contains(prompt, "expert at evolving questions") {
				return errors.New("boom")
			}
			return nil
		},
	}
	p := NewPipeline(testConfig(), gen, nil)

	result, err := p.Run(context.Background(), testDocs(3), 9)
	require.NoError(t, err)
	for _, q := range result.EvolvedQuestions {
		assert.NotEqual(t, EvolutionSimple, q.EvolutionType)
		assert.NotEmpty(t, q.Question)
	}
	assert.Equal(t, 6, result.TotalQuestions)
}
