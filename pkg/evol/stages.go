package evol

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agext/levenshtein"
	"golang.org/x/sync/errgroup"
)

// maxMultiContextDocs bounds how many documents feed one multi-context
// prompt.
const maxMultiContextDocs = 3

// docExcerptChars bounds each document excerpt in multi-context prompts.
const docExcerptChars = 800

// degenerateSimilarity is the levenshtein similarity above which an
// evolved question is considered a near-verbatim echo of its seed and
// skipped.
const degenerateSimilarity = 0.95

// generateSeeds produces one seed question per document, up to the
// per-type cap. Whitespace-only documents and per-document generation
// failures are skipped; only a dead backend aborts the stage.
func (p *Pipeline) generateSeeds(ctx context.Context, state *PipelineState, limit int) error {
	type seedOut struct {
		question string
		docIndex int
	}
	candidates := make([]int, 0, limit)
	for i := range state.Documents {
		if len(candidates) == limit {
			break
		}
		if strings.TrimSpace(state.Documents[i].Content) == "" {
			continue
		}
		candidates = append(candidates, i)
	}

	emitEvent(p.observer, Event{
		Type:    EventStep,
		Phase:   PhaseSeedGeneration,
		Message: "generating seed questions",
		Details: map[string]any{"documents": len(candidates)},
	})

	results := make([]*seedOut, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for slot, docIdx := range candidates {
		g.Go(func() error {
			prompt := seedPrompt(state.Documents[docIdx].Content, p.cfg.SeedExcerptChars)
			text, err := generateWithTimeout(gctx, p.backend, prompt, p.cfg.CallTimeout)
			if err != nil {
				if errors.Is(err, ErrBackendUnavailable) {
					return err
				}
				p.logger.Warn("seed generation failed", "doc_index", docIdx, "error", err)
				return nil
			}
			if strings.TrimSpace(text) == "" {
				return nil
			}
			results[slot] = &seedOut{question: text, docIndex: docIdx}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Sequential append in slot order keeps seed IDs deterministic for a
	// given input regardless of goroutine scheduling.
	for _, r := range results {
		if r == nil {
			continue
		}
		seed := SeedQuestion{
			ID:             fmt.Sprintf("seed_%d", len(state.SeedQuestions)),
			Question:       r.question,
			SourceDocIndex: r.docIndex,
		}
		if err := state.AddSeed(seed); err != nil {
			p.logger.Warn("seed rejected", "error", err)
			continue
		}
		emitEvent(p.observer, Event{
			Type:    EventSuccess,
			Phase:   PhaseSeedGeneration,
			Message: "seed question generated",
			Details: map[string]any{"id": seed.ID},
		})
	}

	if len(state.SeedQuestions) == 0 {
		emitEvent(p.observer, Event{
			Type:    EventWarning,
			Phase:   PhaseSeedGeneration,
			Message: "no seed questions could be generated",
		})
	}
	return nil
}

// evolveSeeds applies one evolution type to the first limit seeds. Each
// output is index-aligned with its seed so IDs stay stable across
// concurrent generation.
func (p *Pipeline) evolveSeeds(ctx context.Context, state *PipelineState, typ EvolutionType, phase Phase, limit int) error {
	seeds := state.SeedQuestions
	if len(seeds) > limit {
		seeds = seeds[:limit]
	}

	multiContext := typ == EvolutionMultiContext && len(state.Documents) >= 2
	if typ == EvolutionMultiContext && !multiContext {
		emitEvent(p.observer, Event{
			Type:    EventWarning,
			Phase:   phase,
			Message: "fewer than two documents, falling back to single-document evolution",
		})
	}

	emitEvent(p.observer, Event{
		Type:    EventStep,
		Phase:   phase,
		Message: "evolving seed questions",
		Details: map[string]any{"seeds": len(seeds), "type": string(typ)},
	})

	results := make([]string, len(seeds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for i, seed := range seeds {
		g.Go(func() error {
			var prompt string
			switch {
			case typ == EvolutionSimple:
				prompt = simplePrompt(seed.Question, p.picker.Pick())
			case multiContext:
				docs := state.Documents
				if len(docs) > maxMultiContextDocs {
					docs = docs[:maxMultiContextDocs]
				}
				prompt = multiContextPrompt(seed.Question, docs, docExcerptChars)
			case typ == EvolutionMultiContext:
				prompt = multiAspectPrompt(seed.Question)
			default:
				prompt = reasoningPrompt(seed.Question)
			}

			text, err := generateWithTimeout(gctx, p.backend, prompt, p.cfg.CallTimeout)
			if err != nil {
				if errors.Is(err, ErrBackendUnavailable) {
					return err
				}
				p.logger.Warn("evolution failed", "type", typ, "seed", seed.ID, "error", err)
				return nil
			}
			if isDegenerateEvolution(seed.Question, text) {
				p.logger.Warn("evolution echoed seed, skipping", "type", typ, "seed", seed.ID)
				return nil
			}
			results[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, text := range results {
		if text == "" {
			continue
		}
		q := EvolvedQuestion{
			ID:            fmt.Sprintf("%s_%d", typ, i),
			Question:      text,
			EvolutionType: typ,
			ParentSeedID:  seeds[i].ID,
		}
		if err := state.AddEvolved(q); err != nil {
			p.logger.Warn("evolved question rejected", "error", err)
			continue
		}
		emitEvent(p.observer, Event{
			Type:    EventSuccess,
			Phase:   phase,
			Message: "question evolved",
			Details: map[string]any{"id": q.ID, "parent": q.ParentSeedID},
		})
	}
	return nil
}

// isDegenerateEvolution reports whether the evolved text is a
// near-verbatim copy of the seed question.
func isDegenerateEvolution(seed, evolved string) bool {
	if evolved == seed {
		return true
	}
	return levenshtein.Similarity(strings.ToLower(seed), strings.ToLower(evolved), nil) > degenerateSimilarity
}

// generateAnswers produces one answer per evolved question against the
// combined document context. Failed questions stay unanswered.
func (p *Pipeline) generateAnswers(ctx context.Context, state *PipelineState) error {
	questions := state.EvolvedQuestions
	emitEvent(p.observer, Event{
		Type:    EventStep,
		Phase:   PhaseAnswerGeneration,
		Message: "answering evolved questions",
		Details: map[string]any{"questions": len(questions)},
	})

	results := make([]string, len(questions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for i, q := range questions {
		g.Go(func() error {
			prompt := answerPrompt(q.Question, state.Documents, p.cfg.AnswerContextChars)
			text, err := generateWithTimeout(gctx, p.backend, prompt, p.cfg.CallTimeout)
			if err != nil {
				if errors.Is(err, ErrBackendUnavailable) {
					return err
				}
				p.logger.Warn("answer generation failed", "question", q.ID, "error", err)
				return nil
			}
			results[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, text := range results {
		if strings.TrimSpace(text) == "" {
			continue
		}
		a := Answer{QuestionID: questions[i].ID, Answer: text}
		if err := state.AddAnswer(a); err != nil {
			p.logger.Warn("answer rejected", "error", err)
			continue
		}
		emitEvent(p.observer, Event{
			Type:    EventSuccess,
			Phase:   PhaseAnswerGeneration,
			Message: "answer generated",
			Details: map[string]any{"question_id": a.QuestionID},
		})
	}
	return nil
}

// extractContexts pairs every evolved question with excerpts from the
// first documents. No backend calls are involved, so this stage cannot
// fail; it only honors cancellation.
func (p *Pipeline) extractContexts(ctx context.Context, state *PipelineState) error {
	docs := state.Documents
	if len(docs) > 2 {
		docs = docs[:2]
	}

	for _, q := range state.EvolvedQuestions {
		if err := ctx.Err(); err != nil {
			return err
		}
		// Fresh slice per bundle; bundles must not alias each other.
		contexts := make([]string, 0, len(docs))
		for _, doc := range docs {
			contexts = append(contexts, truncate(doc.Content, p.cfg.ContextExcerptChars))
		}
		b := ContextBundle{QuestionID: q.ID, Contexts: contexts}
		if err := state.AddContextBundle(b); err != nil {
			p.logger.Warn("context bundle rejected", "error", err)
		}
	}
	return nil
}
