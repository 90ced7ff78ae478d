package evol

import (
	"fmt"
	"strings"
)

// PipelineState is the single mutable aggregate threaded through the
// pipeline stages. The orchestrator holds exclusive ownership for the
// duration of one run; only the currently executing stage writes to it,
// so no locking is needed.
//
// Referential invariants are enforced at append time: an evolved question
// must reference an existing seed, and answers/context bundles must
// reference an existing evolved question.
type PipelineState struct {
	Documents        []Document
	SeedQuestions    []SeedQuestion
	EvolvedQuestions []EvolvedQuestion
	Answers          []Answer
	ContextBundles   []ContextBundle

	seedIDs     map[string]bool
	questionIDs map[string]bool
}

// NewPipelineState constructs the state for one run from the input documents.
func NewPipelineState(docs []Document) *PipelineState {
	return &PipelineState{
		Documents:   docs,
		seedIDs:     make(map[string]bool),
		questionIDs: make(map[string]bool),
	}
}

// AddSeed appends a seed question after validating it.
func (s *PipelineState) AddSeed(q SeedQuestion) error {
	if q.ID == "" || strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("seed question %q is incomplete", q.ID)
	}
	if q.SourceDocIndex < 0 || q.SourceDocIndex >= len(s.Documents) {
		return fmt.Errorf("seed %s references document %d of %d", q.ID, q.SourceDocIndex, len(s.Documents))
	}
	if s.seedIDs[q.ID] {
		return fmt.Errorf("duplicate seed id %s", q.ID)
	}
	s.SeedQuestions = append(s.SeedQuestions, q)
	s.seedIDs[q.ID] = true
	return nil
}

// AddEvolved appends an evolved question. The parent seed must exist in
// this run.
func (s *PipelineState) AddEvolved(q EvolvedQuestion) error {
	if q.ID == "" || strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("evolved question %q is incomplete", q.ID)
	}
	if !q.EvolutionType.Valid() {
		return fmt.Errorf("evolved question %s has unknown type %q", q.ID, q.EvolutionType)
	}
	if !s.seedIDs[q.ParentSeedID] {
		return fmt.Errorf("evolved question %s references unknown seed %q", q.ID, q.ParentSeedID)
	}
	if s.questionIDs[q.ID] {
		return fmt.Errorf("duplicate question id %s", q.ID)
	}
	s.EvolvedQuestions = append(s.EvolvedQuestions, q)
	s.questionIDs[q.ID] = true
	return nil
}

// AddAnswer appends an answer. Answers are never created for unknown
// questions.
func (s *PipelineState) AddAnswer(a Answer) error {
	if !s.questionIDs[a.QuestionID] {
		return fmt.Errorf("answer references unknown question %q", a.QuestionID)
	}
	if strings.TrimSpace(a.Answer) == "" {
		return fmt.Errorf("answer for %s is empty", a.QuestionID)
	}
	s.Answers = append(s.Answers, a)
	return nil
}

// AddContextBundle appends a context bundle with the same referential
// check as AddAnswer.
func (s *PipelineState) AddContextBundle(b ContextBundle) error {
	if !s.questionIDs[b.QuestionID] {
		return fmt.Errorf("context bundle references unknown question %q", b.QuestionID)
	}
	s.ContextBundles = append(s.ContextBundles, b)
	return nil
}

// HasQuestion reports whether an evolved question with the given id exists.
func (s *PipelineState) HasQuestion(id string) bool {
	return s.questionIDs[id]
}

// CountByType returns how many evolved questions of the given type exist.
func (s *PipelineState) CountByType(t EvolutionType) int {
	n := 0
	for _, q := range s.EvolvedQuestions {
		if q.EvolutionType == t {
			n++
		}
	}
	return n
}
