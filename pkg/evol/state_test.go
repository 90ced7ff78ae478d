package evol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateRejectsEvolvedWithoutSeed(t *testing.T) {
	s := NewPipelineState([]Document{{Content: "doc"}})

	err := s.AddEvolved(EvolvedQuestion{
		ID:            "simple_0",
		Question:      "evolved?",
		EvolutionType: EvolutionSimple,
		ParentSeedID:  "seed_0",
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown seed")
}

func TestStateRejectsAnswerWithoutQuestion(t *testing.T) {
	s := NewPipelineState([]Document{{Content: "doc"}})

	err := s.AddAnswer(Answer{QuestionID: "simple_0", Answer: "42"})
	assert.Error(t, err)

	err = s.AddContextBundle(ContextBundle{QuestionID: "simple_0"})
	assert.Error(t, err)
}

func TestStateHappyPath(t *testing.T) {
	s := NewPipelineState([]Document{{Content: "doc"}})

	assert.NoError(t, s.AddSeed(SeedQuestion{ID: "seed_0", Question: "q?", SourceDocIndex: 0}))
	assert.NoError(t, s.AddEvolved(EvolvedQuestion{
		ID: "reasoning_0", Question: "why?", EvolutionType: EvolutionReasoning, ParentSeedID: "seed_0",
	}))
	assert.NoError(t, s.AddAnswer(Answer{QuestionID: "reasoning_0", Answer: "because"}))
	assert.NoError(t, s.AddContextBundle(ContextBundle{QuestionID: "reasoning_0", Contexts: []string{"doc"}}))

	assert.True(t, s.HasQuestion("reasoning_0"))
	assert.Equal(t, 1, s.CountByType(EvolutionReasoning))
	assert.Equal(t, 0, s.CountByType(EvolutionSimple))
}

func TestStateRejectsDuplicatesAndBadInput(t *testing.T) {
	s := NewPipelineState([]Document{{Content: "doc"}})

	assert.NoError(t, s.AddSeed(SeedQuestion{ID: "seed_0", Question: "q?", SourceDocIndex: 0}))
	assert.Error(t, s.AddSeed(SeedQuestion{ID: "seed_0", Question: "again?", SourceDocIndex: 0}))
	assert.Error(t, s.AddSeed(SeedQuestion{ID: "seed_1", Question: "   ", SourceDocIndex: 0}))
	assert.Error(t, s.AddSeed(SeedQuestion{ID: "seed_2", Question: "q?", SourceDocIndex: 5}))

	assert.Error(t, s.AddEvolved(EvolvedQuestion{
		ID: "weird_0", Question: "q?", EvolutionType: "weird", ParentSeedID: "seed_0",
	}))
	assert.NoError(t, s.AddEvolved(EvolvedQuestion{
		ID: "simple_0", Question: "q?", EvolutionType: EvolutionSimple, ParentSeedID: "seed_0",
	}))
	assert.Error(t, s.AddEvolved(EvolvedQuestion{
		ID: "simple_0", Question: "dup", EvolutionType: EvolutionSimple, ParentSeedID: "seed_0",
	}))
	assert.Error(t, s.AddAnswer(Answer{QuestionID: "simple_0", Answer: "  "}))
}
