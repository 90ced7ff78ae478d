// Package evol implements the Evol-Instruct synthetic data pipeline:
// seed questions are generated from source documents, evolved along three
// complexity axes, then answered and paired with supporting contexts.
package evol

// EvolutionType classifies how a seed question was made harder.
type EvolutionType string

const (
	// EvolutionSimple adds constraints, depth or extra conditions to a seed.
	EvolutionSimple EvolutionType = "simple"
	// EvolutionMultiContext recasts a seed to require synthesis across documents.
	EvolutionMultiContext EvolutionType = "multi_context"
	// EvolutionReasoning recasts a seed as a conditional/causal question.
	EvolutionReasoning EvolutionType = "reasoning"
)

// EvolutionTypes lists all evolution types in pipeline order.
var EvolutionTypes = []EvolutionType{EvolutionSimple, EvolutionMultiContext, EvolutionReasoning}

// Valid reports whether t is a known evolution type.
func (t EvolutionType) Valid() bool {
	switch t {
	case EvolutionSimple, EvolutionMultiContext, EvolutionReasoning:
		return true
	}
	return false
}

// Document is a normalized input document. It is owned by the caller and
// read-only to the pipeline.
type Document struct {
	Content  string         `json:"page_content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SeedQuestion is a first-pass question generated from one source document.
type SeedQuestion struct {
	ID             string `json:"id"`
	Question       string `json:"question"`
	SourceDocIndex int    `json:"source_doc_index"`
}

// EvolvedQuestion is the output of one evolution stage. ParentSeedID is a
// non-owning back-reference used for lookup only.
type EvolvedQuestion struct {
	ID            string        `json:"id"`
	Question      string        `json:"question"`
	EvolutionType EvolutionType `json:"evolution_type"`
	ParentSeedID  string        `json:"parent_seed_id"`
}

// Answer holds the generated answer for one evolved question. A question
// with no Answer is unanswered, never an empty string.
type Answer struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// ContextBundle holds the supporting document excerpts for one evolved
// question.
type ContextBundle struct {
	QuestionID string   `json:"question_id"`
	Contexts   []string `json:"contexts"`
}

// Result is the final output of one pipeline run. Fewer questions than
// requested is a valid successful outcome, not an error.
type Result struct {
	RunID            string            `json:"run_id"`
	SeedQuestions    []SeedQuestion    `json:"seed_questions"`
	EvolvedQuestions []EvolvedQuestion `json:"evolved_questions"`
	Answers          []Answer          `json:"answers"`
	ContextBundles   []ContextBundle   `json:"context_bundles"`
	TotalQuestions   int               `json:"total_questions"`
	ElapsedTime      float64           `json:"elapsed_time"`
}
