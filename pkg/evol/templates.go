package evol

import (
	"math/rand"
	"sync"
	"time"
)

// simpleEvolutionTemplates are the rewrite operations for simple evolution.
// One is picked at random per seed; each embeds the seed question via %s.
var simpleEvolutionTemplates = []string{
	"Add specific constraints or conditions to make this question more challenging and detailed: %s",
	"Deepen this question by asking for more comprehensive analysis and explanation: %s",
	"Make this question more complex by incorporating multiple related aspects or variables: %s",
	"Transform this question to require step-by-step reasoning or methodology: %s",
	"Add real-world application context to make this question more practical: %s",
}

// TemplatePicker selects simple-evolution templates. It is safe for
// concurrent use; a fixed seed makes the selection sequence reproducible.
type TemplatePicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewTemplatePicker returns a picker seeded with seed, or with the current
// time when seed is zero.
func NewTemplatePicker(seed int64) *TemplatePicker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &TemplatePicker{rng: rand.New(rand.NewSource(seed))}
}

// Pick returns one simple-evolution template.
func (p *TemplatePicker) Pick() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return simpleEvolutionTemplates[p.rng.Intn(len(simpleEvolutionTemplates))]
}
