package evol

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Bounds for the per-run question target.
const (
	MinTargetQuestions     = 3
	MaxTargetQuestions     = 15
	DefaultTargetQuestions = 9
)

// Config holds tuning knobs for the pipeline. Zero values are filled in
// from DefaultConfig by LoadConfig; direct constructors should start from
// DefaultConfig and override fields.
type Config struct {
	// Model is the generation model name (e.g. "gemini-2.0-flash-exp").
	Model string `yaml:"model"`
	// Temperature for generation. The evolution prompts want some variety.
	Temperature float32 `yaml:"temperature"`
	// TargetQuestions is the default per-run question target when the
	// caller does not specify one. Bounded to [3, 15].
	TargetQuestions int `yaml:"target_questions"`
	// SeedExcerptChars bounds the document excerpt in seed prompts.
	SeedExcerptChars int `yaml:"seed_excerpt_chars"`
	// AnswerContextChars bounds the combined context in answer prompts.
	AnswerContextChars int `yaml:"answer_context_chars"`
	// ContextExcerptChars bounds each excerpt in a context bundle.
	ContextExcerptChars int `yaml:"context_excerpt_chars"`
	// CallTimeout applies to every individual backend call.
	CallTimeout time.Duration `yaml:"call_timeout"`
	// Workers bounds concurrent backend calls within one stage.
	Workers int `yaml:"workers"`
	// TemplateSeed seeds simple-evolution template selection. Zero means
	// time-based (non-deterministic); tests set it for reproducibility.
	TemplateSeed int64 `yaml:"template_seed"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Model:               "gemini-2.0-flash-exp",
		Temperature:         0.7,
		TargetQuestions:     DefaultTargetQuestions,
		SeedExcerptChars:    1000,
		AnswerContextChars:  3000,
		ContextExcerptChars: 500,
		CallTimeout:         30 * time.Second,
		Workers:             3,
	}
}

// UnmarshalYAML decodes the config, accepting "30s" style durations for
// call_timeout. Fields absent from the document keep their prior values.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	aux := struct {
		Model               string  `yaml:"model"`
		Temperature         float32 `yaml:"temperature"`
		TargetQuestions     int     `yaml:"target_questions"`
		SeedExcerptChars    int     `yaml:"seed_excerpt_chars"`
		AnswerContextChars  int     `yaml:"answer_context_chars"`
		ContextExcerptChars int     `yaml:"context_excerpt_chars"`
		CallTimeout         string  `yaml:"call_timeout"`
		Workers             int     `yaml:"workers"`
		TemplateSeed        int64   `yaml:"template_seed"`
	}{
		Model:               c.Model,
		Temperature:         c.Temperature,
		TargetQuestions:     c.TargetQuestions,
		SeedExcerptChars:    c.SeedExcerptChars,
		AnswerContextChars:  c.AnswerContextChars,
		ContextExcerptChars: c.ContextExcerptChars,
		Workers:             c.Workers,
		TemplateSeed:        c.TemplateSeed,
	}
	if err := value.Decode(&aux); err != nil {
		return err
	}

	c.Model = aux.Model
	c.Temperature = aux.Temperature
	c.TargetQuestions = aux.TargetQuestions
	c.SeedExcerptChars = aux.SeedExcerptChars
	c.AnswerContextChars = aux.AnswerContextChars
	c.ContextExcerptChars = aux.ContextExcerptChars
	c.Workers = aux.Workers
	c.TemplateSeed = aux.TemplateSeed

	if aux.CallTimeout != "" {
		d, err := time.ParseDuration(aux.CallTimeout)
		if err != nil {
			return fmt.Errorf("call_timeout: %w", err)
		}
		c.CallTimeout = d
	}
	return nil
}

// LoadConfig reads a YAML config file and overlays it on the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.Model == "" {
		c.Model = def.Model
	}
	if c.TargetQuestions == 0 {
		c.TargetQuestions = def.TargetQuestions
	}
	if c.SeedExcerptChars <= 0 {
		c.SeedExcerptChars = def.SeedExcerptChars
	}
	if c.AnswerContextChars <= 0 {
		c.AnswerContextChars = def.AnswerContextChars
	}
	if c.ContextExcerptChars <= 0 {
		c.ContextExcerptChars = def.ContextExcerptChars
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = def.CallTimeout
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
}

// PerTypeCap derives the per-evolution-type question cap from a run target.
func PerTypeCap(target int) int {
	return target / len(EvolutionTypes)
}
