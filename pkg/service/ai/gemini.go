// Package ai holds the Gemini-backed implementation of the pipeline's
// Generator interface.
package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	lru "github.com/hashicorp/golang-lru/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/duynguyendang/evogen/internal/logging"
	"github.com/duynguyendang/evogen/pkg/evol"
)

const cacheSize = 512

// GeminiService calls the Gemini API and implements evol.Generator.
// Identical prompts within one process hit an in-memory LRU cache
// instead of the API; evolution prompts embed random templates so real
// runs rarely collide, but demo runs and retries do.
type GeminiService struct {
	client *genai.Client
	model  *genai.GenerativeModel
	cache  *lru.Cache[string, string]
	logger *slog.Logger
}

// NewGeminiService builds a client for the given model. An empty apiKey
// falls back to GEMINI_API_KEY; an empty modelName falls back to
// GEMINI_MODEL, then the library default.
func NewGeminiService(ctx context.Context, apiKey, modelName string, temperature float32) (*GeminiService, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not found")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if modelName == "" {
		modelName = os.Getenv("GEMINI_MODEL")
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash-exp"
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)

	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}

	return &GeminiService{
		client: client,
		model:  model,
		cache:  cache,
		logger: logging.New("gemini"),
	}, nil
}

// Generate implements evol.Generator.
func (s *GeminiService) Generate(ctx context.Context, prompt string) (string, error) {
	key := cacheKey(prompt)
	if cached, ok := s.cache.Get(key); ok {
		s.logger.Debug("cache hit", "key", key[:12])
		return cached, nil
	}

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		if isAuthError(err) {
			return "", fmt.Errorf("gemini rejected credentials: %w", evol.ErrBackendUnavailable)
		}
		s.logger.Warn("generate content failed", "error", err)
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini returned empty response")
	}

	s.cache.Add(key, text)
	return text, nil
}

// Close releases the underlying API client.
func (s *GeminiService) Close() error {
	return s.client.Close()
}

func cacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// isAuthError reports whether the API rejected our credentials outright,
// which means no call in this run can succeed.
func isAuthError(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == 401 || gerr.Code == 403
	}
	return false
}
