package evol

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/duynguyendang/evogen/pkg/common/errors"
)

// ErrBackendUnavailable indicates the generation backend cannot be reached
// at all (bad credentials, network down). It aborts the run, unlike
// per-item generation failures which are skipped.
var ErrBackendUnavailable = fmt.Errorf("generation backend unavailable: %w", apperrors.ErrUnavailable)

// Generator is the single abstraction the pipeline has over the model
// backend. Implementations must be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// generateWithTimeout runs one backend call under the per-call timeout.
// The call itself runs in a goroutine so a hung backend cannot block the
// stage past the deadline.
func generateWithTimeout(ctx context.Context, g Generator, prompt string, timeout time.Duration) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type genResult struct {
		text string
		err  error
	}
	done := make(chan genResult, 1)
	go func() {
		text, err := g.Generate(callCtx, prompt)
		done <- genResult{text, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		return CleanResponse(r.text), nil
	case <-callCtx.Done():
		return "", fmt.Errorf("generation timed out after %s: %w", timeout, callCtx.Err())
	}
}

// CleanResponse strips the decoration models habitually wrap answers in:
// markdown code fences, surrounding quotes, and leading/trailing space.
func CleanResponse(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

// truncate bounds s to at most n bytes, cutting at a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}
