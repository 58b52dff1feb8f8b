// Package genai integrates the Gemini text generation API. It exposes a
// minimal Completer capability (one prompt in, one completion out) consumed
// by the generation and refinement services, a bounded-retry decorator, and
// the prompt templates used for content generation, refinement, and outline
// suggestions.
//
// The package does no logging and holds no persistent state; callers inject
// a Completer where they need one, which keeps every consumer testable with
// a fake.
package genai

import (
	"context"
	"errors"
	"strings"
)

// Completer produces a text completion for a prompt. Implementations must be
// safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrNoAPIKey is returned by Client when no API key was configured.
var ErrNoAPIKey = errors.New("genai: api key not configured")

// ErrEmptyCompletion is returned when the provider answered with blank text
// after trimming. It is retryable like any provider failure.
var ErrEmptyCompletion = errors.New("genai: empty completion")

// StripCodeFence removes a surrounding markdown code fence (``` or ```json)
// from a model response, if present, and trims whitespace.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
