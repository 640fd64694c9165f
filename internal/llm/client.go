package llm

import (
	"context"
)

// Result is the parsed generation output. Providers return differently
// shaped envelopes; each adapter unwraps its own down to this single JSON
// object, which the rest of the system treats opaquely.
type Result = map[string]any

// Provider is an external LLM HTTP service that turns a prompt into a
// structured JSON object. Implementations must not retry internally; retry
// by fallback is the orchestrator's job. The interface allows mocking in
// tests without real API calls.
type Provider interface {
	Name() string
	Model() string
	Generate(ctx context.Context, prompt string) (Result, error)
}
