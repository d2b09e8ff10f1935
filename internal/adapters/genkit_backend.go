// Package adapters bridges external services to the interfaces the agent
// consumes.
package adapters

import (
	"context"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/ZanzyTHEbar/leadscout"
)

// GenkitBackend implements leadscout.Backend over a Genkit instance.
type GenkitBackend struct {
	g     *genkit.Genkit
	model string
}

// NewGenkitBackend creates a backend bound to the named model. An empty model
// name falls back to the Genkit instance's default model.
func NewGenkitBackend(g *genkit.Genkit, model string) (*GenkitBackend, error) {
	if g == nil {
		return nil, leadscout.NewConfigurationError("genkit instance is required", nil)
	}
	return &GenkitBackend{g: g, model: model}, nil
}

// Invoke runs a single text completion.
func (b *GenkitBackend) Invoke(ctx context.Context, prompt string) (string, error) {
	opts := []ai.GenerateOption{ai.WithPrompt(prompt)}
	if b.model != "" {
		opts = append(opts, ai.WithModelName(b.model))
	}
	resp, err := genkit.Generate(ctx, b.g, opts...)
	if err != nil {
		return "", leadscout.NewBackendInvocationError(err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", leadscout.NewError(leadscout.ErrCodeBackendInvocation, "backend", "backend returned an empty response", nil)
	}
	return text, nil
}
