package ai

import (
	"context"
	"fmt"
)

// StubProvider is a no-op provider for development; responses echo the prompt
// so the pipeline can run end to end without an API key.
type StubProvider struct{}

func (s *StubProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if len(userPrompt) > 80 {
		userPrompt = userPrompt[:80]
	}
	return fmt.Sprintf("[stub completion for: %s]", userPrompt), nil
}
