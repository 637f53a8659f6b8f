package ai

import "context"

// Provider is the content-generation collaborator behind the pipeline. Each
// call is one prompt/response exchange; the driver persists both sides.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
