package interfaces

import "context"

// LLMService is the completion contract used by the classifier. The
// system prompt and user prompt are kept separate so providers can map
// them natively.
type LLMService interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	HealthCheck(ctx context.Context) error
	Close() error
}
