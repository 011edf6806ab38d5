// Package ai provides the completion collaborator used to enrich gap
// analysis. Providers are selected at construction time; callers must
// treat responses as untrusted and validate before use.
package ai

import "context"

// Completer produces a free-text or JSON completion for a prompt.
// schemaHint describes the JSON shape the caller expects; providers
// may include it in the prompt but make no guarantee about the result.
type Completer interface {
	Complete(ctx context.Context, prompt, schemaHint string) (string, error)
}
