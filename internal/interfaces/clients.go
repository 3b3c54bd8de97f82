// Package interfaces defines service contracts for indexboard
package interfaces

import "context"

// CompletionClient provides free-text completion from a generative model.
// Responses are untyped; callers parse their own contract out of the text.
type CompletionClient interface {
	// GenerateContent generates text from a prompt
	GenerateContent(ctx context.Context, prompt string) (string, error)
}
