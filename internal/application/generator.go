package application

import "context"

// TextGenerator is the upstream generative-language service.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Submitter sends query text to the remote text-processing endpoint.
type Submitter interface {
	Submit(ctx context.Context, text string) (string, error)
}
