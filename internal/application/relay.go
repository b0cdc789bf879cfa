package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"voxsearch/internal/domain"
)

// Relay is the backend side: prompt + user text to the generator.
type Relay struct {
	generator TextGenerator
	prompt    string
	logger    *slog.Logger
}

func NewRelay(generator TextGenerator, prompt string, logger *slog.Logger) *Relay {
	return &Relay{
		generator: generator,
		prompt:    prompt,
		logger:    logger,
	}
}

func (r *Relay) Process(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptySubmission
	}

	started := time.Now()
	out, err := r.generator.Generate(ctx, r.prompt+text)
	if err != nil {
		return "", fmt.Errorf("generating with %s: %w", r.generator.Name(), err)
	}

	r.logger.Info("generated response",
		"provider", r.generator.Name(),
		"input_chars", len(text),
		"output_chars", len(out),
		"duration", time.Since(started),
	)
	return out, nil
}

func (r *Relay) Provider() string {
	return r.generator.Name()
}
