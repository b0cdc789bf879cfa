package metrics

import (
	"context"
	"time"

	"voxsearch/internal/application"
)

type instrumentedGenerator struct {
	next    application.TextGenerator
	metrics *Metrics
}

// InstrumentGenerator records latency and failures of next.
func InstrumentGenerator(next application.TextGenerator, m *Metrics) application.TextGenerator {
	return &instrumentedGenerator{next: next, metrics: m}
}

func (g *instrumentedGenerator) Name() string { return g.next.Name() }

func (g *instrumentedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	started := time.Now()
	out, err := g.next.Generate(ctx, prompt)
	g.metrics.GenerateDuration.WithLabelValues(g.next.Name()).Observe(time.Since(started).Seconds())
	if err != nil {
		g.metrics.GenerateErrors.WithLabelValues(g.next.Name()).Inc()
	}
	return out, err
}
