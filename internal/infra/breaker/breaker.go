package breaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"voxsearch/internal/application"
	"voxsearch/internal/infra"
)

// ErrUnavailable is returned while the breaker rejects calls.
var ErrUnavailable = errors.New("text generator temporarily unavailable")

type Settings struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

func DefaultSettings() Settings {
	return Settings{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  3,
		FailureRatio: 0.6,
	}
}

// Generator guards a TextGenerator with a circuit breaker.
type Generator struct {
	next application.TextGenerator
	cb   *gobreaker.CircuitBreaker
}

// New wraps next. onChange, if non-nil, is called on every state transition.
func New(next application.TextGenerator, s Settings, logger *slog.Logger, onChange func(name string, state gobreaker.State)) *Generator {
	name := next.Name()
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		IsSuccessful: countsAsHealthy,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= s.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
			if onChange != nil {
				onChange(name, to)
			}
		},
	})
	return &Generator{next: next, cb: cb}
}

// countsAsHealthy keeps caller cancellations and non-retryable upstream
// rejections (bad request, auth) from tripping the breaker.
func countsAsHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var statusErr *infra.StatusError
	if errors.As(err, &statusErr) {
		return !infra.IsRetryableHTTPStatus(statusErr.StatusCode)
	}
	return false
}

func (g *Generator) Name() string { return g.next.Name() }

func (g *Generator) State() gobreaker.State { return g.cb.State() }

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := g.cb.Execute(func() (interface{}, error) {
		return g.next.Generate(ctx, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}
