package app

import (
	"context"
	"fmt"

	httpserver "github.com/fairyhunter13/ai-career-guide/internal/adapter/httpserver"
)

// Pinger is anything whose health can be probed with a single call.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BuildReadinessChecks returns the /readyz probes for the optional backends.
// A nil pinger means the backend is not configured and is left out.
func BuildReadinessChecks(qdrant, redis Pinger) []httpserver.Check {
	var checks []httpserver.Check
	if qdrant != nil {
		checks = append(checks, httpserver.Check{Name: "qdrant", Run: probe("qdrant", qdrant)})
	}
	if redis != nil {
		checks = append(checks, httpserver.Check{Name: "redis", Run: probe("redis", redis)})
	}
	return checks
}

func probe(name string, p Pinger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}
}
