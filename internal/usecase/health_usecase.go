package usecase

import (
	"context"
	"time"
)

// Pinger is a dependency the health check reports on.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthUsecase interface {
	// Check returns the overall status and the status of each dependency.
	Check(ctx context.Context) (bool, map[string]string)
}

type healthUsecase struct {
	deps    map[string]Pinger
	timeout time.Duration
}

func NewHealthUsecase(deps map[string]Pinger) HealthUsecase {
	return &healthUsecase{deps: deps, timeout: 2 * time.Second}
}

func (u *healthUsecase) Check(ctx context.Context) (bool, map[string]string) {
	status := map[string]string{"status": "ok"}
	healthy := true
	for name, dep := range u.deps {
		pingCtx, cancel := context.WithTimeout(ctx, u.timeout)
		err := dep.Ping(pingCtx)
		cancel()
		if err != nil {
			status[name] = "down"
			healthy = false
			continue
		}
		status[name] = "up"
	}
	if !healthy {
		status["status"] = "degraded"
	}
	return healthy, status
}
