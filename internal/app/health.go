package app

import (
	"context"
	"time"
)

type HealthChecker interface {
	Health(ctx context.Context) error
}

type HealthReport struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

func (r HealthReport) Healthy() bool {
	return r.Status == "healthy"
}

type healthFunc func(ctx context.Context) error

func (f healthFunc) Health(ctx context.Context) error {
	return f(ctx)
}

// Health checks the backend and the token store's database, if any. The
// session itself is reported but never makes the report unhealthy.
func (a *App) Health(ctx context.Context) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	report := HealthReport{
		Status:    "healthy",
		Checks:    make(map[string]string),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	checks := map[string]HealthChecker{"backend": healthFunc(a.Client.Ping)}
	for name, c := range a.checkers {
		checks[name] = c
	}
	for name, c := range checks {
		if err := c.Health(ctx); err != nil {
			report.Status = "unhealthy"
			report.Checks[name] = "unhealthy: " + err.Error()
		} else {
			report.Checks[name] = "healthy"
		}
	}

	switch exp, ok := a.Session.Expiry(); {
	case !a.Session.IsAuthenticated():
		report.Checks["session"] = "signed out"
	case ok:
		report.Checks["session"] = "signed in until " + exp.UTC().Format(time.RFC3339)
	default:
		report.Checks["session"] = "signed in"
	}
	return report
}
