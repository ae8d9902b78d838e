// Package health aggregates readiness checks for the service.
package health

import "context"

// BackendPinger checks search backend connectivity.
type BackendPinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker checks index usability.
type IndexChecker interface {
	IsHealthy(ctx context.Context, index string) (bool, error)
}

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	backend BackendPinger
	guard   IndexChecker
	index   string
}

// New creates a health service.
func New(backend BackendPinger, guard IndexChecker, index string) *Service {
	return &Service{backend: backend, guard: guard, index: index}
}

// Check runs health checks against the backend and the detection index.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.backend.Ping(ctx); err != nil {
		checks["backend"] = CheckError
	} else {
		checks["backend"] = CheckOK
	}

	if healthy, err := s.guard.IsHealthy(ctx, s.index); err != nil || !healthy {
		checks["index"] = CheckError
	} else {
		checks["index"] = CheckOK
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
