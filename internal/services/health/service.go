package health

import (
	"context"
	"sort"
	"time"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// Service encapsulates health-related checks.
type Service struct {
	checks  map[string]Check
	timeout time.Duration
}

// Result is the readiness payload.
type Result struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks"`
}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{checks: make(map[string]Check), timeout: 2 * time.Second}
}

// Add registers a named dependency check.
func (s *Service) Add(name string, check Check) {
	if check == nil {
		return
	}
	s.checks[name] = check
}

// Status returns a simple liveness payload.
func (s *Service) Status() map[string]bool {
	return map[string]bool{"ok": true}
}

// Ready runs every check with a shared timeout.
func (s *Service) Ready(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	res := Result{OK: true, Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			res.OK = false
			res.Checks[name] = err.Error()
			continue
		}
		res.Checks[name] = "ok"
	}
	return res
}
