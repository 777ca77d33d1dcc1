// Package health reports whether the map server has a usable snapshot.
package health

import (
	"time"
)

// NewHealthChecker creates a new health checker
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks:      make(map[string]CheckFunc),
		readyChecks: make(map[string]CheckFunc),
		liveChecks:  make(map[string]CheckFunc),
		startedAt:   time.Now(),
	}
}

// RegisterCheck registers a check reported by the general health endpoint
func (hc *HealthChecker) RegisterCheck(name string, check CheckFunc) {
	hc.register(hc.checks, name, check)
}

// RegisterReadinessCheck registers a check gating readiness
func (hc *HealthChecker) RegisterReadinessCheck(name string, check CheckFunc) {
	hc.register(hc.readyChecks, name, check)
}

// RegisterLivenessCheck registers a check gating liveness
func (hc *HealthChecker) RegisterLivenessCheck(name string, check CheckFunc) {
	hc.register(hc.liveChecks, name, check)
}

func (hc *HealthChecker) register(into map[string]CheckFunc, name string, check CheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	into[name] = check
}

// Check performs all health checks
func (hc *HealthChecker) Check() Response {
	return hc.run(func() map[string]CheckFunc { return hc.checks })
}

// CheckReadiness performs readiness checks
func (hc *HealthChecker) CheckReadiness() Response {
	return hc.run(func() map[string]CheckFunc { return hc.readyChecks })
}

// CheckLiveness performs liveness checks
func (hc *HealthChecker) CheckLiveness() Response {
	return hc.run(func() map[string]CheckFunc { return hc.liveChecks })
}

// run copies the selected checks under the read lock and executes them
// without holding it, so a slow check cannot block registration.
func (hc *HealthChecker) run(selectChecks func() map[string]CheckFunc) Response {
	hc.mu.RLock()
	src := selectChecks()
	checks := make(map[string]CheckFunc, len(src))
	for name, fn := range src {
		checks[name] = fn
	}
	hc.mu.RUnlock()

	response := Response{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Checks:    make(map[string]Check, len(checks)),
		Uptime:    time.Since(hc.startedAt).Seconds(),
	}

	for name, checkFunc := range checks {
		start := time.Now()
		check := checkFunc()
		check.Duration = time.Since(start)
		check.LastChecked = start
		if check.Name == "" {
			check.Name = name
		}
		response.Checks[name] = check
		response.Status = worst(response.Status, check.Status)
	}

	return response
}

func worst(a, b Status) Status {
	rank := map[Status]int{StatusHealthy: 0, StatusDegraded: 1, StatusUnhealthy: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
