// Package health reports readiness of the service's dependencies.
package health

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/fizzlabs/fizzbuzz-service/pkg/logger"
)

// Pinger is the probe contract for an external dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to the Pinger interface.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

const (
	// StatusOK marks a healthy check or report.
	StatusOK = "ok"
	// StatusError marks a failed check or an unhealthy report.
	StatusError = "error"

	checkTimeout  = 2 * time.Second
	maxErrorChars = 256
)

// Check is the outcome of probing one dependency.
type Check struct {
	Status       string  `json:"status"`
	ResponseTime float64 `json:"response_time,omitempty"`
	Usage        string  `json:"usage,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// Report aggregates all dependency checks.
type Report struct {
	Status      string           `json:"status"`
	Timestamp   string           `json:"timestamp"`
	Version     string           `json:"version"`
	Environment string           `json:"environment"`
	Checks      map[string]Check `json:"checks"`
}

// Checker probes the database and cache and samples process memory.
type Checker struct {
	db      Pinger
	cache   Pinger
	version string
	env     string
	log     *logger.Logger
}

// New constructs a checker. Nil pingers are reported as errors rather
// than skipped, so a miswired deployment fails loudly.
func New(db, cache Pinger, version, env string, log *logger.Logger) *Checker {
	if log == nil {
		log = logger.NewDefault("health")
	}
	return &Checker{db: db, cache: cache, version: version, env: env, log: log}
}

// CheckHealth runs all probes. The boolean is false when the database or
// cache check failed, which callers map to 503.
func (c *Checker) CheckHealth(ctx context.Context) (Report, bool) {
	report := Report{
		Status:      StatusOK,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Version:     c.version,
		Environment: c.env,
		Checks:      make(map[string]Check, 3),
	}

	dbCheck := c.probe(ctx, "database", c.db)
	cacheCheck := c.probe(ctx, "cache", c.cache)
	report.Checks["database"] = dbCheck
	report.Checks["cache"] = cacheCheck
	report.Checks["memory"] = memoryCheck()

	healthy := dbCheck.Status == StatusOK && cacheCheck.Status == StatusOK
	if !healthy {
		report.Status = StatusError
	}
	return report, healthy
}

func (c *Checker) probe(ctx context.Context, name string, p Pinger) Check {
	probeCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	var err error
	if p == nil {
		err = fmt.Errorf("%s probe not configured", name)
	} else {
		err = p.Ping(probeCtx)
	}
	elapsed := roundSeconds(time.Since(start))

	if err != nil {
		c.log.WithError(err).WithField("check", name).Warn("health check failed")
		return Check{Status: StatusError, ResponseTime: elapsed, Error: truncate(err.Error(), maxErrorChars)}
	}
	return Check{Status: StatusOK, ResponseTime: elapsed}
}

func memoryCheck() Check {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return Check{Status: StatusError, Error: truncate(err.Error(), maxErrorChars)}
	}
	return Check{Status: StatusOK, Usage: formatBytes(vm.Used)}
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(b)/float64(div), "KMGT"[exp])
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
