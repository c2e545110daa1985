// Package governor enforces the process-wide request quota, concurrency cap
// and cost budget that every provider call must pass through.
package governor

import (
	"context"
	"errors"
	"sync"
	"time"

	"gameforge/internal/infra"
)

var (
	// ErrRateLimited is returned when the current minute's quota is spent.
	ErrRateLimited = errors.New("governor: rate limited")
	// ErrConcurrencyExceeded is returned when too many calls are in flight.
	ErrConcurrencyExceeded = errors.New("governor: concurrency exceeded")
)

// Config bounds the governor. Zero values fall back to permissive defaults.
type Config struct {
	RequestsPerMinute int
	MaxConcurrent     int
	MonthlyBudgetUSD  float64
}

// UsageStats is a snapshot of the governor's counters.
type UsageStats struct {
	RequestsThisMinute int     `json:"requests_this_minute"`
	InFlight           int     `json:"in_flight"`
	TotalCostUSD       float64 `json:"total_cost_usd"`
	MonthlyBudgetUSD   float64 `json:"monthly_budget_usd"`
	BudgetExceeded     bool    `json:"budget_exceeded"`
}

// Governor tracks per-minute request counts, in-flight calls and cumulative
// cost. Minute buckets are swept by the Run loop rather than per request, so a
// burst straddling a minute boundary can admit up to twice the per-minute
// quota inside a 60s sliding window; that approximation is accepted.
type Governor struct {
	cfg    Config
	logger infra.Logger
	now    func() time.Time

	mu       sync.Mutex
	buckets  map[int64]int
	inFlight int
	costUSD  float64
	warned   bool
}

// New constructs a governor with the given limits.
func New(cfg Config, logger infra.Logger) *Governor {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 5
	}
	return &Governor{
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		buckets: make(map[int64]int),
	}
}

// Reserve admits one provider call or reports why it cannot. A successful
// reservation must be paired with exactly one Release.
func (g *Governor) Reserve() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	minute := g.now().Unix() / 60
	if g.buckets[minute] >= g.cfg.RequestsPerMinute {
		return ErrRateLimited
	}
	if g.inFlight >= g.cfg.MaxConcurrent {
		return ErrConcurrencyExceeded
	}
	g.buckets[minute]++
	g.inFlight++
	return nil
}

// Release returns a reservation and records the cost the call incurred.
// Exceeding the monthly budget logs a warning but never blocks generation.
func (g *Governor) Release(costUSD float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inFlight > 0 {
		g.inFlight--
	}
	if costUSD > 0 {
		g.costUSD += costUSD
	}
	if g.cfg.MonthlyBudgetUSD > 0 && g.costUSD > g.cfg.MonthlyBudgetUSD && !g.warned {
		g.warned = true
		g.logger.Warn().
			Float64("total_cost_usd", g.costUSD).
			Float64("budget_usd", g.cfg.MonthlyBudgetUSD).
			Msg("governor: monthly budget exceeded, generation continues")
	}
}

// Stats returns a snapshot of the current counters.
func (g *Governor) Stats() UsageStats {
	g.mu.Lock()
	defer g.mu.Unlock()

	minute := g.now().Unix() / 60
	return UsageStats{
		RequestsThisMinute: g.buckets[minute],
		InFlight:           g.inFlight,
		TotalCostUSD:       g.costUSD,
		MonthlyBudgetUSD:   g.cfg.MonthlyBudgetUSD,
		BudgetExceeded:     g.warned,
	}
}

// Run sweeps stale minute buckets every 60 seconds until the context is
// cancelled. Sweeping is time-triggered, not request-triggered.
func (g *Governor) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sweep()
		}
	}
}

func (g *Governor) sweep() {
	g.mu.Lock()
	defer g.mu.Unlock()

	current := g.now().Unix() / 60
	for minute := range g.buckets {
		if minute < current {
			delete(g.buckets, minute)
		}
	}
}

// SetNow overrides the governor's clock. Tests only.
func (g *Governor) SetNow(now func() time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.now = now
}
