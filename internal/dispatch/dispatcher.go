// Package dispatch routes generation requests through an ordered chain of
// provider adapters, falling through to the next provider when one fails.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"gameforge/internal/domain"
	"gameforge/internal/providers"
)

// Governor admits requests before any provider is invoked and accounts for
// their cost afterwards.
type Governor interface {
	Reserve() error
	Release(costUSD float64)
}

// Caller is the narrow surface generators depend on; it lets tests stub the
// whole dispatch path without HTTP.
type Caller interface {
	Dispatch(ctx context.Context, modality domain.Modality, req providers.Request, order []string) (*providers.RawResponse, error)
}

// Attempt records one failed provider call inside a chain.
type Attempt struct {
	Provider string
	Err      error
}

// AggregateError is returned when every provider in the chain failed. The
// attempts preserve chain order.
type AggregateError struct {
	Modality domain.Modality
	Attempts []Attempt
}

// Unwrap exposes the attempt errors so errors.Is can see, for example, a
// chain where every provider was denied admission.
func (e *AggregateError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

func (e *AggregateError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Provider, a.Err))
	}
	return fmt.Sprintf("all %s providers failed: %s", e.Modality, strings.Join(parts, "; "))
}

// Dispatcher tries each provider in the configured order and returns the
// first successful response.
type Dispatcher struct {
	registry *providers.Registry
	governor Governor
	logger   zerolog.Logger
}

// New constructs a Dispatcher.
func New(registry *providers.Registry, governor Governor, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, governor: governor, logger: logger}
}

// Dispatch walks the chain in order. Admission happens once per provider
// call: a reservation is taken before invoking and released with the cost
// estimate on success, or with zero cost on failure. A governor denial
// counts as that provider's failure and the chain moves on; it only reaches
// the caller when every provider was denied.
func (d *Dispatcher) Dispatch(ctx context.Context, modality domain.Modality, req providers.Request, order []string) (*providers.RawResponse, error) {
	if len(order) == 0 {
		return nil, fmt.Errorf("%w: no providers configured for modality %q", domain.ErrProviderFailure, modality)
	}
	req.Modality = modality

	attempts := make([]Attempt, 0, len(order))
	for _, id := range order {
		adapter, ok := d.registry.Lookup(id)
		if !ok {
			attempts = append(attempts, Attempt{Provider: id, Err: fmt.Errorf("unknown provider %q", id)})
			continue
		}
		if !adapter.Supports(modality) {
			attempts = append(attempts, Attempt{Provider: id, Err: fmt.Errorf("provider does not support modality %q", modality)})
			continue
		}
		if err := d.governor.Reserve(); err != nil {
			attempts = append(attempts, Attempt{Provider: id, Err: err})
			continue
		}
		resp, err := adapter.Invoke(ctx, req)
		if err != nil {
			d.governor.Release(0)
			d.logger.Warn().
				Str("provider", id).
				Str("modality", string(modality)).
				Err(err).
				Msg("provider call failed, trying next in chain")
			attempts = append(attempts, Attempt{Provider: id, Err: err})
			if ctx.Err() != nil {
				break
			}
			continue
		}
		d.governor.Release(adapter.EstimateCost(req))
		return resp, nil
	}
	return nil, &AggregateError{Modality: modality, Attempts: attempts}
}

var _ Caller = (*Dispatcher)(nil)
