// Package providers defines the uniform contract every external AI vendor
// adapter implements, plus the registry the dispatcher resolves providers from.
package providers

import (
	"context"
	"errors"
	"fmt"

	"gameforge/internal/domain"
)

// ErrMissingCredentials indicates an adapter was constructed without the
// credentials its vendor requires. This is a configuration error raised at
// construction time, never at invoke time.
var ErrMissingCredentials = errors.New("providers: missing credentials")

// Request is the normalized request passed to any adapter.
type Request struct {
	Modality domain.Modality
	Prompt   string
	Style    string
	Size     string
	Seed     int
	Model    string
}

// BinaryAsset carries binary provider output (image bytes, audio bytes) or a
// hosted URL when the vendor returns one instead of inline data.
type BinaryAsset struct {
	Data   []byte
	URL    string
	Format string
	Width  int
	Height int
}

// RawResponse is the uniform result of a single provider call. Text holds
// model text output; Assets holds binary output. Exactly one is populated for
// a given modality.
type RawResponse struct {
	Provider string
	Model    string
	Text     string
	Assets   []BinaryAsset
}

// Error is the uniform failure produced by an adapter. It carries enough
// provenance for the dispatcher's aggregate error to stay debuggable.
type Error struct {
	Provider string
	Status   int
	Message  string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// Adapter wraps exactly one external call per Invoke with no internal retries.
type Adapter interface {
	ID() string
	Supports(m domain.Modality) bool
	Invoke(ctx context.Context, req Request) (*RawResponse, error)
	EstimateCost(req Request) float64
}

// Registry resolves adapters by id.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry indexes the given adapters by their ids.
func NewRegistry(adapters ...Adapter) *Registry {
	reg := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		if a != nil {
			reg.adapters[a.ID()] = a
		}
	}
	return reg
}

// Lookup returns the adapter registered under id, if any.
func (r *Registry) Lookup(id string) (Adapter, bool) {
	a, ok := r.adapters[id]
	return a, ok
}

// IDs lists the registered adapter ids.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	return ids
}
