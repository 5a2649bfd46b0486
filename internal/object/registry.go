package object

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/divehq/dive/internal/model"
)

// Registry routes composite IDs to providers and merges their searches.
// It is built once at startup and shared by every request handler.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry returns a registry with the given providers registered.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds p under p.Name(). A provider registered under the same name
// is replaced.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Unregister removes the provider with the given name, if any.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.providers, name)
}

// Provider returns the provider registered under name.
func (r *Registry) Provider(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.providers))
}

func (r *Registry) snapshot() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := slices.Sorted(maps.Keys(r.providers))
	out := make([]Provider, len(names))
	for i, name := range names {
		out[i] = r.providers[name]
	}
	return out
}

// Search queries every provider concurrently and waits for all of them.
// A provider that fails or panics contributes no results; the others are
// still returned. Each result's ID is rewritten to "<provider>:<id>".
//
// Results are grouped by provider name so output order is stable.
func (r *Registry) Search(ctx context.Context, query string, filters Filters, opts SearchOptions) []Result {
	providers := r.snapshot()
	perProvider := make([][]Result, len(providers))

	var g errgroup.Group
	for i, p := range providers {
		g.Go(func() error {
			perProvider[i] = searchIsolated(ctx, p, query, filters)
			return nil
		})
	}
	_ = g.Wait()

	merged := []Result{}
	for i, results := range perProvider {
		name := providers[i].Name()
		for _, res := range results {
			res.ID = NewID(name, res.ID).String()
			res.ProviderID = name
			merged = append(merged, res)
		}
	}

	if opts.Recent {
		sort.SliceStable(merged, func(i, j int) bool {
			return merged[i].UpdatedAt > merged[j].UpdatedAt
		})
	}
	if opts.Limit > 0 && len(merged) > opts.Limit {
		merged = merged[:opts.Limit]
	}
	return merged
}

func searchIsolated(ctx context.Context, p Provider, query string, filters Filters) (results []Result) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "Provider search panicked", "provider", p.Name(), "panic", rec)
			results = nil
		}
	}()

	results, err := p.Search(ctx, query, filters)
	if err != nil {
		slog.WarnContext(ctx, "Provider search failed", "provider", p.Name(), "err", err)
		return nil
	}
	return results
}

func (r *Registry) route(compositeID string) (ID, Provider, error) {
	id, err := ParseID(compositeID)
	if err != nil {
		return ID{}, nil, err
	}
	p, ok := r.Provider(id.Provider)
	if !ok {
		return ID{}, nil, fmt.Errorf("%w: %q", ErrProviderNotFound, id.Provider)
	}
	return id, p, nil
}

// Get fetches one record by composite ID. The returned record always carries
// compositeID as its ID, whatever the provider reported.
func (r *Registry) Get(ctx context.Context, compositeID string) (*Result, error) {
	id, p, err := r.route(compositeID)
	if err != nil {
		return nil, err
	}

	res, err := p.Get(ctx, id.Inner)
	if err != nil {
		return nil, fmt.Errorf("%s get %q: %w", id.Provider, id.Inner, err)
	}
	if res == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, compositeID)
	}

	res.ID = compositeID
	res.ProviderID = id.Provider
	return res, nil
}

// Put writes one record by composite ID.
func (r *Registry) Put(ctx context.Context, compositeID string, req PutRequest) error {
	id, p, err := r.route(compositeID)
	if err != nil {
		return err
	}
	if err := p.Put(ctx, id.Inner, req); err != nil {
		return fmt.Errorf("%s put %q: %w", id.Provider, id.Inner, err)
	}
	return nil
}

// MetadataRecord returns the metadata-store row that carries tags and
// relations for compositeID. Providers that cannot hold metadata report
// ErrInvalidID.
func (r *Registry) MetadataRecord(ctx context.Context, compositeID string) (model.Object, error) {
	id, p, err := r.route(compositeID)
	if err != nil {
		return model.Object{}, err
	}
	recorder, ok := p.(MetadataRecorder)
	if !ok {
		return model.Object{}, fmt.Errorf("%w: provider %q does not store metadata", ErrInvalidID, id.Provider)
	}
	return recorder.MetadataRecord(ctx, id.Inner)
}
