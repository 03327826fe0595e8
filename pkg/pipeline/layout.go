package pipeline

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/matzehuels/phylogram/pkg/cache"
	"github.com/matzehuels/phylogram/pkg/errors"
	"github.com/matzehuels/phylogram/pkg/layout"
	"github.com/matzehuels/phylogram/pkg/observability"
)

// =============================================================================
// Layout Generation
// =============================================================================

// GenerateLayout computes the layout of in without caching.
func GenerateLayout(in *Input, opts Options) (*layout.Result, error) {
	if in == nil || in.Tree == nil {
		return nil, errors.MalformedTree("nothing to lay out: no tree loaded")
	}
	g, err := layout.ParseGeometry(opts.TreeType)
	if err != nil {
		return nil, err
	}
	return layout.Compute(in.Tree, g, opts.LayoutParams())
}

// LayoutWithCacheInfo computes a layout, reusing a cached snapshot of the
// same tree and layout options. It returns whether the cache was hit.
//
// The result's nodes are the input tree's own nodes, so a later layout of
// the same input replaces these coordinates.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, in *Input, opts Options) (*layout.Result, bool, error) {
	r.applyLogger(&opts)
	opts.SetLayoutDefaults()
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}
	if in == nil || in.Tree == nil {
		return nil, false, errors.MalformedTree("nothing to lay out: no tree loaded")
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, opts.TreeType, len(in.Tree.Leaves()))
	start := time.Now()

	cacheKey := r.Keyer.LayoutKey(in.TreeHash, opts.LayoutKeyOpts())

	// Try cache first
	if in.TreeHash != "" && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var snap layout.Snapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				if res, err := layout.Restore(in.Tree, snap); err == nil {
					observability.Cache().OnCacheHit(ctx, "layout")
					hooks.OnLayoutComplete(ctx, opts.TreeType, time.Since(start), nil)
					return res, true, nil // Cache hit
				}
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	res, err := GenerateLayout(in, opts)
	if err != nil {
		hooks.OnLayoutComplete(ctx, opts.TreeType, time.Since(start), err)
		return nil, false, err
	}

	// Cache the result
	if in.TreeHash != "" {
		if data, err := json.Marshal(res.Snapshot()); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout); err == nil {
				observability.Cache().OnCacheSet(ctx, "layout", len(data))
			}
		}
	}

	hooks.OnLayoutComplete(ctx, opts.TreeType, time.Since(start), nil)
	return res, false, nil // Cache miss
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, in *Input, opts Options) (*layout.Result, error) {
	res, _, err := r.LayoutWithCacheInfo(ctx, in, opts)
	return res, err
}
