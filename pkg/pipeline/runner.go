package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/phylogram/pkg/cache"
)

// Runner encapsulates pipeline execution with caching.
// The CLI, the server and sessions use this to share caching logic.
//
// The Runner is stateless except for the cache, loader and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different inputs, as long as each input tree is laid out by
// one goroutine at a time.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	loader *Loader
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		loader: NewLoader(c, keyer),
	}
}

// Loader returns the loader used by Load.
func (r *Runner) Loader() *Loader {
	if r.loader == nil {
		r.loader = NewLoader(r.Cache, r.Keyer)
	}
	return r.loader
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	in, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Input = in
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = in.Tree.Len()
	result.Stats.LeafCount = len(in.Tree.Leaves())

	r.Logger.Info("loaded tree",
		"source", opts.Source(),
		"nodes", result.Stats.NodeCount,
		"leaves", result.Stats.LeafCount,
		"columns", len(in.Table.Columns()),
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	res, layoutHit, err := r.LayoutWithCacheInfo(ctx, in, opts)
	if err != nil {
		return nil, err
	}
	result.Layout = res
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"type", opts.TreeType,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, scene, renderHit, err := r.RenderWithCacheInfo(ctx, in, res, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Scene = scene
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
