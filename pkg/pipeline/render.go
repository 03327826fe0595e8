package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/phylogram/pkg/cache"
	"github.com/matzehuels/phylogram/pkg/color"
	"github.com/matzehuels/phylogram/pkg/errors"
	"github.com/matzehuels/phylogram/pkg/layout"
	"github.com/matzehuels/phylogram/pkg/metadata"
	"github.com/matzehuels/phylogram/pkg/observability"
	"github.com/matzehuels/phylogram/pkg/render"
	"github.com/matzehuels/phylogram/pkg/render/nodelink"
	"github.com/matzehuels/phylogram/pkg/render/sink"
)

// NewStyler returns the leaf styler for the color columns of opts. A
// missing table or unknown column styles leaves with the fallbacks; the
// problem is logged as a warning.
func NewStyler(in *Input, opts Options) *color.Styler {
	if in == nil || in.Table == nil {
		return nil
	}
	s := color.NewStyler(in.Table, nil, opts.LeafColorColumn, opts.BackgroundColorColumn)
	if err := s.Check(); err != nil && opts.Logger != nil {
		opts.Logger.Warn("color column ignored", "error", errors.UserMessage(err))
	}
	return s
}

// BuildScene styles a finished layout.
func BuildScene(in *Input, res *layout.Result, styler *color.Styler, opts Options) *render.Scene {
	return render.Build(res, render.Options{
		LeafRadius:         opts.LeafRadius,
		SkipLabels:         opts.SkipLabels,
		SkipDistanceLabels: opts.SkipDistanceLabels,
		HideRuler:          opts.HideRuler,
		Styler:             styler,
		Table:              tableOf(in),
	})
}

// RenderFromLayout draws res in every format of opts without caching.
func RenderFromLayout(ctx context.Context, in *Input, res *layout.Result, opts Options) (map[string][]byte, *render.Scene, error) {
	styler := NewStyler(in, opts)
	scene := BuildScene(in, res, styler, opts)

	artifacts := make(map[string][]byte)
	var svg []byte
	svgBytes := func() []byte {
		if svg == nil {
			svg = sink.RenderSVG(scene, sink.WithTitle(opts.Title))
		}
		return svg
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = svgBytes()
		case FormatPNG:
			data, err = sink.RenderPNG(scene, sink.WithScale(opts.PNGScale))
		case FormatPDF:
			if render.HasConverter() {
				data, err = render.ToPDFContext(ctx, svgBytes())
			} else {
				data, err = sink.RenderPDF(scene)
			}
		case FormatJSON:
			data, err = sink.RenderJSON(res, scene, sink.WithMetadata(tableOf(in)), sink.WithIndent())
		case FormatDOT:
			data = []byte(nodelink.ToDOT(res.Tree, nodelink.Options{
				Lengths: !opts.SkipLabels && !opts.SkipDistanceLabels,
				Styler:  styler,
			}))
		default:
			return nil, nil, ValidateFormat(format)
		}

		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeRender, err, "render %s", format)
		}
		artifacts[format] = data
	}

	return artifacts, scene, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
// The scene is nil when every artifact came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, in *Input, res *layout.Result, opts Options) (map[string][]byte, *render.Scene, bool, error) {
	r.applyLogger(&opts)
	opts.SetRenderDefaults()
	if err := opts.ValidateForRender(); err != nil {
		return nil, nil, false, err
	}
	if res == nil {
		return nil, nil, false, errors.New(errors.ErrCodeInternal, "render called without a layout")
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	layoutHash := layoutHash(in, res)
	metaHash := ""
	if in != nil {
		metaHash = in.MetadataHash
	}

	// Try to get all formats from cache
	allCached := layoutHash != "" && !opts.Refresh
	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		if !allCached {
			break
		}
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format, metaHash))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
		}
	}

	if allCached && len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
		return artifacts, nil, true, nil // All artifacts from cache
	}

	// Render all formats
	rendered, scene, err := RenderFromLayout(ctx, in, res, opts)
	if err != nil {
		hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
		return nil, nil, false, err
	}

	// Cache each format
	if layoutHash != "" {
		for format, data := range rendered {
			cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format, metaHash))
			if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
				observability.Cache().OnCacheSet(ctx, "artifact", len(data))
			}
		}
	}

	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
	return rendered, scene, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, in *Input, res *layout.Result, opts Options) (map[string][]byte, error) {
	artifacts, _, _, err := r.RenderWithCacheInfo(ctx, in, res, opts)
	return artifacts, err
}

// layoutHash keys artifacts by tree content and layout parameters. Inputs
// without a tree hash are not cached.
func layoutHash(in *Input, res *layout.Result) string {
	if in == nil || in.TreeHash == "" {
		return ""
	}
	return cache.Hash([]byte(in.TreeHash + "|" + res.Geometry.Name() + "|" + paramsKey(res.Params)))
}

func paramsKey(p layout.Params) string {
	return render.FormatLength(p.Width) + "x" + render.FormatLength(p.Height) +
		"|" + render.FormatLength(p.MinLeafSeparation) +
		"|" + render.FormatLength(p.LabelWidth) +
		"|" + boolKey(p.SkipBranchLengthScaling)
}

func boolKey(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func tableOf(in *Input) *metadata.Table {
	if in == nil {
		return nil
	}
	return in.Table
}
