// Package pipeline provides the load → layout → render pipeline shared by
// the CLI, the HTTP server and interactive sessions.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read the Newick tree and the optional mapping file from a path,
//     an http(s) URL or inline text
//  2. Layout: Cluster the tree and apply branch-length and leaf-separation
//     scaling
//  3. Render: Build the scene and write it in each requested format (SVG,
//     PNG, PDF, JSON, DOT)
//
// Each stage can be run independently or as part of the complete pipeline.
// Layouts and artifacts are cached by content hash; a metadata problem
// during load degrades to an uncolored tree with a warning.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Tree:            "tree.nwk",
//	    MappingFile:     "mapping.tsv",
//	    LeafColorColumn: "BodySite",
//	    Formats:         []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	in, err := runner.Load(ctx, opts)
//	res, err := runner.Layout(ctx, in, opts)
//	artifacts, err := runner.Render(ctx, in, res, opts)
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/phylogram/pkg/cache"
	"github.com/matzehuels/phylogram/pkg/errors"
	"github.com/matzehuels/phylogram/pkg/layout"
	"github.com/matzehuels/phylogram/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Sessions
// =============================================================================

const (
	// DefaultWidth is the default depth extent in pixels.
	DefaultWidth = layout.DefaultWidth

	// DefaultHeight is the default breadth extent in pixels.
	DefaultHeight = layout.DefaultHeight

	// DefaultLeafRadius is the default leaf circle radius.
	DefaultLeafRadius = render.DefaultLeafRadius

	// DefaultMinLeafSeparation is the default minimum leaf distance.
	DefaultMinLeafSeparation = layout.DefaultMinLeafSeparation

	// DefaultPNGScale is the default PNG resolution multiplier.
	DefaultPNGScale = 2.0
)

// Accepted option ranges. Interactive front ends offer the narrower slider
// ranges.
const (
	MinLeafRadius            = 1.0
	MaxLeafRadius            = 20.0
	InteractiveMinLeafRadius = 5.0

	InteractiveMinLeafSeparation = 22.0
	InteractiveMaxLeafSeparation = 100.0
)

// DefaultTreeType is the default layout geometry.
const DefaultTreeType = layout.TreeTypeRectangular

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
	FormatDOT:  true,
}

// ValidTreeTypes is the set of supported tree types.
var ValidTreeTypes = map[string]bool{
	layout.TreeTypeRectangular: true,
	layout.TreeTypeRadial:      true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline. It is read from
// JSON request bodies and TOML or YAML config files.
type Options struct {
	// Load options
	Tree        string `json:"tree,omitempty" toml:"tree" yaml:"tree"`                         // Newick path or URL
	Newick      string `json:"newick,omitempty" toml:"newick" yaml:"newick"`                   // Inline Newick, used when Tree is empty
	MappingFile string `json:"mapping_file,omitempty" toml:"mapping_file" yaml:"mapping_file"` // Mapping path or URL
	Mapping     string `json:"mapping,omitempty" toml:"mapping" yaml:"mapping"`                // Inline mapping, used when MappingFile is empty
	Refresh     bool   `json:"refresh,omitempty" toml:"refresh" yaml:"refresh"`

	// Layout options
	TreeType                string  `json:"tree_type,omitempty" toml:"tree_type" yaml:"tree_type"`
	SkipBranchLengthScaling bool    `json:"skip_branch_length_scaling,omitempty" toml:"skip_branch_length_scaling" yaml:"skip_branch_length_scaling"`
	MinLeafSeparation       float64 `json:"min_leaf_separation,omitempty" toml:"min_leaf_separation" yaml:"min_leaf_separation"`
	Width                   float64 `json:"width,omitempty" toml:"width" yaml:"width"`
	Height                  float64 `json:"height,omitempty" toml:"height" yaml:"height"`

	// Render options
	Formats               []string `json:"formats,omitempty" toml:"formats" yaml:"formats"`
	LeafRadius            float64  `json:"leaf_radius,omitempty" toml:"leaf_radius" yaml:"leaf_radius"`
	SkipLabels            bool     `json:"skip_labels,omitempty" toml:"skip_labels" yaml:"skip_labels"`
	SkipDistanceLabels    bool     `json:"skip_distance_labels,omitempty" toml:"skip_distance_labels" yaml:"skip_distance_labels"`
	HideRuler             bool     `json:"hide_ruler,omitempty" toml:"hide_ruler" yaml:"hide_ruler"`
	LeafColorColumn       string   `json:"leaf_color_column,omitempty" toml:"leaf_color_column" yaml:"leaf_color_column"`
	BackgroundColorColumn string   `json:"background_color_column,omitempty" toml:"background_color_column" yaml:"background_color_column"`
	PNGScale              float64  `json:"png_scale,omitempty" toml:"png_scale" yaml:"png_scale"`
	Title                 string   `json:"title,omitempty" toml:"title" yaml:"title"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" toml:"-" yaml:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Input is the loaded tree and metadata.
	Input *Input

	// Layout is the computed layout.
	Layout *layout.Result

	// Scene is the styled scene the artifacts were drawn from.
	Scene *render.Scene

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	LeafCount  int
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether layout result came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, png, pdf, json, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTreeType checks that a tree type is valid.
func ValidateTreeType(treeType string) error {
	if !ValidTreeTypes[treeType] {
		return errors.New(errors.ErrCodeInvalidTreeType,
			"invalid tree_type: %q (must be one of: rectangular, radial)", treeType)
	}
	return nil
}

// ValidateLeafRadius checks that r is inside the accepted radius range.
func ValidateLeafRadius(r float64) error {
	if r < MinLeafRadius || r > MaxLeafRadius {
		return errors.New(errors.ErrCodeInvalidOption,
			"leaf_radius %v out of range [%v, %v]", r, MinLeafRadius, MaxLeafRadius)
	}
	return nil
}

// ParseFormats splits a comma-separated format list, dropping blanks and
// duplicates.
func ParseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults applies defaults and validates the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks that a tree source is given and that the named
// sources are usable paths or http(s) URLs.
func (o *Options) ValidateForLoad() error {
	if strings.TrimSpace(o.Tree) == "" && strings.TrimSpace(o.Newick) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "tree or newick is required")
	}
	for _, src := range []string{o.Tree, o.MappingFile} {
		if src == "" {
			continue
		}
		if err := errors.ValidateSource(src); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetDefaults fills zero values with the defaults.
func (o *Options) SetDefaults() {
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.TreeType == "" {
		o.TreeType = DefaultTreeType
	}
	o.TreeType = strings.ToLower(strings.TrimSpace(o.TreeType))
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.MinLeafSeparation == 0 {
		o.MinLeafSeparation = DefaultMinLeafSeparation
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.LeafRadius == 0 {
		o.LeafRadius = DefaultLeafRadius
	}
	if o.PNGScale == 0 {
		o.PNGScale = DefaultPNGScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks layout and render options. Defaults should be applied
// first.
func (o *Options) Validate() error {
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	return o.ValidateForRender()
}

// ValidateForLayout validates the layout options.
func (o *Options) ValidateForLayout() error {
	if err := ValidateTreeType(o.TreeType); err != nil {
		return err
	}
	if o.Width <= 0 || o.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidOption, "width and height must be positive, got %vx%v", o.Width, o.Height)
	}
	if o.MinLeafSeparation <= 0 {
		return errors.New(errors.ErrCodeInvalidOption, "min_leaf_separation must be positive, got %v", o.MinLeafSeparation)
	}
	return nil
}

// ValidateForRender validates the render options.
func (o *Options) ValidateForRender() error {
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := ValidateLeafRadius(o.LeafRadius); err != nil {
		return err
	}
	if o.PNGScale <= 0 {
		return errors.New(errors.ErrCodeInvalidOption, "png_scale must be positive, got %v", o.PNGScale)
	}
	for _, column := range []string{o.LeafColorColumn, o.BackgroundColorColumn} {
		if err := errors.ValidateColumnName(column); err != nil {
			return err
		}
	}
	return nil
}

// IsRadial returns true for radial layouts.
func (o *Options) IsRadial() bool {
	return o.TreeType == layout.TreeTypeRadial
}

// Source names the tree input for logs and hooks.
func (o *Options) Source() string {
	if o.Tree != "" {
		return o.Tree
	}
	return "<inline>"
}

// LayoutParams returns the layout parameters.
func (o *Options) LayoutParams() layout.Params {
	return layout.Params{
		Width:                   o.Width,
		Height:                  o.Height,
		SkipBranchLengthScaling: o.SkipBranchLengthScaling,
		MinLeafSeparation:       o.MinLeafSeparation,
		LabelWidth:              layout.DefaultLabelWidth,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		TreeType:                o.TreeType,
		Width:                   o.Width,
		Height:                  o.Height,
		SkipBranchLengthScaling: o.SkipBranchLengthScaling,
		MinLeafSeparation:       o.MinLeafSeparation,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format, metadataHash string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:                format,
		LeafRadius:            o.LeafRadius,
		SkipLabels:            o.SkipLabels,
		SkipDistanceLabels:    o.SkipDistanceLabels,
		HideRuler:             o.HideRuler,
		MetadataHash:          metadataHash,
		LeafColorColumn:       o.LeafColorColumn,
		BackgroundColorColumn: o.BackgroundColorColumn,
		Title:                 o.Title,
		PNGScale:              o.PNGScale,
	}
}
