// Package cache stores HTTP responses, layouts and rendered artifacts.
//
// Backends implement [Cache]: [FileCache] for the CLI, [RedisCache] for the
// server when several instances share results, and [NullCache] when caching
// is disabled. Keys are built by a [Keyer] so that every backend sees the
// same key space.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the stored value and true, or false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default entry lifetimes.
const (
	TTLHTTP     = 24 * time.Hour
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// LayoutKeyOpts are the options that change a computed layout.
type LayoutKeyOpts struct {
	TreeType                string  `json:"tree_type"`
	Width                   float64 `json:"width"`
	Height                  float64 `json:"height"`
	SkipBranchLengthScaling bool    `json:"skip_branch_length_scaling"`
	MinLeafSeparation       float64 `json:"min_leaf_separation"`
}

// ArtifactKeyOpts are the options that change a rendered artifact but not
// its layout.
type ArtifactKeyOpts struct {
	Format                string  `json:"format"`
	LeafRadius            float64 `json:"leaf_radius"`
	SkipLabels            bool    `json:"skip_labels"`
	SkipDistanceLabels    bool    `json:"skip_distance_labels"`
	HideRuler             bool    `json:"hide_ruler"`
	MetadataHash          string  `json:"metadata_hash,omitempty"`
	LeafColorColumn       string  `json:"leaf_color_column,omitempty"`
	BackgroundColorColumn string  `json:"background_color_column,omitempty"`
	Title                 string  `json:"title,omitempty"`
	PNGScale              float64 `json:"png_scale,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey keys a fetched response by namespace and URL.
	HTTPKey(namespace, key string) string

	// LayoutKey keys a layout by tree content hash and layout options.
	LayoutKey(treeHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys a rendered output by layout hash and render options.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey implements Keyer.
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return fmt.Sprintf("http:%s:%s", namespace, key)
}

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", treeHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
