package pipeline

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/phylogram/pkg/cache"
	"github.com/matzehuels/phylogram/pkg/errors"
	"github.com/matzehuels/phylogram/pkg/httputil"
	"github.com/matzehuels/phylogram/pkg/metadata"
	"github.com/matzehuels/phylogram/pkg/observability"
	"github.com/matzehuels/phylogram/pkg/tree"
)

// Input is a loaded tree with its optional metadata.
type Input struct {
	Tree  *tree.Tree
	Table *metadata.Table // nil without a mapping or when it failed to parse

	// TreeHash and MetadataHash are content hashes of the raw inputs.
	TreeHash     string
	MetadataHash string

	// MappingText is the raw text of a parsed mapping.
	MappingText string

	// Warnings holds non-fatal load problems (a bad mapping file).
	Warnings []error
}

// Loader reads tree and mapping text from files, http(s) URLs or inline
// options.
type Loader struct {
	client *httputil.Client
}

// NewLoader creates a loader whose HTTP responses go through c.
func NewLoader(c cache.Cache, keyer cache.Keyer) *Loader {
	client := httputil.NewClient(c, "input", cache.TTLHTTP, map[string]string{
		"Accept": "text/plain, */*",
	}).WithKeyer(keyer)
	return &Loader{client: client}
}

// IsURL reports whether src is fetched over HTTP.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Read returns the text of a path or http(s) URL. A missing file or an
// HTTP 404 is INPUT_NOT_FOUND.
func (l *Loader) Read(ctx context.Context, src string, refresh bool) (string, error) {
	if IsURL(src) {
		text, err := l.client.GetText(ctx, src, refresh)
		if err == nil {
			return text, nil
		}
		if stderrors.Is(err, httputil.ErrNotFound) {
			return "", errors.InputNotFound(src, err)
		}
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", src)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return "", errors.InputNotFound(src, err)
		}
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", src)
	}
	return string(data), nil
}

// Load reads and parses the tree and mapping of opts concurrently. A tree or
// mapping that cannot be fetched is fatal. A mapping that fails to parse is
// recorded in Input.Warnings and leaves Table nil.
func (l *Loader) Load(ctx context.Context, opts Options) (*Input, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}

	var treeText, mappingText string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if opts.Tree == "" {
			treeText = opts.Newick
			return nil
		}
		var err error
		treeText, err = l.Read(gctx, opts.Tree, opts.Refresh)
		return err
	})
	g.Go(func() error {
		switch {
		case opts.MappingFile != "":
			var err error
			mappingText, err = l.Read(gctx, opts.MappingFile, opts.Refresh)
			return err
		case opts.Mapping != "":
			mappingText = opts.Mapping
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	t, err := tree.ParseString(treeText)
	if err != nil {
		return nil, err
	}

	in := &Input{Tree: t, TreeHash: cache.Hash([]byte(treeText))}
	if mappingText != "" {
		table, err := metadata.Parse(strings.NewReader(mappingText))
		if err != nil {
			in.Warnings = append(in.Warnings, err)
			return in, nil
		}
		in.Table = table
		in.MappingText = mappingText
		in.MetadataHash = cache.Hash([]byte(mappingText))
	}
	return in, nil
}

// Load runs the load stage and reports it to the observability hooks.
// Warnings are logged and kept on the input.
func (r *Runner) Load(ctx context.Context, opts Options) (*Input, error) {
	r.applyLogger(&opts)
	hooks := observability.Pipeline()
	source := opts.Source()
	hooks.OnLoadStart(ctx, source)
	start := time.Now()

	in, err := r.Loader().Load(ctx, opts)
	if err != nil {
		hooks.OnLoadComplete(ctx, source, 0, time.Since(start), err)
		return nil, err
	}
	for _, w := range in.Warnings {
		opts.Logger.Warn("metadata unavailable, rendering without colors", "error", errors.UserMessage(w))
	}
	hooks.OnLoadComplete(ctx, source, len(in.Tree.Leaves()), time.Since(start), nil)
	return in, nil
}
