// Package session holds the state of one interactive tree view.
//
// A [Session] owns the loaded tree, its metadata, the current options and
// the finished layout. Option changes go through [Session.Apply], which
// decides how much work they need:
//   - Relayout: tree type, branch-length scaling, leaf separation or size
//     changed; the layout runs again (a pure separation change only rescales)
//   - Restyle: radius, labels, ruler or color columns changed; the existing
//     layout is drawn again
//   - None: nothing changed
//
// Loads are versioned. [Session.Begin] hands out a [Ticket]; committing a
// ticket after a newer load began fails with [ErrStaleLoad] and leaves the
// session untouched, so a slow fetch can never overwrite a newer tree.
//
// # Storage
//
// Sessions live in a [Store]:
//
//	// Single process
//	store := session.NewMemoryStore(session.DefaultTTL)
//
//	// Shared between server instances (redis, file)
//	store := session.NewCacheStore(cache, runner, session.DefaultTTL)
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/phylogram/pkg/errors"
	"github.com/matzehuels/phylogram/pkg/layout"
	"github.com/matzehuels/phylogram/pkg/pipeline"
	"github.com/matzehuels/phylogram/pkg/render"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist or has expired.
	ErrNotFound = errors.New(errors.ErrCodeSessionNotFound, "session not found")

	// ErrStaleLoad is returned when a load finishes after a newer one began.
	ErrStaleLoad = errors.New(errors.ErrCodeStaleLoad, "a newer load superseded this one")
)

// DefaultTTL is the default session lifetime.
const DefaultTTL = 2 * time.Hour

// Change classifies the work an option change needs.
type Change int

const (
	None Change = iota
	Restyle
	Relayout
)

// String returns the change name.
func (c Change) String() string {
	switch c {
	case Restyle:
		return "restyle"
	case Relayout:
		return "relayout"
	}
	return "none"
}

// MarshalText encodes the change by name.
func (c Change) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Classify reports the change needed to go from old to next.
func Classify(old, next pipeline.Options) Change {
	if old.TreeType != next.TreeType ||
		old.SkipBranchLengthScaling != next.SkipBranchLengthScaling ||
		old.MinLeafSeparation != next.MinLeafSeparation ||
		old.Width != next.Width ||
		old.Height != next.Height {
		return Relayout
	}
	if old.LeafRadius != next.LeafRadius ||
		old.SkipLabels != next.SkipLabels ||
		old.SkipDistanceLabels != next.SkipDistanceLabels ||
		old.HideRuler != next.HideRuler ||
		old.LeafColorColumn != next.LeafColorColumn ||
		old.BackgroundColorColumn != next.BackgroundColorColumn ||
		old.Title != next.Title {
		return Restyle
	}
	return None
}

// onlySeparation reports whether a relayout can be served by rescaling the
// breadth axis of the current layout.
func onlySeparation(old, next pipeline.Options) bool {
	old.MinLeafSeparation = next.MinLeafSeparation
	return Classify(old, next) != Relayout
}

// Ticket identifies one load generation.
type Ticket struct {
	generation uint64
}

// Session is one interactive view. It is safe for concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time

	runner *pipeline.Runner

	mu         sync.Mutex
	options    pipeline.Options
	input      *pipeline.Input
	result     *layout.Result
	generation uint64
}

// New creates an empty session rendering through runner. Options are
// validated and completed with the defaults; the tree options are used by
// Load.
func New(runner *pipeline.Runner, opts pipeline.Options, ttl time.Duration) (*Session, error) {
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, nil)
	}
	if opts.Logger == nil {
		opts.Logger = runner.Logger
	}
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		runner:    runner,
		options:   opts,
	}, nil
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Options returns the current options.
func (s *Session) Options() pipeline.Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options
}

// Input returns the committed input, or nil before the first load.
func (s *Session) Input() *pipeline.Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Loaded reports whether a tree has been committed.
func (s *Session) Loaded() bool {
	return s.Input() != nil
}

// Begin starts a new load generation. Earlier tickets become stale.
func (s *Session) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return Ticket{generation: s.generation}
}

// Commit installs in and lays it out with the current options. A ticket
// from an older generation is rejected with ErrStaleLoad.
func (s *Session) Commit(ctx context.Context, t Ticket, in *pipeline.Input) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.generation != s.generation {
		return ErrStaleLoad
	}
	if in == nil || in.Tree == nil {
		return errors.MalformedTree("commit without a tree")
	}
	res, err := s.runner.Layout(ctx, in, s.options)
	if err != nil {
		return err
	}
	s.input, s.result = in, res
	return nil
}

// Load reads the tree and mapping named by the current options and commits
// them. If another load begins meanwhile, Load returns ErrStaleLoad.
func (s *Session) Load(ctx context.Context) error {
	t := s.Begin()
	in, err := s.runner.Load(ctx, s.Options())
	if err != nil {
		return err
	}
	return s.Commit(ctx, t, in)
}

// Reload replaces the sources in opts and loads them.
func (s *Session) Reload(ctx context.Context, tree, newick, mappingFile, mapping string) error {
	s.mu.Lock()
	s.options.Tree, s.options.Newick = tree, newick
	s.options.MappingFile, s.options.Mapping = mappingFile, mapping
	s.mu.Unlock()
	return s.Load(ctx)
}

// Apply switches to next and does the work the change needs. Load options
// in next are ignored; use Reload to change the sources. On error the
// session keeps its previous options.
func (s *Session) Apply(ctx context.Context, next pipeline.Options) (Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next.Tree, next.Newick = s.options.Tree, s.options.Newick
	next.MappingFile, next.Mapping = s.options.MappingFile, s.options.Mapping
	next.Refresh = false
	if next.Logger == nil {
		next.Logger = s.options.Logger
	}
	next.SetDefaults()
	if err := next.Validate(); err != nil {
		return None, err
	}

	change := Classify(s.options, next)
	if change == Relayout && s.result != nil {
		if onlySeparation(s.options, next) && s.result.BreadthScale != nil {
			s.result.Rescale(next.MinLeafSeparation)
		} else {
			res, err := s.runner.Layout(ctx, s.input, next)
			if err != nil {
				return None, err
			}
			s.result = res
		}
	}
	s.options = next
	return change, nil
}

// Render draws the current layout in format.
func (s *Session) Render(ctx context.Context, format string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "session %s has no tree loaded", s.ID)
	}
	opts := s.options
	opts.Formats = []string{format}
	artifacts, err := s.runner.Render(ctx, s.input, s.result, opts)
	if err != nil {
		return nil, err
	}
	return artifacts[format], nil
}

// Scene returns the styled scene of the current layout.
func (s *Session) Scene() (*render.Scene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "session %s has no tree loaded", s.ID)
	}
	return pipeline.BuildScene(s.input, s.result, pipeline.NewStyler(s.input, s.options), s.options), nil
}

// Layout returns the current layout, or nil before the first load.
func (s *Session) Layout() *layout.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}
