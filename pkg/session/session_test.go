package session

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/phylogram/pkg/cache"
	"github.com/matzehuels/phylogram/pkg/errors"
	"github.com/matzehuels/phylogram/pkg/pipeline"
)

const (
	newick  = "((A:1,B:2):1,(C:1,D:3):2);"
	mapping = "id\tsite\nA\tgut\nB\tskin\nC\tgut\nD\toral\n"
)

func testRunner(c cache.Cache) *pipeline.Runner {
	return pipeline.NewRunner(c, nil, log.NewWithOptions(io.Discard, log.Options{}))
}

func loaded(t *testing.T, opts pipeline.Options) *Session {
	t.Helper()
	if opts.Newick == "" {
		opts.Newick = newick
	}
	sess, err := New(testRunner(nil), opts, 0)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := sess.Load(context.Background()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return sess
}

func TestNew(t *testing.T) {
	sess, err := New(nil, pipeline.Options{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if sess.ID == "" {
		t.Error("ID should be set")
	}
	if got := sess.ExpiresAt.Sub(sess.CreatedAt); got != DefaultTTL {
		t.Errorf("lifetime = %v, want %v", got, DefaultTTL)
	}
	if sess.Loaded() {
		t.Error("new session should not be loaded")
	}
	if _, err := sess.Render(context.Background(), pipeline.FormatSVG); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Render() before load error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}

	_, err = New(nil, pipeline.Options{TreeType: "unrooted"}, 0)
	if !errors.Is(err, errors.ErrCodeInvalidTreeType) {
		t.Errorf("New(unrooted) error = %v, want %s", err, errors.ErrCodeInvalidTreeType)
	}
}

func TestClassify(t *testing.T) {
	base := pipeline.Options{}
	base.SetDefaults()

	tests := []struct {
		name   string
		modify func(o *pipeline.Options)
		want   Change
	}{
		{"unchanged", func(o *pipeline.Options) {}, None},
		{"tree type", func(o *pipeline.Options) { o.TreeType = "radial" }, Relayout},
		{"branch scaling", func(o *pipeline.Options) { o.SkipBranchLengthScaling = true }, Relayout},
		{"separation", func(o *pipeline.Options) { o.MinLeafSeparation = 40 }, Relayout},
		{"width", func(o *pipeline.Options) { o.Width = 900 }, Relayout},
		{"height", func(o *pipeline.Options) { o.Height = 900 }, Relayout},
		{"radius", func(o *pipeline.Options) { o.LeafRadius = 9 }, Restyle},
		{"labels", func(o *pipeline.Options) { o.SkipLabels = true }, Restyle},
		{"distance labels", func(o *pipeline.Options) { o.SkipDistanceLabels = true }, Restyle},
		{"ruler", func(o *pipeline.Options) { o.HideRuler = true }, Restyle},
		{"leaf color", func(o *pipeline.Options) { o.LeafColorColumn = "site" }, Restyle},
		{"background", func(o *pipeline.Options) { o.BackgroundColorColumn = "site" }, Restyle},
		{"title", func(o *pipeline.Options) { o.Title = "t" }, Restyle},
		{"formats only", func(o *pipeline.Options) { o.Formats = []string{"png"} }, None},
		{"layout wins", func(o *pipeline.Options) { o.LeafRadius = 9; o.TreeType = "radial" }, Relayout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := base
			tt.modify(&next)
			if got := Classify(base, next); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChangeString(t *testing.T) {
	for c, want := range map[Change]string{None: "none", Restyle: "restyle", Relayout: "relayout"} {
		if got := c.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", c, got, want)
		}
	}
}

func TestStaleCommit(t *testing.T) {
	sess, err := New(testRunner(nil), pipeline.Options{Newick: newick}, 0)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	in, err := sess.runner.Load(ctx, sess.Options())
	if err != nil {
		t.Fatal(err)
	}

	older := sess.Begin()
	newer := sess.Begin()
	if err := sess.Commit(ctx, older, in); !errors.Is(err, errors.ErrCodeStaleLoad) {
		t.Fatalf("Commit(older) error = %v, want %s", err, errors.ErrCodeStaleLoad)
	}
	if sess.Loaded() {
		t.Fatal("stale commit must not install its input")
	}
	if err := sess.Commit(ctx, newer, in); err != nil {
		t.Fatalf("Commit(newer) error: %v", err)
	}
	if sess.Input() != in {
		t.Error("Input() should be the committed input")
	}
}

func TestConcurrentLoads(t *testing.T) {
	sess := loaded(t, pipeline.Options{})
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = sess.Load(context.Background())
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil && !errors.Is(err, errors.ErrCodeStaleLoad) {
			t.Errorf("Load() error = %v", err)
		}
	}
	if !sess.Loaded() {
		t.Error("session should stay loaded")
	}
}

func TestApplyRestyle(t *testing.T) {
	sess := loaded(t, pipeline.Options{Mapping: mapping})
	before := sess.Layout()

	next := sess.Options()
	next.LeafColorColumn = "site"
	change, err := sess.Apply(context.Background(), next)
	if err != nil {
		t.Fatal(err)
	}
	if change != Restyle {
		t.Errorf("Apply() = %v, want restyle", change)
	}
	if sess.Layout() != before {
		t.Error("restyle must keep the layout")
	}
	scene, err := sess.Scene()
	if err != nil {
		t.Fatal(err)
	}
	if len(scene.Legends) != 1 {
		t.Errorf("legends = %d, want 1", len(scene.Legends))
	}
}

func TestApplyRescale(t *testing.T) {
	sess := loaded(t, pipeline.Options{})
	before := sess.Layout()

	next := sess.Options()
	next.MinLeafSeparation = 60
	change, err := sess.Apply(context.Background(), next)
	if err != nil {
		t.Fatal(err)
	}
	if change != Relayout {
		t.Errorf("Apply() = %v, want relayout", change)
	}
	after := sess.Layout()
	if after != before {
		t.Error("separation change should rescale the existing layout")
	}
	if after.Params.MinLeafSeparation != 60 {
		t.Errorf("MinLeafSeparation = %v, want 60", after.Params.MinLeafSeparation)
	}
}

func TestApplyRelayout(t *testing.T) {
	sess := loaded(t, pipeline.Options{})
	before := sess.Layout()

	next := sess.Options()
	next.TreeType = "radial"
	change, err := sess.Apply(context.Background(), next)
	if err != nil {
		t.Fatal(err)
	}
	if change != Relayout {
		t.Errorf("Apply() = %v, want relayout", change)
	}
	if sess.Layout() == before || !sess.Layout().IsRadial() {
		t.Error("tree type change should produce a new radial layout")
	}

	if change, _ := sess.Apply(context.Background(), sess.Options()); change != None {
		t.Errorf("Apply(same) = %v, want none", change)
	}
}

func TestApplyInvalid(t *testing.T) {
	sess := loaded(t, pipeline.Options{})
	next := sess.Options()
	next.LeafRadius = 50
	if _, err := sess.Apply(context.Background(), next); !errors.Is(err, errors.ErrCodeInvalidOption) {
		t.Fatalf("Apply() error = %v, want %s", err, errors.ErrCodeInvalidOption)
	}
	if sess.Options().LeafRadius == 50 {
		t.Error("failed Apply must keep the old options")
	}
}

func TestApplyKeepsSources(t *testing.T) {
	sess := loaded(t, pipeline.Options{})
	next := sess.Options()
	next.Newick = "(X,Y);"
	next.Title = "kept"
	if _, err := sess.Apply(context.Background(), next); err != nil {
		t.Fatal(err)
	}
	if got := sess.Options().Newick; got != newick {
		t.Errorf("Newick = %q, want the loaded tree", got)
	}
}

func TestRender(t *testing.T) {
	sess := loaded(t, pipeline.Options{Title: "demo"})
	for _, format := range []string{pipeline.FormatSVG, pipeline.FormatJSON} {
		data, err := sess.Render(context.Background(), format)
		if err != nil {
			t.Fatalf("Render(%s) error: %v", format, err)
		}
		if len(data) == 0 {
			t.Errorf("Render(%s) is empty", format)
		}
	}
	svg, _ := sess.Render(context.Background(), pipeline.FormatSVG)
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("svg output missing <svg")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	sess := loaded(t, pipeline.Options{})

	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Fatalf("Get(missing) error = %v", err)
	}
	if err := store.Set(ctx, sess); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, sess.ID)
	if err != nil || got != sess {
		t.Fatalf("Get() = %v, %v", got, err)
	}

	sess.ExpiresAt = time.Now().Add(-time.Second)
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("Get(expired) error = %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d, expired session should be dropped", store.Len())
	}
}

func TestMemoryStoreCleanup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	live := loaded(t, pipeline.Options{})
	dead := loaded(t, pipeline.Options{})
	_ = store.Set(ctx, live)
	_ = store.Set(ctx, dead)
	dead.ExpiresAt = time.Now().Add(-time.Minute)

	if err := store.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
	if err := store.Delete(ctx, live.ID); err != nil {
		t.Fatal(err)
	}
	if store.Len() != 0 {
		t.Errorf("Len() after Delete = %d", store.Len())
	}
}

func TestCacheStore(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := testRunner(fc)
	store := NewCacheStore(fc, runner, time.Hour)

	sess := loaded(t, pipeline.Options{Mapping: mapping, LeafColorColumn: "site", TreeType: "radial"})
	if err := store.Set(ctx, sess); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.ID != sess.ID {
		t.Errorf("ID = %q, want %q", got.ID, sess.ID)
	}
	opts := got.Options()
	if opts.TreeType != "radial" || opts.LeafColorColumn != "site" {
		t.Errorf("options not restored: %+v", opts)
	}
	if !got.Loaded() || got.Input().Table == nil {
		t.Fatal("restored session should hold tree and mapping")
	}
	if got.Input().TreeHash != sess.Input().TreeHash {
		t.Error("tree hash should survive a round trip")
	}
	if _, err := got.Render(ctx, pipeline.FormatSVG); err != nil {
		t.Errorf("Render() error: %v", err)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("Get(deleted) error = %v", err)
	}
}
