package cli

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/phylogram/pkg/errors"
	"github.com/matzehuels/phylogram/pkg/pipeline"
	"github.com/matzehuels/phylogram/pkg/session"
)

// watchDebounce groups the burst of events an editor save produces.
const watchDebounce = 150 * time.Millisecond

// watchedPaths returns the local files of opts worth watching.
func watchedPaths(opts pipeline.Options) []string {
	var paths []string
	for _, p := range []string{opts.Tree, opts.MappingFile} {
		if p == "" || pipeline.IsURL(p) {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			paths = append(paths, abs)
		}
	}
	return paths
}

// runWatch renders once and then again after every change to the tree or
// mapping file. Each change starts a new session load; a load overtaken by
// a newer one is dropped.
func (c *CLI) runWatch(ctx context.Context, opts pipeline.Options, flags renderFlags) error {
	paths := watchedPaths(opts)
	if len(paths) == 0 {
		return errors.New(errors.ErrCodeInvalidOption, "--watch needs a local tree or mapping file")
	}

	runner, err := c.newRunner(ctx, flags.noCache, flags.redis)
	if err != nil {
		return err
	}
	defer runner.Close()

	logger := loggerFromContext(ctx)
	opts.Logger = logger
	sess, err := session.New(runner, opts, 0)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Editors replace files on save, so watch the directories.
	wanted := make(map[string]bool, len(paths))
	for _, p := range paths {
		wanted[p] = true
		if err := w.Add(filepath.Dir(p)); err != nil {
			return err
		}
	}

	var mu sync.Mutex
	rerender := func() {
		if err := sess.Load(ctx); err != nil {
			if errors.Is(err, errors.ErrCodeStaleLoad) {
				logger.Debug("dropped superseded load")
				return
			}
			printError("%s", errors.UserMessage(err))
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if err := c.writeSession(ctx, sess, flags); err != nil {
			printError("%s", errors.UserMessage(err))
		}
	}

	rerender()
	printInfo("Watching %d file(s), press Ctrl+C to stop", len(paths))

	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !wanted[filepath.Clean(ev.Name)] || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			logger.Debug("file changed", "path", ev.Name, "op", ev.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, rerender)
		}
	}
}

// writeSession renders every requested format of sess and writes them.
func (c *CLI) writeSession(ctx context.Context, sess *session.Session, flags renderFlags) error {
	opts := sess.Options()
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := sess.Render(ctx, format)
		if err != nil {
			return err
		}
		artifacts[format] = data
	}
	for _, warn := range sess.Input().Warnings {
		printWarning("%v", warn)
	}
	return writeArtifacts(artifacts, opts.Formats, opts.Tree, flags.output)
}
