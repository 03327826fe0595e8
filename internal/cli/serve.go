package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/phylogram/pkg/cache"
	"github.com/matzehuels/phylogram/pkg/session"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		redisURL string
		noCache  bool
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve interactive tree sessions over HTTP",
		Long: `Serve interactive tree sessions over HTTP.

  POST   /sessions               create a session from JSON options
                                 ({"newick": "...", "mapping": "..."})
  GET    /sessions/{id}          describe a session
  PATCH  /sessions/{id}          change options; the response reports
                                 "relayout" or "restyle"
  GET    /sessions/{id}/{format} render as svg, png, pdf, json or dot;
                                 query parameters change options first
  DELETE /sessions/{id}          drop a session
  GET    /healthz                liveness probe

With --redis, sessions and caches live in redis so that several instances
can serve the same sessions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, redisURL, noCache, ttl)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&redisURL, "redis", "", "redis URL for shared sessions and caches")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable layout and artifact caching")
	cmd.Flags().DurationVar(&ttl, "session-ttl", session.DefaultTTL, "session lifetime since last use")

	return cmd
}

// newServer wires the store: redis-backed when a redis cache is in use,
// in memory otherwise.
func (c *CLI) newServer(ctx context.Context, redisURL string, noCache bool, ttl time.Duration) (*server, error) {
	runner, err := c.newRunner(ctx, noCache && redisURL == "", redisURL)
	if err != nil {
		return nil, err
	}
	var store session.Store = session.NewMemoryStore(ttl)
	if _, ok := runner.Cache.(*cache.RedisCache); ok {
		store = session.NewCacheStore(runner.Cache, runner, ttl)
	}
	return &server{store: store, runner: runner, logger: c.Logger, ttl: ttl}, nil
}

func (c *CLI) runServe(ctx context.Context, addr, redisURL string, noCache bool, ttl time.Duration) error {
	s, err := c.newServer(ctx, redisURL, noCache, ttl)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}
	defer s.runner.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go s.sweep(ctx, time.Minute)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	printSuccess("Serving sessions")
	printKeyValue("Address", "http://"+addr)
	if redisURL != "" {
		printKeyValue("Store", "redis")
	} else {
		printKeyValue("Store", "memory")
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
