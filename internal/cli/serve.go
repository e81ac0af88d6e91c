package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/nextstep/internal/server"
	"github.com/matzehuels/nextstep/pkg/observability/prom"
	"github.com/matzehuels/nextstep/pkg/workspace"
)

type serveOptions struct {
	addr    string
	noCache bool
	origins []string
	open    []string
}

func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph editor API",
		Long: `Serve the graph editor API over one workspace of graphs.

The server starts a backend session with the configured matrix, keeps the
previews of every open graph reconciled with the backend's predictions and
exposes Prometheus metrics on /metrics.`,
		Example: `  nextstep serve
  nextstep serve --addr :9000 --open order.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the prediction cache")
	cmd.Flags().StringSliceVar(&opts.origins, "allow-origin", nil, "browser origins allowed to call the API (default any)")
	cmd.Flags().StringSliceVar(&opts.open, "open", nil, "graph files to open as tabs on start")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts serveOptions) error {
	ctx := cmd.Context()
	logger := commandLogger(ctx, "serve")

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}

	metrics := prom.New()
	metrics.Register()

	ch, err := newCache(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer ch.Close()

	store, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	b, err := c.newBackend(cfg)
	if err != nil {
		return err
	}
	// The session is best effort at start; clients can start it later
	// through the API once the backend is reachable.
	if _, err := b.StartSession(ctx, cfg.Graph.Matrix, nil); err != nil {
		logger.Warn("backend session not started", "url", cfg.Backend.URL, "err", err)
	}

	refresher := c.newRefresher(b, ch, cfg)
	defer refresher.Close()

	ws := workspace.New(predictor(b, ch, cfg),
		workspace.WithLogger(logger),
		workspace.WithRefresher(refresher),
		workspace.WithStore(store),
		workspace.WithTimeout(cfg.Backend.Timeout.Std()),
		workspace.WithSettings(cfg.Graph.Settings()),
	)
	defer ws.Close()

	for _, path := range opts.open {
		if _, err := ws.OpenFile(path); err != nil {
			return err
		}
		logger.Info("opened", "file", path)
	}

	srvOpts := []server.Option{
		server.WithBackend(b),
		server.WithRefresher(refresher),
		server.WithMetrics(metrics),
		server.WithLogger(logger),
	}
	if len(opts.origins) > 0 {
		srvOpts = append(srvOpts, server.WithAllowedOrigins(opts.origins...))
	}

	printInfo("Serving on %s", StyleHighlight.Render("http://"+cfg.Server.Addr))
	printDetail("Backend: %s (matrix %s)", cfg.Backend.URL, cfg.Graph.Matrix)
	return server.New(ws, srvOpts...).ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout.Std())
}
