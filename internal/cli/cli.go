package cli

import (
	"context"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nextstep/internal/config"
	"github.com/matzehuels/nextstep/pkg/analytics"
	"github.com/matzehuels/nextstep/pkg/buildinfo"
	"github.com/matzehuels/nextstep/pkg/cache"
	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/integrations"
	"github.com/matzehuels/nextstep/pkg/integrations/backend"
	"github.com/matzehuels/nextstep/pkg/predict"
	"github.com/matzehuels/nextstep/pkg/workspace"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "nextstep"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is the --config flag; empty means the default location.
	ConfigPath string

	cfg    config.Config
	loaded bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), cfg: config.Default()}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Nextstep models business processes with predicted next steps",
		Long: `Nextstep edits business-process graphs while a prediction backend proposes
likely next activities as preview nodes. It serves the graph editor API, renders
graph files and manages the backend's prediction matrices.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.ConfigPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/nextstep/config.toml)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.predictCommand())
	root.AddCommand(c.petriCommand())
	root.AddCommand(c.matricesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig loads the configuration once. The configured log level applies
// unless --verbose already lowered it to debug.
func (c *CLI) loadConfig() (config.Config, error) {
	if c.loaded {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if level, err := log.ParseLevel(cfg.Log.Level); err == nil && c.Logger.GetLevel() > level {
		c.Logger.SetLevel(level)
	}
	c.cfg, c.loaded = cfg, true
	return cfg, nil
}

// =============================================================================
// Component Factories
// =============================================================================

// newCache builds the response cache selected by cfg.
func newCache(ctx context.Context, cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Type {
	case config.CacheFile:
		dir, err := cfg.CacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	case config.CacheRedis:
		r := cfg.Cache.Redis
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     r.Addr,
			Password: r.Password,
			DB:       r.DB,
			Prefix:   r.Prefix,
		})
	default:
		return cache.NewNullCache(), nil
	}
}

// newStore builds the saved-graph store selected by cfg.
func newStore(ctx context.Context, cfg config.Config) (workspace.Store, error) {
	switch cfg.Store.Type {
	case config.StoreFile:
		dir, err := cfg.StoreDir()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, err, "store dir")
		}
		return workspace.NewFileStore(dir)
	case config.StoreRedis:
		r := cfg.Store.Redis
		client := redis.NewClient(&redis.Options{Addr: r.Addr, Password: r.Password, DB: r.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "redis ping %s", r.Addr)
		}
		return workspace.NewRedisStore(client, r.Prefix+"graphs:"), nil
	case config.StoreMongo:
		m := cfg.Store.Mongo
		return workspace.NewMongoStore(ctx, workspace.MongoConfig{
			URI:        m.URI,
			Database:   m.Database,
			Collection: m.Collection,
		})
	default:
		return workspace.NewMemoryStore(), nil
	}
}

// newBackend creates the backend client with the configured breaker and
// a request timeout.
func (c *CLI) newBackend(cfg config.Config) (*backend.Client, error) {
	return backend.NewClient(cfg.Backend.URL,
		integrations.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout.Std()}),
		integrations.WithHeaders(map[string]string{"User-Agent": buildinfo.UserAgent()}),
		integrations.WithBreaker(cfg.Backend.Breaker.Integration(appName+"-backend")),
		integrations.WithClientLogger(c.Logger),
	)
}

// session starts a backend session with the configured matrix. The backend
// rejects every other call until a session exists.
func (c *CLI) session(ctx context.Context, cfg config.Config) (*backend.Client, error) {
	b, err := c.newBackend(cfg)
	if err != nil {
		return nil, err
	}
	id, err := b.StartSession(ctx, cfg.Graph.Matrix, nil)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("backend session started", "id", id, "matrix", cfg.Graph.Matrix)
	return b, nil
}

// predictor wraps the backend in the response cache.
func predictor(b *backend.Client, c cache.Cache, cfg config.Config) predict.Predictor {
	return predict.NewCachedPredictor(b, c, cache.NewDefaultKeyer(), cfg.Cache.TTL.Std())
}

// newRefresher creates an analytics refresher over the backend, cached
// like predictions.
func (c *CLI) newRefresher(b *backend.Client, ch cache.Cache, cfg config.Config) *analytics.Refresher {
	return analytics.NewRefresher(b,
		analytics.WithLogger(c.Logger.With("component", "analytics")),
		analytics.WithCache(ch, cache.NewDefaultKeyer(), cfg.Cache.TTL.Std()))
}
