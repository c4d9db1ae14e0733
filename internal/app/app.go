// Package app wires configuration, providers, storage and the HTTP API into
// a running server.
//
// New builds every subsystem, Run serves HTTP until its context ends, and
// Shutdown releases resources in order. Tests inject doubles through the
// With* options; when an option is omitted New builds the real
// implementation from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/pronuncia/internal/api"
	"github.com/MrWong99/pronuncia/internal/attempt"
	"github.com/MrWong99/pronuncia/internal/config"
	"github.com/MrWong99/pronuncia/internal/health"
	"github.com/MrWong99/pronuncia/internal/observe"
	"github.com/MrWong99/pronuncia/internal/practice"
	"github.com/MrWong99/pronuncia/internal/scorecache"
	"github.com/MrWong99/pronuncia/internal/scoring"
)

// shutdownGrace bounds draining of in-flight requests when Run's context ends.
const shutdownGrace = 15 * time.Second

// cachePinger is the part of a score cache the readiness probe needs.
type cachePinger interface {
	scoring.Cache
	health.Pinger
}

// App owns the lifetime of all subsystems.
type App struct {
	cfg       *config.Config
	providers *Providers
	telemetry *observe.Telemetry
	metrics   *observe.Metrics

	attempts attempt.Store
	cache    scoring.Cache
	server   *api.Server
	handler  http.Handler

	closers  []func() error
	stopOnce sync.Once
	mu       sync.Mutex
}

// Option configures New.
type Option func(*App)

// WithAttemptStore injects an attempt store instead of building one from config.
func WithAttemptStore(s attempt.Store) Option {
	return func(a *App) { a.attempts = s }
}

// WithScoreCache injects a qualitative score cache instead of dialing Redis.
func WithScoreCache(c scoring.Cache) Option {
	return func(a *App) { a.cache = c }
}

// WithTelemetry serves /metrics from t and records into its meter provider.
func WithTelemetry(t *observe.Telemetry) Option {
	return func(a *App) { a.telemetry = t }
}

// WithMetrics overrides the metric instruments.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New builds the application. providers comes from [BuildProviders].
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	a := &App{cfg: cfg, providers: providers}
	for _, o := range opts {
		o(a)
	}
	if a.providers == nil {
		a.providers = &Providers{}
	}
	if err := a.initMetrics(); err != nil {
		return nil, fmt.Errorf("app: init metrics: %w", err)
	}
	if err := a.initAttempts(ctx); err != nil {
		return nil, fmt.Errorf("app: init attempt store: %w", err)
	}
	if err := a.initCache(ctx); err != nil {
		return nil, fmt.Errorf("app: init score cache: %w", err)
	}

	svc, err := a.buildServices(cfg)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	apiCfg := api.Config{
		Chats:                a.providers.Chat,
		Transcribers:         a.providers.Transcription,
		DefaultTranscription: cfg.Providers.DefaultTranscription,
		Attempts:             a.attempts,
		Health:               health.New(a.checkers()...),
		Metrics:              a.metrics,
		RequestTimeout:       cfg.Server.RequestTimeout,
		MaxUploadBytes:       cfg.Server.MaxUploadBytes,
		CORSOrigins:          cfg.Server.CORSOrigins,
	}
	if a.telemetry != nil {
		apiCfg.MetricsHandler = a.telemetry.Handler
	}
	a.server = api.New(apiCfg, svc)
	a.handler = a.server.Handler()
	return a, nil
}

func (a *App) initMetrics() error {
	if a.metrics != nil {
		return nil
	}
	if a.telemetry == nil {
		a.metrics = observe.DefaultMetrics()
		return nil
	}
	m, err := observe.NewMetrics(a.telemetry.MeterProvider)
	if err != nil {
		return err
	}
	a.metrics = m
	return nil
}

func (a *App) initAttempts(ctx context.Context) error {
	if a.attempts != nil {
		return nil
	}
	dsn := a.cfg.Store.PostgresDSN
	if dsn == "" {
		a.attempts = attempt.NewMemoryStore(a.cfg.Store.MemoryLimit)
		slog.Info("attempt store: in memory", "per_user", a.cfg.Store.MemoryLimit)
		return nil
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	store := attempt.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return err
	}
	a.attempts = store
	a.closers = append(a.closers, func() error {
		pool.Close()
		return nil
	})
	slog.Info("attempt store: postgres")
	return nil
}

func (a *App) initCache(ctx context.Context) error {
	if a.cache != nil || a.cfg.Cache.RedisAddr == "" {
		return nil
	}
	c, client, err := scorecache.Dial(ctx, a.cfg.Cache.RedisAddr, a.cfg.Cache.Password, a.cfg.Cache.DB, a.cfg.Cache.TTL)
	if err != nil {
		return err
	}
	a.cache = c
	a.closers = append(a.closers, client.Close)
	slog.Info("score cache: redis", "addr", a.cfg.Cache.RedisAddr, "ttl", a.cfg.Cache.TTL)
	return nil
}

// checkers lists the readiness checks of the configured dependencies.
func (a *App) checkers() []health.Checker {
	cs := []health.Checker{health.PingCheck("attempts", a.attempts)}
	if p, ok := a.cache.(cachePinger); ok {
		cs = append(cs, health.PingCheck("score_cache", p))
	}
	if states := a.providers.BreakerStates("chat", a.cfg.Scoring.DefaultProvider); states != nil {
		cs = append(cs, health.BreakerCheck("chat:"+a.cfg.Scoring.DefaultProvider, states))
	}
	if states := a.providers.BreakerStates("transcription", a.cfg.Providers.DefaultTranscription); states != nil {
		cs = append(cs, health.BreakerCheck("transcription:"+a.cfg.Providers.DefaultTranscription, states))
	}
	return cs
}

// buildServices derives the scorer and generator bundle from cfg.
func (a *App) buildServices(cfg *config.Config) (*api.Services, error) {
	catalog, err := cfg.Practice.Catalog()
	if err != nil {
		return nil, fmt.Errorf("load practice catalog: %w", err)
	}

	det := scoring.NewScorer(cfg.Scoring.Weights())
	opts := []scoring.AIOption{
		scoring.WithFallback(det),
		scoring.WithPromptWeights(cfg.Scoring.PromptWeights()),
		scoring.WithDefaultProvider(cfg.Scoring.DefaultProvider),
		scoring.WithMetrics(a.metrics),
	}
	if cfg.Scoring.Temperature != nil {
		opts = append(opts, scoring.WithTemperature(*cfg.Scoring.Temperature))
	}
	if a.cache != nil {
		opts = append(opts, scoring.WithCache(a.cache))
	}

	return &api.Services{
		Scorer:        scoring.NewAIScorer(scoring.Providers(a.providers.Chat), opts...),
		Deterministic: det,
		Generator:     practice.NewGenerator(catalog, practice.WithMetrics(a.metrics)),
		Language:      cfg.Scoring.Language(),
	}, nil
}

// Handler returns the HTTP handler of the API.
func (a *App) Handler() http.Handler { return a.handler }

// Reload applies the hot-reloadable parts of a new configuration. It matches
// [config.ChangeFunc]. A catalog that fails to load keeps the previous
// services in place.
func (a *App) Reload(_, newCfg *config.Config, diff config.ConfigDiff) {
	if !diff.ScoringChanged && !diff.CatalogChanged {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	svc, err := a.buildServices(newCfg)
	if err != nil {
		slog.Error("config reload: keeping previous scoring services", "err", err)
		return
	}
	a.server.SetServices(svc)
	a.cfg.Scoring = newCfg.Scoring
	a.cfg.Practice = newCfg.Practice
	slog.Info("config reload: scoring services replaced",
		"scoring_changed", diff.ScoringChanged,
		"catalog_changed", diff.CatalogChanged,
	)
}

// Run serves HTTP on the configured address until ctx is cancelled, then
// drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("app: listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("http server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Shutdown releases storage connections and telemetry. It stops early when
// ctx expires.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))
		for i, closer := range a.closers {
			if err := ctx.Err(); err != nil {
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				errs = append(errs, err)
				return
			}
			if err := closer(); err != nil {
				errs = append(errs, err)
			}
		}
		if a.telemetry != nil {
			if err := a.telemetry.Shutdown(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
