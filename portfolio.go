// Package portfolio wires the contact table, form gate, notifications and
// carousel into a single server-rendered application.
//
// Typical use:
//
//	cfg, _ := config.Load(config.LoadInput{})
//	app, err := portfolio.New(ctx, cfg)
//	if err != nil { ... }
//	defer app.Close()
//	err = app.ListenAndServe(ctx)
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/goliatone/go-portfolio/components/records"
	"github.com/goliatone/go-portfolio/internal/config"
	"github.com/goliatone/go-portfolio/pkg/carousel"
	"github.com/goliatone/go-portfolio/pkg/clock"
	"github.com/goliatone/go-portfolio/pkg/formgate"
	"github.com/goliatone/go-portfolio/pkg/i18n"
	"github.com/goliatone/go-portfolio/pkg/kv"
	"github.com/goliatone/go-portfolio/pkg/notify"
	"github.com/goliatone/go-portfolio/pkg/recordstore"
	"github.com/goliatone/go-portfolio/pkg/render"
	"github.com/goliatone/go-portfolio/pkg/render/page"
)

// DefaultShutdownGrace bounds how long ListenAndServe waits for in-flight
// requests once its context is cancelled.
const DefaultShutdownGrace = 5 * time.Second

// Option customises New.
type Option func(*settings)

type settings struct {
	logger  *slog.Logger
	clock   clock.Clock
	backend kv.Store
	guard   records.GuardFunc
	grace   time.Duration
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock swaps the timer source for notifications and the carousel.
func WithClock(c clock.Clock) Option {
	return func(s *settings) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithBackend uses backend instead of opening cfg.Store. The caller keeps
// ownership; Close does not close it.
func WithBackend(backend kv.Store) Option {
	return func(s *settings) {
		s.backend = backend
	}
}

// WithGuard installs a request guard in front of every route.
func WithGuard(guard records.GuardFunc) Option {
	return func(s *settings) {
		s.guard = guard
	}
}

// WithShutdownGrace overrides DefaultShutdownGrace.
func WithShutdownGrace(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.grace = d
		}
	}
}

// App owns the running components.
type App struct {
	cfg    config.Config
	logger *slog.Logger
	grace  time.Duration

	backend     kv.Store
	ownsBackend bool

	store   *recordstore.Store
	surface *render.MemorySurface
	binder  *render.Binder
	center  *notify.Center
	gate    *formgate.Gate
	slider  *carousel.Slider
	page    *page.Renderer
	handler http.Handler

	unsubscribe func()
	closeOnce   sync.Once
	closeErr    error
}

// OpenStore opens the backend named by cfg.Store and loads the record store
// from it. The returned backend must be closed by the caller.
func OpenStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*recordstore.Store, kv.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	backend, err := kv.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	store, err := loadStore(ctx, backend, cfg, logger)
	if err != nil {
		_ = backend.Close()
		return nil, nil, err
	}
	return store, backend, nil
}

func loadStore(ctx context.Context, backend kv.Store, cfg config.Config, logger *slog.Logger) (*recordstore.Store, error) {
	policy, ok := recordstore.ParseCorruptPolicy(cfg.CorruptPolicy)
	if !ok {
		return nil, fmt.Errorf("%w: corrupt_policy %q", config.ErrInvalid, cfg.CorruptPolicy)
	}
	store := recordstore.New(backend,
		recordstore.WithKey(cfg.StorageKey),
		recordstore.WithCorruptPolicy(policy),
		recordstore.WithLogger(logger),
	)
	if err := store.Load(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// New validates cfg, loads the records and builds every component.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	s := settings{
		logger: slog.Default(),
		clock:  clock.Real(),
		grace:  DefaultShutdownGrace,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&s)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	app := &App{cfg: cfg, logger: s.logger, grace: s.grace, backend: s.backend}
	if app.backend == nil {
		backend, err := kv.Open(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		app.backend = backend
		app.ownsBackend = true
	}

	if err := app.build(ctx, s); err != nil {
		_ = app.Close()
		return nil, err
	}
	app.logger.Info("portfolio ready",
		"store", cfg.Store,
		"records", app.store.Count(),
		"locale", cfg.Locale,
		"base_path", cfg.BasePath,
	)
	return app, nil
}

func (a *App) build(ctx context.Context, s settings) error {
	cfg := a.cfg

	store, err := loadStore(ctx, a.backend, cfg, a.logger)
	if err != nil {
		return err
	}
	a.store = store

	catalog, err := i18n.Default()
	if err != nil {
		return fmt.Errorf("portfolio: messages: %w", err)
	}

	a.center = notify.NewCenter(
		notify.WithClock(s.clock),
		notify.WithDurations(cfg.Notify.Display.Std(), cfg.Notify.Fade.Std()),
		notify.WithLogger(a.logger),
	)

	a.gate, err = formgate.New(store,
		formgate.WithNotifier(a.center),
		formgate.WithTranslator(catalog),
		formgate.WithLocale(cfg.Locale),
		formgate.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}

	deleted := a.gate.Message(formgate.KeyDeleted)
	a.unsubscribe = store.Subscribe(recordstore.OnKind(recordstore.EventDeleted, func(recordstore.Event) {
		a.center.Notify(deleted, notify.KindSuccess)
	}))

	a.surface = render.NewMemorySurface()
	a.binder = render.Bind(store, a.surface,
		render.WithBasePath(cfg.BasePath),
		render.WithBinderLogger(a.logger),
	)

	a.slider, err = carousel.New(cfg.Carousel.Slides,
		carousel.WithClock(s.clock),
		carousel.WithDelay(cfg.Carousel.Delay.Std()),
		carousel.WithAutoPlay(cfg.Carousel.AutoPlayEnabled()),
		carousel.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}

	themes, err := page.NewThemes(cfg.Theme, cfg.ThemeVariant)
	if err != nil {
		return err
	}
	sel, err := themes.Select("", "")
	if err != nil {
		return err
	}
	a.page, err = page.New(
		page.WithTranslator(catalog),
		page.WithLocale(cfg.Locale),
		page.WithTheme(page.RendererConfigFor(sel, cfg.BasePath)),
		page.WithBasePath(cfg.BasePath),
		page.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}

	component := records.New(
		records.WithTitle(i18n.T(catalog, nil, cfg.Locale, "page.title")),
		records.WithStore(store),
		records.WithGate(a.gate),
		records.WithTable(a.surface),
		records.WithNotifications(a.center),
		records.WithCarousel(a.slider),
		records.WithPage(a.page),
		records.WithAssets(AssetsFS()),
		records.WithGuard(s.guard),
		records.WithLogger(a.logger),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if _, err := component.RegisterRoutes(mux, cfg.BasePath); err != nil {
		return err
	}
	a.handler = mux
	return nil
}

// Config returns the configuration the app was built with.
func (a *App) Config() config.Config { return a.cfg }

// Store returns the record store.
func (a *App) Store() *recordstore.Store { return a.store }

// Gate returns the form validator.
func (a *App) Gate() *formgate.Gate { return a.gate }

// Notifications returns the banner center.
func (a *App) Notifications() *notify.Center { return a.center }

// Carousel returns the slider.
func (a *App) Carousel() *carousel.Slider { return a.slider }

// Table returns the surface kept in sync with the store.
func (a *App) Table() *render.MemorySurface { return a.surface }

// Handler serves the page, the JSON API and /healthz.
func (a *App) Handler() http.Handler { return a.handler }

// ListenAndServe serves on cfg.Listen until ctx is cancelled, then shuts
// down gracefully.
func (a *App) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Listen,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()
	a.logger.Info("listening", "addr", a.cfg.Listen)

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("portfolio: listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("portfolio: shutdown: %w", err)
	}
	a.logger.Info("server stopped")
	return nil
}

// Close stops timers, detaches subscribers and closes an owned backend.
// It is safe to call more than once.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		if a.unsubscribe != nil {
			a.unsubscribe()
		}
		if a.binder != nil {
			a.binder.Close()
		}
		if a.slider != nil {
			_ = a.slider.Close()
		}
		if a.ownsBackend && a.backend != nil {
			a.closeErr = a.backend.Close()
		}
	})
	return a.closeErr
}
