package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"laserwave.studio/web/internal/analytics"
	"laserwave.studio/web/internal/cms"
	"laserwave.studio/web/internal/config"
	"laserwave.studio/web/internal/content"
	"laserwave.studio/web/internal/i18n"
	"laserwave.studio/web/internal/leads"
	mw "laserwave.studio/web/internal/middleware"
	"laserwave.studio/web/internal/observability"
	"laserwave.studio/web/internal/widgets"
)

const (
	pageCacheTTL      = 5 * time.Minute
	sinkTimeout       = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
	requestTimeout    = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// app holds everything the handlers share. Nothing in it changes after
// start-up except the per-request visits built from store.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	store     *content.Store
	bundle    *i18n.Bundle
	pages     *cms.Store
	codec     *mw.PrefsCodec
	tracker   analytics.Tracker
	submitter *leads.Submitter
	embeds    *widgets.Sanitizer
	views     *views
}

func main() {
	var envFile string
	flag.StringVar(&envFile, "env-file", ".env", "dotenv file with local overrides")
	flag.Parse()

	cfg, err := config.Load(config.WithEnvFile(envFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(observability.LogOptions{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("web")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Content.FetchTimeout)
	a, err := newApp(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("failed to initialise web app", zap.Error(err))
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           a.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr), zap.Bool("devMode", cfg.Server.Dev))
	go func() {
		serverLogger.Info("laser wave web listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if d, ok := a.tracker.(*analytics.Dispatcher); ok {
		d.Wait()
	}
}

// newApp loads locales, templates and the content document. A failed
// content load is not fatal: every page then renders the fallback page.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bundle, err := i18n.Load(cfg.Paths.Locales, "ru", []string{"ru", "en"})
	if err != nil {
		return nil, fmt.Errorf("load locales: %w", err)
	}
	v, err := newViews(cfg.Paths.Templates, cfg.Server.Dev, bundle)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.Content.FetchTimeout}
	store := content.NewStore()
	if err := store.Load(ctx, content.SourceFor(cfg.Content.Source, httpClient)); err != nil {
		logger.Error("content document failed to load; serving fallback page",
			zap.String("source", cfg.Content.Source),
			zap.Error(err),
		)
	} else {
		logger.Info("content document loaded", zap.String("source", store.Source()))
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		bundle: bundle,
		pages:  cms.NewStore(cfg.Paths.Pages, bundle.Fallback(), pageCacheTTL),
		codec:  mw.NewPrefsCodec(cfg.Session.SigningKey, cfg.Server.Production(), logger.Named("prefs")),
		embeds: widgets.NewSanitizer(),
		views:  v,
	}
	a.tracker = newTracker(cfg, store.Document(), logger)
	a.submitter = newSubmitter(cfg, store.Document(), a.tracker, logger)
	return a, nil
}

func newTracker(cfg config.Config, doc *content.Document, logger *zap.Logger) analytics.Tracker {
	if doc == nil {
		return analytics.Nop{}
	}
	client := &http.Client{Timeout: sinkTimeout}
	return analytics.NewDispatcher(logger.Named("analytics"),
		analytics.NewMetrikaSink(cfg.Analytics.MetrikaEndpoint, doc.Analytics.YandexMetrikaID, client),
		analytics.NewVKPixelSink(cfg.Analytics.VKPixelEndpoint, doc.Analytics.VKPixelID, client),
	)
}

func newSubmitter(cfg config.Config, doc *content.Document, tracker analytics.Tracker, logger *zap.Logger) *leads.Submitter {
	var forms content.Forms
	if doc != nil {
		forms = doc.Forms
	}
	opts := []leads.Option{
		leads.WithTracker(tracker),
		leads.WithLogger(logger.Named("leads")),
	}
	if cfg.SMTP.Enabled() {
		dialer := gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
		to := cfg.SMTP.To
		if to == "" {
			to = cfg.SMTP.From
		}
		opts = append(opts, leads.WithRelay(dialer, cfg.SMTP.From, to))
	}
	return leads.NewSubmitter(forms, opts...)
}

// routes builds the router. Page routes check the content store themselves
// so a failed load still serves health checks and assets.
func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// If deployed behind a trusted reverse proxy/load balancer, RealIP will use
	// X-Forwarded-For to determine the client IP. Ensure only trusted proxies
	// can set these headers in production environments.
	r.Use(chimw.RealIP)
	r.Use(mw.RequestLogger(a.logger))
	r.Use(mw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/assets/*", mw.AssetsWithCache(filepath.Join(a.cfg.Paths.Public, "assets")))

	r.Group(func(r chi.Router) {
		r.Use(mw.HTMX)
		r.Use(mw.Preferences(a.codec))
		r.Use(mw.Locale(a.bundle))
		r.Use(mw.Attribution)
		r.Use(mw.CSRF(a.cfg.Server.Production()))

		r.Get("/", a.HomeHandler)
		r.Get("/prices", a.PricesHandler)
		r.Get("/promos", a.PromosHandler)
		r.Get("/masters", a.MastersHandler)
		r.Get("/p/{slug}", a.StaticPageHandler)

		r.Post("/audience", a.AudienceHandler)
		r.Get("/calculator", a.CalculatorHandler)
		r.Post("/theme", a.ThemeHandler)
		r.Post("/forms/{type}", a.FormHandler)
		r.Get("/go/booking", a.BookingHandler)
		r.Get("/go/{channel}", a.ChannelHandler)

		r.NotFound(a.NotFoundHandler)
	})
	return r
}
