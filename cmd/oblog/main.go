// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/oblog-go/internal/cache"
	"github.com/olegiv/oblog-go/internal/config"
	"github.com/olegiv/oblog-go/internal/handler"
	"github.com/olegiv/oblog-go/internal/handler/api"
	"github.com/olegiv/oblog-go/internal/logging"
	"github.com/olegiv/oblog-go/internal/metrics"
	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/render"
	"github.com/olegiv/oblog-go/internal/scheduler"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/session"
	"github.com/olegiv/oblog-go/internal/storage"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/version"
	"github.com/olegiv/oblog-go/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

var versionInfo = version.Info{
	Version:   appVersion,
	GitCommit: appGitCommit,
	BuildTime: appBuildTime,
}

// entryPattern matches /yyyy/mm/dd/slug/ entry URLs.
const entryPattern = "/{year:[0-9]{4}}/{month:[0-9]{2}}/{day:[0-9]{2}}/{slug}/"

// maxTrackedLimiters caps the per-client rate limiter maps.
const maxTrackedLimiters = 10000

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "oBlog - blog engine with a JSON API\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_DB_PATH           SQLite database path (default: ./data/oblog.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_REDIS_URL         Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_S3_BUCKET         Store profile photos in S3 instead of OBLOG_MEDIA_DIR\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_REINDEX_SCHEDULE  Search index rebuild schedule (default: @every 15m)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Println("oblog " + versionInfo.String())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	ctx := context.Background()

	slog.Info("running database migrations")
	if err := store.Migrate(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	if err := store.Seed(ctx, db, cfg.DoSeed); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	// Cache: Redis when configured, memory otherwise
	cacheCfg := cache.DefaultConfig()
	cacheCfg.RedisURL = cfg.RedisURL
	cacheCfg.Prefix = cfg.CachePrefix
	cacheCfg.DefaultTTL = time.Duration(cfg.CacheTTL) * time.Second
	backend, backendName := cache.New(cacheCfg)
	defer func() { _ = backend.Close() }()
	blogCache := cache.NewBlogCache(backend, store.New(db), cacheCfg.DefaultTTL)
	slog.Info("cache initialized", "backend", backendName)

	files, mediaDir, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}

	m := metrics.New()
	m.WatchCache(backendName, func() (int64, int64) {
		st := backend.Stats()
		return st.Hits, st.Misses
	})

	search := service.NewSearchService(db, m)
	users := service.NewUserService(db)
	blogs := service.NewBlogService(db, blogCache)
	entries := service.NewEntryService(db, search, m)
	comments := service.NewCommentService(db, service.PolicyByName(cfg.CommentPolicy), m)
	profiles := service.NewProfileService(db, files)
	social := service.NewSocialService(db, users, cfg.FacebookGraphURL)
	events := service.NewEventService(db)

	if n, err := search.Reindex(ctx); err != nil {
		slog.Error("initial search reindex failed", "error", err)
	} else {
		slog.Info("search index built", "entries", n)
	}

	sched := scheduler.New(logger)
	if err := sched.AddJob("reindex", cfg.ReindexSchedule, scheduler.ReindexJob(search, events)); err != nil {
		return fmt.Errorf("scheduling reindex: %w", err)
	}

	sessionManager := session.New(db, cfg.IsDevelopment())

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	apiRateLimiter := middleware.NewGlobalRateLimiter(cfg.APIRateLimit, cfg.APIRateBurst)
	// Comment and login forms: one post every two seconds per client
	formRateLimiter := middleware.NewGlobalRateLimiter(0.5, 5)
	for _, job := range []struct {
		name    string
		limiter *middleware.GlobalRateLimiter
	}{
		{"prune-api-limiters", apiRateLimiter},
		{"prune-form-limiters", formRateLimiter},
	} {
		limiter := job.limiter
		err := sched.AddJob(job.name, "@every 10m", func(context.Context) error {
			limiter.Prune(maxTrackedLimiters)
			return nil
		})
		if err != nil {
			return fmt.Errorf("scheduling %s: %w", job.name, err)
		}
	}
	err = sched.AddJob("prune-login-attempts", "@every 10m", func(context.Context) error {
		if n := loginProtection.Prune(); n > 0 {
			slog.Debug("pruned login attempts", "accounts", n)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scheduling prune-login-attempts: %w", err)
	}
	err = sched.AddJob("prune-events", "@daily", func(ctx context.Context) error {
		n, err := events.Prune(ctx, service.EventRetention)
		if n > 0 {
			slog.Info("pruned old events", "deleted", n)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("scheduling prune-events: %w", err)
	}

	blogH := handler.NewBlogHandler(renderer, sessionManager, blogs, entries, comments)
	entryH := handler.NewEntryHandler(renderer, sessionManager, blogs, entries, comments, users)
	searchH := handler.NewSearchHandler(renderer, sessionManager, blogs, search)
	authH := handler.NewAuthHandler(renderer, sessionManager, blogs, users, events, loginProtection)
	healthH := handler.NewHealthHandler(db, mediaDir)
	seoH := handler.NewSEOHandler(entries, users, cfg.SiteURL, cfg.IsDevelopment())
	apiH := api.NewHandler(api.Config{
		SessionManager:  sessionManager,
		Blogs:           blogs,
		Entries:         entries,
		Users:           users,
		Profiles:        profiles,
		Social:          social,
		Search:          search,
		Events:          events,
		LoginProtection: loginProtection,
	})

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.SecurityHeaders(cfg.IsDevelopment()))
	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.LoadUser(sessionManager, users))
	r.Use(middleware.AppendSlash(r))

	csrfMiddleware := middleware.CSRF(middleware.CSRFOptions{
		Key:           []byte(cfg.SessionSecret),
		SiteURL:       cfg.SiteURL,
		Port:          cfg.ServerPort,
		IsDevelopment: cfg.IsDevelopment(),
	})
	slog.Info("CSRF protection initialized", "secure", !cfg.IsDevelopment())

	r.Get("/health", healthH.Health)
	r.Handle("/metrics", m.Handler())
	r.Get("/sitemap.xml", seoH.Sitemap)
	r.Get("/robots.txt", seoH.Robots)

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("loading static files: %w", err)
	}
	// Static assets: cache for 1 day
	r.Handle("/static/*", middleware.StaticCache(24*time.Hour)(http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))))
	if mediaDir != "" {
		mediaPrefix := "/" + strings.Trim(cfg.MediaURL, "/") + "/"
		// Profile photos: cache for 1 week
		r.Handle(mediaPrefix+"*", middleware.StaticCache(7*24*time.Hour)(http.StripPrefix(mediaPrefix, http.FileServer(http.Dir(mediaDir)))))
	}

	// HTML pages (CSRF protected)
	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware)

		r.Get("/", blogH.Index)
		r.Get("/search/", searchH.Search)
		r.Get("/author/{username}/", entryH.Author)

		r.Get("/login", authH.LoginForm)
		r.With(formRateLimiter.HTMLMiddleware()).Post("/login", authH.Login)
		r.Post("/logout", authH.Logout)

		r.Get(entryPattern, entryH.Detail)
		r.With(formRateLimiter.HTMLMiddleware()).Post(entryPattern, entryH.Comment)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireLogin)
			r.Get("/install", blogH.Install)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireStaff(sessionManager))
				r.Get("/create", blogH.CreateForm)
				r.Post("/create", blogH.Create)
				r.Get("/entry/new/", entryH.NewForm)
				r.Post("/entry/new/", entryH.Create)
			})

			canUpdate := middleware.RequirePermission(sessionManager, users, model.PermUpdateBlog)
			r.With(canUpdate).Get("/update/{id}/", blogH.UpdateForm)
			r.With(canUpdate).Post("/update/{id}/", blogH.Update)
			r.With(middleware.RequirePermission(sessionManager, users, model.PermViewBlog)).Get("/details/{id}/", blogH.Details)
		})
	})

	// REST API (no CSRF; credentials travel with each request)
	r.Route(api.Prefix, func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())
		apiH.Routes(r)
	})

	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // Longer to allow for photo uploads
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// newStorage picks S3 when a bucket is configured and the local media
// directory otherwise. The returned directory is empty for S3.
func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, string, error) {
	if cfg.UseS3Storage() {
		s3, err := storage.NewS3(ctx, storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, "", fmt.Errorf("initializing s3 storage: %w", err)
		}
		slog.Info("media storage initialized", "backend", "s3", "bucket", cfg.S3Bucket)
		return s3, "", nil
	}

	if err := os.MkdirAll(cfg.MediaDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("creating media directory: %w", err)
	}
	slog.Info("media storage initialized", "backend", "local", "dir", cfg.MediaDir)
	return storage.NewLocal(cfg.MediaDir, cfg.MediaURL), cfg.MediaDir, nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
