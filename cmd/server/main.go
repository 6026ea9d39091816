package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/Skufu/risklens/internal/analytics"
	"github.com/Skufu/risklens/internal/apiclient"
	"github.com/Skufu/risklens/internal/config"
	"github.com/Skufu/risklens/internal/form"
	"github.com/Skufu/risklens/internal/logger"
	"github.com/Skufu/risklens/internal/notify"
	"github.com/Skufu/risklens/internal/predictor"
	"github.com/Skufu/risklens/internal/progress"
	"github.com/Skufu/risklens/internal/session"
	"github.com/Skufu/risklens/internal/storage"
	"github.com/Skufu/risklens/internal/theme"
	"github.com/Skufu/risklens/internal/web"
)

const (
	maxBodyBytes    = 1 << 20
	janitorInterval = time.Minute
	shutdownTimeout = 5 * time.Second
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("config error: %v", err)
		os.Exit(1)
	}
	gin.SetMode(cfg.GinMode)
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var db HealthChecker
	var persistent storage.Backend
	if cfg.EnableDB {
		pool, err := connectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Errorf("database connection failed: %v", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg := storage.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Errorf("storage schema: %v", err)
			os.Exit(1)
		}
		db, persistent = pool, pg
	}

	deps, err := buildDeps(cfg, persistent)
	if err != nil {
		logger.Errorf("setup failed: %v", err)
		os.Exit(1)
	}
	router, err := setupRouter(deps, db, cfg.CORSOrigins)
	if err != nil {
		logger.Errorf("router setup failed: %v", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("server listening on :%s (predictor %s)", cfg.Port, cfg.PredictorURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		runJanitor(gctx, deps, janitorInterval, cfg.SessionIdle)
		return nil
	})
	g.Go(func() error {
		return waitForShutdown(gctx, server)
	})

	if err := g.Wait(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

// buildDeps wires every per-client service the web layer uses.
func buildDeps(cfg *config.Config, persistent storage.Backend) (web.Deps, error) {
	palettes, err := theme.LoadFile(cfg.ThemeFile)
	if err != nil {
		return web.Deps{}, err
	}

	var opts []apiclient.Option
	if cfg.PredictorTimeout > 0 {
		opts = append(opts, apiclient.WithTimeout(cfg.PredictorTimeout))
	}
	api := apiclient.New(cfg.PredictorURL, opts...)
	store := storage.NewManager(persistent, storage.NewMemory())

	return web.Deps{
		Predictor: predictor.New(api, cfg.PredictPath, cfg.ReportPath),
		Rules: form.Rules{
			Bounds:         form.BoundsFor(cfg.BMIBounds),
			DiabeticMinAge: cfg.DiabeticMinAge,
		},
		ReportFilename: cfg.ReportFilename,
		Notify:         notify.NewCenter(cfg.NotifyDuration),
		Progress:       progress.NewRegistry(progress.FadeDelay),
		Theme:          theme.NewManager(palettes, store),
		Storage:        store,
		Analytics:      analytics.NewRegistry(),
		Sequencer:      session.NewSequencer(),
	}, nil
}

func connectDB(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}

func setupRouter(deps web.Deps, db HealthChecker, origins []string) (*gin.Engine, error) {
	srv, err := web.New(deps)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(
		gin.Logger(),
		gin.Recovery(),
		limitBodySize(maxBodyBytes),
		cors.New(cors.Config{
			AllowOrigins: origins,
			AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
			MaxAge:       12 * time.Hour,
		}),
		session.Middleware(),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/readyz", func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "disabled"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"db":     fmt.Sprintf("unhealthy: %v", err),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "ok"})
	})

	srv.Register(router)
	return router, nil
}

// runJanitor releases per-client state of clients idle for at least idle.
func runJanitor(ctx context.Context, deps web.Deps, every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if st := pruneIdle(deps, idle); st.total() > 0 {
				logger.Debugf("janitor: pruned %+v", st)
			}
		}
	}
}

type pruneStats struct {
	Notifications int
	Loaders       int
	Analytics     int
	Sessions      int
}

func (p pruneStats) total() int {
	return p.Notifications + p.Loaders + p.Analytics + p.Sessions
}

func pruneIdle(deps web.Deps, idle time.Duration) pruneStats {
	return pruneStats{
		Notifications: deps.Notify.Prune(idle),
		Loaders:       deps.Progress.Prune(idle),
		Analytics:     deps.Analytics.Prune(idle),
		Sessions:      deps.Storage.SweepSession(idle),
	}
}

func waitForShutdown(ctx context.Context, server *http.Server) error {
	<-ctx.Done()

	logger.Infof("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
