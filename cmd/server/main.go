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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"hortifruti-pdv/internal/ai"
	"hortifruti-pdv/internal/auth"
	"hortifruti-pdv/internal/config"
	"hortifruti-pdv/internal/database"
	"hortifruti-pdv/internal/events"
	"hortifruti-pdv/internal/handlers"
	"hortifruti-pdv/internal/logging"
	"hortifruti-pdv/internal/metrics"
	"hortifruti-pdv/internal/middleware"
	"hortifruti-pdv/internal/pdv"
	"hortifruti-pdv/internal/receivables"
	"hortifruti-pdv/internal/sales"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, envFileFound := config.Load()

	log, err := logging.New(cfg.Env)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	if !envFileFound {
		log.Info("no .env file found, using process environment")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DBDSN, cfg.DBMaxRetries, log)
	if err != nil {
		return err
	}
	if created, err := database.SeedAdmin(db, cfg.SeedAdminPassword); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	} else if created {
		log.Warn("seeded admin user, change its password")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		rp, err := events.NewRabbitPublisher(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		defer rp.Close()
		publisher = rp
		log.Info("publishing sale events to RabbitMQ")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	salesSvc := sales.NewService(db, publisher, log, cfg.DefaultDueDays)
	receivablesSvc := receivables.NewService(db, log)
	catalog := pdv.NewCatalog(db)
	pdvSvc := pdv.NewService(pdv.NewRegistry(), catalog, pdv.NewDirectory(db), salesSvc, m, log)

	deps := handlers.Deps{
		DB:          db,
		Log:         log,
		Tokens:      auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL),
		Sales:       salesSvc,
		Receivables: receivablesSvc,
		PDV:         pdvSvc,
		Catalog:     catalog,
		BaseURL:     cfg.BaseURL,
		UploadDir:   cfg.UploadDir,
	}
	if cfg.GeminiAPIKey != "" {
		deps.Assistant = ai.NewAgent(cfg.GeminiAPIKey, ai.NewToolbox(db, receivablesSvc, log), log)
	} else {
		log.Info("GEMINI_API_KEY not set, assistant disabled")
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return fmt.Errorf("upload dir: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.CorrelationID(), middleware.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.CorrelationHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.CorrelationHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.PrometheusEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	handlers.New(deps).Routes(r, cfg.AllowRegistration)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OverdueSweep > 0 {
		go sweepOverdue(ctx, receivablesSvc, cfg.OverdueSweep, log)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("base_url", cfg.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// sweepOverdue flags pending accounts past their due day until ctx ends.
func sweepOverdue(ctx context.Context, svc *receivables.Service, every time.Duration, log *zap.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		if _, err := svc.MarkOverdue(ctx, time.Now()); err != nil && ctx.Err() == nil {
			log.Error("overdue sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
