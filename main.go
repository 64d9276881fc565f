package main

import (
	"context"
	"encoding/json"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/username/compartmentdesk/backend/src/bondcalc"
	"github.com/username/compartmentdesk/backend/src/cache"
	"github.com/username/compartmentdesk/backend/src/config"
	"github.com/username/compartmentdesk/backend/src/database"
	"github.com/username/compartmentdesk/backend/src/handlers"
	"github.com/username/compartmentdesk/backend/src/jobs"
	"github.com/username/compartmentdesk/backend/src/logger"
	"github.com/username/compartmentdesk/backend/src/processors"
	"github.com/username/compartmentdesk/backend/src/security"
	"github.com/username/compartmentdesk/backend/src/services"
)

const tokenExpiry = 12 * time.Hour

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Compartment desk backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations()

	isinCache, err := cache.New(config.Cfg.CacheBackend, config.Cfg.RedisAddr, config.Cfg.CacheTTL)
	if err != nil {
		logger.L.Error("Failed to initialize cache", "backend", config.Cfg.CacheBackend, "error", err)
		os.Exit(1)
	}
	if redisCache, ok := isinCache.(*cache.Redis); ok {
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			logger.L.Warn("Redis not reachable, ISIN data will be loaded from the database", "addr", config.Cfg.RedisAddr, "error", err)
		}
		cancel()
		defer redisCache.Close()
	}

	settings := bondcalc.Settings{
		DayCountBasis:     config.Cfg.DayCountBasis,
		DefaultCleanPrice: config.Cfg.DefaultCleanPrice,
		FallbackRate:      config.Cfg.DefaultCouponRate,
	}

	authService := security.NewAuthService(config.Cfg.JWTSecret, tokenExpiry)
	tradeProcessor := processors.NewTradeProcessor(settings)
	positionProcessor := processors.NewPositionProcessor()

	buySellService := services.NewBuySellService(
		database.DB,
		tradeProcessor,
		positionProcessor,
		isinCache,
		config.Cfg.CacheTTL,
	)
	jobRunner := jobs.NewRunner(database.DB, buySellService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var scheduler *jobs.Scheduler
	if config.Cfg.JobsEnabled {
		schedule, err := jobs.LoadSchedule(config.Cfg.JobsConfigPath)
		if err != nil {
			logger.L.Error("Failed to load job schedule", "path", config.Cfg.JobsConfigPath, "error", err)
			os.Exit(1)
		}
		scheduler = jobs.NewScheduler(ctx, jobRunner)
		if err := scheduler.Register(schedule); err != nil {
			logger.L.Error("Failed to register scheduled jobs", "error", err)
			os.Exit(1)
		}
		scheduler.Start()
	}

	isinHandler := handlers.NewIsinHandler(buySellService)
	buySellHandler := handlers.NewBuySellHandler(buySellService)
	couponInterestHandler := handlers.NewCouponInterestHandler(buySellService)
	uploadHandler := handlers.NewUploadHandler(buySellService, config.Cfg.MaxUploadSizeBytes)
	calcHandler := handlers.NewCalcHandler(buySellService)
	jobHandler := handlers.NewJobHandler(jobRunner)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.Cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(handlers.RateLimitMiddleware(config.Cfg.RateLimitRPS, config.Cfg.RateLimitBurst))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Compartment desk backend is running"})
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.DB.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(handlers.AuthMiddleware(authService))

		r.Get("/isins", isinHandler.HandleListIsins)
		r.Get("/isins/check", isinHandler.HandleCheckIsin)
		r.Post("/isins", isinHandler.HandleCreateIsin)
		r.Get("/isins/{isinID}", isinHandler.HandleGetIsin)

		r.Get("/isins/{isinID}/buysell", buySellHandler.HandleGetBuySellView)
		r.Get("/isins/{isinID}/coupon-dates", buySellHandler.HandleGetCouponDates)
		r.Post("/isins/{isinID}/trades", buySellHandler.HandleCreateTrade)
		r.Post("/isins/{isinID}/trades/recalculate", buySellHandler.HandleRecalculate)
		r.Post("/isins/{isinID}/trades/import", uploadHandler.HandleImportTrades)
		r.Put("/trades/{tradeID}", buySellHandler.HandleUpdateTrade)
		r.Delete("/trades/{tradeID}", buySellHandler.HandleDeleteTrade)

		r.Get("/isins/{isinID}/coupon-interests", couponInterestHandler.HandleList)
		r.Post("/isins/{isinID}/coupon-interests", couponInterestHandler.HandleCreate)
		r.Patch("/coupon-interests/{id}/interest-rate", couponInterestHandler.HandleUpdateInterestRate)
		r.Patch("/coupon-interests/{id}/coupon-rate", couponInterestHandler.HandleUpdateCouponRate)
		r.Delete("/coupon-interests/{id}", couponInterestHandler.HandleDelete)

		r.Post("/calc/economics", calcHandler.HandleEconomics)
		r.Post("/jobs/{name}/run", jobHandler.HandleRunJob)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "route not found"})
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.L.Info("Server starting", "address", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			stdlog.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.L.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L.Error("Server shutdown failed", "error", err)
	}
	if scheduler != nil {
		scheduler.Stop()
	}
	if err := database.DB.Close(); err != nil {
		logger.L.Error("Failed to close database", "error", err)
	}
	logger.L.Info("Server stopped")
}
