package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"adaptlyAPI/handlers"
	"adaptlyAPI/internal/achievement"
	"adaptlyAPI/internal/clock"
	"adaptlyAPI/internal/config"
	"adaptlyAPI/internal/identity"
	"adaptlyAPI/internal/notification"
	"adaptlyAPI/internal/storage"
	"adaptlyAPI/middleware"
	"adaptlyAPI/services"

	_ "net/http/pprof"
)

var (
	cfg                *config.Config
	localStore         *storage.LocalStore
	remoteStore        *storage.PostgresStore
	sessionManager     *services.SessionManager
	ledgerService      *services.LedgerService
	achievementService *services.AchievementService
	statsService       *services.StatsService
	activityService    *services.ActivityService
	settingsService    *services.SettingsService
	leaderboardService *services.LeaderboardService
	dispatcher         *services.NotificationDispatcher
	verifier           middleware.TokenVerifier
)

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if cfg.ClerkSecretKey == "" {
		log.Println("Warning: CLERK_SECRET_KEY is not set, account sign-in is disabled")
	} else {
		clerk.SetKey(cfg.ClerkSecretKey)
		verifier = middleware.ClerkVerifier{}
		log.Println("Clerk initialized successfully")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	localStore, err = storage.OpenLocal(ctx, storage.LocalConfig{Path: cfg.LocalDBPath})
	if err != nil {
		log.Fatal("Failed to open local store:", err)
	}
	log.Printf("Local store opened at %s", cfg.LocalDBPath)

	// Keep the Store interfaces nil rather than holding a nil *PostgresStore.
	var remote storage.Store
	var remoteRanker storage.Ranker
	if cfg.Offline() {
		log.Println("DATABASE_URL not set, accounts are kept on this device")
	} else {
		remoteStore, err = storage.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to remote store:", err)
		}
		remote, remoteRanker = remoteStore, remoteStore
		log.Println("Successfully connected to remote store")
	}

	catalog, err := achievement.Default()
	if err != nil {
		log.Fatal("Invalid achievement catalog:", err)
	}
	log.Printf("Achievement catalog %s loaded with %d entries", catalog.Version, catalog.Len())

	clk := clock.System{Location: cfg.Location}

	sessionManager = services.NewSessionManager(localStore, remote, clk)
	settingsService = services.NewSettingsService(sessionManager)
	dispatcher = services.NewNotificationDispatcher(settingsService, cfg.NotificationWorkers)

	fcmService, err := notification.NewFCMService(ctx, cfg.FCMServiceAccount, cfg.FCMCredentialsFile)
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
		dispatcher.SetPushProvider(services.LogPushProvider{})
	} else {
		dispatcher.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	ledgerService = services.NewLedgerService(sessionManager, clk)
	achievementService = services.NewAchievementService(catalog, ledgerService, sessionManager, clk, cfg.Location, dispatcher)
	statsService = services.NewStatsService(ledgerService, sessionManager, clk, cfg.Location, catalog.Len())
	activityService = services.NewActivityService(sessionManager, ledgerService, achievementService, statsService, clk, dispatcher)
	leaderboardService = services.NewLeaderboardService(localStore, remoteRanker, ledgerService, settingsService, cfg.LeaderboardSize)

	sessionManager.OnIdentityChange(func(prev, next identity.Identity) {
		log.Printf("Session: identity changed from %s %s to %s %s", prev.Kind, prev.ID, next.Kind, next.ID)
	})
	current, err := sessionManager.Restore(ctx)
	if err != nil {
		log.Fatal("Failed to restore session:", err)
	}
	log.Printf("Session resumed as %s %s", current.Kind, current.ID)

	middleware.InitPrometheus(prometheus.DefaultRegisterer)
}

func main() {
	defer func() {
		log.Println("Closing stores...")
		if remoteStore != nil {
			remoteStore.Close()
		}
		localStore.Close()
	}()
	defer dispatcher.Stop()

	h := &handlers.Handlers{
		Session:      handlers.NewSessionHandler(sessionManager),
		Activity:     handlers.NewActivityHandler(activityService),
		Stats:        handlers.NewStatsHandler(statsService, ledgerService),
		Achievements: handlers.NewAchievementHandler(achievementService),
		Leaderboard:  handlers.NewLeaderboardHandler(leaderboardService),
		Settings:     handlers.NewSettingsHandler(settingsService),
	}

	r := mux.NewRouter()

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	go limiter.CleanupVisitors(cleanupCtx)

	r.Use(limiter.Middleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(cfg.MetricsUser, cfg.MetricsPass)(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(cfg.PprofSecret)(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := localStore.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "local store unavailable"}`))
			return
		}
		if remoteStore != nil {
			if err := remoteStore.Ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "adaptly-api"}`))
	}).Methods("GET")

	h.Register(r,
		middleware.SessionMiddleware(sessionManager, verifier),
		middleware.ClerkAuthMiddleware(verifier),
	)

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := ":" + cfg.Port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
