package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/internal/alert"
	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/internal/api"
	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/internal/compliance"
	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/internal/config"
	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/internal/database"
	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/internal/middleware"
	"github.com/chamiruuu/IC-Duty-Maintenance-Tracker-sub000/pkg/cache"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	fmt.Println("==============================================")
	fmt.Println("  IC Duty Maintenance Tracker")
	fmt.Println("==============================================")

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	loc := cfg.Location()
	fmt.Printf("Starting server on port %s (reference timezone %s)...\n", cfg.Port, cfg.Timezone)

	// Initialize database connection.
	log.Printf("Connecting to PostgreSQL at %s", cfg.RedactedDSN())
	db, err := database.New(cfg.DSN())
	if err != nil {
		log.Printf("WARNING: Database unavailable (%v). Running in view-only mode.", err)
		db = nil
	} else {
		defer db.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := db.Migrate(ctx); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("Database connected and migrations applied.")
	}

	// Initialize the Redis live-notification mirror.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	mirror, err := cache.New(ctx, cfg.RedisAddr(), cfg.RedisPassword)
	cancel()
	if err != nil {
		log.Printf("WARNING: Redis unavailable (%v). Live notifications served from memory only.", err)
		mirror = nil
	} else {
		defer mirror.Close()
		log.Println("Redis connected.")
	}

	// Initialize components.
	scheduler := compliance.NewScheduler(nil, loc)

	var engine *alert.Engine
	var store api.WindowStore
	if db != nil {
		store = db
		engine = alert.NewEngine(db, scheduler, &alert.LogNotifier{}, mirror, loc)
		engine.TickInterval = time.Duration(cfg.TickSeconds) * time.Second
	} else {
		log.Println("WARNING: Alert engine disabled without a database.")
	}

	handlers := api.NewHandlers(store, engine, scheduler, loc)

	// Set up Gin router.
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logging())

	// CORS for the duty dashboard.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Admin-Key"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check.
	r.GET("/health", handlers.HealthCheck)

	// Read-only views.
	r.GET("/api/v1/windows", handlers.ListWindows)
	r.GET("/api/v1/windows/:id", handlers.GetWindow)
	r.GET("/api/v1/notifications/live", handlers.LiveNotifications)
	r.GET("/api/v1/notifications/history", handlers.NotificationHistory)
	r.GET("/api/v1/compliance/checklist", handlers.ComplianceChecklist)

	// Operator actions (protected by admin API key).
	// Fail-secure: if no key is configured, block all operator requests.
	if cfg.AdminAPIKey == "" {
		log.Println("WARNING: MAINT_ADMIN_API_KEY not set. Operator API is disabled (fail-secure).")
	} else {
		log.Println("Operator API authentication enabled.")
	}
	ops := r.Group("/api/v1/windows")
	ops.Use(middleware.AdminKeyAuth(cfg.AdminAPIKey))
	{
		ops.POST("", handlers.CreateWindow)
		ops.POST("/:id/complete", handlers.CompleteWindow)
		ops.POST("/:id/undo-complete", handlers.UndoComplete)
		ops.POST("/:id/cleanup", handlers.CleanupWindow)
		ops.POST("/:id/undo-cleanup", handlers.UndoCleanup)
		ops.POST("/:id/extend", handlers.ExtendWindow)
		ops.POST("/:id/request-cancel", handlers.RequestCancel)
		ops.POST("/:id/approve-cancel", handlers.ApproveCancel)
		ops.POST("/:id/request-delete", handlers.RequestDelete)
		ops.POST("/:id/approve-delete", handlers.ApproveDelete)
		ops.POST("/:id/snooze", handlers.SnoozeWindow)
	}

	// Start the alert engine.
	engineCtx, engineCancel := context.WithCancel(context.Background())
	defer engineCancel()
	if engine != nil {
		go engine.Run(engineCtx)
		log.Printf("Alert engine started (tick every %ds).", cfg.TickSeconds)
	}

	// Start HTTP server with graceful shutdown.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Maintenance tracker is ready on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	engineCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited.")
}
