package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"dreamcut-backend/internal/config"
	"dreamcut-backend/internal/database"
	"dreamcut-backend/internal/events"
	"dreamcut-backend/internal/handlers"
	"dreamcut-backend/internal/kie"
	"dreamcut-backend/internal/logger"
	"dreamcut-backend/internal/middleware"
	"dreamcut-backend/internal/services"
	"dreamcut-backend/internal/supabase"
	"dreamcut-backend/internal/ugcads"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to initialize database client", "error", err)
	}
	defer dbClient.Close()

	if err := database.NewMigrator(dbClient.DB(), log.With("component", "migrator")).Run(ctx); err != nil {
		log.Fatal("migration failed", "error", err)
	}

	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		log.Fatal("failed to initialize supabase client", "error", err)
	}
	assetClient := supabase.NewAssetClient(supabaseClient.Supabase)

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.ServerKey(), cfg.SupabaseStorageBucket)
	if err != nil {
		log.Fatal("failed to initialize storage client", "error", err)
	}

	kieClient := kie.NewClient(cfg.KieAPIBaseURL, cfg.KieAPIKey)

	sink := events.Multi{events.NewLogSink(log.With("component", "events"))}
	if cfg.RedisAddr != "" {
		rdb, err := events.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			log.Warn("redis unavailable, events are only logged", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer rdb.Close()
			sink = append(sink, events.NewRedisSink(rdb, cfg.RedisChannel, log))
		}
	}

	ugcService := ugcads.NewService(dbClient, assetClient, storageClient, kieClient, sink, ugcads.Options{
		QualityModel: cfg.KieQualityModel,
		FastModel:    cfg.KieFastModel,
		CallbackURL:  cfg.CallbackURL(),
		SignedURLTTL: cfg.SignedURLTTL,
	}, log)
	completionService := services.NewCompletionService(dbClient, kieClient, storageClient, sink,
		cfg.CallbackURL(), cfg.ArchiveURLTTL, log.With("service", "CompletionService"))

	ugcAdHandler := handlers.NewUGCAdHandler(ugcService, cfg.MaxUploadMB, log)
	statusHandler := handlers.NewStatusHandler(completionService, log)
	callbackHandler := handlers.NewKieCallbackHandler(completionService, cfg.KieCallbackToken, log)
	libraryHandler := handlers.NewLibraryHandler(dbClient, log)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log.With("component", "http")))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	router.GET("/health", handlers.HealthHandler(dbClient))

	// Provider callback (no session, optional shared token)
	router.POST("/api/kie/veo/callback", callbackHandler.HandleCallback)

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(cfg))

	api.POST("/ugc-ads", ugcAdHandler.Create)
	api.GET("/ugc-ads", ugcAdHandler.List)
	api.GET("/kie/veo/status", statusHandler.GetStatus)
	api.GET("/library", libraryHandler.List)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}()

	log.Info("server starting", "port", cfg.Port, "environment", cfg.Environment)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("failed to start server", "error", err)
	}
}
