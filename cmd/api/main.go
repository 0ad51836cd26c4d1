package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/phizone/record-api/internal/config"
	"github.com/phizone/record-api/internal/events"
	"github.com/phizone/record-api/internal/handlers"
	"github.com/phizone/record-api/internal/logging"
	"github.com/phizone/record-api/internal/middleware"
	"github.com/phizone/record-api/internal/services"
	"github.com/phizone/record-api/internal/session"
	"github.com/phizone/record-api/internal/storage"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.toml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logging.Warn().Err(err).Str("path", configPath).Msg("failed to load config, using defaults")
		cfg = config.DefaultConfig()
	}

	logging.Init(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	log := logging.Component("main")

	// Database
	db, err := storage.New(cfg.Database.DatabaseURL())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "./migrations"
	}
	if err := db.Migrate(migrationsPath); err != nil {
		log.Warn().Err(err).Msg("migrations failed")
	}

	// Play-session store
	sessions, err := session.Open(cfg.Session.Path, time.Duration(cfg.Session.TTLDays)*24*time.Hour)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open session store")
	}
	defer sessions.Close()

	// Event publishing
	producer := events.Disabled()
	if cfg.Kafka.Enabled {
		producer, err = events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event producer")
		}
	}
	defer producer.Close()

	// Services
	playerService := services.NewPlayerService(db)
	chartService := services.NewChartService(db)
	recordService := services.NewRecordService(db, sessions, producer)

	// HTTP server
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	jwtSecret := os.Getenv("JWT_SECRET")
	jwtExpiration := time.Duration(cfg.Auth.ExpirationHours) * time.Hour

	authHandler := handlers.NewAuthHandler(playerService, jwtSecret, jwtExpiration)
	recordHandler := handlers.NewRecordHandler(recordService)
	playerHandler := handlers.NewPlayerHandler(playerService, recordService, chartService)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/profile", middleware.JWTMiddleware(jwtSecret), authHandler.Profile)
		}

		api.POST("/configurations", middleware.JWTMiddleware(jwtSecret), authHandler.CreateConfiguration)
		api.POST("/play", middleware.JWTMiddleware(jwtSecret), recordHandler.StartPlay)

		// Submissions authenticate via the HMAC in the payload.
		api.POST("/records", recordHandler.Submit)
		api.GET("/records/:id", recordHandler.GetRecord)

		api.GET("/players/:id", playerHandler.GetPlayer)
		api.GET("/players/:id/best", playerHandler.GetBest)

		api.GET("/charts/:id", playerHandler.GetChart)
		api.GET("/charts/:id/leaderboard", playerHandler.GetLeaderboard)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("server forced to shutdown")
		}
	}()

	log.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("failed to start server")
	}

	log.Info().Msg("server exited")
}
