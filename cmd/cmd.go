package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"couple-sync-backend/internal/config"
	"couple-sync-backend/internal/database"
	"couple-sync-backend/internal/handlers"
	"couple-sync-backend/internal/middleware"
	"couple-sync-backend/internal/push"
	"couple-sync-backend/internal/repository"
	"couple-sync-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Run schema migrations
	if err := database.Migrate(cfg.Database.DSN()); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	coupleRepo := repository.NewCoupleRepository(db)
	codeRepo := repository.NewPairingCodeRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	rewardRepo := repository.NewRewardRepository(db)
	questRepo := repository.NewQuestRepository(db)

	// Initialize hint channels
	hub := services.NewHub()
	pusher := push.Disabled()
	if cfg.Push.Enabled {
		pusher, err = push.New(push.Config{
			CertPath: cfg.Push.CertPath,
			CertPass: cfg.Push.CertPass,
			Topic:    cfg.Push.Topic,
			Sandbox:  cfg.Push.Sandbox,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create push service")
		}
	}
	notifier := services.NewHintNotifier(hub, pusher, userRepo)

	// Initialize services
	userService := services.NewUserService(userRepo, cfg.JWT.Secret)
	pairingService := services.NewPairingService(
		coupleRepo, codeRepo, userRepo, sessionRepo, notifier, cfg.Pairing.CodeTTL(),
	)
	rewardService := services.NewRewardService(rewardRepo, cfg.Rewards.BalanceFloor)
	questService := services.NewQuestService(questRepo, coupleRepo, notifier)
	sessionService := services.NewSessionService(
		sessionRepo, coupleRepo, rewardService, questService,
		services.DefaultPromptSource{}, notifier, cfg.Rewards.CompletionAward,
	)
	avatarService, err := services.NewAvatarService(
		userRepo,
		cfg.AWS.Region,
		cfg.AWS.S3Bucket,
		cfg.AWS.AccessKey,
		cfg.AWS.SecretKey,
		cfg.AWS.Endpoint,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create avatar service")
	}

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	pairingHandler := handlers.NewPairingHandler(pairingService, cfg.Pairing.QRSize)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	rewardHandler := handlers.NewRewardHandler(rewardService)
	questHandler := handlers.NewQuestHandler(questService, pairingService)
	avatarHandler := handlers.NewAvatarHandler(avatarService)
	wsHandler := handlers.NewWebSocketHandler(hub, userService, pairingService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/users", userHandler.CreateUser)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))

			r.Get("/users/me", userHandler.GetMe)
			r.Put("/users/me/push-token", userHandler.UpdatePushToken)
			r.Delete("/users/me", userHandler.ArchiveMe)
			r.Post("/users/me/avatar", avatarHandler.PrepareUpload)

			r.Post("/pairing/codes", pairingHandler.GenerateCode)
			r.Get("/pairing/codes/{code}/qr", pairingHandler.CodeQR)
			r.Post("/pairing/redeem", pairingHandler.RedeemCode)
			r.Post("/pairing/direct", pairingHandler.PairDirect)
			r.Get("/pairing/status", pairingHandler.Status)
			r.Delete("/couples/{couple_id}", pairingHandler.Unpair)
			r.Get("/couples/{couple_id}/streak", questHandler.Streak)

			r.Post("/sessions", sessionHandler.GetOrCreate)
			r.Get("/sessions/{session_id}", sessionHandler.Get)
			r.Post("/sessions/{session_id}/answers", sessionHandler.SubmitAnswers)

			r.Get("/points/balance", rewardHandler.Balance)
			r.Get("/points/transactions", rewardHandler.Recent)
			r.Post("/points/spend", rewardHandler.Spend)

			r.Get("/quests/{quest_id}", questHandler.Get)
			r.Post("/quests/{quest_id}/complete", questHandler.Complete)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
