package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/peerrent/verification/internal/handlers"
	"github.com/peerrent/verification/internal/mailer"
	"github.com/peerrent/verification/internal/repository"
	"github.com/peerrent/verification/internal/service"
	"github.com/peerrent/verification/pkg/config"
	"github.com/peerrent/verification/pkg/database"
	"github.com/peerrent/verification/pkg/events"
	"github.com/peerrent/verification/pkg/logger"
	mw "github.com/peerrent/verification/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Connect to database
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Connect to Redis
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid Redis URL", "error", err)
		os.Exit(1)
	}
	if cfg.Redis.Password != "" {
		redisOpts.Password = cfg.Redis.Password
	}
	redisOpts.DB = cfg.Redis.DB
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Connect to event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool)
	verifyRepo := repository.NewVerifyRepository(pool)
	otpRepo := repository.NewOTPRepository(redisClient)
	rateLimitRepo := repository.NewRateLimitRepository(pool)

	// Initialize mailer
	mailService := selectMailer(cfg)

	// Initialize services
	authService := service.NewAuthService(userRepo, eventBus, cfg)
	verifyService := service.NewVerificationService(userRepo, verifyRepo, otpRepo, mailService, eventBus, cfg)

	// Initialize handlers
	h := handlers.New(authService, verifyService, rateLimitRepo, cfg)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("verification"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Verification.BaseURL},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Routes
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})

	r.Route("/verification", func(r chi.Router) {
		// The guard answers anonymous callers with its auth-required
		// branch instead of a plain 401.
		r.With(h.OptionalJWT()).Get("/guard", h.Guard)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireJWT())

			r.Get("/status", h.Status)
			r.Get("/steps/{step}/gate", h.GateStep)
			r.Post("/steps/{step}/skip", h.SkipStep)

			r.Post("/profile", h.SubmitProfile)

			r.With(h.RateLimit("email_send", 5, time.Minute)).Post("/email/send", h.SendEmailVerification)
			r.With(h.RateLimit("email_send", 5, time.Minute)).Post("/email/resend", h.ResendEmailVerification)
			r.Post("/email/confirm", h.ConfirmEmail)

			r.With(h.RateLimit("phone_code", 5, time.Minute)).Post("/phone/request-code", h.RequestPhoneCode)
			r.Post("/phone/verify", h.VerifyPhoneCode)

			r.Post("/documents", h.SubmitDocuments)
			r.Post("/address", h.SubmitAddress)
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down verification service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Verification service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting verification service", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Verification service error", "error", err)
		os.Exit(1)
	}
}

func selectMailer(cfg *config.Config) mailer.Service {
	if cfg.Email.DevMode {
		return mailer.NewDevMailer()
	}
	if cfg.Email.MailerSendKey != "" {
		return mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.SMTPFrom)
	}
	return mailer.NewSMTPMailer(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPFrom,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPass,
		cfg.Email.SMTPUseTLS,
	)
}
