package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"

	"github.com/marketpulse/backend/internal/auth"
	"github.com/marketpulse/backend/internal/database"
	"github.com/marketpulse/backend/internal/ledger"
	mW "github.com/marketpulse/backend/internal/middleware"
	"github.com/marketpulse/backend/internal/services"
)

// @title MarketPulse Backend API
// @version 1.0
// @description Campaign CRM, sports betting and stock portfolio API
// @host localhost:8080
// @BasePath /api
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	viper.SetDefault("jwt.secret_key", "dev-secret-change-me")
	viper.SetDefault("jwt.expiry_hours", 24)

	passwords := auth.DefaultParams()
	if viper.IsSet("argon2.time") {
		passwords.Time = viper.GetUint32("argon2.time")
	}
	if viper.IsSet("argon2.memory") {
		passwords.Memory = viper.GetUint32("argon2.memory")
	}
	if viper.IsSet("argon2.threads") {
		passwords.Threads = uint8(viper.GetUint("argon2.threads"))
	}
	if viper.IsSet("argon2.key_length") {
		passwords.KeyLength = viper.GetUint32("argon2.key_length")
	}
	if viper.IsSet("argon2.salt_length") {
		passwords.SaltLength = viper.GetUint32("argon2.salt_length")
	}

	// Initialize services
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	if err := database.EnsureSchema(db, passwords); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	tokenTTL := time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
	tokens := auth.NewTokenService(db, viper.GetString("jwt.secret_key"), tokenTTL)
	ledgerService := ledger.NewService(db)

	authService := services.NewAuthService(db, redisClient, tokens, passwords, tokenTTL)
	campaignService := services.NewCampaignService(db)
	bettingService := services.NewBettingService(db, ledgerService)
	portfolioService := services.NewPortfolioService(db, ledgerService)
	mockService := services.NewMockService(db)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/register", authService.Register)
		r.Post("/login", authService.Login)
		r.Post("/logout", authService.Logout)
		r.Post("/mock/generate", mockService.Generate)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.RequireAuth(tokens, redisClient))

			r.Get("/me", authService.Me)

			// CRM endpoints
			r.Get("/campaigns", campaignService.ListCampaigns)
			r.Post("/campaigns", campaignService.CreateCampaign)
			r.Get("/campaigns/{id}", campaignService.GetCampaign)
			r.Post("/campaigns/{id}/leads", campaignService.AddLead)
			r.Put("/campaigns/{id}/leads/{leadId}", campaignService.UpdateLead)
			r.Get("/dashboardStats", campaignService.DashboardStats)

			// Betting endpoints
			r.Get("/matches", bettingService.ListMatches)
			r.Get("/bets", bettingService.ListBets)
			r.Post("/bets", bettingService.PlaceBet)
			r.Get("/bettingSummary", bettingService.BettingSummary)

			// Portfolio endpoints
			r.Get("/portfolio", portfolioService.ListPortfolio)
			r.Post("/portfolio", portfolioService.BuyStock)
			r.Get("/portfolioSummary", portfolioService.PortfolioSummary)

			// Admin endpoints
			r.Group(func(r chi.Router) {
				r.Use(mW.RequireAdmin)

				r.Post("/matches/{id}/settle", bettingService.SettleMatch)
				r.Post("/stocks/prices", portfolioService.RecordPrice)
			})
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
