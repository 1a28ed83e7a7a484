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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/mstgnz/payone-bridge/handler"
	"github.com/mstgnz/payone-bridge/infra/config"
	"github.com/mstgnz/payone-bridge/infra/logger"
	"github.com/mstgnz/payone-bridge/infra/middle"
	"github.com/mstgnz/payone-bridge/infra/opensearch"
	"github.com/mstgnz/payone-bridge/infra/response"
	"github.com/mstgnz/payone-bridge/infra/validate"
	"github.com/mstgnz/payone-bridge/payone"
	v1 "github.com/mstgnz/payone-bridge/router/v1"
)

var (
	PORT             string
	openSearchLogger *opensearch.Logger
)

func init() {
	// Load Env
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
	// init conf
	_ = config.App()
	validate.CustomValidate()

	PORT = config.GetEnv("APP_PORT", "9999")

	// Initialize OpenSearch client and logger
	cfg := config.GetAppConfig()
	if cfg.EnableLogging {
		osClient, err := opensearch.NewClient(cfg)
		if err != nil {
			log.Printf("Failed to initialize OpenSearch client: %v", err)
			log.Println("Continuing without OpenSearch logging...")
		} else {
			openSearchLogger = opensearch.NewLogger(osClient)
			log.Println("OpenSearch logging initialized successfully")
		}
	} else {
		log.Println("OpenSearch logging is disabled")
	}

	logger.InitGlobalLogger(openSearchLogger)
}

func main() {
	cfg := config.GetAppConfig()

	// Persistent key-value store for settings and transaction history
	store, err := config.NewSQLiteStore(cfg.StorePath)
	if err != nil {
		logger.Fatal("Failed to open plugin store", err)
	}
	defer store.Close()

	settingsStore := config.NewSettingsStore(store)
	if err := settingsStore.Bootstrap(); err != nil {
		logger.Fatal("Failed to bootstrap settings", err)
	}

	transactionStore := payone.NewTransactionStore(store)
	gateway := payone.NewClient(settingsStore, transactionStore)

	settingsHandler := handler.NewSettingsHandler(settingsStore, config.App().Validator)
	paymentHandler := handler.NewPaymentHandler(gateway)
	historyHandler := handler.NewHistoryHandler(transactionStore)

	// Chi Define Routes
	r := chi.NewRouter()

	// Basic Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Security Middleware
	r.Use(middle.SecurityHeadersMiddleware())
	r.Use(middle.RequestValidationMiddleware())

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Origin", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "Content-Length", "Access-Control-Allow-Origin"},
		AllowCredentials: true,
		MaxAge:           300, // Preflight cache time (second)
	}))

	// Health check endpoint (no auth required)
	r.Get("/health", handler.Health)

	// Admin API routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(middle.AuthMiddleware())
		v1.Routes(r, settingsHandler, paymentHandler, historyHandler)
	})

	// Externally callable payment surface, gated by API tokens
	r.Route("/api", func(r chi.Router) {
		r.Use(middle.TokenAuthMiddleware())
		v1.PaymentRoutes(r, paymentHandler)
	})

	// Not Found
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = response.WriteJSON(w, http.StatusNotFound, response.Response{Success: false, Message: "Not Found"})
	})

	// Create a context that listens for interrupt and terminate signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", PORT),
		Handler:           r,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 60 * time.Second,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal(err.Error())
		}
	}()

	logger.Info("API is running", logger.LogContext{Fields: map[string]any{"port": PORT}})

	// Block until a signal is received
	<-ctx.Done()

	logger.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", err)
	}
}
