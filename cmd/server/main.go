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
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/vouchersplit/backend/docs"
	"github.com/vouchersplit/backend/internal/audit"
	"github.com/vouchersplit/backend/internal/bluelabel"
	"github.com/vouchersplit/backend/internal/config"
	"github.com/vouchersplit/backend/internal/database"
	"github.com/vouchersplit/backend/internal/handlers"
	mW "github.com/vouchersplit/backend/internal/middleware"
	"github.com/vouchersplit/backend/internal/services"
	"github.com/vouchersplit/backend/internal/split"
	"github.com/vouchersplit/backend/internal/store"
)

// @title Voucher Split API
// @version 1.0
// @description Split, buy and redeem prepaid vouchers
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	config.Init(".env")
	if err := config.RequireJWTSecret(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	voucherCfg := config.LoadVoucherConfig()
	upstreamCfg := config.LoadBlueLabelConfig()
	if err := upstreamCfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	viper.SetDefault("server.port", "8080")
	port := viper.GetString("server.port")

	docs.SwaggerInfo.Host = "localhost:" + port

	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Upstream clients
	httpClient := bluelabel.NewHTTPClient(upstreamCfg.Timeout)
	tokens := bluelabel.NewClientCredentials(upstreamCfg, httpClient)
	splitClient := bluelabel.NewSplitClient(upstreamCfg.SplitBaseURL, httpClient, tokens)
	tradeClient := bluelabel.NewTradeClient(upstreamCfg, httpClient)

	// Persistence
	users := store.NewUserStore(db)
	history := store.NewHistoryStore(db)
	guard := newGuard(redisClient, voucherCfg)
	auditLogger := audit.NewLogger()

	// Services
	authService := services.NewAuthService(users, redisClient)
	voucherService := services.NewVoucherService(splitClient, tradeClient, history, guard, voucherCfg, auditLogger)
	executor := split.NewExecutor(splitClient, voucherCfg.SplitTimeout)
	splitService := services.NewSplitService(splitClient, executor, guard, history, voucherCfg, auditLogger)
	redeemService := services.NewRedeemService(splitClient, tradeClient, users, history, services.LogNotifier{}, auditLogger)
	historyService := services.NewHistoryService(history, voucherCfg.HistoryPageSize)
	exportService := services.NewExportService(history)

	splitHandler := handlers.NewSplitHandler(splitService, exportService)
	voucherHandler := handlers.NewVoucherHandler(voucherService)
	redeemHandler := handlers.NewRedeemHandler(redeemService)
	historyHandler := handlers.NewHistoryHandler(historyService)

	mW.InitAuthMiddleware(redisClient)
	limit := mW.RateLimit(redisClient, voucherCfg.RateLimitMax, voucherCfg.RateLimitWindow)

	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(mW.Metrics)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"ok":      true,
			"service": voucherCfg.ServiceName,
			"port":    port,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authService.Register)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)
		r.Get("/vouchers/denominations", voucherHandler.Denominations)

		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Get("/auth/account", authService.GetUserAccount)

			r.Post("/split/plan", splitHandler.Plan)
			r.Get("/split/export.csv", splitHandler.Export)
			r.Post("/split/export.csv", splitHandler.ExportResult)

			r.Post("/vouchers/validate", voucherHandler.Validate)
			r.Post("/vouchers/balance", voucherHandler.Balance)
			r.Post("/vouchers/qr", voucherHandler.QR)

			r.Post("/redeem/electricity/confirm", redeemHandler.ConfirmElectricity)

			r.Get("/history", historyHandler.List)
			r.Get("/history/{id}", historyHandler.Get)
			r.Patch("/history/{id}/status", historyHandler.UpdateStatus)

			// Calls that move money upstream
			r.Group(func(r chi.Router) {
				r.Use(limit)

				r.Post("/split/submit", splitHandler.Submit)
				r.Post("/vouchers/purchase", voucherHandler.Purchase)
				r.Post("/redeem/airtime", redeemHandler.Airtime)
				r.Post("/redeem/electricity", redeemHandler.VendElectricity)
				r.Post("/redeem/betway", redeemHandler.Betway)
				r.Post("/redeem/wallet", redeemHandler.Wallet)
			})
		})
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: voucherCfg.SplitTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

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

// newGuard shares split guards through redis when it is available so every
// instance sees in-flight splits.
func newGuard(client *redis.Client, cfg *config.VoucherConfig) split.Guard {
	if client == nil {
		return split.NewMemoryGuard(cfg.PendingSplitTTL, cfg.UnknownSplitTTL)
	}
	return split.NewRedisGuard(client, cfg.PendingSplitTTL, cfg.UnknownSplitTTL)
}
