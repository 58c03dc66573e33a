package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/joho/godotenv/autoload"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/corebank/lending-engine/internal/cache"
	"github.com/corebank/lending-engine/internal/config"
	"github.com/corebank/lending-engine/internal/events"
	"github.com/corebank/lending-engine/internal/handler"
	"github.com/corebank/lending-engine/internal/repository"
	"github.com/corebank/lending-engine/internal/service"
	"github.com/corebank/lending-engine/pkg/logger"
	"github.com/corebank/lending-engine/pkg/response"
)

const eventChannel = "lending:events"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	db, err := initDB(cfg)
	if err != nil {
		zlog.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	loanRepo := repository.NewLoanRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	transactor := repository.NewTransactor(db)

	loanCache := cache.NewLoanCache(redisClient, cfg.GetLoanCacheTTL(), zlog)
	sink := events.NewRedisPublisher(redisClient, eventChannel, zlog)

	lendingService := service.NewLendingService(loanRepo, accountRepo, txnRepo, transactor, loanCache, sink, cfg, zlog)
	lendingHandler := handler.NewLendingHandler(lendingService, zlog)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	router := setupRoutes(lendingHandler, healthHandler, zlog)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zlog.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zlog.Fatal("server forced to shutdown", zap.Error(err))
	}

	zlog.Info("server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(lendingHandler *handler.LendingHandler, healthHandler *handler.HealthHandler, zlog *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(zlog))

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/loans", lendingHandler.ApplyLoan).Methods("POST")
	api.HandleFunc("/loans/{loanId}", lendingHandler.GetLoan).Methods("GET")
	api.HandleFunc("/loans/{loanId}/approve", lendingHandler.ApproveLoan).Methods("POST")
	api.HandleFunc("/loans/{loanId}/reject", lendingHandler.RejectLoan).Methods("POST")
	api.HandleFunc("/loans/{loanId}/emi", lendingHandler.PayEMI).Methods("POST")
	api.HandleFunc("/loans/{loanId}/preclose", lendingHandler.PreCloseLoan).Methods("POST")
	api.HandleFunc("/borrowers/{borrowerId}/loans", lendingHandler.ListLoans).Methods("GET")
	api.HandleFunc("/borrowers/{borrowerId}/bills", lendingHandler.GetDueBills).Methods("GET")

	return router
}
