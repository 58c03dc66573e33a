package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/joho/godotenv/autoload"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/corebank/lending-engine/internal/cache"
	"github.com/corebank/lending-engine/internal/config"
	"github.com/corebank/lending-engine/internal/events"
	"github.com/corebank/lending-engine/internal/repository"
	"github.com/corebank/lending-engine/internal/scheduler"
	"github.com/corebank/lending-engine/internal/service"
	"github.com/corebank/lending-engine/pkg/logger"
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

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		zlog.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	loanRepo := repository.NewLoanRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	transactor := repository.NewTransactor(db)
	loanCache := cache.NewLoanCache(redisClient, cfg.GetLoanCacheTTL(), zlog)
	sink := events.NewRedisPublisher(redisClient, eventChannel, zlog)

	lendingService := service.NewLendingService(loanRepo, accountRepo, txnRepo, transactor, loanCache, sink, cfg, zlog)
	watcher := scheduler.NewDefaultWatcher(lendingService, zlog)

	c := cron.New(cron.WithSeconds())

	// Daily sweep for defaulted loans (midnight).
	if _, err := c.AddFunc("0 0 0 * * *", watcher.Run); err != nil {
		zlog.Fatal("failed to schedule default sweep", zap.Error(err))
	}

	c.Start()
	zlog.Info("scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down scheduler")
	c.Stop()
	zlog.Info("scheduler stopped")
}
