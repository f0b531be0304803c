package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/claimwise/platform/pkg/cache"
	"github.com/claimwise/platform/pkg/claims"
	"github.com/claimwise/platform/pkg/common/config"
	"github.com/claimwise/platform/pkg/common/database"
	"github.com/claimwise/platform/pkg/common/kafka"
	"github.com/claimwise/platform/pkg/common/logger"
	"github.com/claimwise/platform/pkg/ledger"
	"github.com/claimwise/platform/pkg/policy"
)

func main() {
	logger.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("Database unavailable")
	}
	defer database.ClosePostgres()

	if err := policy.NewRepository(db).AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("Migration failed")
	}
	ledgerRepo := ledger.NewRepository(db)
	if err := ledgerRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("Migration failed")
	}

	redisClient := database.GetRedis()
	defer database.CloseRedis()
	utilization := claims.NewCachedUtilization(claims.NewRepository(db), cache.New(redisClient, "claims:", cfg.CacheTTL))

	handler := ledger.NewHandler(ledgerRepo, utilization)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.ClaimsTopic, cfg.KafkaGroupID)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"topic": cfg.ClaimsTopic,
			"group": cfg.KafkaGroupID,
		}).Info("Claims Ledger started")
		done <- consumer.Consume(ctx, handler.Handle)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Log.Info("Shutting down Claims Ledger...")
		cancel()
		<-done
	case err := <-done:
		if err != nil && ctx.Err() == nil {
			logger.Log.WithError(err).Fatal("Consumer error")
		}
	}

	logger.Log.Info("Claims Ledger stopped")
}
