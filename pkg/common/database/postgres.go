package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/claimwise/platform/pkg/common/config"
	"github.com/claimwise/platform/pkg/common/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	db     *gorm.DB
	dbErr  error
	dbOnce sync.Once
)

var ErrMissingDSN = errors.New("DATABASE_URL environment variable not set")

func GetPostgres() (*gorm.DB, error) {
	dbOnce.Do(func() {
		cfg := config.Load()
		db, dbErr = Open(cfg)
	})
	return db, dbErr
}

// Open connects to Postgres, sizes the pool and verifies the connection with
// a round trip before returning.
func Open(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.PostgresDSN()
	if dsn == "" {
		return nil, ErrMissingDSN
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		logger.Log.WithError(err).Error("Failed to connect to PostgreSQL")
		return nil, explainConnectError(err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBConnectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Log.WithError(err).Error("PostgreSQL ping failed")
		return nil, explainConnectError(err)
	}

	logger.Log.Info("Connected to PostgreSQL")
	return conn, nil
}

func explainConnectError(err error) error {
	if strings.Contains(err.Error(), "connection refused") {
		return fmt.Errorf("cannot connect to database; check the DATABASE_URL format, "+
			"try the connection pooler port 6543 instead of 5432, and ensure sslmode=require: %w", err)
	}
	return err
}

func ClosePostgres() error {
	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
