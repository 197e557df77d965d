package db

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/Bekzhanizb/QuitTrackerBackend/config"
	"github.com/Bekzhanizb/QuitTrackerBackend/models"
	"github.com/Bekzhanizb/QuitTrackerBackend/utils"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const maxRetries = 10

func Connect(cfg config.Config) (*gorm.DB, error) {
	dialector, target, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  !cfg.IsProduction(),
		},
	)

	var conn *gorm.DB
	for i := 0; i < maxRetries; i++ {
		conn, err = gorm.Open(dialector, &gorm.Config{
			Logger: gormLogger,
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
			PrepareStmt: cfg.DBDriver != "sqlite",
		})
		if err == nil {
			if err = configurePool(conn, cfg.DBDriver); err == nil {
				utils.Logger.Info("database_connected",
					zap.String("driver", cfg.DBDriver),
					zap.String("target", target),
				)
				return conn, nil
			}
		}

		utils.Logger.Warn("database_connect_retry",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Error(err),
		)
		time.Sleep(2 * time.Second)
	}

	return nil, fmt.Errorf("connect %s after %d attempts: %w", cfg.DBDriver, maxRetries, err)
}

// Migrate creates the entity and index tables.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(&models.Entity{}, &models.EntityIndex{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func dialectorFor(cfg config.Config) (gorm.Dialector, string, error) {
	switch cfg.DBDriver {
	case "postgres", "":
		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode,
		)
		return postgres.Open(dsn), cfg.DBHost + ":" + cfg.DBPort, nil
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, "", fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		return sqlite.Open(cfg.SQLitePath + "?_busy_timeout=5000&_journal_mode=WAL"), cfg.SQLitePath, nil
	default:
		return nil, "", fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

func configurePool(conn *gorm.DB, driver string) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Ping(); err != nil {
		return err
	}

	if driver == "sqlite" {
		// one writer at a time; sqlite has no row locks
		sqlDB.SetMaxOpenConns(1)
		return nil
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return nil
}
