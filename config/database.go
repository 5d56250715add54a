package config

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tastemichigan/api-go/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the Postgres connection shared by every handler for the life
// of the process and migrates the schema when enabled.
func InitDB(cfg DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		log.Info().Msg("database schema migrated")
	}

	return db, nil
}

// Migrate creates or updates the tables this service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Place{}, &models.CachedProduct{}, &models.CachedEpisode{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
