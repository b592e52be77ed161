package config

import (
	"fmt"
	"strings"

	"github.com/kendall-kelly/maintenance-orders-api/models"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DialectorFor picks the gorm driver for a database URL: postgres:// and
// postgresql:// use PostgreSQL, anything else is a SQLite path or DSN
func DialectorFor(databaseURL string) gorm.Dialector {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return postgres.Open(databaseURL)
	}
	return sqlite.Open(strings.TrimPrefix(databaseURL, "sqlite://"))
}

// ConnectDatabase opens the database holding the key-value namespace and
// migrates the kv_entries table
func ConnectDatabase(databaseURL string, logger zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(DialectorFor(databaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if db.Dialector.Name() == "sqlite" {
		// one writer keeps read-modify-write cycles and :memory: databases consistent
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database instance: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&models.KVEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info().Str("driver", db.Dialector.Name()).Msg("database connection established")
	return db, nil
}
