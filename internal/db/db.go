package db

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"user-api/internal/config"
	"user-api/internal/user"
)

// Open connects to the configured database and migrates the schema.
func Open(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.Database.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	db, err := open(dialector, newGormLogger(log))
	if err != nil {
		return nil, err
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("database connected and migrated")
	return db, nil
}

// OpenSQLite opens a sqlite database with the same settings as Open. Used
// for local runs and tests.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	return open(sqlite.Open(dsn), newGormLogger(zerolog.Nop()))
}

func open(dialector gorm.Dialector, l *gormLogger) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         l,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&user.User{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
