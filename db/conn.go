// Package db opens the SQL store the credential and telemetry stores share
package db

import (
	"fmt"
	"strings"

	"sensorhub/telemetry-api/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the database described by uri and migrates the schema.
// postgres:// and postgresql:// URIs, as well as key=value DSNs containing
// host=, go to Postgres. Anything else is treated as a SQLite path, with an
// optional sqlite:// prefix.
func Open(uri string) (*gorm.DB, error) {
	dialector := Dialector(uri)

	if dialector.Name() == "sqlite" {
		if err := checkSQLiteMount(strings.TrimPrefix(uri, "sqlite://")); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database, %w", dialector.Name(), err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Dialector(uri string) gorm.Dialector {
	if strings.HasPrefix(uri, "postgres://") ||
		strings.HasPrefix(uri, "postgresql://") ||
		strings.Contains(uri, "host=") {
		return postgres.Open(uri)
	}

	path := strings.TrimPrefix(uri, "sqlite://")
	if !strings.Contains(path, "_foreign_keys") && !strings.Contains(path, "_fk") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		path += sep + "_foreign_keys=on"
	}

	return sqlite.Open(path)
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(&model.User{}, &model.Reading{})
	if err != nil {
		return fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return nil
}
