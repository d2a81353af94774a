package db

import (
	"errors"
	"fmt"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// blank imports register the postgres driver and file source for golang-migrate
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/caddieworks/myloopcount/internal/models"
)

// Connect opens the postgres database, retrying while the server comes up.
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("empty DATABASE_DSN")
	}
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}
	var conn *gorm.DB
	var err error
	for i := 0; i < 10; i++ {
		conn, err = gorm.Open(postgres.Open(dsn), cfg)
		if err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database after retries: %w", err)
	}
	if pingErr := conn.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	return conn, nil
}

// Models returns the full AutoMigrate list in dependency order.
func Models() []any {
	return []any{
		&models.User{}, &models.Caddy{}, &models.FollowEdge{},
		&models.Loop{}, &models.CaddyMaster{}, &models.CaddyShack{},
	}
}

// Migrate brings the schema up to date. With sqlMigrations it runs the
// versioned SQL files under ./migrations via golang-migrate; otherwise it
// falls back to GORM AutoMigrate (dev convenience).
func Migrate(conn *gorm.DB, dsn string, sqlMigrations bool) error {
	if sqlMigrations {
		m, err := migrate.New("file://migrations", dsn)
		if err != nil {
			return err
		}
		if err = m.Up(); err != nil && err != migrate.ErrNoChange {
			return err
		}
	} else {
		for _, mdl := range Models() {
			if err := conn.AutoMigrate(mdl); err != nil {
				return fmt.Errorf("automigrate %T: %w", mdl, err)
			}
		}
	}
	for _, table := range []string{"users", "caddies", "follow_edges", "loops"} {
		if !conn.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}
