package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"family-registry-go/internal/config"
	"family-registry-go/pkg/logger"
	"gorm.io/gorm"
)

const (
	migrationsDirName = "migrations"
	migrationLockKey  = "schema_migrations"
)

type migration struct {
	name string
	sql  string
}

type appliedMigration struct {
	Filename  string `gorm:"primaryKey"`
	AppliedAt time.Time
}

func (appliedMigration) TableName() string {
	return "schema_migrations"
}

// Migrate brings the schema up to date. Postgres applies the SQL files from
// cfg.MigrationsDir (or the nearest migrations directory) once each, every
// file in its own transaction; SQLite is built from the models.
func Migrate(db *gorm.DB, cfg config.DBConfig, log logger.Logger) error {
	if cfg.Driver == config.DriverSQLite {
		log.Info("db: migrating sqlite schema from models")
		return MigrateModels(db)
	}

	dir := cfg.MigrationsDir
	if dir == "" {
		found, err := findMigrationsDir(migrationsDirName)
		if errors.Is(err, os.ErrNotExist) {
			log.Warn("db: migrations directory not found, skipping")
			return nil
		}
		if err != nil {
			return err
		}
		dir = found
	}

	migrations, err := loadMigrations(dir)
	if err != nil {
		return err
	}
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`).Error; err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		applied, err := applyMigration(db, m)
		if err != nil {
			return err
		}
		if applied {
			log.Info("db: applied migration", "file", m.name)
		}
	}
	return nil
}

// applyMigration runs m under a transaction-scoped advisory lock so two
// instances booting together apply it once.
func applyMigration(db *gorm.DB, m migration) (bool, error) {
	applied := false
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", migrationLockKey).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&appliedMigration{}).Where("filename = ?", m.name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		if err := tx.Exec(m.sql).Error; err != nil {
			return err
		}
		applied = true
		return tx.Create(&appliedMigration{Filename: m.name, AppliedAt: time.Now().UTC()}).Error
	})
	if err != nil {
		return false, fmt.Errorf("apply migration %s: %w", m.name, err)
	}
	return applied, nil
}

// loadMigrations reads the non-empty .sql files of dir in name order.
func loadMigrations(dir string) ([]migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var migrations []migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		sql := strings.TrimSpace(string(contents))
		if sql == "" {
			continue
		}
		migrations = append(migrations, migration{name: entry.Name(), sql: sql})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].name < migrations[j].name
	})
	return migrations, nil
}

func findMigrationsDir(dirName string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, dirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
