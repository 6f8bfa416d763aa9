package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"family-registry-go/internal/config"
	"family-registry-go/pkg/logger"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

const (
	defaultTxAttempts = 3
	retryBackoff      = 25 * time.Millisecond
)

// familyTxOptions keeps postgres at READ COMMITTED. Every statement after the
// advisory lock takes a fresh snapshot, so a waiter sees the holder's commit
// once it gets the lock. A SERIALIZABLE snapshot would be taken before the
// lock wait and go stale.
var familyTxOptions = &sql.TxOptions{Isolation: sql.LevelReadCommitted}

// TxRunner runs family-scoped transactions. On postgres each one holds an
// advisory lock keyed by the family id, so work on the same family is
// linearised while different families proceed in parallel. Deadlocks, lock
// timeouts and serialization failures are retried a bounded number of times.
type TxRunner struct {
	driver      string
	maxAttempts int
	log         logger.Logger
}

func NewTxRunner(driver string, maxAttempts int, log logger.Logger) *TxRunner {
	if maxAttempts <= 0 {
		maxAttempts = defaultTxAttempts
	}
	return &TxRunner{driver: driver, maxAttempts: maxAttempts, log: log}
}

// InFamily calls fn inside a new transaction. fn may run more than once and
// must not keep state from a failed attempt.
func (r *TxRunner) InFamily(ctx context.Context, db *gorm.DB, familyID string, fn func(tx *gorm.DB) error) error {
	for attempt := 1; ; attempt++ {
		err := r.run(ctx, db, familyID, fn)
		if err == nil || !IsRetryable(err) || attempt >= r.maxAttempts {
			return err
		}

		r.log.FromContext(ctx).Warn("db: retrying family transaction", "family_id", familyID, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
}

func (r *TxRunner) run(ctx context.Context, db *gorm.DB, familyID string, fn func(tx *gorm.DB) error) error {
	if r.driver == config.DriverSQLite {
		return db.WithContext(ctx).Transaction(fn)
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", familyID).Error; err != nil {
			return fmt.Errorf("lock family %s: %w", familyID, err)
		}
		return fn(tx)
	}, familyTxOptions)
}

// IsRetryable reports serialization failures, deadlocks, lock timeouts and
// sqlite busy errors.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
		return false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
