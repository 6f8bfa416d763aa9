package db

import (
	"fmt"

	"family-registry-go/internal/domain/account"
	"family-registry-go/internal/domain/audit"
	"family-registry-go/internal/domain/family"
	"family-registry-go/internal/domain/role"
	"gorm.io/gorm"
)

// Models lists every persisted type.
func Models() []any {
	return []any{
		&role.Role{},
		&account.Account{},
		&family.MemberRecord{},
		&audit.Entry{},
	}
}

// contactIndexes keep email and mobile unique among live, non-rejected
// accounts. The same statements exist in the postgres migration.
var contactIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_accounts_email_live ON accounts (email) WHERE email IS NOT NULL AND deleted_at IS NULL AND status <> 'rejected'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_accounts_mobile_live ON accounts (mobile) WHERE mobile IS NOT NULL AND deleted_at IS NULL AND status <> 'rejected'`,
}

// MigrateModels creates tables from the models. Used for SQLite and tests.
func MigrateModels(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, statement := range contactIndexes {
		if err := db.Exec(statement).Error; err != nil {
			return fmt.Errorf("create contact index: %w", err)
		}
	}
	return nil
}
