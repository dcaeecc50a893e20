package database

import (
	"strings"

	"protegeya-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const sqlitePrefix = "sqlite:"

// Open opens a GORM DB from DSN. A "sqlite:" prefix selects an embedded SQLite file
// (e.g. "sqlite:protegeya.db" or "sqlite::memory:"); anything else is a Postgres URL.
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind connection poolers such as PgBouncer.
func Open(dsn string) (*gorm.DB, error) {
	if path, ok := strings.CutPrefix(dsn, sqlitePrefix); ok {
		db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
		if err != nil {
			return nil, err
		}
		// SQLite allows one writer; ":memory:" databases also live on a single connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{TranslateError: true})
}

// Models lists every persisted record type in migration order.
func Models() []interface{} {
	return []interface{}{
		&domain.Insurer{},
		&domain.RateTable{},
		&domain.VehicleExclusion{},
		&domain.Broker{},
		&domain.Lead{},
		&domain.AssignmentCursor{},
		&domain.SubscriptionPlan{},
		&domain.BrokerAccount{},
		&domain.AccountTransaction{},
		&domain.AccountStatusChange{},
		&domain.SystemConfiguration{},
	}
}

// AutoMigrate creates or updates the schema of every model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
