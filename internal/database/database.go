package database

import (
	"imovelhub/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open opens a GORM DB. An empty DSN gives an in-memory sqlite database
// (dev server, tests); otherwise the DSN is treated as Postgres.
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind connection poolers.
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	}
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
}

// AutoMigrate runs migrations for the collection/listing tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Collection{}, &domain.Listing{}, &domain.ChangeEvent{})
}
