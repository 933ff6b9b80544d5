// Package sql implements core.Store on top of gorm, backed by SQLite or
// MySQL.
//
// Each unit of work is one database transaction. The active-update rule is
// enforced by a unique index on ota_updates.active_slot and lifecycle
// changes are conditional updates on the expected status, so two
// concurrent units can never both commit a conflicting write.
package sql

import (
	"context"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/autopeer-io/otahub/internal/otahub/core"
	"github.com/autopeer-io/otahub/pkg/log"
	"github.com/autopeer-io/otahub/pkg/options"
)

var _ core.Store = (*Store)(nil)

// Store is a core.Store over a gorm connection pool.
type Store struct {
	db *gorm.DB
}

// Open connects to the database described by opts and, if requested,
// migrates the schema.
func Open(opts *options.StoreOptions) (*Store, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case options.StoreDriverSQLite:
		dialector = sqlite.Open(opts.DSN)
	case options.StoreDriverMySQL:
		dialector = mysql.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("sql store: unsupported driver %q", opts.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(log.WithName("gorm")),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("sql store: open %s: %w", opts.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql store: pool: %w", err)
	}
	// SQLite has a single writer; one connection keeps transactions queued
	// in the pool instead of failing with SQLITE_BUSY.
	if opts.Driver == options.StoreDriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)

	s := New(db)
	if opts.AutoMigrate {
		if err := s.Migrate(); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	log.Info("SQL store ready", "driver", opts.Driver, "autoMigrate", opts.AutoMigrate)
	return s, nil
}

// New wraps an existing gorm connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the vehicles and ota_updates tables.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("sql store: migrate: %w", err)
	}
	return nil
}

// Atomic runs fn inside one transaction. Errors from fn roll the
// transaction back and are returned unchanged when already classified.
func (s *Store) Atomic(ctx context.Context, _ core.Scope, fn core.TxFunc) error {
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(ctx, &tx{db: db})
	})
	return core.StorageFailure(err)
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return core.StorageFailure(err)
	}
	return core.StorageFailure(sqlDB.PingContext(ctx))
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
