package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vaxtrack/backend/internal/infrastructure/config"
	"github.com/vaxtrack/backend/internal/infrastructure/logger"
)

// Database wraps the GORM database connection
type Database struct {
	db *gorm.DB
}

// NewDatabase creates a new PostgreSQL database connection from configuration
func NewDatabase(cfg *config.Config) (*Database, error) {
	return NewDatabaseWithLogger(cfg, nil)
}

// NewDatabaseWithLogger creates a database connection with SQL logging through zap
func NewDatabaseWithLogger(cfg *config.Config, zapLogger *zap.Logger) (*Database, error) {
	gormCfg := &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	}
	if zapLogger != nil {
		gormCfg.Logger = logger.NewGormLogger(zapLogger, logger.MapGormLogLevel(cfg.Log.Level))
	} else {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.Database.ConnMaxIdleTime) * time.Minute)

	return &Database{db: db}, nil
}

// NewSQLiteDatabase opens an SQLite database, used for local development and tests
func NewSQLiteDatabase(path string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return &Database{db: db}, nil
}

// DB returns the underlying GORM database instance
func (d *Database) DB() *gorm.DB {
	return d.db
}

// SQLDB returns the underlying sql.DB, used by the migration runner
func (d *Database) SQLDB() (*sql.DB, error) {
	return d.db.DB()
}

// Ping verifies the database connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Stats returns database connection pool statistics
func (d *Database) Stats() (sql.DBStats, error) {
	sqlDB, err := d.db.DB()
	if err != nil {
		return sql.DBStats{}, err
	}
	return sqlDB.Stats(), nil
}

// Transaction executes a function within a database transaction
func (d *Database) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.db.WithContext(ctx).Transaction(fn)
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
