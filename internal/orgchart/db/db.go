// Package db implements the gorm-backed repository for departments and the
// employee columns that reference them.
package db

import (
	"context"
	"errors"
	"fmt"

	dbmodels "github.com/gartstein/orgchart/internal/orgchart/db/models"
	e "github.com/gartstein/orgchart/internal/orgchart/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const nameIndexDDL = `CREATE UNIQUE INDEX IF NOT EXISTS idx_departments_name_lower ON departments (LOWER(name))`

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NewRepository connects to postgres and migrates the schema.
func NewRepository(cfg *Config, logger gormlogger.Interface) (*Repository, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	return Open(postgres.Open(dsn), logger)
}

// Open builds a Repository on any gorm dialector and migrates the schema.
// SQLite is limited to a single connection so that an in-memory database is
// shared by every query, transactions included.
func Open(dialector gorm.Dialector, logger gormlogger.Interface) (*Repository, error) {
	if logger == nil {
		logger = gormlogger.Discard
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dialector.Name() == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&dbmodels.Department{}, &dbmodels.Employee{}); err != nil {
		return err
	}
	return db.Exec(nameIndexDDL).Error
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) Exec(ctx context.Context, query string, params ...interface{}) error {
	result := r.db.WithContext(ctx).Exec(query, params...)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// Ping checks that the underlying connection pool can reach the database.
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// translate maps gorm errors onto the domain error kinds.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return e.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return e.ErrDuplicateName
	default:
		return err
	}
}
