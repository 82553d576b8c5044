package database

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mcbarchive/config"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Store is the handle the services use to reach the show store.
type Store interface {
	SQLWithContext(ctx context.Context) (*gorm.DB, error)
	EnsureSchema(ctx context.Context) error
	Cache() CacheClient
}

// DB owns the process-lifetime connection pool. The pool is opened by the
// first caller of SQLWithContext and shared by every later caller. A failed
// attempt is not remembered, so the next caller retries.
type DB struct {
	config config.Config
	log    logger.Logger

	mu  sync.Mutex
	sql *gorm.DB

	cacheOnce sync.Once
	cache     CacheClient
}

func New(config config.Config) *DB {
	return &DB{
		config: config,
		log:    logger.New("database"),
	}
}

// NewWithSQL wraps an already opened gorm handle.
func NewWithSQL(db *gorm.DB) *DB {
	return &DB{
		sql: db,
		log: logger.New("database"),
	}
}

func (s *DB) SQLWithContext(ctx context.Context) (*gorm.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sql == nil {
		db, err := s.initializePostgresDB()
		if err != nil {
			return nil, err
		}
		s.sql = db
	}

	return s.sql.WithContext(ctx), nil
}

func (s *DB) initializePostgresDB() (*gorm.DB, error) {
	log := s.log.Function("initializePostgresDB")

	if err := s.config.ValidateStore(); err != nil {
		return nil, log.Err("show store is not configured", err)
	}

	gormConfig := &gorm.Config{
		Logger: gormLogger.New(
			slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
			gormLogger.Config{
				SlowThreshold:             5 * time.Second,
				LogLevel:                  gormLogger.Error,
				IgnoreRecordNotFoundError: true,
				ParameterizedQueries:      true,
				Colorful:                  false,
			},
		),
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
	}

	log.Info(
		"Connecting to PostgreSQL",
		"host", s.config.DatabaseHost,
		"port", s.config.DatabasePort,
		"database", s.config.DatabaseName,
	)

	db, err := gorm.Open(postgres.Open(s.config.DSN()), gormConfig)
	if err != nil {
		return nil, log.Err("failed to open PostgreSQL database with GORM", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, log.Err("failed to get database from GORM", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, log.Err("failed to ping PostgreSQL database through GORM", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("Successfully connected to PostgreSQL with GORM")
	return db, nil
}

func (s *DB) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.sql != nil {
		sqlDB, dbErr := s.sql.DB()
		if dbErr == nil {
			if closeErr := sqlDB.Close(); closeErr != nil {
				err = s.log.Err("failed to close database", closeErr)
			}
		}
		s.sql = nil
	}

	if s.cache != nil {
		s.cache.Close()
	}

	return err
}
