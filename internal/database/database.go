package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"ormlab/pkg/logger"
)

// IsPostgres reports whether the DSN targets PostgreSQL. Anything else is
// treated as a SQLite file path or URI.
func IsPostgres(dsn string) bool {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}

// OpenGORM opens a GORM connection for the DSN. TranslateError is enabled
// so unique-constraint violations surface as gorm.ErrDuplicatedKey.
func OpenGORM(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	}

	var dialector gorm.Dialector
	if IsPostgres(dsn) {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm connection: %w", err)
	}
	return db, nil
}

// OpenSQL opens a plain database/sql handle for the raw adapters, picking
// the driver from the DSN shape.
func OpenSQL(dsn string) (*sql.DB, error) {
	driver := "sqlite3"
	if IsPostgres(dsn) {
		driver = "pgx"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}
	return db, nil
}

// Migrate creates the shared users table with hand-written DDL so every
// adapter reads the same rows. All adapters write timestamps through Go
// time.Time values; pointing adapters with different timestamp encodings
// at one table would corrupt reads, so the schema is owned here rather
// than by any single adapter's migration tool.
func Migrate(db *sql.DB, log logger.Logger) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email VARCHAR(255) NOT NULL,
			username VARCHAR(100) NOT NULL,
			full_name VARCHAR(255) NOT NULL DEFAULT '',
			hashed_password VARCHAR(255) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			is_superuser BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (email)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users (username)`,
	}

	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			log.Error("migration statement failed", map[string]interface{}{"error": err.Error()})
			return fmt.Errorf("failed to migrate users table: %w", err)
		}
	}

	log.Info("users table ready", nil)
	return nil
}

// MigratePostgres is the PostgreSQL variant of Migrate; SQLite's
// AUTOINCREMENT spelling does not exist there.
func MigratePostgres(db *sql.DB, log logger.Logger) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			username VARCHAR(100) NOT NULL,
			full_name VARCHAR(255) NOT NULL DEFAULT '',
			hashed_password VARCHAR(255) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			is_superuser BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (email)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users (username)`,
	}

	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			log.Error("migration statement failed", map[string]interface{}{"error": err.Error()})
			return fmt.Errorf("failed to migrate users table: %w", err)
		}
	}

	log.Info("users table ready", nil)
	return nil
}

// Setup opens the shared handle, runs the dialect-appropriate migration
// and returns the handle for the raw adapters.
func Setup(dsn string, log logger.Logger) (*sql.DB, error) {
	db, err := OpenSQL(dsn)
	if err != nil {
		return nil, err
	}

	migrate := Migrate
	if IsPostgres(dsn) {
		migrate = MigratePostgres
	}
	if err := migrate(db, log); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
