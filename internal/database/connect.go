package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/civicarchive/councilcast/pkg/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mitchellh/go-homedir"
	"github.com/pressly/goose/v3"
	sqldblogger "github.com/simukti/sqldb-logger"
)

const (
	DialectSqlite   = "sqlite3"
	DialectPostgres = "postgres"

	PostgresConnectionString = "host=%s user=%s password=%s dbname=%s port=%s sslmode=%s"
)

var (
	//go:embed migrations/*.sql
	migrations embed.FS

	dbLogger = logger.Get("DB")

	ErrNotConnected = errors.New("DB manager has not yet connected")
)

type (
	// DatabaseConfig selects the SQL backend used for the upload
	// history. SQLite is used unless the postgres dialect is chosen.
	DatabaseConfig struct {
		Dialect  string `yaml:"dialect" toml:"dialect" env:"DB_DIALECT" env-default:"sqlite3" validate:"oneof=sqlite3 postgres"`
		Path     string `yaml:"path" toml:"path" env:"DB_PATH" env-default:"~/.councilcast/history.db"`
		User     string `yaml:"username" toml:"username" env:"DB_USERNAME"`
		Password string `yaml:"password" toml:"password" env:"DB_PASSWORD"`
		Name     string `yaml:"name" toml:"name" env:"DB_NAME" env-default:"councilcast"`
		Host     string `yaml:"host" toml:"host" env:"DB_HOST" env-default:"0.0.0.0"`
		Port     string `yaml:"port" toml:"port" env:"DB_PORT" env-default:"5432"`
		SSLMode  string `yaml:"ssl_mode" toml:"ssl_mode" env:"DB_SSL_MODE" env-default:"disable"`
	}

	SqlLogger struct {
		logger logger.Logger
	}

	// Queryable is satisfied by both *sqlx.DB and *sqlx.Tx, allowing
	// stores to be used inside or outside of a transaction.
	Queryable interface {
		sqlx.Ext
		Get(dest any, query string, args ...any) error
		Select(dest any, query string, args ...any) error
	}

	Manager struct {
		dialect string
		rawDb   *sql.DB
		db      *sqlx.DB
	}
)

func New() *Manager {
	return &Manager{}
}

func (db *Manager) Connect(config DatabaseConfig) error {
	dialect, dsn, err := config.dataSource()
	if err != nil {
		return err
	}

	opened, err := sql.Open(dialect, dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", dialect, err)
	}
	driver := opened.Driver()
	opened.Close()

	raw := sqldblogger.OpenDriver(dsn, driver, &SqlLogger{dbLogger},
		sqldblogger.WithMinimumLevel(sqldblogger.LevelDebug),
	)

	attempts := 1
	if dialect == DialectPostgres {
		attempts = 5
	}

	for attempt := 1; ; attempt++ {
		err := raw.Ping()
		if err == nil {
			break
		}

		if attempt >= attempts {
			dbLogger.Emit(logger.ERROR, "All attempts FAILED!\n")
			raw.Close()
			return fmt.Errorf("failed to connect to %s database: %w", dialect, err)
		}

		dbLogger.Emit(logger.WARNING, "Attempt (%v/%v) failed... Retrying in 3s\n", attempt, attempts)
		time.Sleep(time.Second * 3)
	}

	if dialect == DialectSqlite {
		// SQLite permits a single writer; avoid SQLITE_BUSY between pooled connections.
		raw.SetMaxOpenConns(1)
	}

	db.dialect = dialect
	db.rawDb = raw
	db.db = sqlx.NewDb(raw, dialect)

	if err := db.ExecuteMigrations(); err != nil {
		return err
	}

	dbLogger.Emit(logger.SUCCESS, "Database connection complete!\n")
	return nil
}

// ExecuteMigrations uses the comp-time embedded SQL migrations (found in the 'migrations'
// dir in this package) and runs them against the current DB instance.
func (db *Manager) ExecuteMigrations() error {
	if db.rawDb == nil {
		return fmt.Errorf("cannot execute migrations: %w", ErrNotConnected)
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(dbLogger)
	if err := goose.SetDialect(db.dialect); err != nil {
		return fmt.Errorf("failed to set dialect for DB migration: %w", err)
	}

	dbLogger.Emit(logger.DEBUG, "Checking for pending DB migrations...\n")
	if err := goose.Up(db.rawDb, "migrations"); err != nil {
		return fmt.Errorf("failed to migrate DB: %w", err)
	}

	return nil
}

// GetSqlxDb returns the sqlx connection if one has been
// opened using 'Connect'. Otherwise, nil is returned
func (db *Manager) GetSqlxDb() *sqlx.DB {
	return db.db
}

// WrapTx is a convenience method around the top-level WrapTx, which simply
// uses the managers DB instance as the first argument.
func (db *Manager) WrapTx(f func(tx *sqlx.Tx) error) error {
	if db.db == nil {
		return ErrNotConnected
	}

	return WrapTx(db.db, f)
}

func (db *Manager) Close() error {
	if db.db == nil {
		return nil
	}

	return db.db.Close()
}

func (config DatabaseConfig) dataSource() (string, string, error) {
	switch config.Dialect {
	case DialectPostgres:
		return DialectPostgres, fmt.Sprintf(PostgresConnectionString, config.Host, config.User, config.Password, config.Name, config.Port, config.SSLMode), nil
	case DialectSqlite, "":
		path, err := homedir.Expand(config.Path)
		if err != nil {
			return "", "", fmt.Errorf("failed to expand database path %s: %w", config.Path, err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", "", fmt.Errorf("failed to create database directory: %w", err)
		}

		return DialectSqlite, fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", path), nil
	default:
		return "", "", fmt.Errorf("unsupported database dialect '%s'", config.Dialect)
	}
}

func (l *SqlLogger) Log(_ context.Context, level sqldblogger.Level, msg string, data map[string]any) {
	template := "%s - %v\n"
	switch level {
	case sqldblogger.LevelTrace:
		l.logger.Verbosef(template, msg, data)
	case sqldblogger.LevelDebug, sqldblogger.LevelInfo:
		duration := data["duration"]
		if query, ok := data["query"]; ok {
			l.logger.Debugf("%s [%.2fms] -- %s\n", msg, duration, query)
		} else {
			l.logger.Debugf("%s [%.2fms]\n", msg, duration)
		}
	case sqldblogger.LevelError:
		l.logger.Errorf(template, msg, data)
	}
}

// WrapTx starts a transaction against the provided DB, and then calls the user
// provided function. If this function errors, the transaction is rolled back - otherwise
// the transaction is committed.
func WrapTx(db *sqlx.DB, f func(tx *sqlx.Tx) error) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := f(tx); err != nil {
		dbLogger.Errorf("Transaction failed... rolling back. Error: %s\n", err.Error())
		return err
	}

	return tx.Commit()
}
