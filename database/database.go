package database

import (
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"friendlink/config"
)

var DB *sqlx.DB

type Options struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Driver:          cfg.DBDriver,
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}
}

// Open connects and pings the edge store.
func Open(opts Options) (*sqlx.DB, error) {
	dsn := opts.DSN
	if opts.Driver == config.DriverSQLite {
		dsn = sqliteDSN(dsn)
	}
	db, err := sqlx.Connect(opts.Driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "connect %s", opts.Driver)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	return db, nil
}

// sqliteDSN switches foreign keys on; SQLite leaves them off per connection.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=1"
	}
	return dsn + "?_foreign_keys=1"
}

// Connect opens the database named by config.Cfg into DB.
func Connect(log *zap.Logger) error {
	cfg := config.Cfg
	if cfg == nil {
		return errors.New("config not loaded")
	}
	db, err := Open(OptionsFromConfig(cfg))
	if err != nil {
		return err
	}
	DB = db
	log.Info("database connected", zap.String("driver", cfg.DBDriver))
	return nil
}

func Close() {
	if DB != nil {
		DB.Close()
	}
}
