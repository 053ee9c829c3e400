package dbtest

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"friendlink/config"
	"friendlink/database"
)

// Statements counts the statements sent to a store opened by OpenCounting.
type Statements struct {
	n atomic.Int64
}

func (s *Statements) Count() int64 { return s.n.Load() }

func (s *Statements) Reset() { s.n.Store(0) }

// OpenCounting is Open with every prepared, queried or executed statement
// counted. The wrapped connection only exposes Prepare, so database/sql
// routes every statement through it.
func OpenCounting(t testing.TB) (*database.Store, *Statements) {
	t.Helper()
	stmts := &Statements{}
	db := sqlx.NewDb(sql.OpenDB(countingConnector{dsn: ":memory:?_foreign_keys=1", stmts: stmts}), config.DriverSQLite)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.CreateTables(context.Background(), db))
	stmts.Reset()
	return database.NewStore(db), stmts
}

type countingConnector struct {
	dsn   string
	stmts *Statements
}

func (c countingConnector) Connect(context.Context) (driver.Conn, error) {
	conn, err := c.Driver().Open(c.dsn)
	if err != nil {
		return nil, err
	}
	return countingConn{Conn: conn, stmts: c.stmts}, nil
}

func (c countingConnector) Driver() driver.Driver {
	return &sqlite3.SQLiteDriver{}
}

type countingConn struct {
	driver.Conn
	stmts *Statements
}

func (c countingConn) Prepare(query string) (driver.Stmt, error) {
	c.stmts.n.Add(1)
	return c.Conn.Prepare(query)
}
