package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"friendlink/config"
)

var mysqlTables = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id           BIGINT AUTO_INCREMENT PRIMARY KEY,
		full_name    VARCHAR(100) NOT NULL,
		phone_number VARCHAR(32) NOT NULL,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at   DATETIME DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS friendships (
		id             VARCHAR(36) PRIMARY KEY,
		user_id        BIGINT NOT NULL,
		friend_user_id BIGINT NOT NULL,
		status         ENUM('requested', 'accepted', 'declined') NOT NULL DEFAULT 'requested',
		created_at     DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at     DATETIME DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uk_friendship (user_id, friend_user_id),
		INDEX idx_user_status (user_id, status),
		INDEX idx_friend_status (friend_user_id, status),
		CONSTRAINT fk_friendship_user FOREIGN KEY (user_id) REFERENCES users (id),
		CONSTRAINT fk_friendship_friend FOREIGN KEY (friend_user_id) REFERENCES users (id),
		CHECK (user_id <> friend_user_id)
	)`,
}

var sqliteTables = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		full_name    TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS friendships (
		id             TEXT PRIMARY KEY,
		user_id        INTEGER NOT NULL,
		friend_user_id INTEGER NOT NULL,
		status         TEXT NOT NULL DEFAULT 'requested' CHECK (status IN ('requested', 'accepted', 'declined')),
		created_at     DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at     DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id, friend_user_id),
		FOREIGN KEY (user_id) REFERENCES users (id),
		FOREIGN KEY (friend_user_id) REFERENCES users (id),
		CHECK (user_id <> friend_user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_status ON friendships (user_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_friend_status ON friendships (friend_user_id, status)`,
}

func CreateTables(ctx context.Context, db *sqlx.DB) error {
	var tables []string
	switch db.DriverName() {
	case config.DriverMySQL:
		tables = mysqlTables
	case config.DriverSQLite:
		tables = sqliteTables
	default:
		return errors.Errorf("no schema for driver %q", db.DriverName())
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, table); err != nil {
			return errors.Wrap(err, "create tables")
		}
	}
	return nil
}
