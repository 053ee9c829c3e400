package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var (
	ErrNoRecord        = errors.New("no record")
	ErrAlreadyAccepted = errors.New("edge already accepted")
	// ErrMalformedRecord marks composed query output that does not fit the
	// record shape (NULL or out-of-range column). It is a defect, never a
	// value to default.
	ErrMalformedRecord = errors.New("malformed record")
)

// Store is the edge store: users, the friendships edge relation and the
// composed lookups over it.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return errors.WithStack(tx.Commit())
}

func noRecord(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoRecord
	}
	return errors.WithStack(err)
}
