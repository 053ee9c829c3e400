package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"friendlink/models"
	"friendlink/utils"
)

// RequestOutcome tells the caller what a friend request turned into.
type RequestOutcome int

const (
	RequestSent RequestOutcome = iota + 1
	// RequestAccepted means the other side had already asked, so both
	// directions are now accepted.
	RequestAccepted
)

func (s *Store) GetEdge(ctx context.Context, userID, friendUserID int64) (*models.Friendship, error) {
	var edge models.Friendship
	err := s.db.GetContext(ctx, &edge, `
		SELECT id, user_id, friend_user_id, status, created_at, updated_at
		FROM friendships
		WHERE user_id = ? AND friend_user_id = ?
	`, userID, friendUserID)
	if err != nil {
		return nil, noRecord(err)
	}
	if !edge.Status.Valid() {
		return nil, errors.Wrapf(ErrMalformedRecord, "edge %s: status %q", edge.ID, edge.Status)
	}
	return &edge, nil
}

// RequestFriend records (fromID, toID, requested). A pending request in the
// opposite direction is accepted instead, establishing both edges.
// Re-requesting after a decline updates the existing row in place.
func (s *Store) RequestFriend(ctx context.Context, fromID, toID int64) (RequestOutcome, error) {
	var outcome RequestOutcome
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		forward, err := edgeStatus(ctx, tx, fromID, toID)
		if err != nil {
			return err
		}
		if forward == models.StatusAccepted {
			return ErrAlreadyAccepted
		}

		reverse, err := edgeStatus(ctx, tx, toID, fromID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		switch reverse {
		case models.StatusRequested:
			if err := setStatus(ctx, tx, toID, fromID, models.StatusAccepted, now); err != nil {
				return err
			}
			outcome = RequestAccepted
			return putEdge(ctx, tx, fromID, toID, forward != "", models.StatusAccepted, now)
		case models.StatusAccepted:
			// reverse accepted but forward missing: restore the symmetric edge
			outcome = RequestAccepted
			return putEdge(ctx, tx, fromID, toID, forward != "", models.StatusAccepted, now)
		}
		outcome = RequestSent
		return putEdge(ctx, tx, fromID, toID, forward != "", models.StatusRequested, now)
	})
	if err != nil {
		return 0, err
	}
	return outcome, nil
}

// AcceptFriend turns the pending (requesterID, accepterID) edge into an
// accepted pair in one transaction.
func (s *Store) AcceptFriend(ctx context.Context, accepterID, requesterID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()
		result, err := tx.ExecContext(ctx, `
			UPDATE friendships SET status = ?, updated_at = ?
			WHERE user_id = ? AND friend_user_id = ? AND status = ?
		`, models.StatusAccepted, now, requesterID, accepterID, models.StatusRequested)
		if err != nil {
			return errors.WithStack(err)
		}
		if err := mustAffect(result.RowsAffected()); err != nil {
			return err
		}

		current, err := edgeStatus(ctx, tx, accepterID, requesterID)
		if err != nil {
			return err
		}
		return putEdge(ctx, tx, accepterID, requesterID, current != "", models.StatusAccepted, now)
	})
}

func (s *Store) DeclineFriend(ctx context.Context, declinerID, requesterID int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE friendships SET status = ?, updated_at = ?
		WHERE user_id = ? AND friend_user_id = ? AND status = ?
	`, models.StatusDeclined, time.Now().UTC(), requesterID, declinerID, models.StatusRequested)
	if err != nil {
		return errors.WithStack(err)
	}
	return mustAffect(result.RowsAffected())
}

// IncomingRequests lists pending edges pointing at userID, newest first.
func (s *Store) IncomingRequests(ctx context.Context, userID int64) ([]models.FriendRequestWithUser, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.user_id, f.friend_user_id, f.status, f.created_at, f.updated_at,
			   u.id, u.full_name, u.phone_number
		FROM friendships f
		INNER JOIN users u ON u.id = f.user_id
		WHERE f.friend_user_id = ? AND f.status = ?
		ORDER BY f.updated_at DESC, f.user_id
	`, userID, models.StatusRequested)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	requests := []models.FriendRequestWithUser{}
	for rows.Next() {
		var r models.FriendRequestWithUser
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.FriendUserID, &r.Status, &r.CreatedAt, &r.UpdatedAt,
			&r.From.ID, &r.From.FullName, &r.From.PhoneNumber,
		); err != nil {
			return nil, errors.WithStack(err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	return requests, nil
}

// edgeStatus returns "" when the ordered pair has no edge.
func edgeStatus(ctx context.Context, tx *sqlx.Tx, userID, friendUserID int64) (models.FriendshipStatus, error) {
	var status models.FriendshipStatus
	err := tx.GetContext(ctx, &status,
		"SELECT status FROM friendships WHERE user_id = ? AND friend_user_id = ?",
		userID, friendUserID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.WithStack(err)
	}
	return status, nil
}

// setStatus is only called for rows known to exist inside the same
// transaction; MySQL reports 0 affected rows for no-op updates.
func setStatus(ctx context.Context, tx *sqlx.Tx, userID, friendUserID int64, status models.FriendshipStatus, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE friendships SET status = ?, updated_at = ? WHERE user_id = ? AND friend_user_id = ?",
		status, now, userID, friendUserID,
	)
	return errors.WithStack(err)
}

// putEdge updates the ordered pair in place when it exists, inserts it otherwise.
func putEdge(ctx context.Context, tx *sqlx.Tx, userID, friendUserID int64, exists bool, status models.FriendshipStatus, now time.Time) error {
	if exists {
		return setStatus(ctx, tx, userID, friendUserID, status, now)
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO friendships (id, user_id, friend_user_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, utils.GenerateUUID(), userID, friendUserID, status, now, now)
	return errors.WithStack(err)
}

func mustAffect(n int64, err error) error {
	if err != nil {
		return errors.WithStack(err)
	}
	if n == 0 {
		return ErrNoRecord
	}
	return nil
}
