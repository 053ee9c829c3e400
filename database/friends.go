package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"friendlink/aggregate"
	"friendlink/models"
)

const friendRecordColumns = `
		SELECT u.id AS id, u.full_name AS full_name, u.phone_number AS phone_number,
			COALESCE(tc.total_friend_count, 0) AS total_friend_count,
			COALESCE(mc.mutual_friend_count, 0) AS mutual_friend_count
		FROM friendships f
		INNER JOIN users u ON u.id = f.friend_user_id
		LEFT JOIN `

// FriendQuery composes the single-target lookup: the accepted edge
// (requesterID, targetID) joined with the target's total and the pair's
// mutual count.
func FriendQuery(requesterID, targetID int64) aggregate.Query {
	b := &aggregate.Builder{}
	b.Write(friendRecordColumns).
		Subquery(aggregate.TotalFriendCount(aggregate.ForUser(targetID)), "tc").
		Write(" ON tc.user_id = f.friend_user_id\n\t\tLEFT JOIN ").
		Subquery(aggregate.MutualFriendCount(requesterID, targetID), "mc").
		Write(" ON mc.user_id = f.friend_user_id").
		Write(`
		WHERE f.user_id = ? AND f.friend_user_id = ? AND f.status = ?`,
			requesterID, targetID, string(models.StatusAccepted))
	return b.Query()
}

// FriendsQuery composes the all-friends lookup using the batch mutual count.
func FriendsQuery(requesterID int64) aggregate.Query {
	b := &aggregate.Builder{}
	b.Write(friendRecordColumns).
		Subquery(aggregate.TotalFriendCount(aggregate.ForFriendsOf(requesterID)), "tc").
		Write(" ON tc.user_id = f.friend_user_id\n\t\tLEFT JOIN ").
		Subquery(aggregate.MutualFriendCounts(requesterID), "mc").
		Write(" ON mc.user_id = f.friend_user_id").
		Write(`
		WHERE f.user_id = ? AND f.status = ?
		ORDER BY u.id`,
			requesterID, string(models.StatusAccepted))
	return b.Query()
}

// FriendRecord returns ErrNoRecord when (requesterID, targetID) is not an
// accepted edge.
func (s *Store) FriendRecord(ctx context.Context, requesterID, targetID int64) (*models.FriendRecord, error) {
	q := FriendQuery(requesterID, targetID)
	records, err := s.queryFriendRecords(ctx, q)
	if err != nil {
		return nil, err
	}
	switch len(records) {
	case 0:
		return nil, ErrNoRecord
	case 1:
		return &records[0], nil
	default:
		return nil, errors.Wrapf(ErrMalformedRecord, "%d rows for one edge", len(records))
	}
}

func (s *Store) FriendRecords(ctx context.Context, requesterID int64) ([]models.FriendRecord, error) {
	return s.queryFriendRecords(ctx, FriendsQuery(requesterID))
}

func (s *Store) queryFriendRecords(ctx context.Context, q aggregate.Query) ([]models.FriendRecord, error) {
	rows, err := s.db.QueryxContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	records := []models.FriendRecord{}
	for rows.Next() {
		record, err := scanFriendRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	return records, nil
}

func scanFriendRecord(rows *sqlx.Rows) (models.FriendRecord, error) {
	var r models.FriendRecord
	// non-nullable scan targets: a NULL column errors instead of reading as zero
	if err := rows.StructScan(&r); err != nil {
		return r, errors.Wrap(ErrMalformedRecord, err.Error())
	}
	if err := validateFriendRecord(r); err != nil {
		return r, err
	}
	return r, nil
}

func validateFriendRecord(r models.FriendRecord) error {
	switch {
	case r.ID <= 0:
		return errors.Wrapf(ErrMalformedRecord, "id %d", r.ID)
	case r.FullName == "":
		return errors.Wrapf(ErrMalformedRecord, "user %d: empty full_name", r.ID)
	case r.PhoneNumber == "":
		return errors.Wrapf(ErrMalformedRecord, "user %d: empty phone_number", r.ID)
	case r.TotalFriendCount < 0:
		return errors.Wrapf(ErrMalformedRecord, "user %d: total_friend_count %d", r.ID, r.TotalFriendCount)
	case r.MutualFriendCount < 0:
		return errors.Wrapf(ErrMalformedRecord, "user %d: mutual_friend_count %d", r.ID, r.MutualFriendCount)
	}
	return nil
}
