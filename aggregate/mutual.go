package aggregate

// MutualFriendCount counts the neighbours shared by one ordered pair.
//
// f1 = (target, w) and f2 = (requester, w) are joined on the far endpoint w;
// the one surviving group is keyed on the target so it can be joined onto
// the target's edge row.
func MutualFriendCount(requesterID, targetID int64) Query {
	b := &Builder{}
	b.Write(`
		SELECT f1.user_id AS user_id, COUNT(*) AS mutual_friend_count
		FROM friendships f1
		INNER JOIN friendships f2 ON f2.friend_user_id = f1.friend_user_id
		WHERE f1.user_id = ? AND f1.status = ?
		  AND f2.user_id = ? AND f2.status = ?
		  AND f1.friend_user_id <> f1.user_id
		  AND f1.friend_user_id <> f2.user_id
		GROUP BY f1.user_id, f2.user_id`,
		targetID, accepted,
		requesterID, accepted,
	)
	return b.Query()
}

// MutualFriendCounts counts shared neighbours between requesterID and each of
// its accepted friends in one pass.
//
// Accepted edges are split into the requester's own edges (mine) and every
// other user's edges (theirs). Joining the two on the far endpoint pairs each
// of the requester's neighbours w with every other user that also lists w;
// grouping by that other user yields |N(requester) ∩ N(other)|. The theirs
// side is restricted to the requester's friends so the join stays inside the
// requester's neighbourhood.
func MutualFriendCounts(requesterID int64) Query {
	b := &Builder{}
	b.Write(`
		SELECT theirs.user_id AS user_id, COUNT(*) AS mutual_friend_count
		FROM friendships mine
		INNER JOIN friendships theirs ON theirs.friend_user_id = mine.friend_user_id
		WHERE mine.user_id = ? AND mine.status = ?
		  AND theirs.user_id <> mine.user_id AND theirs.status = ?
		  AND mine.friend_user_id <> mine.user_id
		  AND theirs.friend_user_id <> theirs.user_id
		  AND theirs.user_id IN (
			SELECT nb.friend_user_id FROM friendships nb
			WHERE nb.user_id = ? AND nb.status = ?
		  )
		GROUP BY theirs.user_id`,
		requesterID, accepted,
		accepted,
		requesterID, accepted,
	)
	return b.Query()
}
