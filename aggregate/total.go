package aggregate

type scopeKind int

const (
	scopeEveryone scopeKind = iota
	scopeUser
	scopeFriendsOf
)

// Scope pre-filters the users a total count is computed for.
type Scope struct {
	kind   scopeKind
	userID int64
}

func Everyone() Scope { return Scope{kind: scopeEveryone} }

func ForUser(userID int64) Scope { return Scope{kind: scopeUser, userID: userID} }

// ForFriendsOf limits the totals to the accepted friends of userID.
func ForFriendsOf(userID int64) Scope { return Scope{kind: scopeFriendsOf, userID: userID} }

// TotalFriendCount counts accepted outgoing edges per source user.
func TotalFriendCount(scope Scope) Query {
	b := &Builder{}
	b.Write(`
		SELECT t.user_id AS user_id, COUNT(*) AS total_friend_count
		FROM friendships t
		WHERE t.status = ?`, accepted)
	switch scope.kind {
	case scopeUser:
		b.Write(`
		  AND t.user_id = ?`, scope.userID)
	case scopeFriendsOf:
		b.Write(`
		  AND t.user_id IN (
			SELECT s.friend_user_id FROM friendships s
			WHERE s.user_id = ? AND s.status = ?
		  )`, scope.userID, accepted)
	}
	b.Write(`
		GROUP BY t.user_id`)
	return b.Query()
}
