package models

import "time"

// FriendshipStatus is the state of one directed edge.
type FriendshipStatus string

const (
	StatusRequested FriendshipStatus = "requested"
	StatusAccepted  FriendshipStatus = "accepted"
	StatusDeclined  FriendshipStatus = "declined"
)

func (s FriendshipStatus) Valid() bool {
	switch s {
	case StatusRequested, StatusAccepted, StatusDeclined:
		return true
	}
	return false
}

// Friendship is a directed edge (UserID -> FriendUserID). An accepted
// friendship is stored as two accepted edges, one per direction.
type Friendship struct {
	ID           string           `json:"id" db:"id"`
	UserID       int64            `json:"user_id" db:"user_id"`
	FriendUserID int64            `json:"friend_user_id" db:"friend_user_id"`
	Status       FriendshipStatus `json:"status" db:"status"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// FriendRecord is an accepted friend enriched with the friend's total
// friend count and the number of friends shared with the requester.
type FriendRecord struct {
	ID                int64  `json:"id" db:"id"`
	FullName          string `json:"full_name" db:"full_name"`
	PhoneNumber       string `json:"phone_number" db:"phone_number"`
	TotalFriendCount  int64  `json:"total_friend_count" db:"total_friend_count"`
	MutualFriendCount int64  `json:"mutual_friend_count" db:"mutual_friend_count"`
}

type FriendRequestWithUser struct {
	Friendship
	From UserResponse `json:"from"`
}
