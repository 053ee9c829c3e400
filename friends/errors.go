package friends

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound: the requester has no accepted edge to the target.
	ErrNotFound        = errors.New("friend not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrRequestNotFound = errors.New("friend request not found")
	ErrAlreadyFriends  = errors.New("already friends")
)

// ValidationError rejects malformed input before any query runs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func validateID(field string, id int64) error {
	if id <= 0 {
		return &ValidationError{Field: field, Reason: "must be a positive integer"}
	}
	return nil
}

func validatePair(userField string, userID int64, otherField string, otherID int64) error {
	if err := validateID(userField, userID); err != nil {
		return err
	}
	if err := validateID(otherField, otherID); err != nil {
		return err
	}
	if userID == otherID {
		return &ValidationError{Field: otherField, Reason: "must differ from " + userField}
	}
	return nil
}

// column widths of the users table
const (
	maxFullName    = 100
	maxPhoneNumber = 32
)

func validateText(field, value string, max int) error {
	if value == "" {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("must be at most %d characters", max)}
	}
	return nil
}
