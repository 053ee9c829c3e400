package database

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"friendlink/models"
)

func (s *Store) CreateUser(ctx context.Context, fullName, phoneNumber string) (*models.User, error) {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO users (full_name, phone_number, created_at, updated_at) VALUES (?, ?, ?, ?)",
		fullName, phoneNumber, now, now,
	)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &models.User{
		ID:          id,
		FullName:    fullName,
		PhoneNumber: phoneNumber,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user,
		"SELECT id, full_name, phone_number, created_at, updated_at FROM users WHERE id = ?",
		id,
	)
	if err != nil {
		return nil, noRecord(err)
	}
	return &user, nil
}

func (s *Store) UserExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)", id)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return exists, nil
}
