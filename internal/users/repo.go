package users

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("user not found")

type Repo interface {
	// Upsert writes identity columns only; profile columns of an existing row are kept.
	Upsert(ctx context.Context, user User) error
	// InsertIfMissing creates the row unless one already exists for the id.
	InsertIfMissing(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	UpdateProfile(ctx context.Context, userID string, profile Profile) (User, error)
	Delete(ctx context.Context, userID string) error
}
