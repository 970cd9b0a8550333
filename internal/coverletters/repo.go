package coverletters

import "context"

// Repo persists cover letters. Every read and delete is scoped by owner; a row
// owned by someone else is reported as ErrNotFound.
type Repo interface {
	Create(ctx context.Context, letter CoverLetter) error
	// ListByUser returns the user's letters newest first.
	ListByUser(ctx context.Context, userID string) ([]CoverLetter, error)
	GetByID(ctx context.Context, userID, id string) (CoverLetter, error)
	Delete(ctx context.Context, userID, id string) error
	DeleteAllByUser(ctx context.Context, userID string) (int, error)
}
