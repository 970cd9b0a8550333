package coverletters

import (
	"errors"

	"career-backend/internal/usage"
)

var (
	ErrNotFound         = errors.New("cover letter not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrUserNotFound     = errors.New("user not found")
	ErrGenerationFailed = errors.New("failed to generate cover letter")
	ErrLimitReached     = usage.ErrLimitReached
)
