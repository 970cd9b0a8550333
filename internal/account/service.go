package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"career-backend/internal/coverletters"
	"career-backend/internal/shared/telemetry"
	"career-backend/internal/usage"
	"career-backend/internal/users"
)

// ErrUnauthorized is returned when no user id is supplied.
var ErrUnauthorized = errors.New("unauthorized")

// UsageEraser drops a user's quota row. Postgres relies on ON DELETE CASCADE
// instead.
type UsageEraser interface {
	Delete(ctx context.Context, userID string) error
}

type Service struct {
	Letters coverletters.Repo
	Users   users.Repo
	Usage   UsageEraser
}

type DeleteResult struct {
	DeletedCoverLetters int `json:"deletedCoverLetters"`
}

func NewService(letters coverletters.Repo, userRepo users.Repo, usageEraser UsageEraser) *Service {
	return &Service{Letters: letters, Users: userRepo, Usage: usageEraser}
}

// DeleteAccount removes every cover letter of the user and then the user row.
// SQL-backed stores run both deletes in a single transaction.
func (s *Service) DeleteAccount(ctx context.Context, userID string) (DeleteResult, error) {
	if strings.TrimSpace(userID) == "" {
		return DeleteResult{}, ErrUnauthorized
	}

	var (
		res DeleteResult
		err error
	)
	switch {
	case s.pgDB() != nil:
		res, err = deleteWithTx(ctx, s.pgDB(), userID)
	case s.gormDB() != nil:
		res, err = deleteWithGorm(ctx, s.gormDB(), userID)
	default:
		res, err = s.deleteWithRepos(ctx, userID)
	}
	if err != nil {
		return DeleteResult{}, err
	}

	telemetry.Info("account.deleted", map[string]any{
		"user_id":               userID,
		"deleted_cover_letters": res.DeletedCoverLetters,
	})
	return res, nil
}

func (s *Service) pgDB() *sql.DB {
	letterPG, ok := s.Letters.(*coverletters.PGRepo)
	if !ok || letterPG == nil || letterPG.DB == nil {
		return nil
	}
	userPG, ok := s.Users.(*users.PGRepo)
	if !ok || userPG == nil || userPG.DB == nil {
		return nil
	}
	return letterPG.DB
}

func (s *Service) gormDB() *gorm.DB {
	letterGorm, ok := s.Letters.(*coverletters.GormRepo)
	if !ok || letterGorm == nil || letterGorm.DB == nil {
		return nil
	}
	userGorm, ok := s.Users.(*users.GormRepo)
	if !ok || userGorm == nil || userGorm.DB == nil {
		return nil
	}
	return letterGorm.DB
}

func deleteWithTx(ctx context.Context, db *sql.DB, userID string) (DeleteResult, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return DeleteResult{}, err
	}
	defer tx.Rollback()

	n, err := coverletters.DeleteAllByUserTx(ctx, tx, userID)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete cover letters: %w", err)
	}
	userRes, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete user: %w", err)
	}
	if affected, _ := userRes.RowsAffected(); affected == 0 {
		return DeleteResult{}, users.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return DeleteResult{}, err
	}
	return DeleteResult{DeletedCoverLetters: n}, nil
}

func deleteWithGorm(ctx context.Context, db *gorm.DB, userID string) (DeleteResult, error) {
	var res DeleteResult
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := (&coverletters.GormRepo{DB: tx}).DeleteAllByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("delete cover letters: %w", err)
		}
		if err := (&usage.GormStore{DB: tx}).Delete(ctx, userID); err != nil {
			return fmt.Errorf("delete usage: %w", err)
		}
		if err := (&users.GormRepo{DB: tx}).Delete(ctx, userID); err != nil {
			return err
		}
		res.DeletedCoverLetters = n
		return nil
	})
	return res, err
}

func (s *Service) deleteWithRepos(ctx context.Context, userID string) (DeleteResult, error) {
	if s.Letters == nil || s.Users == nil {
		return DeleteResult{}, errors.New("account service not configured")
	}
	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		return DeleteResult{}, err
	}
	n, err := s.Letters.DeleteAllByUser(ctx, userID)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete cover letters: %w", err)
	}
	if s.Usage != nil {
		if err := s.Usage.Delete(ctx, userID); err != nil {
			return DeleteResult{}, fmt.Errorf("delete usage: %w", err)
		}
	}
	if err := s.Users.Delete(ctx, userID); err != nil {
		return DeleteResult{}, err
	}
	return DeleteResult{DeletedCoverLetters: n}, nil
}
