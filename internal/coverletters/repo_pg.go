package coverletters

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, user_id, content, job_description, company_name, job_title, status, created_at, updated_at`

// Create inserts a new cover letter.
func (r *PGRepo) Create(ctx context.Context, letter CoverLetter) error {
	const query = `
INSERT INTO cover_letters (id, user_id, content, job_description, company_name, job_title, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.ExecContext(ctx, query,
		letter.ID,
		letter.UserID,
		letter.Content,
		letter.JobDescription,
		letter.CompanyName,
		letter.JobTitle,
		letter.Status,
		letter.CreatedAt,
		letter.UpdatedAt,
	)
	return err
}

// ListByUser returns the user's cover letters ordered by creation time, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]CoverLetter, error) {
	query := `
SELECT ` + selectColumns + `
FROM cover_letters
WHERE user_id = $1
ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CoverLetter, 0)
	for rows.Next() {
		l, err := scanLetter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetByID returns a cover letter owned by userID.
func (r *PGRepo) GetByID(ctx context.Context, userID, id string) (CoverLetter, error) {
	if _, err := uuid.Parse(id); err != nil {
		return CoverLetter{}, ErrNotFound
	}
	query := `
SELECT ` + selectColumns + `
FROM cover_letters
WHERE id = $1 AND user_id = $2
LIMIT 1`
	l, err := scanLetter(r.DB.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CoverLetter{}, ErrNotFound
		}
		return CoverLetter{}, err
	}
	return l, nil
}

// Delete removes a cover letter owned by userID.
func (r *PGRepo) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM cover_letters WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllByUser removes every cover letter owned by userID.
func (r *PGRepo) DeleteAllByUser(ctx context.Context, userID string) (int, error) {
	return DeleteAllByUserTx(ctx, r.DB, userID)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// DeleteAllByUserTx runs the bulk delete on a *sql.DB or an open *sql.Tx.
func DeleteAllByUserTx(ctx context.Context, ex execer, userID string) (int, error) {
	res, err := ex.ExecContext(ctx, `DELETE FROM cover_letters WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLetter(row rowScanner) (CoverLetter, error) {
	var l CoverLetter
	var content, jobDescription, companyName, jobTitle sql.NullString
	var updatedAt sql.NullTime
	if err := row.Scan(
		&l.ID,
		&l.UserID,
		&content,
		&jobDescription,
		&companyName,
		&jobTitle,
		&l.Status,
		&l.CreatedAt,
		&updatedAt,
	); err != nil {
		return CoverLetter{}, err
	}
	l.Content = content.String
	l.JobDescription = jobDescription.String
	l.CompanyName = companyName.String
	l.JobTitle = jobTitle.String
	if updatedAt.Valid {
		l.UpdatedAt = updatedAt.Time
	} else {
		l.UpdatedAt = l.CreatedAt
	}
	return l, nil
}

var _ Repo = (*PGRepo)(nil)
