package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, email, full_name, picture_url, industry, experience, skills, bio, created_at, updated_at`

func (r *PGRepo) Upsert(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, email, full_name, picture_url, created_at, updated_at)
VALUES ($1, $2, $3, $4, now(), now())
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  full_name = EXCLUDED.full_name,
  picture_url = EXCLUDED.picture_url,
  updated_at = now()`
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.Email,
		nullableString(user.FullName),
		nullableString(user.PictureURL),
	)
	return err
}

func (r *PGRepo) InsertIfMissing(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, email, full_name, picture_url, created_at, updated_at)
VALUES ($1, $2, $3, $4, now(), now())
ON CONFLICT (id) DO NOTHING`
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.Email,
		nullableString(user.FullName),
		nullableString(user.PictureURL),
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	query := `SELECT ` + selectColumns + ` FROM users WHERE id = $1 LIMIT 1`
	return scanUser(r.DB.QueryRowContext(ctx, query, userID))
}

func (r *PGRepo) UpdateProfile(ctx context.Context, userID string, profile Profile) (User, error) {
	skills := profile.Skills
	if skills == nil {
		skills = []string{}
	}
	payload, err := json.Marshal(skills)
	if err != nil {
		return User{}, fmt.Errorf("encode skills: %w", err)
	}
	query := `
UPDATE users SET
  industry = $2,
  experience = $3,
  skills = $4::jsonb,
  bio = $5,
  updated_at = now()
WHERE id = $1
RETURNING ` + selectColumns
	return scanUser(r.DB.QueryRowContext(ctx, query,
		userID,
		nullableString(profile.Industry),
		profile.Experience,
		string(payload),
		nullableString(profile.Bio),
	))
}

func (r *PGRepo) Delete(ctx context.Context, userID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var (
		user       User
		fullName   sql.NullString
		pictureURL sql.NullString
		industry   sql.NullString
		experience sql.NullInt64
		skills     sql.NullString
		bio        sql.NullString
		updatedAt  sql.NullTime
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&fullName,
		&pictureURL,
		&industry,
		&experience,
		&skills,
		&bio,
		&user.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.FullName = fullName.String
	user.PictureURL = pictureURL.String
	user.Industry = industry.String
	user.Experience = int(experience.Int64)
	user.Bio = bio.String
	user.Skills = []string{}
	if skills.Valid && skills.String != "" {
		if err := json.Unmarshal([]byte(skills.String), &user.Skills); err != nil {
			return User{}, fmt.Errorf("decode skills: %w", err)
		}
	}
	if updatedAt.Valid {
		user.UpdatedAt = updatedAt.Time
	} else {
		user.UpdatedAt = user.CreatedAt
	}
	return user, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*PGRepo)(nil)
