package users

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var userColumns = []string{"id", "email", "full_name", "picture_url", "industry", "experience", "skills", "bio", "created_at", "updated_at"}

func TestPGRepoGetByIDDecodesProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
		WithArgs("google:1").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
			"google:1", "ada@example.com", "Ada", nil, "tech", 5, `["Go","SQL"]`, "Builder", created, nil,
		))

	repo := &PGRepo{DB: db}
	user, err := repo.GetByID(context.Background(), "google:1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !reflect.DeepEqual(user.Skills, []string{"Go", "SQL"}) {
		t.Fatalf("unexpected skills: %v", user.Skills)
	}
	if user.Experience != 5 || user.Industry != "tech" || user.PictureURL != "" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if !user.UpdatedAt.Equal(created) {
		t.Fatalf("expected updated_at fallback to created_at")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("google:404").
		WillReturnError(sql.ErrNoRows)

	repo := &PGRepo{DB: db}
	if _, err := repo.GetByID(context.Background(), "google:404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoUpdateProfileEncodesSkills(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	mock.ExpectQuery("UPDATE users SET").
		WithArgs("google:1", "tech", 3, `["Go"]`, nil).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
			"google:1", "ada@example.com", nil, nil, "tech", 3, `["Go"]`, nil, now, now,
		))

	repo := &PGRepo{DB: db}
	user, err := repo.UpdateProfile(context.Background(), "google:1", Profile{Industry: "tech", Experience: 3, Skills: []string{"Go"}})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if user.Industry != "tech" || len(user.Skills) != 1 {
		t.Fatalf("unexpected user: %+v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("DELETE FROM users").
		WithArgs("google:404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: db}
	if err := repo.Delete(context.Background(), "google:404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
