//go:build integration

package coverletters

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"career-backend/internal/shared/storage/db"
	"career-backend/internal/users"
)

func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("career"),
		postgres.WithUsername("career"),
		postgres.WithPassword("career"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	database, err := db.Connect(ctx, url, db.DefaultMigrateOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.RunMigrations(ctx, database))
	return database
}

func TestPGRepoAgainstPostgres(t *testing.T) {
	database := startPostgres(t)
	ctx := context.Background()

	userRepo := &users.PGRepo{DB: database}
	require.NoError(t, userRepo.Upsert(ctx, users.User{ID: "google:1", Email: "one@example.com"}))
	require.NoError(t, userRepo.Upsert(ctx, users.User{ID: "google:2", Email: "two@example.com"}))

	repo := &PGRepo{DB: database}
	base := time.Now().UTC().Truncate(time.Millisecond)
	ids := []string{uuid.NewString(), uuid.NewString(), uuid.NewString()}
	require.NoError(t, repo.Create(ctx, CoverLetter{ID: ids[0], UserID: "google:1", Content: "a", JobTitle: "t", CompanyName: "c", JobDescription: "d", Status: StatusCompleted, CreatedAt: base, UpdatedAt: base}))
	require.NoError(t, repo.Create(ctx, CoverLetter{ID: ids[1], UserID: "google:1", Content: "b", JobTitle: "t", CompanyName: "c", JobDescription: "d", Status: StatusCompleted, CreatedAt: base.Add(time.Second), UpdatedAt: base.Add(time.Second)}))
	require.NoError(t, repo.Create(ctx, CoverLetter{ID: ids[2], UserID: "google:2", Content: "c", JobTitle: "t", CompanyName: "c", JobDescription: "d", Status: StatusCompleted, CreatedAt: base, UpdatedAt: base}))

	list, err := repo.ListByUser(ctx, "google:1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, ids[1], list[0].ID)

	_, err = repo.GetByID(ctx, "google:1", ids[2])
	require.True(t, errors.Is(err, ErrNotFound))
	require.ErrorIs(t, repo.Delete(ctx, "google:1", ids[2]), ErrNotFound)

	require.NoError(t, userRepo.Delete(ctx, "google:1"))
	list, err = repo.ListByUser(ctx, "google:1")
	require.NoError(t, err)
	require.Empty(t, list, "letters cascade with their owner")

	got, err := repo.GetByID(ctx, "google:2", ids[2])
	require.NoError(t, err)
	require.Equal(t, "c", got.Content)
}
