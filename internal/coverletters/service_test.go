package coverletters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-backend/internal/llm"
	"career-backend/internal/usage"
	"career-backend/internal/users"
)

type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	return g.reply, g.err
}

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type fakeQuota struct {
	mu       sync.Mutex
	allow    bool
	consumed int
	released int
	err      error
}

func (q *fakeQuota) Consume(ctx context.Context, userID string, n int) (usage.Usage, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return usage.Usage{}, q.err
	}
	if !q.allow {
		return usage.Usage{}, usage.ErrLimitReached
	}
	q.consumed += n
	return usage.Usage{Used: q.consumed}, nil
}

func (q *fakeQuota) Release(ctx context.Context, userID string, n int) (usage.Usage, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.consumed -= n
	q.released += n
	return usage.Usage{Used: q.consumed}, nil
}

type failingCreateRepo struct {
	*MemoryRepo
}

func (failingCreateRepo) Create(ctx context.Context, letter CoverLetter) error {
	return errors.New("disk full")
}

type serviceFixture struct {
	svc   *Service
	repo  *MemoryRepo
	users *users.MemoryRepo
	gen   *fakeGenerator
}

func newFixture(t *testing.T, quota Quota) serviceFixture {
	t.Helper()
	userRepo := users.NewMemoryRepo()
	ctx := context.Background()
	require.NoError(t, userRepo.Upsert(ctx, users.User{ID: "user-1", Email: "one@example.com"}))
	require.NoError(t, userRepo.Upsert(ctx, users.User{ID: "user-2", Email: "two@example.com"}))
	_, err := userRepo.UpdateProfile(ctx, "user-1", users.Profile{Industry: "tech-software", Experience: 5, Skills: []string{"Go", "Kubernetes"}, Bio: "Platform engineer"})
	require.NoError(t, err)

	repo := NewMemoryRepo()
	gen := &fakeGenerator{reply: "  # Dear Hiring Manager\n\nI am excited...  "}
	svc := NewService(repo, userRepo, gen, quota)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var tick int
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	var seq int
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("cl-%02d", seq)
	}
	return serviceFixture{svc: svc, repo: repo, users: userRepo, gen: gen}
}

func validInput() GenerateInput {
	return GenerateInput{JobTitle: "Backend Engineer", CompanyName: "Acme", JobDescription: "Design and run Go services."}
}

func TestGeneratePersistsOneCompletedLetter(t *testing.T) {
	quota := &fakeQuota{allow: true}
	f := newFixture(t, quota)
	ctx := context.Background()

	letter, err := f.svc.Generate(ctx, "user-1", validInput())
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, letter.Status)
	assert.Equal(t, "user-1", letter.UserID)
	assert.Equal(t, "# Dear Hiring Manager\n\nI am excited...", letter.Content)
	assert.Equal(t, "Acme", letter.CompanyName)
	assert.Equal(t, 1, f.gen.calls())
	assert.Equal(t, 1, quota.consumed)
	assert.Contains(t, f.gen.prompts[0], "Skills: Go, Kubernetes")

	stored, err := f.repo.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, letter, stored[0])
}

func TestGenerateRejectsUnauthenticatedCaller(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Generate(context.Background(), "  ", validInput())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, f.gen.calls())
}

func TestGenerateRejectsMissingUser(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Generate(context.Background(), "ghost", validInput())
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Zero(t, f.gen.calls())
}

func TestGenerateValidatesInput(t *testing.T) {
	tests := []struct {
		name string
		in   GenerateInput
	}{
		{name: "missing title", in: GenerateInput{CompanyName: "Acme", JobDescription: "jd"}},
		{name: "control chars only company", in: GenerateInput{JobTitle: "Dev", CompanyName: "\x00\x1b", JobDescription: "jd"}},
		{name: "blank description", in: GenerateInput{JobTitle: "Dev", CompanyName: "Acme", JobDescription: "   "}},
		{name: "title too long", in: GenerateInput{JobTitle: strings.Repeat("x", maxTitleRunes+1), CompanyName: "Acme", JobDescription: "jd"}},
		{name: "description too long", in: GenerateInput{JobTitle: "Dev", CompanyName: "Acme", JobDescription: strings.Repeat("y", maxDescriptionRunes+1)}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			_, err := f.svc.Generate(context.Background(), "user-1", tt.in)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Zero(t, f.gen.calls())
		})
	}
}

func TestGenerateKeepsJobTextVerbatim(t *testing.T) {
	f := newFixture(t, nil)
	in := GenerateInput{
		JobTitle:       "  Senior C++/Go <Platform> Engineer ",
		CompanyName:    "AT&T",
		JobDescription: "Experience with Map<String, Object> and List<Order> required; salary <100k.\r\nMention &lt;3 for culture.",
	}
	letter, err := f.svc.Generate(context.Background(), "user-1", in)
	require.NoError(t, err)

	assert.Equal(t, "Senior C++/Go <Platform> Engineer", letter.JobTitle)
	assert.Equal(t, "AT&T", letter.CompanyName)
	wantDescription := "Experience with Map<String, Object> and List<Order> required; salary <100k.\nMention &lt;3 for culture."
	assert.Equal(t, wantDescription, letter.JobDescription)
	require.Len(t, f.gen.prompts, 1)
	assert.Contains(t, f.gen.prompts[0], "Map<String, Object> and List<Order>")
	assert.Contains(t, f.gen.prompts[0], "<Platform>")
}

func TestGenerateFailureStoresNothing(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
	}{
		{name: "provider error", err: errors.New("upstream 500")},
		{name: "not configured", err: llm.ErrNotImplemented},
		{name: "empty reply", reply: "   \n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			quota := &fakeQuota{allow: true}
			f := newFixture(t, quota)
			f.gen.reply = tt.reply
			f.gen.err = tt.err

			_, err := f.svc.Generate(context.Background(), "user-1", validInput())
			require.ErrorIs(t, err, ErrGenerationFailed)

			stored, listErr := f.repo.ListByUser(context.Background(), "user-1")
			require.NoError(t, listErr)
			assert.Empty(t, stored)
			assert.Zero(t, quota.consumed)
			assert.Equal(t, 1, quota.released)
		})
	}
}

func TestGenerateStoreFailureReleasesQuota(t *testing.T) {
	quota := &fakeQuota{allow: true}
	f := newFixture(t, quota)
	f.svc.Repo = failingCreateRepo{MemoryRepo: f.repo}

	_, err := f.svc.Generate(context.Background(), "user-1", validInput())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrGenerationFailed)
	assert.Zero(t, quota.consumed)
	assert.Equal(t, 1, quota.released)
}

func TestGenerateQuotaErrorIsNotLimit(t *testing.T) {
	quota := &fakeQuota{allow: true, err: errors.New("usage store down")}
	f := newFixture(t, quota)

	_, err := f.svc.Generate(context.Background(), "user-1", validInput())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLimitReached)
	assert.Zero(t, f.gen.calls())
	assert.Zero(t, quota.released)
}

func TestConcurrentGenerateCannotExceedLimit(t *testing.T) {
	quota := usage.NewService(1)
	f := newFixture(t, quota)
	entered := make(chan struct{}, 2)
	proceed := make(chan struct{})
	f.svc.Generator = llm.Func(func(ctx context.Context, prompt string) (string, error) {
		entered <- struct{}{}
		<-proceed
		return "Dear Hiring Manager,", nil
	})

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := f.svc.Generate(context.Background(), "user-1", validInput())
			results <- err
		}()
	}

	// One call holds the only unit inside the generator; the other must be turned away.
	<-entered
	first := <-results
	assert.ErrorIs(t, first, ErrLimitReached)
	close(proceed)
	require.NoError(t, <-results)

	stored, err := f.repo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	u, err := quota.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, u.Used)
	assert.Len(t, entered, 0)
}

func TestFailedGenerationFreesUnitForRetry(t *testing.T) {
	quota := usage.NewService(1)
	f := newFixture(t, quota)
	f.gen.err = errors.New("upstream 500")

	_, err := f.svc.Generate(context.Background(), "user-1", validInput())
	require.ErrorIs(t, err, ErrGenerationFailed)

	f.gen.err = nil
	_, err = f.svc.Generate(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	u, err := quota.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, u.Used)
}

func TestGenerateRespectsQuota(t *testing.T) {
	quota := &fakeQuota{allow: false}
	f := newFixture(t, quota)

	_, err := f.svc.Generate(context.Background(), "user-1", validInput())
	assert.ErrorIs(t, err, ErrLimitReached)
	assert.ErrorIs(t, err, usage.ErrLimitReached)
	assert.Zero(t, f.gen.calls())
}

func TestListIsScopedAndNewestFirst(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, err := f.svc.Generate(ctx, "user-1", validInput())
	require.NoError(t, err)
	second, err := f.svc.Generate(ctx, "user-1", validInput())
	require.NoError(t, err)
	_, err = f.svc.Generate(ctx, "user-2", validInput())
	require.NoError(t, err)

	list, err := f.svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestOwnershipIsEnforced(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	letter, err := f.svc.Generate(ctx, "user-1", validInput())
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, "user-2", letter.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, "user-2", letter.ID), ErrNotFound)

	got, err := f.svc.Get(ctx, "user-1", letter.ID)
	require.NoError(t, err)
	assert.Equal(t, letter.ID, got.ID)

	require.NoError(t, f.svc.Delete(ctx, "user-1", letter.ID))
	_, err = f.svc.Get(ctx, "user-1", letter.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadsRequireAuthenticatedKnownUser(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.List(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.Get(ctx, "", "cl-01")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, f.svc.Delete(ctx, "", "cl-01"), ErrUnauthorized)

	_, err = f.svc.List(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, "ghost", "cl-01"), ErrUserNotFound)
}

func TestDeleteAllByUser(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.svc.Generate(ctx, "user-1", validInput())
		require.NoError(t, err)
	}
	_, err := f.svc.Generate(ctx, "user-2", validInput())
	require.NoError(t, err)

	n, err := f.svc.DeleteAllByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	others, err := f.svc.List(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, others, 1)
}
