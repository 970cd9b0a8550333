package coverletters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"career-backend/internal/llm"
	"career-backend/internal/shared/metrics"
	"career-backend/internal/shared/telemetry"
	"career-backend/internal/shared/util"
	"career-backend/internal/usage"
	"career-backend/internal/users"
)

const (
	maxTitleRunes       = 200
	maxCompanyRunes     = 200
	maxDescriptionRunes = 10000

	releaseTimeout = 5 * time.Second
)

// UserReader loads the user row that owns a request.
type UserReader interface {
	GetByID(ctx context.Context, userID string) (users.User, error)
}

// Quota limits how many letters a user may generate per period. A unit is
// reserved with Consume before generating and handed back with Release when no
// letter is stored.
type Quota interface {
	Consume(ctx context.Context, userID string, n int) (usage.Usage, error)
	Release(ctx context.Context, userID string, n int) (usage.Usage, error)
}

// Service implements cover letter generation and retrieval.
type Service struct {
	Repo      Repo
	Users     UserReader
	Generator llm.TextGenerator
	// Quota is optional; nil disables limits.
	Quota Quota

	now   func() time.Time
	newID func() string
}

// NewService constructs a Service.
func NewService(repo Repo, usersReader UserReader, gen llm.TextGenerator, quota Quota) *Service {
	if gen == nil {
		gen = llm.PlaceholderGenerator{}
	}
	return &Service{
		Repo:      repo,
		Users:     usersReader,
		Generator: gen,
		Quota:     quota,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.NewString() },
	}
}

// Generate writes a cover letter for the job with the AI provider and stores it
// as completed. Nothing is stored when generation fails.
func (s *Service) Generate(ctx context.Context, userID string, in GenerateInput) (CoverLetter, error) {
	if strings.TrimSpace(userID) == "" {
		return CoverLetter{}, ErrUnauthorized
	}
	in, err := normalizeInput(in)
	if err != nil {
		return CoverLetter{}, err
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return CoverLetter{}, err
	}

	prompt, err := BuildPrompt(in, user)
	if err != nil {
		return CoverLetter{}, err
	}

	if s.Quota != nil {
		if _, err := s.Quota.Consume(ctx, userID, 1); err != nil {
			if errors.Is(err, usage.ErrLimitReached) {
				metrics.IncGeneration(metrics.ResultLimitReached)
				return CoverLetter{}, ErrLimitReached
			}
			return CoverLetter{}, fmt.Errorf("reserve usage: %w", err)
		}
	}
	stored := false
	defer func() {
		if !stored {
			s.releaseQuota(ctx, userID)
		}
	}()

	content, err := s.Generator.Generate(ctx, prompt)
	if err == nil && strings.TrimSpace(content) == "" {
		err = errors.New("empty response")
	}
	if err != nil {
		metrics.IncGeneration(metrics.ResultFailed)
		telemetry.Error("coverletter.generate_failed", map[string]any{
			"user_id":   userID,
			"job_title": in.JobTitle,
			"company":   in.CompanyName,
			"error":     err,
		})
		return CoverLetter{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	now := s.clock()
	letter := CoverLetter{
		ID:             s.id(),
		UserID:         userID,
		Content:        strings.TrimSpace(content),
		JobDescription: in.JobDescription,
		CompanyName:    in.CompanyName,
		JobTitle:       in.JobTitle,
		Status:         StatusCompleted,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Repo.Create(ctx, letter); err != nil {
		return CoverLetter{}, fmt.Errorf("store cover letter: %w", err)
	}
	stored = true
	metrics.IncGeneration(metrics.ResultCompleted)

	telemetry.Info("coverletter.generated", map[string]any{
		"user_id":         userID,
		"cover_letter_id": letter.ID,
	})
	return letter, nil
}

// List returns the caller's cover letters, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]CoverLetter, error) {
	if err := s.authorize(ctx, userID); err != nil {
		return nil, err
	}
	return s.Repo.ListByUser(ctx, userID)
}

// Get returns a single cover letter owned by the caller.
func (s *Service) Get(ctx context.Context, userID, id string) (CoverLetter, error) {
	if err := s.authorize(ctx, userID); err != nil {
		return CoverLetter{}, err
	}
	if strings.TrimSpace(id) == "" {
		return CoverLetter{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, userID, id)
}

// Delete removes a cover letter owned by the caller.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.authorize(ctx, userID); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return ErrNotFound
	}
	if err := s.Repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	metrics.IncDelete()
	return nil
}

// DeleteAllByUser removes every cover letter of a user and returns the count.
func (s *Service) DeleteAllByUser(ctx context.Context, userID string) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, ErrUnauthorized
	}
	return s.Repo.DeleteAllByUser(ctx, userID)
}

func (s *Service) authorize(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrUnauthorized
	}
	_, err := s.loadUser(ctx, userID)
	return err
}

func (s *Service) loadUser(ctx context.Context, userID string) (users.User, error) {
	if s.Users == nil {
		return users.User{}, errors.New("users reader not configured")
	}
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return users.User{}, ErrUserNotFound
		}
		return users.User{}, err
	}
	return user, nil
}

// releaseQuota hands back a reserved unit. It runs after the request context
// may already be cancelled, so it gets its own short deadline.
func (s *Service) releaseQuota(ctx context.Context, userID string) {
	if s.Quota == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if _, err := s.Quota.Release(ctx, userID, 1); err != nil {
		telemetry.Warn("coverletter.usage_release_failed", map[string]any{
			"user_id": userID,
			"error":   err,
		})
	}
}

func (s *Service) clock() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now()
}

func (s *Service) id() string {
	if s.newID == nil {
		return uuid.NewString()
	}
	return s.newID()
}

func normalizeInput(in GenerateInput) (GenerateInput, error) {
	out := GenerateInput{
		JobTitle:       util.CleanText(in.JobTitle),
		CompanyName:    util.CleanText(in.CompanyName),
		JobDescription: util.CleanText(in.JobDescription),
	}
	switch {
	case out.JobTitle == "":
		return GenerateInput{}, fmt.Errorf("%w: jobTitle is required", ErrInvalidInput)
	case out.CompanyName == "":
		return GenerateInput{}, fmt.Errorf("%w: companyName is required", ErrInvalidInput)
	case out.JobDescription == "":
		return GenerateInput{}, fmt.Errorf("%w: jobDescription is required", ErrInvalidInput)
	case util.TooLong(out.JobTitle, maxTitleRunes):
		return GenerateInput{}, fmt.Errorf("%w: jobTitle must be at most %d characters", ErrInvalidInput, maxTitleRunes)
	case util.TooLong(out.CompanyName, maxCompanyRunes):
		return GenerateInput{}, fmt.Errorf("%w: companyName must be at most %d characters", ErrInvalidInput, maxCompanyRunes)
	case util.TooLong(out.JobDescription, maxDescriptionRunes):
		return GenerateInput{}, fmt.Errorf("%w: jobDescription must be at most %d characters", ErrInvalidInput, maxDescriptionRunes)
	}
	return out, nil
}
