package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"career-backend/internal/shared/util"
)

// ErrInvalidInput indicates a rejected profile update.
var ErrInvalidInput = errors.New("invalid input")

const (
	maxExperience = 60
	maxSkills     = 50
)

// Identity is the subset of auth claims needed to create a user row.
type Identity struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromAuth persists the user identity from OAuth so cover letters have a stable owner.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return errors.New("user id and email are required")
	}
	return s.Repo.Upsert(ctx, user)
}

// EnsureFromClaims creates the user row on first sight and returns the stored user.
func (s *Service) EnsureFromClaims(ctx context.Context, id Identity) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(id.ID) == "" {
		return User{}, errors.New("user id is required")
	}

	user, err := s.Repo.GetByID(ctx, id.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}
	if strings.TrimSpace(id.Email) == "" {
		return User{}, errors.New("user email is required")
	}

	if err := s.Repo.InsertIfMissing(ctx, User{
		ID:         id.ID,
		Email:      id.Email,
		FullName:   id.Name,
		PictureURL: id.Picture,
	}); err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return s.Repo.GetByID(ctx, id.ID)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}

// UpdateProfile normalises and stores the onboarding profile.
func (s *Service) UpdateProfile(ctx context.Context, userID string, profile Profile) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}

	profile.Industry = util.PlainText(profile.Industry)
	profile.Bio = util.CleanText(profile.Bio)
	profile.Skills = NormalizeSkills(profile.Skills)

	if profile.Industry == "" {
		return User{}, fmt.Errorf("%w: industry is required", ErrInvalidInput)
	}
	if profile.Experience < 0 || profile.Experience > maxExperience {
		return User{}, fmt.Errorf("%w: experience must be between 0 and %d", ErrInvalidInput, maxExperience)
	}
	if len(profile.Skills) > maxSkills {
		return User{}, fmt.Errorf("%w: at most %d skills", ErrInvalidInput, maxSkills)
	}
	return s.Repo.UpdateProfile(ctx, userID, profile)
}

func (s *Service) Delete(ctx context.Context, userID string) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	return s.Repo.Delete(ctx, userID)
}

// NormalizeSkills trims entries, drops empties and removes case-insensitive duplicates
// keeping the first spelling.
func NormalizeSkills(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		skill := util.PlainText(raw)
		if skill == "" {
			continue
		}
		key := strings.ToLower(skill)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, skill)
	}
	return out
}
