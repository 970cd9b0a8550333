package users

import (
	"context"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: make(map[string]User)}
}

func (r *MemoryRepo) Upsert(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	existing, ok := r.users[user.ID]
	if ok {
		existing.Email = user.Email
		existing.FullName = user.FullName
		existing.PictureURL = user.PictureURL
		existing.UpdatedAt = now
		r.users[user.ID] = existing
		return nil
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Skills = copySkills(user.Skills)
	r.users[user.ID] = user
	return nil
}

func (r *MemoryRepo) InsertIfMissing(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return nil
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Skills = copySkills(user.Skills)
	r.users[user.ID] = user
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	user.Skills = copySkills(user.Skills)
	return user, nil
}

func (r *MemoryRepo) UpdateProfile(ctx context.Context, userID string, profile Profile) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	user.Industry = profile.Industry
	user.Experience = profile.Experience
	user.Skills = copySkills(profile.Skills)
	user.Bio = profile.Bio
	user.UpdatedAt = time.Now().UTC()
	r.users[userID] = user

	user.Skills = copySkills(user.Skills)
	return user, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return ErrNotFound
	}
	delete(r.users, userID)
	return nil
}

func copySkills(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

var _ Repo = (*MemoryRepo)(nil)
