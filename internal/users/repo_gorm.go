package users

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is the gorm mapping of the users table.
type Record struct {
	ID         string   `gorm:"primaryKey"`
	Email      string   `gorm:"not null;uniqueIndex"`
	FullName   string
	PictureURL string
	Industry   string
	Experience int
	Skills     []string `gorm:"serializer:json"`
	Bio        string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Record) TableName() string { return "users" }

// GormRepo implements Repo on top of gorm (SQLite in local mode).
type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Upsert(ctx context.Context, user User) error {
	rec := toRecord(user)
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "full_name", "picture_url", "updated_at"}),
	}).Create(&rec).Error
}

func (r *GormRepo) InsertIfMissing(ctx context.Context, user User) error {
	rec := toRecord(user)
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
}

func (r *GormRepo) GetByID(ctx context.Context, userID string) (User, error) {
	var rec Record
	err := r.DB.WithContext(ctx).Where("id = ?", userID).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return rec.toUser(), nil
}

func (r *GormRepo) UpdateProfile(ctx context.Context, userID string, profile Profile) (User, error) {
	skills := profile.Skills
	if skills == nil {
		skills = []string{}
	}
	var out User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec Record
		if err := tx.Where("id = ?", userID).Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		rec.Industry = profile.Industry
		rec.Experience = profile.Experience
		rec.Skills = skills
		rec.Bio = profile.Bio
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}
		out = rec.toUser()
		return nil
	})
	return out, err
}

func (r *GormRepo) Delete(ctx context.Context, userID string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", userID).Delete(&Record{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func toRecord(u User) Record {
	skills := u.Skills
	if skills == nil {
		skills = []string{}
	}
	return Record{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		PictureURL: u.PictureURL,
		Industry:   u.Industry,
		Experience: u.Experience,
		Skills:     skills,
		Bio:        u.Bio,
	}
}

func (r Record) toUser() User {
	skills := r.Skills
	if skills == nil {
		skills = []string{}
	}
	return User{
		ID:         r.ID,
		Email:      r.Email,
		FullName:   r.FullName,
		PictureURL: r.PictureURL,
		Industry:   r.Industry,
		Experience: r.Experience,
		Skills:     skills,
		Bio:        r.Bio,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

var _ Repo = (*GormRepo)(nil)
