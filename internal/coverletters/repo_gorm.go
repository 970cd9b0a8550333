package coverletters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Record is the gorm mapping of the cover_letters table.
type Record struct {
	ID             string `gorm:"primaryKey"`
	UserID         string `gorm:"not null;index:idx_cover_letters_user_created,priority:1"`
	Content        string
	JobDescription string
	CompanyName    string
	JobTitle       string
	Status         string    `gorm:"not null;default:draft"`
	CreatedAt      time.Time `gorm:"index:idx_cover_letters_user_created,priority:2,sort:desc"`
	UpdatedAt      time.Time
}

func (Record) TableName() string { return "cover_letters" }

// GormRepo implements Repo on top of gorm (SQLite in local mode).
type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Create(ctx context.Context, letter CoverLetter) error {
	rec := Record{
		ID:             letter.ID,
		UserID:         letter.UserID,
		Content:        letter.Content,
		JobDescription: letter.JobDescription,
		CompanyName:    letter.CompanyName,
		JobTitle:       letter.JobTitle,
		Status:         letter.Status,
		CreatedAt:      letter.CreatedAt,
		UpdatedAt:      letter.UpdatedAt,
	}
	return r.DB.WithContext(ctx).Create(&rec).Error
}

func (r *GormRepo) ListByUser(ctx context.Context, userID string) ([]CoverLetter, error) {
	var recs []Record
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]CoverLetter, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toLetter())
	}
	return out, nil
}

func (r *GormRepo) GetByID(ctx context.Context, userID, id string) (CoverLetter, error) {
	var rec Record
	err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CoverLetter{}, ErrNotFound
		}
		return CoverLetter{}, err
	}
	return rec.toLetter(), nil
}

func (r *GormRepo) Delete(ctx context.Context, userID, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&Record{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) DeleteAllByUser(ctx context.Context, userID string) (int, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&Record{})
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (r Record) toLetter() CoverLetter {
	return CoverLetter{
		ID:             r.ID,
		UserID:         r.UserID,
		Content:        r.Content,
		JobDescription: r.JobDescription,
		CompanyName:    r.CompanyName,
		JobTitle:       r.JobTitle,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

var _ Repo = (*GormRepo)(nil)
