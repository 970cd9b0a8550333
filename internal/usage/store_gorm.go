package usage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is the gorm mapping of the usage table.
type Record struct {
	UserID      string    `gorm:"primaryKey;column:user_id"`
	Plan        string    `gorm:"not null;default:Starter"`
	LimitAmount int       `gorm:"column:limit_amount;not null"`
	Used        int       `gorm:"not null;default:0"`
	ResetsAt    time.Time `gorm:"column:resets_at;not null"`
}

func (Record) TableName() string { return "usage" }

// GormStore keeps usage rows through gorm (SQLite in local mode). Consume only
// bumps the counter with a conditional UPDATE, so the limit holds even when
// reservations race.
type GormStore struct {
	DB    *gorm.DB
	limit int
	now   func() time.Time
}

// NewGormStore constructs a gorm-backed usage store.
func NewGormStore(db *gorm.DB, limit int) *GormStore {
	return &GormStore{
		DB:    db,
		limit: normalizeLimit(limit),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *GormStore) Get(ctx context.Context, userID string) (Usage, error) {
	return s.ensure(ctx, userID)
}

func (s *GormStore) EnsurePeriod(ctx context.Context, userID string) (Usage, error) {
	return s.ensure(ctx, userID)
}

func (s *GormStore) Consume(ctx context.Context, userID string, n int) (Usage, error) {
	if n <= 0 {
		return s.ensure(ctx, userID)
	}
	var u Usage
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ensureTx(tx, userID); err != nil {
			return err
		}
		res := tx.Model(&Record{}).
			Where("user_id = ? AND used + ? <= limit_amount", userID, n).
			Update("used", gorm.Expr("used + ?", n))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrLimitReached
		}
		var err error
		u, err = s.load(tx, userID)
		return err
	})
	if err != nil {
		return Usage{}, err
	}
	return u, nil
}

func (s *GormStore) Release(ctx context.Context, userID string, n int) (Usage, error) {
	if n <= 0 {
		return s.ensure(ctx, userID)
	}
	var u Usage
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ensureTx(tx, userID); err != nil {
			return err
		}
		err := tx.Model(&Record{}).
			Where("user_id = ?", userID).
			Update("used", gorm.Expr("CASE WHEN used > ? THEN used - ? ELSE 0 END", n, n)).Error
		if err != nil {
			return err
		}
		u, err = s.load(tx, userID)
		return err
	})
	if err != nil {
		return Usage{}, err
	}
	return u, nil
}

func (s *GormStore) Reset(ctx context.Context, userID string) (Usage, error) {
	var u Usage
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ensureTx(tx, userID); err != nil {
			return err
		}
		resetsAt := s.now().Add(period)
		err := tx.Model(&Record{}).
			Where("user_id = ?", userID).
			Updates(map[string]any{"used": 0, "resets_at": resetsAt}).Error
		if err != nil {
			return err
		}
		u, err = s.load(tx, userID)
		return err
	})
	if err != nil {
		return Usage{}, err
	}
	return u, nil
}

// Delete drops the user's usage row.
func (s *GormStore) Delete(ctx context.Context, userID string) error {
	return s.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&Record{}).Error
}

func (s *GormStore) ensure(ctx context.Context, userID string) (Usage, error) {
	var u Usage
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		u, err = s.ensureTx(tx, userID)
		return err
	})
	if err != nil {
		return Usage{}, err
	}
	return u, nil
}

func (s *GormStore) ensureTx(tx *gorm.DB, userID string) (Usage, error) {
	var rec Record
	err := tx.Where("user_id = ?", userID).Take(&rec).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		rec = newRecord(userID, defaultUsage(s.limit, s.now()))
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error; err != nil {
			return Usage{}, err
		}
		if err := tx.Where("user_id = ?", userID).Take(&rec).Error; err != nil {
			return Usage{}, err
		}
	case err != nil:
		return Usage{}, err
	}

	u := rec.toUsage()
	now := s.now()
	if expired(u, now) {
		u.Used = 0
		u.ResetsAt = now.Add(period)
		err := tx.Model(&Record{}).
			Where("user_id = ?", userID).
			Updates(map[string]any{"used": 0, "resets_at": u.ResetsAt}).Error
		if err != nil {
			return Usage{}, err
		}
	}
	return u, nil
}

func (s *GormStore) load(tx *gorm.DB, userID string) (Usage, error) {
	var rec Record
	if err := tx.Where("user_id = ?", userID).Take(&rec).Error; err != nil {
		return Usage{}, err
	}
	return rec.toUsage(), nil
}

func newRecord(userID string, u Usage) Record {
	return Record{
		UserID:      userID,
		Plan:        u.Plan,
		LimitAmount: u.Limit,
		Used:        u.Used,
		ResetsAt:    u.ResetsAt,
	}
}

func (r Record) toUsage() Usage {
	return Usage{
		Plan:     r.Plan,
		Limit:    r.LimitAmount,
		Used:     r.Used,
		ResetsAt: r.ResetsAt.UTC(),
	}
}
