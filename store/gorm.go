package store

import (
	"context"
	"errors"
	"time"

	"tap-lab-backend/models"

	"gorm.io/gorm"
)

// GormStore is the postgres-backed Store. The *gorm.DB it wraps must be
// opened with TranslateError so unique violations arrive as
// gorm.ErrDuplicatedKey.
type GormStore struct {
	DB      *gorm.DB
	Timeout time.Duration
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db, Timeout: defaultTimeout}
}

func (s *GormStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.Timeout)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

func (s *GormStore) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var user models.User
	err := s.DB.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var user models.User
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) CreateUserWithPoints(ctx context.Context, user *models.User, points *models.OffchainPoints) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return translate(s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		points.UserID = user.ID
		return tx.Create(points).Error
	}))
}

func (s *GormStore) SetUserWallet(ctx context.Context, userID, wallet string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("wallet", wallet)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) GetPoints(ctx context.Context, userID string) (*models.OffchainPoints, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var points models.OffchainPoints
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&points).Error
	if err != nil {
		return nil, translate(err)
	}
	return &points, nil
}

func (s *GormStore) SavePoints(ctx context.Context, points *models.OffchainPoints) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return translate(s.DB.WithContext(ctx).Save(points).Error)
}

func (s *GormStore) GetReferralByReferred(ctx context.Context, referredID string) (*models.Referral, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var ref models.Referral
	err := s.DB.WithContext(ctx).Where("referred_id = ?", referredID).First(&ref).Error
	if err != nil {
		return nil, translate(err)
	}
	return &ref, nil
}

func (s *GormStore) CountReferrals(ctx context.Context, referrerID string) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Referral{}).
		Where("referrer_id = ?", referrerID).
		Count(&count).Error
	return count, translate(err)
}

func (s *GormStore) CreateReferral(ctx context.Context, ref *models.Referral) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return translate(s.DB.WithContext(ctx).Create(ref).Error)
}

func (s *GormStore) ListReferredUsers(ctx context.Context, referrerID string) ([]models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var users []models.User
	err := s.DB.WithContext(ctx).
		Joins("INNER JOIN referrals ON referrals.referred_id = users.id").
		Where("referrals.referrer_id = ?", referrerID).
		Find(&users).Error
	return users, translate(err)
}

func (s *GormStore) GetCompletedTask(ctx context.Context, userID, taskID string) (*models.CompletedTask, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var ct models.CompletedTask
	err := s.DB.WithContext(ctx).Where("user_id = ? AND task_id = ?", userID, taskID).First(&ct).Error
	if err != nil {
		return nil, translate(err)
	}
	return &ct, nil
}

func (s *GormStore) CreateCompletedTask(ctx context.Context, ct *models.CompletedTask) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return translate(s.DB.WithContext(ctx).Create(ct).Error)
}

func (s *GormStore) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var task models.Task
	err := s.DB.WithContext(ctx).Where("id = ?", taskID).First(&task).Error
	if err != nil {
		return nil, translate(err)
	}
	return &task, nil
}
