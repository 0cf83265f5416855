package store

import (
	"context"
	"errors"
	"time"

	"tap-lab-backend/models"
)

var (
	ErrNotFound  = errors.New("store: record not found")
	ErrDuplicate = errors.New("store: duplicate key")
)

// Store is the row-store the services run against. Production uses the
// gorm/postgres implementation; tests use the in-memory one. Implementations
// must enforce the unique constraints on users.telegram_id,
// referrals.referred_id and completed_tasks (user_id, task_id), and report
// violations as ErrDuplicate.
type Store interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// CreateUserWithPoints inserts the user and its points row as one unit;
	// callers never observe a user without points.
	CreateUserWithPoints(ctx context.Context, user *models.User, points *models.OffchainPoints) error
	SetUserWallet(ctx context.Context, userID, wallet string) error

	GetPoints(ctx context.Context, userID string) (*models.OffchainPoints, error)
	SavePoints(ctx context.Context, points *models.OffchainPoints) error

	GetReferralByReferred(ctx context.Context, referredID string) (*models.Referral, error)
	CountReferrals(ctx context.Context, referrerID string) (int64, error)
	CreateReferral(ctx context.Context, ref *models.Referral) error
	ListReferredUsers(ctx context.Context, referrerID string) ([]models.User, error)

	GetCompletedTask(ctx context.Context, userID, taskID string) (*models.CompletedTask, error)
	CreateCompletedTask(ctx context.Context, ct *models.CompletedTask) error

	GetTask(ctx context.Context, taskID string) (*models.Task, error)
}

// defaultTimeout bounds every store call so a stuck database surfaces as an
// error instead of a hung request.
const defaultTimeout = 5 * time.Second
