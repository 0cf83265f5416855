package store

import (
	"context"
	"sync"
	"time"

	"tap-lab-backend/models"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used by tests and local development.
// It enforces the same unique constraints as the postgres schema, and hands
// out copies so callers cannot mutate stored rows behind its back.
type MemoryStore struct {
	mu         sync.Mutex
	users      map[string]models.User // by User.ID
	byTelegram map[int64]string
	points     map[string]models.OffchainPoints // by UserID
	referrals  map[string]models.Referral       // by ReferredID
	completed  map[string]models.CompletedTask  // by userID+"\x00"+taskID
	tasks      map[string]models.Task
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]models.User),
		byTelegram: make(map[int64]string),
		points:     make(map[string]models.OffchainPoints),
		referrals:  make(map[string]models.Referral),
		completed:  make(map[string]models.CompletedTask),
		tasks:      make(map[string]models.Task),
	}
}

func (s *MemoryStore) GetUserByTelegramID(_ context.Context, telegramID int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byTelegram[telegramID]
	if !ok {
		return nil, ErrNotFound
	}
	user := s.users[id]
	return &user, nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStore) CreateUserWithPoints(_ context.Context, user *models.User, points *models.OffchainPoints) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byTelegram[user.TelegramID]; exists {
		return ErrDuplicate
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if points.ID == "" {
		points.ID = uuid.NewString()
	}
	points.UserID = user.ID

	s.users[user.ID] = *user
	s.byTelegram[user.TelegramID] = user.ID
	s.points[user.ID] = *points
	return nil
}

func (s *MemoryStore) SetUserWallet(_ context.Context, userID, wallet string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.Wallet = &wallet
	s.users[userID] = user
	return nil
}

func (s *MemoryStore) GetPoints(_ context.Context, userID string) (*models.OffchainPoints, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	points, ok := s.points[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &points, nil
}

func (s *MemoryStore) SavePoints(_ context.Context, points *models.OffchainPoints) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.points[points.UserID]; !ok {
		return ErrNotFound
	}
	s.points[points.UserID] = *points
	return nil
}

func (s *MemoryStore) GetReferralByReferred(_ context.Context, referredID string) (*models.Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, ok := s.referrals[referredID]
	if !ok {
		return nil, ErrNotFound
	}
	return &ref, nil
}

func (s *MemoryStore) CountReferrals(_ context.Context, referrerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, ref := range s.referrals {
		if ref.ReferrerID == referrerID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) CreateReferral(_ context.Context, ref *models.Referral) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.referrals[ref.ReferredID]; exists {
		return ErrDuplicate
	}
	if ref.ID == "" {
		ref.ID = uuid.NewString()
	}
	s.referrals[ref.ReferredID] = *ref
	return nil
}

func (s *MemoryStore) ListReferredUsers(_ context.Context, referrerID string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var users []models.User
	for _, ref := range s.referrals {
		if ref.ReferrerID != referrerID {
			continue
		}
		if user, ok := s.users[ref.ReferredID]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

func (s *MemoryStore) GetCompletedTask(_ context.Context, userID, taskID string) (*models.CompletedTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ct, ok := s.completed[userID+"\x00"+taskID]
	if !ok {
		return nil, ErrNotFound
	}
	return &ct, nil
}

func (s *MemoryStore) CreateCompletedTask(_ context.Context, ct *models.CompletedTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ct.UserID + "\x00" + ct.TaskID
	if _, exists := s.completed[key]; exists {
		return ErrDuplicate
	}
	if ct.ID == "" {
		ct.ID = uuid.NewString()
	}
	if ct.CompletedAt.IsZero() {
		ct.CompletedAt = time.Now().UTC()
	}
	s.completed[key] = *ct
	return nil
}

func (s *MemoryStore) GetTask(_ context.Context, taskID string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, ErrNotFound
	}
	return &task, nil
}

// PutTask seeds a catalog row. Not part of Store; the catalog is managed
// out of band in production.
func (s *MemoryStore) PutTask(task models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task
}
