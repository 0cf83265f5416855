package services

import (
	"context"
	"errors"
	"log"
	"time"

	"tap-lab-backend/models"
	"tap-lab-backend/store"
)

// DefaultTaskReward is paid for task ids that have no catalog row.
const DefaultTaskReward = 1000

type TaskService struct {
	Store  store.Store
	Points *PointsService
}

func NewTaskService(st store.Store, points *PointsService) *TaskService {
	return &TaskService{Store: st, Points: points}
}

// Complete grants the task reward exactly once per (user, task). The
// completion row is inserted before the grant so the store's unique index
// arbitrates concurrent attempts: whoever loses the insert race sees
// ErrTaskAlreadyCompleted and no second reward is ever paid.
func (s *TaskService) Complete(ctx context.Context, userID, taskID string, now time.Time) (*models.OffchainPoints, error) {
	if _, err := s.Store.GetCompletedTask(ctx, userID, taskID); err == nil {
		return nil, ErrTaskAlreadyCompleted
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	reward := DefaultTaskReward
	task, err := s.Store.GetTask(ctx, taskID)
	switch {
	case err == nil:
		if task.Status != models.TaskStatusActive {
			return nil, ErrTaskUnavailable
		}
		reward = task.RewardPoints
	case errors.Is(err, store.ErrNotFound):
		// No catalog row: completable at the default reward.
	default:
		return nil, err
	}

	ct := &models.CompletedTask{UserID: userID, TaskID: taskID, CompletedAt: now}
	if err := s.Store.CreateCompletedTask(ctx, ct); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrTaskAlreadyCompleted
		}
		return nil, err
	}

	pts, err := s.Points.GrantPoints(ctx, userID, reward)
	if err != nil {
		// Completion row exists but the reward was not paid; no cross-table
		// rollback, so log both ids for manual reconciliation.
		log.Printf("❌ Task reward grant failed after completion insert: user=%s task=%s err=%v",
			userID, taskID, err)
		return nil, err
	}

	log.Printf("✅ Task %s completed by user %s (+%d points)", taskID, userID, reward)
	return pts, nil
}

// TaskStatus reports whether the user already completed the task.
type TaskStatus struct {
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (s *TaskService) Status(ctx context.Context, userID, taskID string) (*TaskStatus, error) {
	ct, err := s.Store.GetCompletedTask(ctx, userID, taskID)
	if errors.Is(err, store.ErrNotFound) {
		return &TaskStatus{Completed: false}, nil
	}
	if err != nil {
		return nil, err
	}
	completedAt := ct.CompletedAt
	return &TaskStatus{Completed: true, CompletedAt: &completedAt}, nil
}
