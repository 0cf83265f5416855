package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tap-lab-backend/models"
	"tap-lab-backend/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTaskFixture(t *testing.T) (*store.MemoryStore, *TaskService, *models.User) {
	t.Helper()
	st := store.NewMemoryStore()
	svc := NewTaskService(st, NewPointsService(st))
	user := seedUser(t, st, 1, models.OffchainPoints{Energy: 100, MaxEnergy: 100, LastEnergyUpdate: t0})
	return st, svc, user
}

func TestCompleteTaskDefaultReward(t *testing.T) {
	_, svc, user := newTaskFixture(t)

	pts, err := svc.Complete(context.Background(), user.ID, "join_channel", t0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTaskReward, pts.Points)

	status, err := svc.Status(context.Background(), user.ID, "join_channel")
	require.NoError(t, err)
	assert.True(t, status.Completed)
	require.NotNil(t, status.CompletedAt)
	assert.Equal(t, t0, *status.CompletedAt)
}

func TestCompleteTaskTwice(t *testing.T) {
	st, svc, user := newTaskFixture(t)

	_, err := svc.Complete(context.Background(), user.ID, "join_channel", t0)
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), user.ID, "join_channel", t0.Add(time.Hour))
	assert.ErrorIs(t, err, ErrTaskAlreadyCompleted)

	pts, err := st.GetPoints(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, DefaultTaskReward, pts.Points)
}

func TestCompleteDistinctTasks(t *testing.T) {
	st, svc, user := newTaskFixture(t)

	_, err := svc.Complete(context.Background(), user.ID, "join_channel", t0)
	require.NoError(t, err)
	_, err = svc.Complete(context.Background(), user.ID, "follow_x", t0)
	require.NoError(t, err)

	pts, err := st.GetPoints(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2*DefaultTaskReward, pts.Points)
}

func TestConcurrentCompleteIsExactlyOnce(t *testing.T) {
	st, svc, user := newTaskFixture(t)

	const attempts = 10
	var successes atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Complete(context.Background(), user.ID, "join_channel", t0)
			if err == nil {
				successes.Add(1)
			} else if !errors.Is(err, ErrTaskAlreadyCompleted) {
				t.Errorf("unexpected complete error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), successes.Load())

	pts, err := st.GetPoints(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, DefaultTaskReward, pts.Points)
}

func TestCompleteCatalogTaskReward(t *testing.T) {
	st, svc, user := newTaskFixture(t)
	st.PutTask(models.Task{ID: "follow_x", Name: "Follow on X", RewardPoints: 500, Status: models.TaskStatusActive})

	pts, err := svc.Complete(context.Background(), user.ID, "follow_x", t0)
	require.NoError(t, err)
	assert.Equal(t, 500, pts.Points)
}

func TestCompleteScheduledTaskUnavailable(t *testing.T) {
	st, svc, user := newTaskFixture(t)
	startAt := t0.Add(24 * time.Hour)
	st.PutTask(models.Task{ID: "launch_day", Name: "Launch day", RewardPoints: 5000, Status: models.TaskStatusScheduled, StartAt: &startAt})

	_, err := svc.Complete(context.Background(), user.ID, "launch_day", t0)
	assert.ErrorIs(t, err, ErrTaskUnavailable)

	// Nothing was recorded or paid.
	status, err := svc.Status(context.Background(), user.ID, "launch_day")
	require.NoError(t, err)
	assert.False(t, status.Completed)

	pts, err := st.GetPoints(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, pts.Points)
}
