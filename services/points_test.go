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

var t0 = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func TestComputeEnergy(t *testing.T) {
	t.Run("one unit per five whole minutes", func(t *testing.T) {
		assert.Equal(t, 55, ComputeEnergy(50, 100, t0, t0.Add(27*time.Minute)))
	})

	t.Run("partial minutes are never credited", func(t *testing.T) {
		assert.Equal(t, 50, ComputeEnergy(50, 100, t0, t0.Add(4*time.Minute+59*time.Second)))
		assert.Equal(t, 51, ComputeEnergy(50, 100, t0, t0.Add(5*time.Minute)))
	})

	t.Run("clamped to max", func(t *testing.T) {
		assert.Equal(t, 100, ComputeEnergy(95, 100, t0, t0.Add(1000*time.Minute)))
		assert.Equal(t, 100, ComputeEnergy(100, 100, t0, t0.Add(time.Minute)))
	})

	t.Run("zero lastUpdate grants exactly one tick", func(t *testing.T) {
		assert.Equal(t, 51, ComputeEnergy(50, 100, time.Time{}, t0))
	})

	t.Run("future lastUpdate credits nothing", func(t *testing.T) {
		assert.Equal(t, 50, ComputeEnergy(50, 100, t0.Add(10*time.Minute), t0))
	})

	t.Run("monotonic non-decreasing in now", func(t *testing.T) {
		prev := 0
		for m := 0; m <= 300; m++ {
			energy := ComputeEnergy(40, 100, t0, t0.Add(time.Duration(m)*time.Minute))
			assert.GreaterOrEqual(t, energy, prev)
			assert.LessOrEqual(t, energy, 100)
			prev = energy
		}
	})
}

func TestRefreshEnergyIdempotent(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewPointsService(st)
	user := seedUser(t, st, 1, models.OffchainPoints{Energy: 50, MaxEnergy: 100, LastEnergyUpdate: t0})

	now := t0.Add(27 * time.Minute)
	first, err := svc.RefreshEnergy(context.Background(), user.ID, now)
	require.NoError(t, err)
	second, err := svc.RefreshEnergy(context.Background(), user.ID, now)
	require.NoError(t, err)

	assert.Equal(t, 55, first.Energy)
	assert.Equal(t, first.Energy, second.Energy)
}

func TestTapSpendsOneEnergy(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewPointsService(st)
	user := seedUser(t, st, 1, models.OffchainPoints{Energy: 1, MaxEnergy: 100, LastEnergyUpdate: t0})

	pts, err := svc.Tap(context.Background(), user.ID, t0)
	require.NoError(t, err)
	assert.Equal(t, 1, pts.Hearts)
	assert.Equal(t, 0, pts.Energy)

	// Drained: the second tap at the same instant fails and writes nothing.
	_, err = svc.Tap(context.Background(), user.ID, t0)
	assert.ErrorIs(t, err, ErrInsufficientEnergy)

	stored, err := st.GetPoints(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Hearts)
	assert.Equal(t, 0, stored.Energy)
}

func TestTapRegeneratesBeforeSpending(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewPointsService(st)
	user := seedUser(t, st, 1, models.OffchainPoints{Energy: 0, MaxEnergy: 100, LastEnergyUpdate: t0})

	pts, err := svc.Tap(context.Background(), user.ID, t0.Add(27*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 4, pts.Energy) // 0 + 5 recovered - 1 spent
	assert.Equal(t, 1, pts.Hearts)
}

func TestTapUnknownUser(t *testing.T) {
	svc := NewPointsService(store.NewMemoryStore())
	_, err := svc.Tap(context.Background(), "missing", t0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentTapsCannotDoubleSpend(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewPointsService(st)
	user := seedUser(t, st, 1, models.OffchainPoints{Energy: 5, MaxEnergy: 100, LastEnergyUpdate: t0})

	const attempts = 20
	var successes atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Tap(context.Background(), user.ID, t0)
			if err == nil {
				successes.Add(1)
			} else if !errors.Is(err, ErrInsufficientEnergy) {
				t.Errorf("unexpected tap error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5), successes.Load())

	stored, err := st.GetPoints(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Hearts)
	assert.Equal(t, 0, stored.Energy)
}

func TestClaimDailySequence(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewPointsService(st)
	user := seedUser(t, st, 1, models.OffchainPoints{Energy: 100, MaxEnergy: 100, LastEnergyUpdate: t0})

	// First ever claim starts the streak.
	pts, err := svc.ClaimDaily(context.Background(), user.ID, t0)
	require.NoError(t, err)
	assert.Equal(t, 1, pts.ClaimStreak)
	assert.Equal(t, 1, pts.Tickets)

	// Too soon: rejected with no state change.
	_, err = svc.ClaimDaily(context.Background(), user.ID, t0.Add(10*time.Hour))
	assert.ErrorIs(t, err, ErrClaimTooSoon)
	stored, err := st.GetPoints(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ClaimStreak)
	assert.Equal(t, 1, stored.Tickets)

	// Within the 48h window: streak continues.
	claim2 := t0.Add(30 * time.Hour)
	pts, err = svc.ClaimDaily(context.Background(), user.ID, claim2)
	require.NoError(t, err)
	assert.Equal(t, 2, pts.ClaimStreak)
	assert.Equal(t, 3, pts.Tickets)

	// More than 48h since the last claim: streak restarts.
	pts, err = svc.ClaimDaily(context.Background(), user.ID, claim2.Add(50*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, pts.ClaimStreak)
	assert.Equal(t, 4, pts.Tickets)
}

func TestClaimStreakCapsAtSeven(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewPointsService(st)
	lastClaim := t0
	user := seedUser(t, st, 1, models.OffchainPoints{
		Energy: 100, MaxEnergy: 100, LastEnergyUpdate: t0,
		ClaimStreak: 7, LastClaimDate: &lastClaim,
	})

	pts, err := svc.ClaimDaily(context.Background(), user.ID, t0.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 7, pts.ClaimStreak)
	assert.Equal(t, 7, pts.Tickets)
}

func TestClaimStatus(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewPointsService(st)
	user := seedUser(t, st, 1, models.OffchainPoints{Energy: 100, MaxEnergy: 100, LastEnergyUpdate: t0})

	// Never claimed: no cooldown running.
	status, err := svc.ClaimStatus(context.Background(), user.ID, t0)
	require.NoError(t, err)
	assert.Equal(t, 0, status.Streak)
	assert.Nil(t, status.NextClaimAt)

	_, err = svc.ClaimDaily(context.Background(), user.ID, t0)
	require.NoError(t, err)

	status, err = svc.ClaimStatus(context.Background(), user.ID, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, status.Streak)
	require.NotNil(t, status.NextClaimAt)
	assert.Equal(t, t0.Add(24*time.Hour), *status.NextClaimAt)

	// Cooldown over: nothing to wait for.
	status, err = svc.ClaimStatus(context.Background(), user.ID, t0.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, status.NextClaimAt)
}

func TestGrantAdjustments(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewPointsService(st)
	user := seedUser(t, st, 1, models.OffchainPoints{Energy: 100, MaxEnergy: 100, LastEnergyUpdate: t0})

	pts, err := svc.GrantPoints(context.Background(), user.ID, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1000, pts.Points)

	pts, err = svc.GrantTickets(context.Background(), user.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, pts.Tickets)
}
