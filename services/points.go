package services

import (
	"context"
	"errors"
	"log"
	"time"

	"tap-lab-backend/models"
	"tap-lab-backend/store"
)

const (
	energyRecoveryMinutes = 5 // one energy per this many whole minutes
	maxClaimStreak        = 7
	claimCooldown         = 24 * time.Hour
	streakWindow          = 48 * time.Hour
)

// PointsService owns the per-user gameplay ledger. Every mutation runs
// under the account's lock; every operation takes the current instant
// explicitly so the time math stays a pure function of stored state.
type PointsService struct {
	Store store.Store
	locks keyedLocks
}

func NewPointsService(st store.Store) *PointsService {
	return &PointsService{Store: st}
}

// ComputeEnergy returns the energy after time-based recovery: one unit per
// five whole elapsed minutes, clamped to maxEnergy. Partial minutes are
// never credited, and a lastUpdate in the future credits nothing. A zero
// lastUpdate (legacy/corrupt row) counts as now-5m, so the row recovers
// exactly one tick instead of failing the request.
func ComputeEnergy(stored, maxEnergy int, lastUpdate, now time.Time) int {
	if lastUpdate.IsZero() {
		lastUpdate = now.Add(-energyRecoveryMinutes * time.Minute)
	}
	elapsed := int(now.Sub(lastUpdate).Minutes())
	if elapsed < 0 {
		elapsed = 0
	}
	restored := stored + elapsed/energyRecoveryMinutes
	if restored > maxEnergy {
		restored = maxEnergy
	}
	return restored
}

func (s *PointsService) getPoints(ctx context.Context, userID string) (*models.OffchainPoints, error) {
	pts, err := s.Store.GetPoints(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return pts, err
}

// touch advances the energy baseline; it never moves backwards.
func touch(pts *models.OffchainPoints, now time.Time) {
	if now.After(pts.LastEnergyUpdate) {
		pts.LastEnergyUpdate = now
	}
}

// Tap spends one energy for one heart. Energy is recomputed from the stored
// baseline first, so a user who waited regains ticks before spending. At
// zero recomputed energy nothing is written.
func (s *PointsService) Tap(ctx context.Context, userID string, now time.Time) (*models.OffchainPoints, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	pts, err := s.getPoints(ctx, userID)
	if err != nil {
		return nil, err
	}

	restored := ComputeEnergy(pts.Energy, pts.MaxEnergy, pts.LastEnergyUpdate, now)
	if restored < 1 {
		return nil, ErrInsufficientEnergy
	}

	pts.Energy = restored - 1
	pts.Hearts++
	touch(pts, now)

	if err := s.Store.SavePoints(ctx, pts); err != nil {
		return nil, err
	}
	return pts, nil
}

// RefreshEnergy recomputes and persists the energy without consuming any.
// Calling it twice with the same now yields the same energy both times.
func (s *PointsService) RefreshEnergy(ctx context.Context, userID string, now time.Time) (*models.OffchainPoints, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	pts, err := s.getPoints(ctx, userID)
	if err != nil {
		return nil, err
	}

	pts.Energy = ComputeEnergy(pts.Energy, pts.MaxEnergy, pts.LastEnergyUpdate, now)
	touch(pts, now)

	if err := s.Store.SavePoints(ctx, pts); err != nil {
		return nil, err
	}
	return pts, nil
}

// ClaimDaily pays tickets equal to the new streak. Less than 24h since the
// last claim rejects; less than 48h continues the streak (capped at 7);
// anything longer restarts it at 1.
func (s *PointsService) ClaimDaily(ctx context.Context, userID string, now time.Time) (*models.OffchainPoints, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	pts, err := s.getPoints(ctx, userID)
	if err != nil {
		return nil, err
	}

	if pts.LastClaimDate != nil && now.Sub(*pts.LastClaimDate) < claimCooldown {
		return nil, ErrClaimTooSoon
	}

	streak := 1
	if pts.LastClaimDate != nil && now.Sub(*pts.LastClaimDate) < streakWindow {
		streak = pts.ClaimStreak + 1
		if streak > maxClaimStreak {
			streak = maxClaimStreak
		}
	}

	claimedAt := now
	pts.Tickets += streak
	pts.ClaimStreak = streak
	pts.LastClaimDate = &claimedAt

	if err := s.Store.SavePoints(ctx, pts); err != nil {
		return nil, err
	}

	log.Printf("🎟️  Daily claim: user=%s streak=%d tickets=%d", userID, streak, pts.Tickets)
	return pts, nil
}

// ClaimStatus reports the current streak and, while the cooldown is still
// running, the instant the next claim opens. Purely informational.
type ClaimStatus struct {
	Streak      int        `json:"streak"`
	NextClaimAt *time.Time `json:"nextClaimTimestamp"`
}

func (s *PointsService) ClaimStatus(ctx context.Context, userID string, now time.Time) (*ClaimStatus, error) {
	pts, err := s.getPoints(ctx, userID)
	if err != nil {
		return nil, err
	}

	status := &ClaimStatus{Streak: pts.ClaimStreak}
	if pts.LastClaimDate != nil {
		next := pts.LastClaimDate.Add(claimCooldown)
		if next.After(now) {
			status.NextClaimAt = &next
		}
	}
	return status, nil
}

// GrantPoints adds an unconditional points adjustment (task rewards).
func (s *PointsService) GrantPoints(ctx context.Context, userID string, delta int) (*models.OffchainPoints, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	pts, err := s.getPoints(ctx, userID)
	if err != nil {
		return nil, err
	}
	pts.Points += delta
	if err := s.Store.SavePoints(ctx, pts); err != nil {
		return nil, err
	}
	return pts, nil
}

// GrantTickets adds an unconditional tickets adjustment (referral bonus).
func (s *PointsService) GrantTickets(ctx context.Context, userID string, delta int) (*models.OffchainPoints, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	pts, err := s.getPoints(ctx, userID)
	if err != nil {
		return nil, err
	}
	pts.Tickets += delta
	if err := s.Store.SavePoints(ctx, pts); err != nil {
		return nil, err
	}
	return pts, nil
}
