package services

import (
	"context"
	"testing"

	"tap-lab-backend/middleware"
	"tap-lab-backend/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCreatesAccountWithDefaults(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewUserService(st, nil)

	identity := middleware.Identity{
		TelegramID: 99281932,
		Username:   "rook",
		FirstName:  "Rook",
		PhotoURL:   "https://cdn.example/rook.jpg",
	}

	user, points, err := svc.Resolve(context.Background(), identity)
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	assert.Equal(t, int64(99281932), user.TelegramID)
	assert.Equal(t, "rook", user.Username)

	assert.Equal(t, 0, points.Points)
	assert.Equal(t, 0, points.Tickets)
	assert.Equal(t, 0, points.Hearts)
	assert.Equal(t, 100, points.Energy)
	assert.Equal(t, 100, points.MaxEnergy)
	assert.Equal(t, 0, points.ClaimStreak)
	assert.Nil(t, points.LastClaimDate)
	assert.False(t, points.LastEnergyUpdate.IsZero())

	// The points row is observable immediately after creation.
	stored, err := st.GetPoints(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.UserID)
}

func TestResolveKeepsExistingProfile(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewUserService(st, nil)

	identity := middleware.Identity{TelegramID: 7, Username: "before"}
	first, _, err := svc.Resolve(context.Background(), identity)
	require.NoError(t, err)

	// Repeat logins do not refresh profile fields.
	identity.Username = "after"
	second, points, err := svc.Resolve(context.Background(), identity)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "before", second.Username)
	assert.Equal(t, 100, points.Energy)
}

func TestByTelegramIDUnknown(t *testing.T) {
	svc := NewUserService(store.NewMemoryStore(), nil)
	_, err := svc.ByTelegramID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConnectWalletMock(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewUserService(st, nil)

	user, _, err := svc.Resolve(context.Background(), middleware.Identity{TelegramID: 7})
	require.NoError(t, err)

	balance, err := svc.ConnectWallet(context.Background(), user.ID, "mock_wallet")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	stored, err := st.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Wallet)
	assert.Equal(t, "mock_wallet", *stored.Wallet)
}

func TestConnectWalletUnknownUser(t *testing.T) {
	svc := NewUserService(store.NewMemoryStore(), nil)
	_, err := svc.ConnectWallet(context.Background(), "missing", "mock_wallet")
	assert.ErrorIs(t, err, ErrNotFound)
}
