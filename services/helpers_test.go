package services

import (
	"context"
	"fmt"
	"testing"

	"tap-lab-backend/models"
	"tap-lab-backend/store"

	"github.com/stretchr/testify/require"
)

// seedUser creates a user and its points row with the given ledger values.
func seedUser(t *testing.T, st *store.MemoryStore, telegramID int64, points models.OffchainPoints) *models.User {
	t.Helper()

	user := &models.User{
		TelegramID: telegramID,
		Username:   fmt.Sprintf("user%d", telegramID),
		FirstName:  fmt.Sprintf("User %d", telegramID),
	}
	p := points
	require.NoError(t, st.CreateUserWithPoints(context.Background(), user, &p))
	return user
}
