package services

import (
	"context"
	"errors"
	"log"
	"time"

	"tap-lab-backend/middleware"
	"tap-lab-backend/models"
	"tap-lab-backend/store"
	"tap-lab-backend/utils"
)

const (
	startingEnergy    = 100
	startingMaxEnergy = 100
)

type UserService struct {
	Store store.Store
	Ton   *utils.TonClient
}

func NewUserService(st store.Store, ton *utils.TonClient) *UserService {
	return &UserService{Store: st, Ton: ton}
}

// Resolve returns the account behind a verified identity, creating the user
// row and its points row together on first sight. Profile fields are not
// refreshed on repeat logins. Two racing first logins both land on the same
// row: the loser of the unique-index race re-reads.
func (s *UserService) Resolve(ctx context.Context, identity middleware.Identity) (*models.User, *models.OffchainPoints, error) {
	user, err := s.Store.GetUserByTelegramID(ctx, identity.TelegramID)
	if errors.Is(err, store.ErrNotFound) {
		user = &models.User{
			TelegramID: identity.TelegramID,
			Username:   identity.Username,
			FirstName:  identity.FirstName,
			PhotoURL:   identity.PhotoURL,
		}
		points := &models.OffchainPoints{
			Energy:           startingEnergy,
			MaxEnergy:        startingMaxEnergy,
			LastEnergyUpdate: time.Now().UTC(),
		}
		createErr := s.Store.CreateUserWithPoints(ctx, user, points)
		if createErr == nil {
			log.Printf("👤 New user created: telegram_id=%d id=%s", user.TelegramID, user.ID)
			return user, points, nil
		}
		if !errors.Is(createErr, store.ErrDuplicate) {
			return nil, nil, createErr
		}
		user, err = s.Store.GetUserByTelegramID(ctx, identity.TelegramID)
	}
	if err != nil {
		return nil, nil, err
	}

	points, err := s.Store.GetPoints(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, points, nil
}

// ByTelegramID looks up an existing account without creating one.
func (s *UserService) ByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	user, err := s.Store.GetUserByTelegramID(ctx, telegramID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

// ConnectWallet stores the wallet address on the account and returns the
// live TON balance in nanotons. The placeholder "mock_wallet" skips the
// upstream lookup.
func (s *UserService) ConnectWallet(ctx context.Context, userID, wallet string) (int64, error) {
	var balance int64
	if wallet != "mock_wallet" {
		b, err := s.Ton.GetAddressBalance(ctx, wallet)
		if err != nil {
			return 0, err
		}
		balance = b
	}

	if err := s.Store.SetUserWallet(ctx, userID, wallet); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	log.Printf("💼 Wallet connected: user=%s wallet=%s", userID, wallet)
	return balance, nil
}
