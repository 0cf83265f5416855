package workers

import (
	"context"
	"log"
	"time"

	"tap-lab-backend/models"
	"tap-lab-backend/utils"

	"gorm.io/gorm"
)

// BalanceSyncClient mirrors on-chain TON balances onto user rows so the app
// can show balances without hitting toncenter per request.
type BalanceSyncClient struct {
	Ton *utils.TonClient
	DB  *gorm.DB
}

func NewBalanceSyncClient(db *gorm.DB, ton *utils.TonClient) *BalanceSyncClient {
	return &BalanceSyncClient{Ton: ton, DB: db}
}

// PollBalances refreshes every connected wallet on a fixed interval. A
// failed lookup is skipped and retried on the next tick; nothing here is
// load-bearing for gameplay.
func PollBalances(ctx context.Context, client *BalanceSyncClient, pollInterval time.Duration) {
	log.Println("Starting TON balance polling...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Balance polling stopped.")
			return
		case <-ticker.C:
			var users []models.User
			err := client.DB.Where("wallet IS NOT NULL AND wallet <> ?", "mock_wallet").
				Find(&users).Error
			if err != nil {
				log.Printf("❌ Error listing connected wallets: %v", err)
				continue
			}
			if len(users) == 0 {
				continue
			}

			updated := 0
			for _, u := range users {
				balance, err := client.Ton.GetAddressBalance(ctx, *u.Wallet)
				if err != nil {
					log.Printf("❌ Balance lookup failed for %s: %v", *u.Wallet, err)
					continue
				}

				now := time.Now().UTC()
				if err := client.DB.Model(&models.User{}).Where("id = ?", u.ID).
					Updates(map[string]interface{}{
						"wallet_balance":        balance,
						"last_balance_check_at": now,
					}).Error; err != nil {
					log.Printf("❌ Failed to store balance for user %s: %v", u.ID, err)
					continue
				}
				updated++
			}

			log.Printf("📥 Refreshed %d wallet balance(s).", updated)
		}
	}
}
