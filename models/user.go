package models

import (
	"time"

	"gorm.io/gorm"
)

// User is one Telegram account seen by the mini app. Profile fields are
// captured on first login and not refreshed afterwards.
type User struct {
	ID         string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TelegramID int64   `gorm:"uniqueIndex;not null" json:"telegram_id"`
	Username   string  `json:"username"`
	FirstName  string  `json:"first_name"`
	PhotoURL   string  `json:"photo_url,omitempty"`
	Wallet     *string `json:"wallet,omitempty"`

	// Mirrored by the balance sync worker. Nanotons, informational only.
	WalletBalance      int64      `json:"wallet_balance" gorm:"default:0"`
	LastBalanceCheckAt *time.Time `json:"last_balance_check_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
