package models

import "time"

// OffchainPoints is the per-user gameplay ledger (1:1 with User).
// Energy is never advanced by a timer: it is recomputed from
// LastEnergyUpdate on every read or mutation, so the stored value is only
// a baseline.
type OffchainPoints struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"uniqueIndex;not null" json:"user_id"` // User.ID

	Points  int `json:"points" gorm:"default:0"`  // airdrop currency
	Tickets int `json:"tickets" gorm:"default:0"` // streak/referral currency
	Hearts  int `json:"hearts" gorm:"default:0"`  // tap-accumulated currency

	Energy    int `json:"energy" gorm:"default:100"`
	MaxEnergy int `json:"max_energy" gorm:"default:100"`

	// Zero value means legacy/corrupt data; the ledger substitutes now-5m.
	LastEnergyUpdate time.Time  `json:"last_energy_update"`
	LastClaimDate    *time.Time `json:"last_claim_date,omitempty"`
	ClaimStreak      int        `json:"claim_streak" gorm:"default:0"` // 1-7 once claiming starts

	Timestamps
}
