package models

// Referral links a referred user to their referrer. Append-only: a referred
// user gets at most one edge (unique index), a referrer at most ten
// (enforced by the referral service).
type Referral struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ReferrerID string `gorm:"index;not null" json:"referrer_id"`       // User.ID
	ReferredID string `gorm:"uniqueIndex;not null" json:"referred_id"` // User.ID

	Timestamps
}
