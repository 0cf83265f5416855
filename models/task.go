package models

import "time"

const (
	TaskStatusScheduled = "scheduled"
	TaskStatusActive    = "active"
	TaskStatusClosed    = "closed"
)

// Task is an optional catalog entry for a completable task. Task ids with
// no catalog row remain completable at the default reward, so seeding the
// catalog is not required for the game to work.
type Task struct {
	ID           string     `gorm:"primaryKey" json:"id"`
	Name         string     `json:"name"`
	Description  string     `gorm:"type:text" json:"description,omitempty"`
	RewardPoints int        `json:"reward_points" gorm:"default:1000"`
	Status       string     `gorm:"index;default:active" json:"status"`
	StartAt      *time.Time `json:"start_at,omitempty"` // scheduler opens the task at this instant

	Timestamps
}
