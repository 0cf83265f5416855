package models

import "time"

// CompletedTask = user finished a one-time task and got the reward. The
// composite unique index is the exactly-once arbiter under concurrent
// completion attempts.
type CompletedTask struct {
	ID          string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID      string    `gorm:"not null;uniqueIndex:idx_user_task" json:"user_id"`
	TaskID      string    `gorm:"not null;uniqueIndex:idx_user_task" json:"task_id"`
	CompletedAt time.Time `json:"completed_at"`
}
