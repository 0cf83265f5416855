// services/scheduler.go
package services

import (
	"log"
	"time"

	"tap-lab-backend/models"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// StartTaskScheduler opens scheduled catalog tasks once their start time
// passes. Gameplay state is never touched from here: energy and streaks
// stay lazily recomputed per request.
func StartTaskScheduler(db *gorm.DB) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: activate tasks whose window has opened
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			var tasks []models.Task
			now := time.Now().UTC()
			err := db.Where("status = ? AND start_at <= ?", models.TaskStatusScheduled, now).
				Find(&tasks).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			for _, t := range tasks {
				t.Status = models.TaskStatusActive
				t.StartAt = nil
				if err := db.Save(&t).Error; err != nil {
					log.Printf("[Scheduler] Failed to open task %s: %v", t.ID, err)
				} else {
					log.Printf("✅ Task opened: %s", t.Name)
				}
			}
		}),
	)
}
