package cron

import (
	"log"
	"time"

	"github.com/minhtran-dev/edumarket-api/model"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron *cron.Cron
	db   *gorm.DB
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron: c,
		db:   db,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// Daily at 3 AM: issue certificates for enrollments that completed
	// without a dashboard visit
	_, err := m.cron.AddFunc("0 0 3 * * *", func() {
		m.logJobStart("issue_completed_certificates")
		m.IssueCompletedCertificates()
	})
	if err != nil {
		return err
	}

	// Weekly on Sunday at 4 AM: trim old cron job logs
	_, err = m.cron.AddFunc("0 0 4 * * 0", func() {
		m.logJobStart("cleanup_job_logs")
		m.CleanupJobLogs()
	})
	if err != nil {
		return err
	}

	return nil
}

// logJobStart records that a job began
func (m *CronManager) logJobStart(jobName string) {
	jobLog := model.CronJobLog{
		JobName:   jobName,
		Status:    "started",
		StartedAt: time.Now(),
	}
	if err := m.db.Create(&jobLog).Error; err != nil {
		log.Printf("Failed to log job start for %s: %v", jobName, err)
	}
}

// logJobComplete records a job's outcome against its latest log row
func (m *CronManager) logJobComplete(jobName string, startedAt time.Time, message string, jobErr error) {
	now := time.Now()
	updates := map[string]interface{}{
		"status":       "completed",
		"completed_at": now,
		"duration":     int(now.Sub(startedAt).Milliseconds()),
		"message":      message,
	}
	if jobErr != nil {
		updates["status"] = "failed"
		updates["error_msg"] = jobErr.Error()
	}

	var jobLog model.CronJobLog
	err := m.db.Where("job_name = ? AND status = ?", jobName, "started").
		Order("started_at DESC").
		First(&jobLog).Error
	if err != nil {
		log.Printf("Failed to find job log for %s: %v", jobName, err)
		return
	}

	if err := m.db.Model(&jobLog).Updates(updates).Error; err != nil {
		log.Printf("Failed to log job completion for %s: %v", jobName, err)
	}
}
