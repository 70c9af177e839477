package cron

import (
	"fmt"
	"log"
	"time"

	"github.com/minhtran-dev/edumarket-api/model"
	"github.com/minhtran-dev/edumarket-api/services"
)

// IssueCompletedCertificates sweeps active enrollments and issues
// certificates for students whose courses are complete. Certificates
// normally appear when the student requests a completion refresh; the
// sweep covers students who finished and never came back. CheckAndIssue
// is idempotent, so re-sweeping already-certified enrollments is a no-op.
func (m *CronManager) IssueCompletedCertificates() {
	startedAt := time.Now()

	progress := services.NewProgressService(m.db)
	payments := services.NewPaymentService(m.db)
	enrollments := services.NewEnrollmentService(m.db, payments)
	certificates := services.NewCertificateService(m.db, progress, enrollments)

	// Completed rows are included so an enrollment marked completed
	// without a certificate (a crash between the two writes) is
	// eventually repaired.
	var candidates []model.Enrollment
	if err := m.db.Where("status IN ?",
		[]string{model.EnrollmentActive, model.EnrollmentCompleted}).
		Find(&candidates).Error; err != nil {
		log.Printf("Certificate sweep: failed to list enrollments: %v", err)
		m.logJobComplete("issue_completed_certificates", startedAt, "", err)
		return
	}

	issued := 0
	var lastErr error
	for _, enrollment := range candidates {
		result, err := certificates.CheckAndIssue(enrollment.UserID, enrollment.CourseID)
		if err != nil {
			log.Printf("Certificate sweep: user %d course %d: %v", enrollment.UserID, enrollment.CourseID, err)
			lastErr = err
			continue
		}
		if result.Certificate != nil {
			issued++
		}
	}

	message := fmt.Sprintf("checked %d enrollments, %d hold certificates", len(candidates), issued)
	log.Printf("Certificate sweep: %s", message)
	m.logJobComplete("issue_completed_certificates", startedAt, message, lastErr)
}

// CleanupJobLogs removes cron job logs older than 30 days
func (m *CronManager) CleanupJobLogs() {
	startedAt := time.Now()
	cutoff := time.Now().AddDate(0, 0, -30)

	result := m.db.Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&model.CronJobLog{})
	if result.Error != nil {
		log.Printf("Job log cleanup failed: %v", result.Error)
		m.logJobComplete("cleanup_job_logs", startedAt, "", result.Error)
		return
	}

	message := fmt.Sprintf("removed %d old job logs", result.RowsAffected)
	m.logJobComplete("cleanup_job_logs", startedAt, message, nil)
}
