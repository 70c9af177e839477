package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/minhtran-dev/edumarket-api/model"
	"gorm.io/gorm"
)

const (
	certPrefix     = "CERT"
	certCodeLength = 8
	certCodeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// Collision on an 8-char random code is vanishingly rare; the
	// retry loop is a backstop for the unique index, not a guarantee.
	certMaxRetries = 3
)

// CompletionResult is what a progress query returns: the report plus
// the certificate, present only once the course is completed.
type CompletionResult struct {
	Progress    *ProgressReport    `json:"progress"`
	Certificate *model.Certificate `json:"certificate"`
}

// CertificateService evaluates progress and issues certificates.
// Issuance is an explicit write operation: the dashboard read path
// calls CheckAndIssue by name rather than certificates appearing as a
// hidden side effect of a query.
type CertificateService struct {
	db          *gorm.DB
	progress    *ProgressService
	enrollments *EnrollmentService
}

// NewCertificateService creates a new certificate service
func NewCertificateService(db *gorm.DB, progress *ProgressService, enrollments *EnrollmentService) *CertificateService {
	return &CertificateService{
		db:          db,
		progress:    progress,
		enrollments: enrollments,
	}
}

func generateCode() string {
	code := make([]byte, certCodeLength)
	max := big.NewInt(int64(len(certCodeChars)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing means the platform is broken;
			// fall back to a deterministic position
			n = big.NewInt(int64(i) % int64(len(certCodeChars)))
		}
		code[i] = certCodeChars[n.Int64()]
	}
	return fmt.Sprintf("%s-%s", certPrefix, code)
}

// CheckAndIssue computes the student's progress and, when completed,
// finds or creates the certificate for (user, course).
//
// Idempotent: the first completed call inserts exactly one row and
// marks the enrollment completed; every later call returns the same
// code unchanged. A certificate, once issued, is never revoked even if
// progress later regresses, so the completion check only runs on the
// no-certificate path.
func (s *CertificateService) CheckAndIssue(userID, courseID uint) (*CompletionResult, error) {
	report, err := s.progress.Compute(userID, courseID)
	if err != nil {
		return nil, err
	}

	result := &CompletionResult{Progress: report}

	var existing model.Certificate
	err = s.db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&existing).Error
	if err == nil {
		result.Certificate = &existing
		return result, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up certificate: %w", err)
	}

	if !report.Completed {
		return result, nil
	}

	// A duplicate-key failure aborts the whole transaction, so the
	// retry loop wraps it: each attempt re-checks for an existing row
	// (covers the concurrent-issuer race as well as a code collision)
	// and then tries a fresh insert.
	var issueErr error
	for attempt := 0; attempt < certMaxRetries; attempt++ {
		issueErr = s.db.Transaction(func(tx *gorm.DB) error {
			var cert model.Certificate
			err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&cert).Error
			if err == nil {
				result.Certificate = &cert
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to look up certificate: %w", err)
			}

			cert = model.Certificate{
				UserID:   userID,
				CourseID: courseID,
				Code:     generateCode(),
				IssuedAt: time.Now(),
			}
			if err := tx.Create(&cert).Error; err != nil {
				return fmt.Errorf("failed to issue certificate: %w", err)
			}

			if err := s.enrollments.Complete(tx, userID, courseID); err != nil {
				return fmt.Errorf("failed to mark enrollment completed: %w", err)
			}

			result.Certificate = &cert
			return nil
		})
		if issueErr == nil {
			return result, nil
		}
	}

	return nil, issueErr
}

// Get returns the issued certificate for (user, course)
func (s *CertificateService) Get(userID, courseID uint) (*model.Certificate, error) {
	var cert model.Certificate
	err := s.db.Preload("Course").
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&cert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cert, nil
}
