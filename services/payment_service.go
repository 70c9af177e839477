package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/minhtran-dev/edumarket-api/model"
	"gorm.io/gorm"
)

// RefundPrefix derives a refund's txn_ref from the original payment's
// txn_ref. The derived ref doubles as the idempotency key: a second
// refund attempt finds the existing row and is rejected.
const RefundPrefix = "REFUND-"

// PaymentService owns the append-only payment ledger. Rows are only
// ever inserted; a refund is a compensating entry, never a mutation of
// the original payment.
type PaymentService struct {
	db *gorm.DB
}

// NewPaymentService creates a new payment service
func NewPaymentService(db *gorm.DB) *PaymentService {
	return &PaymentService{db: db}
}

// newTxnRef builds a transaction reference that is unique across all
// time. The uuid suffix keeps concurrent purchases of the same course
// by the same user from colliding, and a plain "TXN-" ref can never
// collide with the "REFUND-" derivation space.
func newTxnRef(courseID, userID uint) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12])
	return fmt.Sprintf("TXN-%d-%d-%s", courseID, userID, suffix)
}

// RecordPayment appends a paid ledger row inside the caller's
// transaction. Payments are simulated: every recorded payment succeeds
// instantly. Business validation (course active, not already enrolled)
// is the enrollment manager's job before this is called.
func (s *PaymentService) RecordPayment(tx *gorm.DB, userID, courseID uint, amount float64, provider string) (*model.Payment, error) {
	payment := model.Payment{
		UserID:   userID,
		CourseID: courseID,
		Amount:   amount,
		Provider: provider,
		Status:   model.PaymentPaid,
		TxnRef:   newTxnRef(courseID, userID),
	}

	if err := tx.Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	return &payment, nil
}

// LatestPaid returns the most recent paid payment for (user, course)
func (s *PaymentService) LatestPaid(tx *gorm.DB, userID, courseID uint) (*model.Payment, error) {
	var payment model.Payment
	err := tx.Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, model.PaymentPaid).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOriginalPayment
		}
		return nil, fmt.Errorf("failed to look up payment: %w", err)
	}
	return &payment, nil
}

// Refund appends a compensating refund row for the latest paid payment
// of (user, course) inside the caller's transaction.
//
// At most one refund may exist per original payment. The guard is the
// deterministic refund ref: if a row with that ref already exists the
// retry is rejected with ErrDuplicateRefund, and under concurrent
// attempts the unique index on txn_ref rejects the loser.
func (s *PaymentService) Refund(tx *gorm.DB, userID, courseID uint) (*model.Payment, error) {
	original, err := s.LatestPaid(tx, userID, courseID)
	if err != nil {
		return nil, err
	}

	refundRef := RefundPrefix + original.TxnRef

	var existing model.Payment
	err = tx.Where("txn_ref = ? AND status = ?", refundRef, model.PaymentRefunded).
		First(&existing).Error
	if err == nil {
		return nil, ErrDuplicateRefund
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check for existing refund: %w", err)
	}

	refund := model.Payment{
		UserID:   userID,
		CourseID: courseID,
		Amount:   original.Amount,
		Provider: model.RefundProvider,
		Status:   model.PaymentRefunded,
		TxnRef:   refundRef,
	}

	if err := tx.Create(&refund).Error; err != nil {
		return nil, fmt.Errorf("failed to record refund: %w", err)
	}

	return &refund, nil
}

// RefundStandalone runs Refund in its own transaction. Used by the
// admin endpoint that creates a refund for an already-cancelled
// enrollment.
func (s *PaymentService) RefundStandalone(userID, courseID uint) (*model.Payment, error) {
	var refund *model.Payment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		refund, txErr = s.Refund(tx, userID, courseID)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return refund, nil
}

// HasRefund reports whether a refund already exists for the latest
// paid payment of (user, course).
func (s *PaymentService) HasRefund(userID, courseID uint) (bool, error) {
	original, err := s.LatestPaid(s.db, userID, courseID)
	if err != nil {
		if errors.Is(err, ErrNoOriginalPayment) {
			return false, nil
		}
		return false, err
	}

	var count int64
	err = s.db.Model(&model.Payment{}).
		Where("txn_ref = ? AND status = ?", RefundPrefix+original.TxnRef, model.PaymentRefunded).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// LedgerFor returns the full payment history for (user, course),
// newest first. Read-only; used by the admin enrollment view.
func (s *PaymentService) LedgerFor(userID, courseID uint) ([]model.Payment, error) {
	var payments []model.Payment
	err := s.db.Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}
