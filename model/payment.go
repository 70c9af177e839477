package model

import (
	"time"
)

// Payment statuses
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// RefundProvider marks compensating refund entries in the ledger.
const RefundProvider = "refund"

// Payment is an append-only ledger row. A refund is recorded as a new
// row with status "refunded" and a txn_ref derived from the original
// payment's txn_ref; existing rows are never mutated or deleted, which
// keeps the full audit trail intact.
type Payment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	Amount    float64   `gorm:"not null" json:"amount"`
	Provider  string    `gorm:"type:varchar(50);not null" json:"provider"` // sandbox, refund, ...
	Status    string    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	TxnRef    string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"txn_ref"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// IsRefund reports whether the row is a compensating refund entry
func (p *Payment) IsRefund() bool {
	return p.Status == PaymentRefunded
}
