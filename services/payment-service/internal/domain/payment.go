package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

type PaymentMethod string

const (
	PaymentMethodSimulated PaymentMethod = "SIMULATED"
	PaymentMethodCard      PaymentMethod = "CARD"
)

// Payment records one charge attempt per subscription. The unique index on
// SubscriptionID is the duplicate-delivery guard; once resolved to SUCCESS
// or FAILED the record is never touched again.
type Payment struct {
	ID             string `gorm:"primaryKey"`
	SubscriptionID string `gorm:"uniqueIndex"`
	TravelID       string `gorm:"index"`
	TravelerID     string `gorm:"index"`
	TravelTitle    string `gorm:"size:255"`
	Amount         float64
	Currency       string        `gorm:"size:10"`
	Method         PaymentMethod `gorm:"size:20"`
	Status         PaymentStatus `gorm:"index;size:20"`
	TransactionID  string        `gorm:"size:255"`
	FailureReason  string        `gorm:"size:500"`
	CreatedAt      time.Time     `gorm:"index"`
	UpdatedAt      time.Time
}

func (p *Payment) Resolved() bool {
	return p.Status == PaymentStatusSuccess || p.Status == PaymentStatusFailed
}
