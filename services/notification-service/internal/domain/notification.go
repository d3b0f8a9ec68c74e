package domain

import "time"

type NotificationType string

const (
	TypeSubscriptionCreated NotificationType = "SUBSCRIPTION_CREATED"
	TypePaymentSuccess      NotificationType = "PAYMENT_SUCCESS"
	TypePaymentFailed       NotificationType = "PAYMENT_FAILED"
)

type NotificationStatus string

const (
	StatusSent   NotificationStatus = "SENT"
	StatusFailed NotificationStatus = "FAILED"
)

// Notification records one delivery attempt to a traveler. The row is
// written after the send resolves, so the table doubles as an audit log.
type Notification struct {
	ID         string             `gorm:"type:uuid;primaryKey" json:"id"`
	TravelerID string             `gorm:"type:uuid;index;not null" json:"traveler_id"`
	Recipient  string             `gorm:"not null" json:"recipient"`
	Type       NotificationType   `gorm:"not null" json:"type"`
	Subject    string             `gorm:"not null" json:"subject"`
	Body       string             `gorm:"type:text" json:"body"`
	Status     NotificationStatus `gorm:"not null" json:"status"`
	Error      string             `json:"error,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
