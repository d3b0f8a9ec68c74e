package domain

import "time"

type SubscriptionStatus string

const (
	SubscriptionStatusPendingPayment SubscriptionStatus = "PENDING_PAYMENT"
	SubscriptionStatusConfirmed      SubscriptionStatus = "CONFIRMED"
	SubscriptionStatusCancelled      SubscriptionStatus = "CANCELLED"
)

// Subscription is a traveler's reservation on a travel. At most one
// non-CANCELLED subscription may exist per (traveler, travel) pair; the
// partial unique index is the database backstop behind the service-level
// check, partial so a traveler can re-subscribe after cancelling.
// Lifecycle: PENDING_PAYMENT to CONFIRMED or CANCELLED, both terminal.
type Subscription struct {
	ID         string             `gorm:"primaryKey"`
	TravelerID string             `gorm:"index;uniqueIndex:uk_traveler_travel_active,where:status <> 'CANCELLED'"`
	TravelID   string             `gorm:"index;uniqueIndex:uk_traveler_travel_active,where:status <> 'CANCELLED'"`
	Status     SubscriptionStatus `gorm:"index;size:30"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
