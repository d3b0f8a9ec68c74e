// Package events defines the facts exchanged between services and the
// RabbitMQ topology they travel on. Facts are immutable snapshots keyed
// by the aggregate id they describe; consumers must be idempotent.
package events

import (
	"encoding/json"
	"fmt"
)

// Topic exchanges, one per publishing service.
const (
	SubscriptionExchange = "subscription.exchange"
	PaymentExchange      = "payment.exchange"
	TravelExchange       = "travel.exchange"
)

// Routing keys.
const (
	RKSubscriptionCreated = "subscription.created"
	RKPaymentSuccess      = "payment.success"
	RKPaymentFailed       = "payment.failed"
	RKTravelCreated       = "travel.created"
	RKTravelUpdated       = "travel.updated"
	RKTravelDeleted       = "travel.deleted"
)

// Durable queues per consumer group.
const (
	SubscriptionCreatedQueue      = "subscription.created.queue"
	PaymentResultQueue            = "payment.result.queue"
	TravelIndexQueue              = "travel.index.queue"
	NotificationSubscriptionQueue = "notification.subscription.queue"
	NotificationPaymentQueue      = "notification.payment.queue"
)

// SubscriptionCreated is published by travel-service once a subscription is
// persisted in PENDING_PAYMENT. It carries everything the payment-service
// and notification-service need without calling back.
type SubscriptionCreated struct {
	SubscriptionID string  `json:"subscription_id"`
	TravelID       string  `json:"travel_id"`
	TravelerID     string  `json:"traveler_id"`
	TravelTitle    string  `json:"travel_title"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
}

// PaymentCompleted is published by payment-service after a charge attempt
// resolves. Status is SUCCESS or FAILED; the routing key mirrors it.
type PaymentCompleted struct {
	SubscriptionID string `json:"subscription_id"`
	TravelID       string `json:"travel_id"`
	TravelerID     string `json:"traveler_id"`
	Status         string `json:"status"`
	TransactionID  string `json:"transaction_id,omitempty"`
	FailureReason  string `json:"failure_reason,omitempty"`
}

// TravelSnapshot is the full denormalized catalog state of a travel,
// published on travel.created and travel.updated. Consumers upsert by
// TravelID; last write wins.
type TravelSnapshot struct {
	TravelID              string            `json:"travel_id"`
	ManagerID             string            `json:"manager_id"`
	Title                 string            `json:"title"`
	Description           string            `json:"description"`
	StartDate             string            `json:"start_date"` // YYYY-MM-DD
	EndDate               string            `json:"end_date"`
	Duration              int               `json:"duration"`
	Price                 float64           `json:"price"`
	MaxCapacity           int               `json:"max_capacity"`
	CurrentBookings       int               `json:"current_bookings"`
	Status                string            `json:"status"`
	AccommodationType     string            `json:"accommodation_type,omitempty"`
	AccommodationName     string            `json:"accommodation_name,omitempty"`
	TransportationType    string            `json:"transportation_type,omitempty"`
	TransportationDetails string            `json:"transportation_details,omitempty"`
	Destinations          []DestinationData `json:"destinations,omitempty"`
	Activities            []ActivityData    `json:"activities,omitempty"`
}

type DestinationData struct {
	Name        string `json:"name"`
	Country     string `json:"country"`
	City        string `json:"city"`
	Description string `json:"description,omitempty"`
}

type ActivityData struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
}

// TravelDeleted carries only the id; consumers remove-if-present.
type TravelDeleted struct {
	TravelID string `json:"travel_id"`
}

func Unmarshal[T any](b []byte) (T, error) {
	var t T
	if err := json.Unmarshal(b, &t); err != nil {
		var zero T
		return zero, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
