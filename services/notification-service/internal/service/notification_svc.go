package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mamadbah2/travel/pkg/events"
	"github.com/mamadbah2/travel/services/notification-service/internal/domain"
	"github.com/mamadbah2/travel/services/notification-service/internal/notifier"
)

// NotificationRepo persists delivery attempts.
type NotificationRepo interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByTraveler(ctx context.Context, travelerID string) ([]domain.Notification, error)
}

// NotificationService turns bus facts into traveler messages. A failed
// send is recorded as FAILED and not retried; the audit row is enough to
// replay it by hand if needed.
type NotificationService struct {
	repo   NotificationRepo
	mailer notifier.Mailer
	log    zerolog.Logger
}

func NewNotificationService(repo NotificationRepo, mailer notifier.Mailer, log zerolog.Logger) *NotificationService {
	return &NotificationService{repo: repo, mailer: mailer, log: log}
}

func (s *NotificationService) HandleSubscriptionCreated(ctx context.Context, evt events.SubscriptionCreated) error {
	subject := "Subscription received"
	body := fmt.Sprintf(
		"Your subscription to %q is registered and awaiting payment of %.2f %s. Reference: %s.",
		evt.TravelTitle, evt.Amount, evt.Currency, evt.SubscriptionID)
	return s.record(ctx, evt.TravelerID, domain.TypeSubscriptionCreated, subject, body)
}

func (s *NotificationService) HandlePaymentCompleted(ctx context.Context, evt events.PaymentCompleted) error {
	if strings.EqualFold(evt.Status, "SUCCESS") {
		subject := "Payment confirmed"
		body := fmt.Sprintf(
			"Your payment went through (transaction %s). Subscription %s is confirmed. Enjoy the trip!",
			evt.TransactionID, evt.SubscriptionID)
		return s.record(ctx, evt.TravelerID, domain.TypePaymentSuccess, subject, body)
	}

	subject := "Payment failed"
	body := fmt.Sprintf(
		"Your payment for subscription %s could not be completed and the subscription was cancelled.",
		evt.SubscriptionID)
	if evt.FailureReason != "" {
		body = fmt.Sprintf("%s Reason: %s.", body, evt.FailureReason)
	}
	return s.record(ctx, evt.TravelerID, domain.TypePaymentFailed, subject, body)
}

func (s *NotificationService) ListByTraveler(ctx context.Context, travelerID string) ([]domain.Notification, error) {
	return s.repo.ListByTraveler(ctx, travelerID)
}

func (s *NotificationService) record(ctx context.Context, travelerID string, typ domain.NotificationType, subject, body string) error {
	n := &domain.Notification{
		TravelerID: travelerID,
		Recipient:  resolveTravelerEmail(travelerID),
		Type:       typ,
		Subject:    subject,
		Body:       body,
		Status:     domain.StatusSent,
	}
	if err := s.mailer.Send(n.Recipient, subject, body); err != nil {
		n.Status = domain.StatusFailed
		n.Error = err.Error()
		s.log.Error().Err(err).Str("traveler_id", travelerID).Str("type", string(typ)).Msg("send failed")
	}
	return s.repo.Create(ctx, n)
}

// resolveTravelerEmail derives the address from the traveler id until a
// user directory lookup is wired in.
func resolveTravelerEmail(travelerID string) string {
	short := travelerID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("traveler-%s@travel.sn", short)
}
