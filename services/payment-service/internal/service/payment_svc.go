package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mamadbah2/travel/pkg/events"
	"github.com/mamadbah2/travel/services/payment-service/internal/charger"
	"github.com/mamadbah2/travel/services/payment-service/internal/domain"
)

type PaymentRepo interface {
	Create(ctx context.Context, p *domain.Payment) error
	Save(ctx context.Context, p *domain.Payment) error
	ExistsBySubscription(ctx context.Context, subscriptionID string) (bool, error)
	ByID(ctx context.Context, id string) (*domain.Payment, error)
	BySubscription(ctx context.Context, subscriptionID string) (*domain.Payment, error)
	ListByTraveler(ctx context.Context, travelerID string, page, size int) ([]domain.Payment, int64, error)
}

type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// PaymentService resolves exactly one payment per subscription.created
// fact. The final state is always persisted before the result is
// published; when publishing fails the payment row alone is the durable
// source of truth for reconciliation.
type PaymentService struct {
	repo    PaymentRepo
	charger charger.Charger
	pub     Publisher
	log     zerolog.Logger
}

func NewPaymentService(repo PaymentRepo, ch charger.Charger, pub Publisher, log zerolog.Logger) *PaymentService {
	return &PaymentService{repo: repo, charger: ch, pub: pub, log: log}
}

// ProcessPayment handles one SubscriptionCreated fact. Redelivery of a
// fact whose payment already exists returns ErrDuplicatePayment; the
// consumer acks those without reprocessing.
func (s *PaymentService) ProcessPayment(ctx context.Context, evt events.SubscriptionCreated) (*domain.Payment, error) {
	exists, err := s.repo.ExistsBySubscription(ctx, evt.SubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("check existing payment: %w", err)
	}
	if exists {
		return nil, domain.ErrDuplicatePayment
	}

	currency := evt.Currency
	if currency == "" {
		currency = "XOF"
	}
	p := &domain.Payment{
		SubscriptionID: evt.SubscriptionID,
		TravelID:       evt.TravelID,
		TravelerID:     evt.TravelerID,
		TravelTitle:    evt.TravelTitle,
		Amount:         evt.Amount,
		Currency:       currency,
		Method:         domain.PaymentMethodSimulated,
		Status:         domain.PaymentStatusPending,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	s.log.Info().
		Str("payment_id", p.ID).
		Str("subscription_id", p.SubscriptionID).
		Float64("amount", p.Amount).
		Str("currency", p.Currency).
		Msg("payment created (PENDING)")

	// The charge is a blocking external call; nothing is held open across
	// it beyond the PENDING row written above.
	res, err := s.charger.Charge(ctx, charger.Request{
		SubscriptionID: evt.SubscriptionID,
		Amount:         evt.Amount,
		Currency:       currency,
	})
	if err != nil {
		// A gateway failure still resolves the payment so that exactly one
		// result is published per subscription.
		res = charger.Result{Approved: false, FailureReason: "gateway error: " + err.Error()}
		s.log.Error().Err(err).Str("payment_id", p.ID).Msg("charge attempt errored")
	}

	if res.Approved {
		p.Status = domain.PaymentStatusSuccess
		p.TransactionID = res.TransactionID
		s.log.Info().Str("payment_id", p.ID).Str("transaction_id", p.TransactionID).Msg("payment succeeded")
	} else {
		p.Status = domain.PaymentStatusFailed
		p.FailureReason = res.FailureReason
		s.log.Warn().Str("payment_id", p.ID).Str("reason", p.FailureReason).Msg("payment failed")
	}

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save payment: %w", err)
	}

	s.publishResult(ctx, p)
	return p, nil
}

func (s *PaymentService) publishResult(ctx context.Context, p *domain.Payment) {
	key := events.RKPaymentFailed
	if p.Status == domain.PaymentStatusSuccess {
		key = events.RKPaymentSuccess
	}
	evt := events.PaymentCompleted{
		SubscriptionID: p.SubscriptionID,
		TravelID:       p.TravelID,
		TravelerID:     p.TravelerID,
		Status:         string(p.Status),
		TransactionID:  p.TransactionID,
		FailureReason:  p.FailureReason,
	}
	if err := s.pub.PublishJSON(ctx, key, evt); err != nil {
		// The resolved payment row is durable; an unpublished result is
		// re-driven out of band from it.
		s.log.Error().Err(err).
			Str("payment_id", p.ID).
			Str("subscription_id", p.SubscriptionID).
			Str("status", string(p.Status)).
			Msg("publish payment result failed; row is source of truth")
	}
}

func (s *PaymentService) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return s.repo.ByID(ctx, id)
}

func (s *PaymentService) GetBySubscription(ctx context.Context, subscriptionID string) (*domain.Payment, error) {
	return s.repo.BySubscription(ctx, subscriptionID)
}

func (s *PaymentService) ListByTraveler(ctx context.Context, travelerID string, page, size int) ([]domain.Payment, int64, error) {
	return s.repo.ListByTraveler(ctx, travelerID, page, size)
}
