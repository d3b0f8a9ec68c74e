package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mamadbah2/travel/pkg/auth"
	"github.com/mamadbah2/travel/pkg/events"
	"github.com/mamadbah2/travel/services/travel-service/internal/domain"
)

// SubscriptionService owns the subscription lifecycle: creation gating,
// traveler cancellation, manager removal and the application of payment
// results coming back off the bus.
type SubscriptionService struct {
	travels TravelRepo
	subs    SubscriptionRepo
	pub     Publisher
	now     func() time.Time
	log     zerolog.Logger
}

func NewSubscriptionService(travels TravelRepo, subs SubscriptionRepo, pub Publisher, log zerolog.Logger) *SubscriptionService {
	return &SubscriptionService{
		travels: travels,
		subs:    subs,
		pub:     pub,
		now:     time.Now,
		log:     log,
	}
}

// Subscribe reserves a seat and creates a PENDING_PAYMENT subscription.
// Gating order: travel status, 3-day cutoff, duplicate check, capacity.
// A domain.ErrConcurrentBooking result means the whole call should be
// retried by the caller; the reservation is never retried piecemeal.
// Payment is not awaited: the subscription is returned immediately and the
// charge happens asynchronously off the subscription.created fact.
func (s *SubscriptionService) Subscribe(ctx context.Context, travelID, travelerID string) (*domain.Subscription, error) {
	travel, err := s.travels.ByID(ctx, travelID)
	if err != nil {
		return nil, err
	}

	if travel.Status != domain.TravelStatusPublished {
		return nil, domain.ErrTravelNotOpen
	}
	if travel.DaysUntilDeparture(s.now()) < domain.MinimumDaysBeforeDeparture {
		return nil, domain.ErrSubscriptionTooLate
	}

	active, err := s.subs.ExistsActive(ctx, travelerID, travelID)
	if err != nil {
		return nil, fmt.Errorf("check active subscription: %w", err)
	}
	if active {
		return nil, domain.ErrDuplicateSubscription
	}

	if !travel.HasAvailableCapacity() {
		return nil, domain.ErrTravelFull
	}
	if err := s.travels.Reserve(ctx, travel); err != nil {
		return nil, err
	}

	sub := &domain.Subscription{
		TravelerID: travelerID,
		TravelID:   travelID,
		Status:     domain.SubscriptionStatusPendingPayment,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		// Seat is reserved but the subscription row failed; give it back
		// so the ledger does not leak capacity.
		if relErr := s.travels.Release(ctx, travelID); relErr != nil {
			s.log.Error().Err(relErr).Str("travel_id", travelID).Msg("release after failed create")
		}
		if errors.Is(err, domain.ErrDuplicateSubscription) {
			// A concurrent subscribe slipped past the ExistsActive check
			// and the unique index caught it.
			return nil, domain.ErrDuplicateSubscription
		}
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	s.log.Info().
		Str("subscription_id", sub.ID).
		Str("travel_id", travelID).
		Str("traveler_id", travelerID).
		Msg("subscription created (PENDING_PAYMENT)")

	// Emission failure does not roll the reservation back: the persisted
	// subscription is the source of truth and an unpublished fact is left
	// to out-of-band reconciliation.
	evt := events.SubscriptionCreated{
		SubscriptionID: sub.ID,
		TravelID:       travel.ID,
		TravelerID:     travelerID,
		TravelTitle:    travel.Title,
		Amount:         travel.Price,
		Currency:       "XOF",
	}
	if err := s.pub.PublishJSON(ctx, events.RKSubscriptionCreated, evt); err != nil {
		s.log.Error().Err(err).
			Str("subscription_id", sub.ID).
			Str("travel_id", travel.ID).
			Float64("amount", travel.Price).
			Msg("publish subscription.created failed; fact must be re-driven")
	}

	return sub, nil
}

// Cancel is the traveler-initiated cancellation. The 3-day cutoff applies
// here too: too close to departure the seat can no longer be given back.
func (s *SubscriptionService) Cancel(ctx context.Context, subscriptionID, travelerID string) (*domain.Subscription, error) {
	sub, err := s.subs.ByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.TravelerID != travelerID {
		return nil, domain.ErrUnauthorized
	}
	if sub.Status == domain.SubscriptionStatusCancelled {
		return nil, domain.ErrCancellationNotAllowed
	}

	travel, err := s.travels.ByID(ctx, sub.TravelID)
	if err != nil {
		return nil, err
	}
	if travel.DaysUntilDeparture(s.now()) < domain.MinimumDaysBeforeDeparture {
		return nil, domain.ErrCancellationNotAllowed
	}

	sub.Status = domain.SubscriptionStatusCancelled
	if err := s.subs.CancelAndRelease(ctx, sub); err != nil {
		return nil, fmt.Errorf("cancel subscription: %w", err)
	}

	s.log.Info().
		Str("subscription_id", sub.ID).
		Str("traveler_id", travelerID).
		Msg("subscription cancelled by traveler")
	return sub, nil
}

// RemoveSubscriber is the manager/admin override: it skips the 3-day rule
// and is idempotent when the subscription is already cancelled.
func (s *SubscriptionService) RemoveSubscriber(ctx context.Context, travelID, subscriptionID, callerID, role string) error {
	travel, err := s.travels.ByID(ctx, travelID)
	if err != nil {
		return err
	}
	if role != auth.RoleAdmin && travel.ManagerID != callerID {
		return domain.ErrUnauthorized
	}

	sub, err := s.subs.ByID(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if sub.TravelID != travelID {
		return domain.ErrSubscriptionNotFound
	}

	if sub.Status == domain.SubscriptionStatusCancelled {
		return nil
	}
	sub.Status = domain.SubscriptionStatusCancelled
	if err := s.subs.CancelAndRelease(ctx, sub); err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
	}

	s.log.Info().
		Str("subscription_id", subscriptionID).
		Str("travel_id", travelID).
		Str("caller_id", callerID).
		Msg("subscriber removed")
	return nil
}

// ApplyPaymentResult transitions a PENDING_PAYMENT subscription according
// to the payment outcome. Any other current status means a late or
// duplicate delivery, which is the expected shape of at-least-once
// messaging: log a warning and no-op. The PENDING_PAYMENT guard makes the
// handler idempotent.
func (s *SubscriptionService) ApplyPaymentResult(ctx context.Context, subscriptionID string, success bool) error {
	sub, err := s.subs.ByID(ctx, subscriptionID)
	if err != nil {
		return err
	}

	if sub.Status != domain.SubscriptionStatusPendingPayment {
		s.log.Warn().
			Str("subscription_id", subscriptionID).
			Str("status", string(sub.Status)).
			Msg("payment result for non-pending subscription, ignoring")
		return nil
	}

	if success {
		sub.Status = domain.SubscriptionStatusConfirmed
		if err := s.subs.Save(ctx, sub); err != nil {
			return fmt.Errorf("save subscription: %w", err)
		}
		s.log.Info().Str("subscription_id", subscriptionID).Msg("subscription confirmed after payment")
		return nil
	}

	sub.Status = domain.SubscriptionStatusCancelled
	if err := s.subs.CancelAndRelease(ctx, sub); err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
	}
	s.log.Info().Str("subscription_id", subscriptionID).Msg("subscription cancelled after failed payment")
	return nil
}

func (s *SubscriptionService) Get(ctx context.Context, subscriptionID, travelerID string) (*domain.Subscription, error) {
	sub, err := s.subs.ByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.TravelerID != travelerID {
		return nil, domain.ErrUnauthorized
	}
	return sub, nil
}

func (s *SubscriptionService) ListByTraveler(ctx context.Context, travelerID string, page, size int) ([]domain.Subscription, int64, error) {
	return s.subs.ListByTraveler(ctx, travelerID, page, size)
}

// ListByTravel is for the travel's manager (or an admin).
func (s *SubscriptionService) ListByTravel(ctx context.Context, travelID, callerID, role string, page, size int) ([]domain.Subscription, int64, error) {
	travel, err := s.travels.ByID(ctx, travelID)
	if err != nil {
		return nil, 0, err
	}
	if role != auth.RoleAdmin && travel.ManagerID != callerID {
		return nil, 0, domain.ErrUnauthorized
	}
	return s.subs.ListByTravel(ctx, travelID, page, size)
}

// IsNotFound reports whether err is one of the not-found variants; the
// payment result consumer uses it to tell an orphaned fact apart from an
// infrastructure failure.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrSubscriptionNotFound) || errors.Is(err, domain.ErrTravelNotFound)
}
