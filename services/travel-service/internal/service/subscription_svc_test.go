package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/travel/pkg/auth"
	"github.com/mamadbah2/travel/pkg/events"
	"github.com/mamadbah2/travel/services/travel-service/internal/domain"
)

var fixedNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func publishedTravel(daysOut, capacity int) *domain.Travel {
	return &domain.Travel{
		ID:          "t1",
		ManagerID:   "mgr1",
		Title:       "Saly Beach Week",
		StartDate:   fixedNow.AddDate(0, 0, daysOut),
		EndDate:     fixedNow.AddDate(0, 0, daysOut+7),
		Price:       250000,
		MaxCapacity: capacity,
		Status:      domain.TravelStatusPublished,
	}
}

func newSubSvc(travels *fakeTravelRepo, subs *fakeSubRepo, pub *fakePublisher) *SubscriptionService {
	subs.travels = travels
	svc := NewSubscriptionService(travels, subs, pub, zerolog.Nop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestSubscribe_CreatesPendingAndPublishes(t *testing.T) {
	travels := newFakeTravelRepo(publishedTravel(10, 5))
	subs := newFakeSubRepo()
	pub := &fakePublisher{}
	svc := newSubSvc(travels, subs, pub)

	sub, err := svc.Subscribe(context.Background(), "t1", "trav1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusPendingPayment, sub.Status)
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, 1, travels.bookings("t1"))

	last, ok := pub.last()
	require.True(t, ok)
	assert.Equal(t, events.RKSubscriptionCreated, last.key)

	var evt events.SubscriptionCreated
	require.NoError(t, json.Unmarshal(last.body, &evt))
	assert.Equal(t, sub.ID, evt.SubscriptionID)
	assert.Equal(t, "Saly Beach Week", evt.TravelTitle)
	assert.Equal(t, 250000.0, evt.Amount)
	assert.Equal(t, "XOF", evt.Currency)
}

func TestSubscribe_RejectsUnpublishedTravel(t *testing.T) {
	draft := publishedTravel(10, 5)
	draft.Status = domain.TravelStatusDraft
	svc := newSubSvc(newFakeTravelRepo(draft), newFakeSubRepo(), &fakePublisher{})

	_, err := svc.Subscribe(context.Background(), "t1", "trav1")
	assert.ErrorIs(t, err, domain.ErrTravelNotOpen)
}

func TestSubscribe_DepartureCutoff(t *testing.T) {
	// Two days out is inside the window, three days out is the boundary.
	svc := newSubSvc(newFakeTravelRepo(publishedTravel(2, 5)), newFakeSubRepo(), &fakePublisher{})
	_, err := svc.Subscribe(context.Background(), "t1", "trav1")
	assert.ErrorIs(t, err, domain.ErrSubscriptionTooLate)

	svc = newSubSvc(newFakeTravelRepo(publishedTravel(3, 5)), newFakeSubRepo(), &fakePublisher{})
	_, err = svc.Subscribe(context.Background(), "t1", "trav1")
	assert.NoError(t, err)
}

func TestSubscribe_RejectsDuplicate(t *testing.T) {
	travels := newFakeTravelRepo(publishedTravel(10, 5))
	subs := newFakeSubRepo(&domain.Subscription{
		TravelerID: "trav1", TravelID: "t1", Status: domain.SubscriptionStatusPendingPayment,
	})
	svc := newSubSvc(travels, subs, &fakePublisher{})

	_, err := svc.Subscribe(context.Background(), "t1", "trav1")
	assert.ErrorIs(t, err, domain.ErrDuplicateSubscription)
}

func TestSubscribe_AllowsResubscribeAfterCancellation(t *testing.T) {
	travels := newFakeTravelRepo(publishedTravel(10, 5))
	subs := newFakeSubRepo(&domain.Subscription{
		TravelerID: "trav1", TravelID: "t1", Status: domain.SubscriptionStatusCancelled,
	})
	svc := newSubSvc(travels, subs, &fakePublisher{})

	_, err := svc.Subscribe(context.Background(), "t1", "trav1")
	assert.NoError(t, err)
}

func TestSubscribe_RejectsFullTravel(t *testing.T) {
	full := publishedTravel(10, 2)
	full.CurrentBookings = 2
	svc := newSubSvc(newFakeTravelRepo(full), newFakeSubRepo(), &fakePublisher{})

	_, err := svc.Subscribe(context.Background(), "t1", "trav1")
	assert.ErrorIs(t, err, domain.ErrTravelFull)
}

func TestSubscribe_LastSeatRace(t *testing.T) {
	travels := newFakeTravelRepo(publishedTravel(10, 1))
	subs := newFakeSubRepo()
	svc := newSubSvc(travels, subs, &fakePublisher{})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, traveler := range []string{"trav1", "trav2"} {
		wg.Add(1)
		go func(i int, traveler string) {
			defer wg.Done()
			_, errs[i] = svc.Subscribe(context.Background(), "t1", traveler)
		}(i, traveler)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			lost++
		}
	}
	assert.Equal(t, 1, won, "exactly one traveler gets the last seat")
	assert.Equal(t, 1, lost)
	assert.Equal(t, 1, travels.bookings("t1"))
	assert.Equal(t, 1, subs.count())
}

func TestSubscribe_ConcurrentConflictBubblesUp(t *testing.T) {
	travels := newFakeTravelRepo(publishedTravel(10, 5))
	travels.reserveErr = domain.ErrConcurrentBooking
	svc := newSubSvc(travels, newFakeSubRepo(), &fakePublisher{})

	_, err := svc.Subscribe(context.Background(), "t1", "trav1")
	assert.ErrorIs(t, err, domain.ErrConcurrentBooking)
}

func TestSubscribe_ReleasesSeatWhenCreateFails(t *testing.T) {
	travels := newFakeTravelRepo(publishedTravel(10, 5))
	subs := newFakeSubRepo()
	subs.createErr = errBoom
	svc := newSubSvc(travels, subs, &fakePublisher{})

	_, err := svc.Subscribe(context.Background(), "t1", "trav1")
	require.Error(t, err)
	assert.Equal(t, 0, travels.bookings("t1"))
}

func TestSubscribe_DuplicateCaughtByUniqueIndex(t *testing.T) {
	// Two near-simultaneous subscribes can both pass the ExistsActive check;
	// the unique index rejects the loser at insert time.
	travels := newFakeTravelRepo(publishedTravel(10, 5))
	subs := newFakeSubRepo()
	subs.createErr = domain.ErrDuplicateSubscription
	svc := newSubSvc(travels, subs, &fakePublisher{})

	_, err := svc.Subscribe(context.Background(), "t1", "trav1")
	assert.ErrorIs(t, err, domain.ErrDuplicateSubscription)
	assert.Equal(t, 0, travels.bookings("t1"))
}

func TestSubscribe_PublishFailureStillSucceeds(t *testing.T) {
	travels := newFakeTravelRepo(publishedTravel(10, 5))
	pub := &fakePublisher{err: errBoom}
	svc := newSubSvc(travels, newFakeSubRepo(), pub)

	sub, err := svc.Subscribe(context.Background(), "t1", "trav1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusPendingPayment, sub.Status)
	assert.Equal(t, 1, travels.bookings("t1"))
}

func TestCancel_ReleasesSeat(t *testing.T) {
	travel := publishedTravel(5, 5)
	travel.CurrentBookings = 1
	travels := newFakeTravelRepo(travel)
	subs := newFakeSubRepo(&domain.Subscription{
		ID: "s1", TravelerID: "trav1", TravelID: "t1", Status: domain.SubscriptionStatusConfirmed,
	})
	svc := newSubSvc(travels, subs, &fakePublisher{})

	sub, err := svc.Cancel(context.Background(), "s1", "trav1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusCancelled, sub.Status)
	assert.Equal(t, 0, travels.bookings("t1"))
}

func TestCancel_RejectedInsideCutoff(t *testing.T) {
	travel := publishedTravel(1, 5)
	travel.CurrentBookings = 1
	travels := newFakeTravelRepo(travel)
	subs := newFakeSubRepo(&domain.Subscription{
		ID: "s1", TravelerID: "trav1", TravelID: "t1", Status: domain.SubscriptionStatusConfirmed,
	})
	svc := newSubSvc(travels, subs, &fakePublisher{})

	_, err := svc.Cancel(context.Background(), "s1", "trav1")
	assert.ErrorIs(t, err, domain.ErrCancellationNotAllowed)
	assert.Equal(t, 1, travels.bookings("t1"))
}

func TestCancel_RejectsForeignSubscription(t *testing.T) {
	travels := newFakeTravelRepo(publishedTravel(10, 5))
	subs := newFakeSubRepo(&domain.Subscription{
		ID: "s1", TravelerID: "trav1", TravelID: "t1", Status: domain.SubscriptionStatusConfirmed,
	})
	svc := newSubSvc(travels, subs, &fakePublisher{})

	_, err := svc.Cancel(context.Background(), "s1", "someone-else")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCancel_RejectsAlreadyCancelled(t *testing.T) {
	travels := newFakeTravelRepo(publishedTravel(10, 5))
	subs := newFakeSubRepo(&domain.Subscription{
		ID: "s1", TravelerID: "trav1", TravelID: "t1", Status: domain.SubscriptionStatusCancelled,
	})
	svc := newSubSvc(travels, subs, &fakePublisher{})

	_, err := svc.Cancel(context.Background(), "s1", "trav1")
	assert.ErrorIs(t, err, domain.ErrCancellationNotAllowed)
}

func TestRemoveSubscriber_ManagerBypassesCutoff(t *testing.T) {
	// One day before departure, a traveler could not cancel; the manager can.
	travel := publishedTravel(1, 5)
	travel.CurrentBookings = 1
	travels := newFakeTravelRepo(travel)
	subs := newFakeSubRepo(&domain.Subscription{
		ID: "s1", TravelerID: "trav1", TravelID: "t1", Status: domain.SubscriptionStatusConfirmed,
	})
	svc := newSubSvc(travels, subs, &fakePublisher{})

	err := svc.RemoveSubscriber(context.Background(), "t1", "s1", "mgr1", auth.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, 0, travels.bookings("t1"))

	got, err := subs.ByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusCancelled, got.Status)
}

func TestRemoveSubscriber_IdempotentWhenAlreadyCancelled(t *testing.T) {
	travel := publishedTravel(10, 5)
	travel.CurrentBookings = 1
	travels := newFakeTravelRepo(travel)
	subs := newFakeSubRepo(&domain.Subscription{
		ID: "s1", TravelerID: "trav1", TravelID: "t1", Status: domain.SubscriptionStatusConfirmed,
	})
	svc := newSubSvc(travels, subs, &fakePublisher{})

	require.NoError(t, svc.RemoveSubscriber(context.Background(), "t1", "s1", "mgr1", auth.RoleManager))
	require.NoError(t, svc.RemoveSubscriber(context.Background(), "t1", "s1", "mgr1", auth.RoleManager))

	// The seat is released exactly once.
	assert.Equal(t, 1, travels.releases)
	assert.Equal(t, 0, travels.bookings("t1"))
}

func TestRemoveSubscriber_RejectsForeignManager(t *testing.T) {
	travels := newFakeTravelRepo(publishedTravel(10, 5))
	subs := newFakeSubRepo(&domain.Subscription{
		ID: "s1", TravelerID: "trav1", TravelID: "t1", Status: domain.SubscriptionStatusConfirmed,
	})
	svc := newSubSvc(travels, subs, &fakePublisher{})

	err := svc.RemoveSubscriber(context.Background(), "t1", "s1", "other-mgr", auth.RoleManager)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRemoveSubscriber_AdminOverridesOwnership(t *testing.T) {
	travel := publishedTravel(10, 5)
	travel.CurrentBookings = 1
	travels := newFakeTravelRepo(travel)
	subs := newFakeSubRepo(&domain.Subscription{
		ID: "s1", TravelerID: "trav1", TravelID: "t1", Status: domain.SubscriptionStatusConfirmed,
	})
	svc := newSubSvc(travels, subs, &fakePublisher{})

	err := svc.RemoveSubscriber(context.Background(), "t1", "s1", "admin-user", auth.RoleAdmin)
	assert.NoError(t, err)
}

func TestRemoveSubscriber_RejectsSubscriptionFromOtherTravel(t *testing.T) {
	travels := newFakeTravelRepo(publishedTravel(10, 5))
	subs := newFakeSubRepo(&domain.Subscription{
		ID: "s1", TravelerID: "trav1", TravelID: "another-travel", Status: domain.SubscriptionStatusConfirmed,
	})
	svc := newSubSvc(travels, subs, &fakePublisher{})

	err := svc.RemoveSubscriber(context.Background(), "t1", "s1", "mgr1", auth.RoleManager)
	assert.ErrorIs(t, err, domain.ErrSubscriptionNotFound)
}

func TestApplyPaymentResult_SuccessConfirms(t *testing.T) {
	travels := newFakeTravelRepo(publishedTravel(10, 5))
	subs := newFakeSubRepo(&domain.Subscription{
		ID: "s1", TravelerID: "trav1", TravelID: "t1", Status: domain.SubscriptionStatusPendingPayment,
	})
	svc := newSubSvc(travels, subs, &fakePublisher{})

	require.NoError(t, svc.ApplyPaymentResult(context.Background(), "s1", true))

	got, err := subs.ByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusConfirmed, got.Status)
}

func TestApplyPaymentResult_FailureCancelsAndReleases(t *testing.T) {
	travel := publishedTravel(10, 5)
	travel.CurrentBookings = 1
	travels := newFakeTravelRepo(travel)
	subs := newFakeSubRepo(&domain.Subscription{
		ID: "s1", TravelerID: "trav1", TravelID: "t1", Status: domain.SubscriptionStatusPendingPayment,
	})
	svc := newSubSvc(travels, subs, &fakePublisher{})

	require.NoError(t, svc.ApplyPaymentResult(context.Background(), "s1", false))

	got, err := subs.ByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusCancelled, got.Status)
	assert.Equal(t, 0, travels.bookings("t1"))
}

func TestApplyPaymentResult_FailedReleaseLeavesStateRetryable(t *testing.T) {
	// If giving the seat back fails mid-cancellation, nothing may be
	// persisted: the subscription must stay PENDING_PAYMENT so the
	// redelivered fact can finish the job without leaking the seat.
	travel := publishedTravel(10, 5)
	travel.CurrentBookings = 1
	travels := newFakeTravelRepo(travel)
	travels.releaseErr = errBoom
	subs := newFakeSubRepo(&domain.Subscription{
		ID: "s1", TravelerID: "trav1", TravelID: "t1", Status: domain.SubscriptionStatusPendingPayment,
	})
	svc := newSubSvc(travels, subs, &fakePublisher{})

	require.Error(t, svc.ApplyPaymentResult(context.Background(), "s1", false))

	got, err := subs.ByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusPendingPayment, got.Status)
	assert.Equal(t, 1, travels.bookings("t1"))

	travels.releaseErr = nil
	require.NoError(t, svc.ApplyPaymentResult(context.Background(), "s1", false))

	got, err = subs.ByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusCancelled, got.Status)
	assert.Equal(t, 0, travels.bookings("t1"))
	assert.Equal(t, 1, travels.releases)
}

func TestApplyPaymentResult_DuplicateDeliveryIsNoop(t *testing.T) {
	travel := publishedTravel(10, 5)
	travel.CurrentBookings = 1
	travels := newFakeTravelRepo(travel)
	subs := newFakeSubRepo(&domain.Subscription{
		ID: "s1", TravelerID: "trav1", TravelID: "t1", Status: domain.SubscriptionStatusPendingPayment,
	})
	svc := newSubSvc(travels, subs, &fakePublisher{})

	require.NoError(t, svc.ApplyPaymentResult(context.Background(), "s1", true))
	// Redelivery of the same fact, and a late contradictory one.
	require.NoError(t, svc.ApplyPaymentResult(context.Background(), "s1", true))
	require.NoError(t, svc.ApplyPaymentResult(context.Background(), "s1", false))

	got, err := subs.ByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusConfirmed, got.Status)
	assert.Equal(t, 1, travels.bookings("t1"))
	assert.Equal(t, 0, travels.releases)
}

func TestApplyPaymentResult_UnknownSubscriptionIsNotFound(t *testing.T) {
	svc := newSubSvc(newFakeTravelRepo(), newFakeSubRepo(), &fakePublisher{})

	err := svc.ApplyPaymentResult(context.Background(), "ghost", true)
	assert.True(t, IsNotFound(err))
}

func TestGet_RejectsForeignTraveler(t *testing.T) {
	subs := newFakeSubRepo(&domain.Subscription{
		ID: "s1", TravelerID: "trav1", TravelID: "t1", Status: domain.SubscriptionStatusConfirmed,
	})
	svc := newSubSvc(newFakeTravelRepo(), subs, &fakePublisher{})

	_, err := svc.Get(context.Background(), "s1", "someone-else")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestListByTravel_RequiresOwnershipOrAdmin(t *testing.T) {
	travels := newFakeTravelRepo(publishedTravel(10, 5))
	subs := newFakeSubRepo(&domain.Subscription{
		TravelerID: "trav1", TravelID: "t1", Status: domain.SubscriptionStatusConfirmed,
	})
	svc := newSubSvc(travels, subs, &fakePublisher{})

	_, _, err := svc.ListByTravel(context.Background(), "t1", "other-mgr", auth.RoleManager, 0, 20)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	items, total, err := svc.ListByTravel(context.Background(), "t1", "mgr1", auth.RoleManager, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, items, 1)

	_, _, err = svc.ListByTravel(context.Background(), "t1", "anyone", auth.RoleAdmin, 0, 20)
	assert.NoError(t, err)
}
