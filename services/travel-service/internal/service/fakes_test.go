package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/mamadbah2/travel/services/travel-service/internal/domain"
)

// fakeTravelRepo keeps travels in memory and mirrors the repository's
// compare-and-swap Reserve semantics under a mutex.
type fakeTravelRepo struct {
	mu      sync.Mutex
	travels map[string]*domain.Travel

	reserveErr error
	releaseErr error
	deleteErr  error
	releases   int
}

func newFakeTravelRepo(travels ...*domain.Travel) *fakeTravelRepo {
	r := &fakeTravelRepo{travels: map[string]*domain.Travel{}}
	for _, t := range travels {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		cp := *t
		r.travels[t.ID] = &cp
	}
	return r
}

func (r *fakeTravelRepo) Create(ctx context.Context, t *domain.Travel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	cp := *t
	r.travels[t.ID] = &cp
	return nil
}

func (r *fakeTravelRepo) ByID(ctx context.Context, id string) (*domain.Travel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.travels[id]
	if !ok {
		return nil, domain.ErrTravelNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTravelRepo) Save(ctx context.Context, t *domain.Travel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.travels[t.ID]
	if !ok {
		return domain.ErrTravelNotFound
	}
	bookings, version := stored.CurrentBookings, stored.Version
	cp := *t
	cp.CurrentBookings, cp.Version = bookings, version
	r.travels[t.ID] = &cp
	return nil
}

func (r *fakeTravelRepo) ReplaceItinerary(ctx context.Context, t *domain.Travel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.travels[t.ID]
	if !ok {
		return domain.ErrTravelNotFound
	}
	stored.Destinations = t.Destinations
	stored.Activities = t.Activities
	return nil
}

func (r *fakeTravelRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.travels, id)
	return nil
}

func (r *fakeTravelRepo) Reserve(ctx context.Context, t *domain.Travel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reserveErr != nil {
		return r.reserveErr
	}
	stored, ok := r.travels[t.ID]
	if !ok {
		return domain.ErrTravelNotFound
	}
	if stored.Version != t.Version {
		return domain.ErrConcurrentBooking
	}
	stored.CurrentBookings++
	stored.Version++
	t.CurrentBookings = stored.CurrentBookings
	t.Version = stored.Version
	return nil
}

func (r *fakeTravelRepo) Release(ctx context.Context, travelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.releaseErr != nil {
		return r.releaseErr
	}
	stored, ok := r.travels[travelID]
	if !ok {
		return domain.ErrTravelNotFound
	}
	if stored.CurrentBookings > 0 {
		stored.CurrentBookings--
	}
	r.releases++
	return nil
}

func (r *fakeTravelRepo) ListAvailable(ctx context.Context, page, size int) ([]domain.Travel, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Travel
	for _, t := range r.travels {
		if t.Status == domain.TravelStatusPublished {
			out = append(out, *t)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeTravelRepo) ListByManager(ctx context.Context, managerID string, page, size int) ([]domain.Travel, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Travel
	for _, t := range r.travels {
		if t.ManagerID == managerID {
			out = append(out, *t)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeTravelRepo) bookings(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.travels[id].CurrentBookings
}

type fakeSubRepo struct {
	mu   sync.Mutex
	subs map[string]*domain.Subscription

	travels   *fakeTravelRepo
	createErr error
}

func newFakeSubRepo(subs ...*domain.Subscription) *fakeSubRepo {
	r := &fakeSubRepo{subs: map[string]*domain.Subscription{}}
	for _, s := range subs {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		cp := *s
		r.subs[s.ID] = &cp
	}
	return r
}

func (r *fakeSubRepo) Create(ctx context.Context, s *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	cp := *s
	r.subs[s.ID] = &cp
	return nil
}

func (r *fakeSubRepo) ByID(ctx context.Context, id string) (*domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return nil, domain.ErrSubscriptionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSubRepo) Save(ctx context.Context, s *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[s.ID]; !ok {
		return domain.ErrSubscriptionNotFound
	}
	cp := *s
	r.subs[s.ID] = &cp
	return nil
}

// CancelAndRelease mirrors the repository's transaction: a failed seat
// release leaves the subscription unchanged.
func (r *fakeSubRepo) CancelAndRelease(ctx context.Context, s *domain.Subscription) error {
	if err := r.travels.Release(ctx, s.TravelID); err != nil {
		return err
	}
	return r.Save(ctx, s)
}

func (r *fakeSubRepo) ExistsActive(ctx context.Context, travelerID, travelID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.TravelerID == travelerID && s.TravelID == travelID && s.Status != domain.SubscriptionStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeSubRepo) ListByTraveler(ctx context.Context, travelerID string, page, size int) ([]domain.Subscription, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Subscription
	for _, s := range r.subs {
		if s.TravelerID == travelerID {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeSubRepo) ListByTravel(ctx context.Context, travelID string, page, size int) ([]domain.Subscription, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Subscription
	for _, s := range r.subs {
		if s.TravelID == travelID {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeSubRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

type published struct {
	key  string
	body []byte
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *fakePublisher) PublishJSON(ctx context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p.events = append(p.events, published{key: key, body: b})
	return nil
}

func (p *fakePublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.key
	}
	return out
}

func (p *fakePublisher) last() (published, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return published{}, false
	}
	return p.events[len(p.events)-1], true
}

var errBoom = errors.New("boom")
