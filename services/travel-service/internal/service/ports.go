package service

import (
	"context"

	"github.com/mamadbah2/travel/services/travel-service/internal/domain"
)

// TravelRepo is the travel aggregate store, including the capacity ledger.
type TravelRepo interface {
	Create(ctx context.Context, t *domain.Travel) error
	ByID(ctx context.Context, id string) (*domain.Travel, error)
	Save(ctx context.Context, t *domain.Travel) error
	ReplaceItinerary(ctx context.Context, t *domain.Travel) error
	Delete(ctx context.Context, id string) error
	Reserve(ctx context.Context, t *domain.Travel) error
	Release(ctx context.Context, travelID string) error
	ListAvailable(ctx context.Context, page, size int) ([]domain.Travel, int64, error)
	ListByManager(ctx context.Context, managerID string, page, size int) ([]domain.Travel, int64, error)
}

type SubscriptionRepo interface {
	Create(ctx context.Context, s *domain.Subscription) error
	ByID(ctx context.Context, id string) (*domain.Subscription, error)
	Save(ctx context.Context, s *domain.Subscription) error
	// CancelAndRelease persists the cancellation and releases the seat as
	// one unit of work.
	CancelAndRelease(ctx context.Context, s *domain.Subscription) error
	ExistsActive(ctx context.Context, travelerID, travelID string) (bool, error)
	ListByTraveler(ctx context.Context, travelerID string, page, size int) ([]domain.Subscription, int64, error)
	ListByTravel(ctx context.Context, travelID string, page, size int) ([]domain.Subscription, int64, error)
}

// Publisher is satisfied by mq.Publisher.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}
