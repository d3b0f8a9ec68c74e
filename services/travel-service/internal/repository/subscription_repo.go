package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mamadbah2/travel/services/travel-service/internal/domain"
)

type SubscriptionRepo struct{ db *gorm.DB }

func NewSubscriptionRepo(db *gorm.DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

func (r *SubscriptionRepo) Create(ctx context.Context, s *domain.Subscription) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	err := r.db.WithContext(ctx).Create(s).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// The partial unique index caught a concurrent subscribe that the
		// ExistsActive pre-check raced past.
		return domain.ErrDuplicateSubscription
	}
	return err
}

func (r *SubscriptionRepo) ByID(ctx context.Context, id string) (*domain.Subscription, error) {
	var s domain.Subscription
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubscriptionRepo) Save(ctx context.Context, s *domain.Subscription) error {
	return r.db.WithContext(ctx).Save(s).Error
}

// CancelAndRelease persists the cancelled subscription and gives its seat
// back in one transaction. Either both land or neither does, so a transient
// failure leaves the subscription resolvable on retry instead of stranding
// the seat.
func (r *SubscriptionRepo) CancelAndRelease(ctx context.Context, s *domain.Subscription) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(s).Error; err != nil {
			return err
		}
		return releaseSeat(tx, s.TravelID)
	})
}

// ExistsActive reports whether the traveler already holds a non-CANCELLED
// subscription for the travel.
func (r *SubscriptionRepo) ExistsActive(ctx context.Context, travelerID, travelID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Subscription{}).
		Where("traveler_id = ? AND travel_id = ? AND status <> ?",
			travelerID, travelID, domain.SubscriptionStatusCancelled).
		Count(&n).Error
	return n > 0, err
}

func (r *SubscriptionRepo) ListByTraveler(ctx context.Context, travelerID string, page, size int) ([]domain.Subscription, int64, error) {
	return r.list(ctx, "traveler_id = ?", travelerID, page, size)
}

func (r *SubscriptionRepo) ListByTravel(ctx context.Context, travelID string, page, size int) ([]domain.Subscription, int64, error) {
	return r.list(ctx, "travel_id = ?", travelID, page, size)
}

func (r *SubscriptionRepo) list(ctx context.Context, cond, arg string, page, size int) ([]domain.Subscription, int64, error) {
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	qb := r.db.WithContext(ctx).Model(&domain.Subscription{}).Where(cond, arg)
	var total int64
	if err := qb.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Subscription
	if err := qb.Order("created_at DESC").Limit(size).Offset(page * size).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
