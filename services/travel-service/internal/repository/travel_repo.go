package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mamadbah2/travel/services/travel-service/internal/domain"
)

type TravelRepo struct{ db *gorm.DB }

func NewTravelRepo(db *gorm.DB) *TravelRepo {
	return &TravelRepo{db: db}
}

func (r *TravelRepo) Migrate() error {
	return r.db.AutoMigrate(&domain.Travel{}, &domain.Destination{}, &domain.Activity{}, &domain.Subscription{})
}

func (r *TravelRepo) Create(ctx context.Context, t *domain.Travel) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	for i := range t.Destinations {
		if t.Destinations[i].ID == "" {
			t.Destinations[i].ID = uuid.NewString()
		}
	}
	for i := range t.Activities {
		if t.Activities[i].ID == "" {
			t.Activities[i].ID = uuid.NewString()
		}
	}
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TravelRepo) ByID(ctx context.Context, id string) (*domain.Travel, error) {
	var t domain.Travel
	err := r.db.WithContext(ctx).
		Preload("Destinations").
		Preload("Activities").
		First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrTravelNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Save persists catalog edits. Capacity fields are excluded on purpose:
// they only move through Reserve and Release.
func (r *TravelRepo) Save(ctx context.Context, t *domain.Travel) error {
	return r.db.WithContext(ctx).
		Omit("current_bookings", "version", "Destinations", "Activities").
		Save(t).Error
}

// ReplaceItinerary swaps the travel's destinations and activities wholesale.
func (r *TravelRepo) ReplaceItinerary(ctx context.Context, t *domain.Travel) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("travel_id = ?", t.ID).Delete(&domain.Destination{}).Error; err != nil {
			return err
		}
		if err := tx.Where("travel_id = ?", t.ID).Delete(&domain.Activity{}).Error; err != nil {
			return err
		}
		for i := range t.Destinations {
			t.Destinations[i].ID = uuid.NewString()
			t.Destinations[i].TravelID = t.ID
		}
		for i := range t.Activities {
			t.Activities[i].ID = uuid.NewString()
			t.Activities[i].TravelID = t.ID
		}
		if len(t.Destinations) > 0 {
			if err := tx.Create(&t.Destinations).Error; err != nil {
				return err
			}
		}
		if len(t.Activities) > 0 {
			if err := tx.Create(&t.Activities).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *TravelRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("travel_id = ?", id).Delete(&domain.Subscription{}).Error; err != nil {
			return err
		}
		if err := tx.Where("travel_id = ?", id).Delete(&domain.Destination{}).Error; err != nil {
			return err
		}
		if err := tx.Where("travel_id = ?", id).Delete(&domain.Activity{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Travel{}, "id = ?", id).Error
	})
}

// Reserve takes one seat under an optimistic version check. The caller must
// have verified capacity against the same in-memory copy of the travel; a
// lost race returns ErrConcurrentBooking and the whole reservation attempt
// (capacity check included) must be redone by the caller. No retry loop
// lives here.
func (r *TravelRepo) Reserve(ctx context.Context, t *domain.Travel) error {
	res := r.db.WithContext(ctx).Model(&domain.Travel{}).
		Where("id = ? AND version = ?", t.ID, t.Version).
		Updates(map[string]any{
			"current_bookings": t.CurrentBookings + 1,
			"version":          t.Version + 1,
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConcurrentBooking
	}
	t.CurrentBookings++
	t.Version++
	return nil
}

// Release gives one seat back, clamped at zero. The decrement is atomic in
// the database, so no version check is needed; releasing never overbooks.
func (r *TravelRepo) Release(ctx context.Context, travelID string) error {
	return releaseSeat(r.db.WithContext(ctx), travelID)
}

func releaseSeat(tx *gorm.DB, travelID string) error {
	return tx.Model(&domain.Travel{}).
		Where("id = ? AND current_bookings > 0", travelID).
		Updates(map[string]any{
			"current_bookings": gorm.Expr("current_bookings - 1"),
			"version":          gorm.Expr("version + 1"),
			"updated_at":       time.Now().UTC(),
		}).Error
}

func (r *TravelRepo) ListAvailable(ctx context.Context, page, size int) ([]domain.Travel, int64, error) {
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	qb := r.db.WithContext(ctx).Model(&domain.Travel{}).
		Where("status = ? AND start_date > ?", domain.TravelStatusPublished, time.Now().UTC())
	var total int64
	if err := qb.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Travel
	if err := qb.Order("start_date ASC").Limit(size).Offset(page * size).
		Preload("Destinations").Preload("Activities").Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *TravelRepo) ListByManager(ctx context.Context, managerID string, page, size int) ([]domain.Travel, int64, error) {
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	qb := r.db.WithContext(ctx).Model(&domain.Travel{}).Where("manager_id = ?", managerID)
	var total int64
	if err := qb.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Travel
	if err := qb.Order("created_at DESC").Limit(size).Offset(page * size).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
