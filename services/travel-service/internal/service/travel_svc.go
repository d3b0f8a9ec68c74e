package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mamadbah2/travel/pkg/auth"
	"github.com/mamadbah2/travel/pkg/events"
	"github.com/mamadbah2/travel/services/travel-service/internal/domain"
)

// TravelService manages the catalog side of the travel aggregate and
// publishes travel.* facts so the search projection stays in sync. Facts
// carry the full denormalized snapshot, never a diff.
type TravelService struct {
	travels TravelRepo
	pub     Publisher
	log     zerolog.Logger
}

func NewTravelService(travels TravelRepo, pub Publisher, log zerolog.Logger) *TravelService {
	return &TravelService{travels: travels, pub: pub, log: log}
}

type TravelInput struct {
	Title                 string
	Description           string
	StartDate             time.Time
	EndDate               time.Time
	Price                 float64
	MaxCapacity           int
	AccommodationType     string
	AccommodationName     string
	TransportationType    string
	TransportationDetails string
	Destinations          []domain.Destination
	Activities            []domain.Activity
}

func (s *TravelService) Create(ctx context.Context, in TravelInput, managerID string) (*domain.Travel, error) {
	t := &domain.Travel{
		ManagerID:             managerID,
		Title:                 in.Title,
		Description:           in.Description,
		StartDate:             in.StartDate,
		EndDate:               in.EndDate,
		Duration:              int(in.EndDate.Sub(in.StartDate).Hours() / 24),
		Price:                 in.Price,
		MaxCapacity:           in.MaxCapacity,
		CurrentBookings:       0,
		Status:                domain.TravelStatusDraft,
		AccommodationType:     in.AccommodationType,
		AccommodationName:     in.AccommodationName,
		TransportationType:    in.TransportationType,
		TransportationDetails: in.TransportationDetails,
		Destinations:          in.Destinations,
		Activities:            in.Activities,
	}
	if err := s.travels.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create travel: %w", err)
	}
	s.log.Info().Str("travel_id", t.ID).Str("manager_id", managerID).Msg("travel created (DRAFT)")
	return t, nil
}

func (s *TravelService) Update(ctx context.Context, travelID string, in TravelInput, managerID string) (*domain.Travel, error) {
	t, err := s.travels.ByID(ctx, travelID)
	if err != nil {
		return nil, err
	}
	if t.ManagerID != managerID {
		return nil, domain.ErrUnauthorized
	}

	t.Title = in.Title
	t.Description = in.Description
	t.StartDate = in.StartDate
	t.EndDate = in.EndDate
	t.Duration = int(in.EndDate.Sub(in.StartDate).Hours() / 24)
	t.Price = in.Price
	t.MaxCapacity = in.MaxCapacity
	t.AccommodationType = in.AccommodationType
	t.AccommodationName = in.AccommodationName
	t.TransportationType = in.TransportationType
	t.TransportationDetails = in.TransportationDetails
	if err := s.travels.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("save travel: %w", err)
	}

	t.Destinations = in.Destinations
	t.Activities = in.Activities
	if err := s.travels.ReplaceItinerary(ctx, t); err != nil {
		return nil, fmt.Errorf("replace itinerary: %w", err)
	}

	// Only published travels are visible to the index.
	if t.Status == domain.TravelStatusPublished {
		s.publishSnapshot(ctx, events.RKTravelUpdated, t)
	}
	return t, nil
}

// Publish moves a DRAFT travel to PUBLISHED and announces it to the index.
func (s *TravelService) Publish(ctx context.Context, travelID, managerID string) (*domain.Travel, error) {
	t, err := s.travels.ByID(ctx, travelID)
	if err != nil {
		return nil, err
	}
	if t.ManagerID != managerID {
		return nil, domain.ErrUnauthorized
	}
	if t.Status != domain.TravelStatusDraft {
		return nil, domain.ErrTravelNotOpen
	}

	t.Status = domain.TravelStatusPublished
	if err := s.travels.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("save travel: %w", err)
	}
	s.log.Info().Str("travel_id", t.ID).Msg("travel published")
	s.publishSnapshot(ctx, events.RKTravelCreated, t)
	return t, nil
}

// CancelTravel marks the travel CANCELLED and withdraws it from the index.
func (s *TravelService) CancelTravel(ctx context.Context, travelID, managerID string) (*domain.Travel, error) {
	t, err := s.travels.ByID(ctx, travelID)
	if err != nil {
		return nil, err
	}
	if t.ManagerID != managerID {
		return nil, domain.ErrUnauthorized
	}

	t.Status = domain.TravelStatusCancelled
	if err := s.travels.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("save travel: %w", err)
	}
	s.log.Info().Str("travel_id", t.ID).Msg("travel cancelled")
	s.publishDeleted(ctx, t.ID)
	return t, nil
}

// Delete removes the travel and cascades its subscriptions.
func (s *TravelService) Delete(ctx context.Context, travelID, callerID, role string) error {
	t, err := s.travels.ByID(ctx, travelID)
	if err != nil {
		return err
	}
	if role != auth.RoleAdmin && t.ManagerID != callerID {
		return domain.ErrUnauthorized
	}

	if err := s.travels.Delete(ctx, travelID); err != nil {
		return fmt.Errorf("delete travel: %w", err)
	}
	s.log.Warn().Str("travel_id", travelID).Msg("travel deleted, subscriptions cascaded")
	s.publishDeleted(ctx, travelID)
	return nil
}

func (s *TravelService) Get(ctx context.Context, travelID string) (*domain.Travel, error) {
	return s.travels.ByID(ctx, travelID)
}

func (s *TravelService) ListAvailable(ctx context.Context, page, size int) ([]domain.Travel, int64, error) {
	return s.travels.ListAvailable(ctx, page, size)
}

func (s *TravelService) ListByManager(ctx context.Context, managerID string, page, size int) ([]domain.Travel, int64, error) {
	return s.travels.ListByManager(ctx, managerID, page, size)
}

func (s *TravelService) publishSnapshot(ctx context.Context, key string, t *domain.Travel) {
	if err := s.pub.PublishJSON(ctx, key, Snapshot(t)); err != nil {
		s.log.Error().Err(err).Str("travel_id", t.ID).Str("key", key).Msg("publish travel snapshot failed")
	}
}

func (s *TravelService) publishDeleted(ctx context.Context, travelID string) {
	if err := s.pub.PublishJSON(ctx, events.RKTravelDeleted, events.TravelDeleted{TravelID: travelID}); err != nil {
		s.log.Error().Err(err).Str("travel_id", travelID).Msg("publish travel.deleted failed")
	}
}

// Snapshot flattens the aggregate into the catalog fact consumed by the
// search indexer.
func Snapshot(t *domain.Travel) events.TravelSnapshot {
	snap := events.TravelSnapshot{
		TravelID:              t.ID,
		ManagerID:             t.ManagerID,
		Title:                 t.Title,
		Description:           t.Description,
		StartDate:             t.StartDate.Format("2006-01-02"),
		EndDate:               t.EndDate.Format("2006-01-02"),
		Duration:              t.Duration,
		Price:                 t.Price,
		MaxCapacity:           t.MaxCapacity,
		CurrentBookings:       t.CurrentBookings,
		Status:                string(t.Status),
		AccommodationType:     t.AccommodationType,
		AccommodationName:     t.AccommodationName,
		TransportationType:    t.TransportationType,
		TransportationDetails: t.TransportationDetails,
	}
	for _, d := range t.Destinations {
		snap.Destinations = append(snap.Destinations, events.DestinationData{
			Name: d.Name, Country: d.Country, City: d.City, Description: d.Description,
		})
	}
	for _, a := range t.Activities {
		snap.Activities = append(snap.Activities, events.ActivityData{
			Name: a.Name, Description: a.Description, Location: a.Location,
		})
	}
	return snap
}
