package consumer

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/mamadbah2/travel/pkg/events"
	"github.com/mamadbah2/travel/pkg/mq"
	"github.com/mamadbah2/travel/services/search-service/internal/document"
	"github.com/mamadbah2/travel/services/search-service/internal/repository"
)

// TravelFactConsumer keeps the search projection in sync with the catalog.
// Created and updated facts carry the full snapshot and are applied by
// whole-document upsert, so replays and out-of-band duplicates converge on
// the same state. Deletes of unknown ids are acked as no-ops.
type TravelFactConsumer struct {
	index *repository.TravelIndex
	cons  *mq.Consumer
	log   zerolog.Logger
}

func NewTravelFactConsumer(index *repository.TravelIndex, cons *mq.Consumer, log zerolog.Logger) *TravelFactConsumer {
	return &TravelFactConsumer{index: index, cons: cons, log: log}
}

func (c *TravelFactConsumer) Run(ctx context.Context) error {
	msgs, err := c.cons.Deliveries(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			c.handle(ctx, d)
		}
	}
}

func (c *TravelFactConsumer) handle(ctx context.Context, d amqp.Delivery) {
	switch d.RoutingKey {
	case events.RKTravelCreated, events.RKTravelUpdated:
		evt, err := events.Unmarshal[events.TravelSnapshot](d.Body)
		if err != nil {
			c.log.Error().Err(err).Str("key", d.RoutingKey).Msg("malformed travel snapshot, dropping")
			_ = d.Nack(false, false)
			return
		}
		if evt.TravelID == "" {
			c.log.Error().Str("key", d.RoutingKey).Msg("travel snapshot without id, dropping")
			_ = d.Ack(false)
			return
		}
		if err := c.index.Upsert(ctx, FromSnapshot(evt)); err != nil {
			c.log.Error().Err(err).Str("travel_id", evt.TravelID).Msg("index upsert failed, requeueing")
			_ = d.Nack(false, true)
			return
		}
	case events.RKTravelDeleted:
		evt, err := events.Unmarshal[events.TravelDeleted](d.Body)
		if err != nil {
			c.log.Error().Err(err).Str("key", d.RoutingKey).Msg("malformed travel deletion, dropping")
			_ = d.Nack(false, false)
			return
		}
		if err := c.index.Delete(ctx, evt.TravelID); err != nil {
			c.log.Error().Err(err).Str("travel_id", evt.TravelID).Msg("index delete failed, requeueing")
			_ = d.Nack(false, true)
			return
		}
	default:
		c.log.Warn().Str("key", d.RoutingKey).Msg("unexpected routing key on index queue")
	}
	_ = d.Ack(false)
}

// FromSnapshot maps a catalog fact onto the stored projection.
func FromSnapshot(evt events.TravelSnapshot) document.TravelDocument {
	doc := document.TravelDocument{
		ID:                    evt.TravelID,
		ManagerID:             evt.ManagerID,
		Title:                 evt.Title,
		Description:           evt.Description,
		StartDate:             evt.StartDate,
		EndDate:               evt.EndDate,
		Duration:              evt.Duration,
		Price:                 evt.Price,
		MaxCapacity:           evt.MaxCapacity,
		CurrentBookings:       evt.CurrentBookings,
		Status:                evt.Status,
		AccommodationType:     evt.AccommodationType,
		AccommodationName:     evt.AccommodationName,
		TransportationType:    evt.TransportationType,
		TransportationDetails: evt.TransportationDetails,
	}
	for _, dst := range evt.Destinations {
		doc.Destinations = append(doc.Destinations, document.DestinationDoc{
			Name:        dst.Name,
			Country:     dst.Country,
			City:        dst.City,
			Description: dst.Description,
		})
	}
	for _, act := range evt.Activities {
		doc.Activities = append(doc.Activities, document.ActivityDoc{
			Name:        act.Name,
			Description: act.Description,
			Location:    act.Location,
		})
	}
	return doc
}
