package worker

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/mamadbah2/travel/pkg/events"
	"github.com/mamadbah2/travel/pkg/mq"
	"github.com/mamadbah2/travel/services/notification-service/internal/service"
)

// Worker drains one queue and dispatches by routing key. The same worker
// type serves both the subscription and the payment queues; unknown keys
// are logged and acked so a topology change never wedges the queue.
// Poison messages are rejected without requeue and land on the DLX.
type Worker struct {
	svc  *service.NotificationService
	cons *mq.Consumer
	log  zerolog.Logger
}

func New(svc *service.NotificationService, cons *mq.Consumer, log zerolog.Logger) *Worker {
	return &Worker{svc: svc, cons: cons, log: log}
}

func (w *Worker) Run(ctx context.Context) error {
	msgs, err := w.cons.Deliveries(ctx)
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
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	switch d.RoutingKey {
	case events.RKSubscriptionCreated:
		evt, err := events.Unmarshal[events.SubscriptionCreated](d.Body)
		if err != nil {
			w.log.Error().Err(err).Str("key", d.RoutingKey).Msg("malformed fact, dead-lettering")
			_ = d.Nack(false, false)
			return
		}
		if err := w.svc.HandleSubscriptionCreated(ctx, evt); err != nil {
			w.log.Error().Err(err).Str("subscription_id", evt.SubscriptionID).Msg("record notification failed, requeueing")
			_ = d.Nack(false, true)
			return
		}
	case events.RKPaymentSuccess, events.RKPaymentFailed:
		evt, err := events.Unmarshal[events.PaymentCompleted](d.Body)
		if err != nil {
			w.log.Error().Err(err).Str("key", d.RoutingKey).Msg("malformed fact, dead-lettering")
			_ = d.Nack(false, false)
			return
		}
		if err := w.svc.HandlePaymentCompleted(ctx, evt); err != nil {
			w.log.Error().Err(err).Str("subscription_id", evt.SubscriptionID).Msg("record notification failed, requeueing")
			_ = d.Nack(false, true)
			return
		}
	default:
		w.log.Warn().Str("key", d.RoutingKey).Msg("skipping unknown routing key")
	}
	_ = d.Ack(false)
}
