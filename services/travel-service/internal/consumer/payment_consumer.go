package consumer

import (
	"context"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/mamadbah2/travel/pkg/events"
	"github.com/mamadbah2/travel/pkg/mq"
	"github.com/mamadbah2/travel/services/travel-service/internal/service"
)

// PaymentResultConsumer applies payment outcomes to subscriptions. It must
// tolerate at-least-once delivery: duplicates and late results are no-ops
// inside ApplyPaymentResult, and orphaned results (unknown subscription)
// are acked on purpose since requeueing cannot make the subscription appear.
type PaymentResultConsumer struct {
	svc  *service.SubscriptionService
	cons *mq.Consumer
	log  zerolog.Logger
}

func NewPaymentResultConsumer(svc *service.SubscriptionService, cons *mq.Consumer, log zerolog.Logger) *PaymentResultConsumer {
	return &PaymentResultConsumer{svc: svc, cons: cons, log: log}
}

func (c *PaymentResultConsumer) Run(ctx context.Context) error {
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

func (c *PaymentResultConsumer) handle(ctx context.Context, d amqp.Delivery) {
	evt, err := events.Unmarshal[events.PaymentCompleted](d.Body)
	if err != nil {
		c.log.Error().Err(err).Str("key", d.RoutingKey).Msg("malformed payment result, dropping")
		_ = d.Nack(false, false)
		return
	}
	if evt.SubscriptionID == "" {
		c.log.Error().Str("key", d.RoutingKey).Msg("payment result without subscription id, dropping")
		_ = d.Ack(false)
		return
	}

	success := strings.EqualFold(evt.Status, "SUCCESS")
	if err := c.svc.ApplyPaymentResult(ctx, evt.SubscriptionID, success); err != nil {
		if service.IsNotFound(err) {
			// Orphaned fact: a payment result for a subscription this
			// service has never seen. Ack it and flag for investigation.
			c.log.Error().
				Str("subscription_id", evt.SubscriptionID).
				Str("status", evt.Status).
				Msg("CRITICAL: orphaned payment result, acknowledging without retry")
			_ = d.Ack(false)
			return
		}
		c.log.Error().Err(err).Str("subscription_id", evt.SubscriptionID).Msg("apply payment result failed, requeueing")
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}
