package consumer

import (
	"context"
	"errors"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/mamadbah2/travel/pkg/events"
	"github.com/mamadbah2/travel/pkg/mq"
	"github.com/mamadbah2/travel/services/payment-service/internal/domain"
	"github.com/mamadbah2/travel/services/payment-service/internal/service"
)

// SubscriptionConsumer feeds subscription.created facts to the payment
// service with a small fixed pool of workers. The pool bounds how many
// multi-second charge attempts run at once without serializing them; the
// channel prefetch matches the pool size.
type SubscriptionConsumer struct {
	svc     *service.PaymentService
	cons    *mq.Consumer
	workers int
	log     zerolog.Logger
}

func NewSubscriptionConsumer(svc *service.PaymentService, cons *mq.Consumer, workers int, log zerolog.Logger) *SubscriptionConsumer {
	if workers <= 0 {
		workers = 3
	}
	return &SubscriptionConsumer{svc: svc, cons: cons, workers: workers, log: log}
}

func (c *SubscriptionConsumer) Run(ctx context.Context) error {
	msgs, err := c.cons.Deliveries(ctx)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range msgs {
				c.handle(ctx, d)
			}
		}()
	}
	wg.Wait()
	return nil
}

func (c *SubscriptionConsumer) handle(ctx context.Context, d amqp.Delivery) {
	evt, err := events.Unmarshal[events.SubscriptionCreated](d.Body)
	if err != nil {
		c.log.Error().Err(err).Msg("malformed subscription.created, dropping")
		_ = d.Nack(false, false)
		return
	}
	if evt.SubscriptionID == "" {
		c.log.Error().Msg("subscription.created without subscription id, dropping")
		_ = d.Ack(false)
		return
	}

	if _, err := c.svc.ProcessPayment(ctx, evt); err != nil {
		if errors.Is(err, domain.ErrDuplicatePayment) {
			// Redelivered fact; the earlier attempt already resolved it.
			c.log.Warn().Str("subscription_id", evt.SubscriptionID).Msg("duplicate subscription.created, acking")
			_ = d.Ack(false)
			return
		}
		c.log.Error().Err(err).Str("subscription_id", evt.SubscriptionID).Msg("process payment failed, requeueing")
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}
