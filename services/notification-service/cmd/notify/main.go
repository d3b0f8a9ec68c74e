package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"github.com/mamadbah2/travel/pkg/db"
	"github.com/mamadbah2/travel/pkg/events"
	"github.com/mamadbah2/travel/pkg/mq"
	"github.com/mamadbah2/travel/pkg/obs"
	"github.com/mamadbah2/travel/services/notification-service/internal/notifier"
	"github.com/mamadbah2/travel/services/notification-service/internal/repository"
	"github.com/mamadbah2/travel/services/notification-service/internal/service"
	nhttp "github.com/mamadbah2/travel/services/notification-service/internal/transport/http"
	"github.com/mamadbah2/travel/services/notification-service/internal/worker"
)

type Cfg struct {
	PGNotifyDSN string `envconfig:"PG_NOTIFY_DSN" required:"true"`
	HTTPAddr    string `envconfig:"NOTIFY_HTTP_ADDR" default:":8084"`
	JWTSecret   string `envconfig:"JWT_SECRET" required:"true"`

	RabbitURL    string `envconfig:"RABBIT_URL" required:"true"`
	Prefetch     int    `envconfig:"NOTIFY_PREFETCH" default:"8"`
	DeadLetterEx string `envconfig:"NOTIFY_DLX" default:"notification.dlx"`
}

func must[T any](v T, err error) T {
	if err != nil {
		log.Fatal(err)
	}
	return v
}

func main() {
	var cfg Cfg
	must(0, envconfig.Process("", &cfg))

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "notification").Logger()

	shutdown := must(obs.InitTracer("notification-service"))
	defer shutdown(context.Background())

	gdb := must(db.Open(cfg.PGNotifyDSN))
	repo := repository.NewNotificationRepo(gdb)
	must(0, repo.Migrate())

	svc := service.NewNotificationService(repo, notifier.NewConsole(logger), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := mq.ConsumerOptions{Prefetch: cfg.Prefetch, DLX: cfg.DeadLetterEx}

	subCons := must(mq.NewConsumer(cfg.RabbitURL, events.SubscriptionExchange,
		events.NotificationSubscriptionQueue, []string{events.RKSubscriptionCreated}, opts))
	defer subCons.Close()
	payCons := must(mq.NewConsumer(cfg.RabbitURL, events.PaymentExchange,
		events.NotificationPaymentQueue, []string{events.RKPaymentSuccess, events.RKPaymentFailed}, opts))
	defer payCons.Close()

	for _, w := range []*worker.Worker{
		worker.New(svc, subCons, logger),
		worker.New(svc, payCons, logger),
	} {
		w := w
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("worker stopped")
			}
		}()
	}
	logger.Info().Msg("notification workers started")

	r := gin.New()
	r.Use(gin.Recovery())
	nhttp.NewHandler(svc).Register(r, cfg.JWTSecret)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	cancel()
	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	_ = srv.Shutdown(sctx)
	logger.Info().Msg("stopped")
}
