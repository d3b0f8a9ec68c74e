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
	"github.com/mamadbah2/travel/services/payment-service/internal/charger"
	cons "github.com/mamadbah2/travel/services/payment-service/internal/consumer"
	"github.com/mamadbah2/travel/services/payment-service/internal/repository"
	"github.com/mamadbah2/travel/services/payment-service/internal/service"
	phttp "github.com/mamadbah2/travel/services/payment-service/internal/transport/http"
)

type Cfg struct {
	PGPaymentDSN string `envconfig:"PG_PAYMENT_DSN" required:"true"`
	HTTPAddr     string `envconfig:"PAYMENT_HTTP_ADDR" default:":8082"`
	JWTSecret    string `envconfig:"JWT_SECRET" required:"true"`

	RabbitURL string `envconfig:"RABBIT_URL" required:"true"`

	// Charge attempts run concurrently up to this bound; prefetch follows it.
	Workers int `envconfig:"PAYMENT_WORKERS" default:"3"`

	ChargerKind    string        `envconfig:"PAYMENT_CHARGER" default:"simulated"`
	SimulatedDelay time.Duration `envconfig:"PAYMENT_SIMULATED_DELAY" default:"2s"`
	OmisePublicKey string        `envconfig:"OMISE_PUBLIC_KEY" default:""`
	OmiseSecretKey string        `envconfig:"OMISE_SECRET_KEY" default:""`
	OmiseCardToken string        `envconfig:"OMISE_CARD_TOKEN" default:""`
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

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "payment").Logger()

	shutdown := must(obs.InitTracer("payment-service"))
	defer shutdown(context.Background())

	gdb := must(db.Open(cfg.PGPaymentDSN))
	repo := repository.NewPaymentRepo(gdb)
	must(0, repo.Migrate())

	var ch charger.Charger
	switch cfg.ChargerKind {
	case "omise":
		ch = must(charger.NewOmise(cfg.OmisePublicKey, cfg.OmiseSecretKey, cfg.OmiseCardToken))
	default:
		ch = charger.NewSimulated(cfg.SimulatedDelay)
	}

	pub := must(mq.NewPublisher(cfg.RabbitURL, events.PaymentExchange))
	defer pub.Close()

	svc := service.NewPaymentService(repo, ch, pub, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	subCons := must(mq.NewConsumer(cfg.RabbitURL, events.SubscriptionExchange, events.SubscriptionCreatedQueue,
		[]string{events.RKSubscriptionCreated},
		mq.ConsumerOptions{Prefetch: cfg.Workers}))
	defer subCons.Close()
	sc := cons.NewSubscriptionConsumer(svc, subCons, cfg.Workers, logger)
	go func() {
		if err := sc.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("subscription consumer stopped")
		}
	}()
	logger.Info().Str("queue", events.SubscriptionCreatedQueue).Int("workers", cfg.Workers).Msg("subscription consumer started")

	r := gin.New()
	r.Use(gin.Recovery())
	phttp.NewHandler(svc).Register(r, cfg.JWTSecret)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	cancel()
	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	_ = srv.Shutdown(sctx)
	logger.Info().Msg("stopped")
}
