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
	cons "github.com/mamadbah2/travel/services/travel-service/internal/consumer"
	"github.com/mamadbah2/travel/services/travel-service/internal/repository"
	"github.com/mamadbah2/travel/services/travel-service/internal/service"
	thttp "github.com/mamadbah2/travel/services/travel-service/internal/transport/http"
)

type Cfg struct {
	PGTravelDSN string `envconfig:"PG_TRAVEL_DSN" required:"true"`
	HTTPAddr    string `envconfig:"TRAVEL_HTTP_ADDR" default:":8081"`
	JWTSecret   string `envconfig:"JWT_SECRET" required:"true"`

	RabbitURL string `envconfig:"RABBIT_URL" required:"true"`

	PaymentResultPrefetch int `envconfig:"PAYMENT_RESULT_PREFETCH" default:"8"`
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

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "travel").Logger()

	shutdown := must(obs.InitTracer("travel-service"))
	defer shutdown(context.Background())

	gdb := must(db.Open(cfg.PGTravelDSN))
	travelRepo := repository.NewTravelRepo(gdb)
	must(0, travelRepo.Migrate())
	subRepo := repository.NewSubscriptionRepo(gdb)

	subPub := must(mq.NewPublisher(cfg.RabbitURL, events.SubscriptionExchange))
	defer subPub.Close()
	travelPub := must(mq.NewPublisher(cfg.RabbitURL, events.TravelExchange))
	defer travelPub.Close()

	subSvc := service.NewSubscriptionService(travelRepo, subRepo, subPub, logger)
	travelSvc := service.NewTravelService(travelRepo, travelPub, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resultCons := must(mq.NewConsumer(cfg.RabbitURL, events.PaymentExchange, events.PaymentResultQueue,
		[]string{events.RKPaymentSuccess, events.RKPaymentFailed},
		mq.ConsumerOptions{Prefetch: cfg.PaymentResultPrefetch}))
	defer resultCons.Close()
	pc := cons.NewPaymentResultConsumer(subSvc, resultCons, logger)
	go func() {
		if err := pc.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("payment result consumer stopped")
		}
	}()
	logger.Info().Str("queue", events.PaymentResultQueue).Msg("payment result consumer started")

	r := gin.New()
	r.Use(gin.Recovery())
	thttp.NewHandler(travelSvc, subSvc).Register(r, cfg.JWTSecret)

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
