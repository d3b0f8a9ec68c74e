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
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/travel/pkg/events"
	"github.com/mamadbah2/travel/pkg/mq"
	"github.com/mamadbah2/travel/pkg/obs"
	cons "github.com/mamadbah2/travel/services/search-service/internal/consumer"
	"github.com/mamadbah2/travel/services/search-service/internal/repository"
	shttp "github.com/mamadbah2/travel/services/search-service/internal/transport/http"
)

type Cfg struct {
	MongoURI string `envconfig:"MONGO_URI" required:"true"`
	MongoDB  string `envconfig:"MONGO_DB" default:"travel_search"`
	HTTPAddr string `envconfig:"SEARCH_HTTP_ADDR" default:":8083"`

	RabbitURL     string `envconfig:"RABBIT_URL" required:"true"`
	IndexPrefetch int    `envconfig:"TRAVEL_INDEX_PREFETCH" default:"8"`
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

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "search").Logger()

	shutdown := must(obs.InitTracer("search-service"))
	defer shutdown(context.Background())

	mctx, mcancel := context.WithTimeout(context.Background(), 10*time.Second)
	client := must(mongo.Connect(mctx, options.Client().ApplyURI(cfg.MongoURI)))
	must(0, client.Ping(mctx, nil))
	mcancel()
	defer client.Disconnect(context.Background())

	index := repository.NewTravelIndex(client.Database(cfg.MongoDB))
	must(0, index.EnsureIndexes(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	factCons := must(mq.NewConsumer(cfg.RabbitURL, events.TravelExchange, events.TravelIndexQueue,
		[]string{events.RKTravelCreated, events.RKTravelUpdated, events.RKTravelDeleted},
		mq.ConsumerOptions{Prefetch: cfg.IndexPrefetch}))
	defer factCons.Close()
	tc := cons.NewTravelFactConsumer(index, factCons, logger)
	go func() {
		if err := tc.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("travel fact consumer stopped")
		}
	}()
	logger.Info().Str("queue", events.TravelIndexQueue).Msg("travel fact consumer started")

	r := gin.New()
	r.Use(gin.Recovery())
	shttp.NewHandler(index).Register(r)

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
