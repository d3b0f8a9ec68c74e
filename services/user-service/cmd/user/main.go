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
	"github.com/mamadbah2/travel/pkg/obs"
	"github.com/mamadbah2/travel/services/user-service/internal/repository"
	"github.com/mamadbah2/travel/services/user-service/internal/service"
	uhttp "github.com/mamadbah2/travel/services/user-service/internal/transport/http"
)

type Cfg struct {
	PGUserDSN string `envconfig:"PG_USER_DSN" required:"true"`
	HTTPAddr  string `envconfig:"USER_HTTP_ADDR" default:":8080"`
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
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

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "user").Logger()

	shutdown := must(obs.InitTracer("user-service"))
	defer shutdown(context.Background())

	gdb := must(db.Open(cfg.PGUserDSN))
	repo := repository.NewUserRepo(gdb)
	must(0, repo.Migrate())

	svc := service.NewUserService(repo, cfg.JWTSecret, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	uhttp.NewHandler(svc).Register(r, cfg.JWTSecret)

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
	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	_ = srv.Shutdown(sctx)
	logger.Info().Msg("stopped")
}
