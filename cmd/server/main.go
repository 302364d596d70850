package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/imf-gadgets/gadget-api/internal/config"
	"github.com/imf-gadgets/gadget-api/internal/cookies"
	"github.com/imf-gadgets/gadget-api/internal/es"
	"github.com/imf-gadgets/gadget-api/internal/handlers"
	"github.com/imf-gadgets/gadget-api/internal/logging"
	"github.com/imf-gadgets/gadget-api/internal/metrics"
	"github.com/imf-gadgets/gadget-api/internal/middleware/auth"
	"github.com/imf-gadgets/gadget-api/internal/middleware/ratelimit"
	"github.com/imf-gadgets/gadget-api/internal/mykafka"
	"github.com/imf-gadgets/gadget-api/internal/repo"
	"github.com/imf-gadgets/gadget-api/internal/service"
	"github.com/imf-gadgets/gadget-api/internal/tokens"
	httpserver "github.com/imf-gadgets/gadget-api/internal/transport/http"
)

type publisher interface {
	service.Publisher
	Close() error
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg.VERBOSE)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(ctx, cfg)
	if err != nil {
		log.Error("db_init_failed", "error", err)
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Error("db_init_failed", "error", err)
		os.Exit(1)
	}
	store := repo.New(db)

	var events publisher = mykafka.Nop{}
	if len(cfg.KAFKA_BROKERS) > 0 {
		if err := mykafka.EnsureTopics(ctx, cfg.KAFKA_BROKERS[0], mykafka.TopicUserEvents, mykafka.TopicGadgetEvents); err != nil {
			log.Warn("kafka_topics_failed", "error", err)
		}
		events = mykafka.NewProducer(cfg.KAFKA_BROKERS)
		log.Info("kafka_enabled", "brokers", cfg.KAFKA_BROKERS)
	}

	// left as a nil interface when search runs against the database only
	var index service.SearchIndex
	if cfg.ES_URL != "" {
		client, err := es.NewClient(ctx, es.Config{URL: cfg.ES_URL, User: cfg.ES_USER, Password: cfg.ES_PASSWORD}, log)
		if err != nil {
			log.Warn("es_disabled", "error", err)
		} else {
			gi := es.NewGadgetIndex(client, cfg.ES_INDEX)
			if err := gi.EnsureIndex(ctx); err != nil {
				log.Warn("es_disabled", "error", err)
			} else {
				index = gi
			}
		}
	}

	codec := tokens.NewCodec([]byte(cfg.JWT_SECRET))
	cb := cookies.Builder{Secure: cfg.COOKIE_SECURE}
	m := metrics.New()

	session := auth.NewSession(codec, store, cb)
	session.Observer = m.ObserveReissue

	limiter := ratelimit.New(cfg.AUTH_RATE_LIMIT_RPS, cfg.AUTH_RATE_LIMIT_BURST)
	limiter.OnReject = m.ObserveRateLimited
	go limiter.Run(ctx)

	e := httpserver.NewEcho(log, m)
	httpserver.Register(e, &httpserver.Deps{
		Auth:    &handlers.AuthHandler{Auth: service.NewAuthService(store, codec, events), Cookies: cb},
		Gadgets: &handlers.GadgetHandler{Gadgets: service.NewGadgetService(store, events, index)},
		Health:  &handlers.HealthHandler{DB: sqlDB},
		Session: session,
		Limiter: limiter,
		Metrics: m,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		log.Info("server_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_server_error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server_shutdown_error", "error", err)
	}
	if err := sqlDB.Close(); err != nil {
		log.Error("db_close_error", "error", err)
	}
	if err := events.Close(); err != nil {
		log.Error("kafka_close_error", "error", err)
	}

	log.Info("shutdown_complete")
}
