package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/uzhavansanthai/marketplace/internal/cache"
	"github.com/uzhavansanthai/marketplace/internal/config"
	"github.com/uzhavansanthai/marketplace/internal/es"
	"github.com/uzhavansanthai/marketplace/internal/handlers"
	"github.com/uzhavansanthai/marketplace/internal/logging"
	"github.com/uzhavansanthai/marketplace/internal/middleware/auth"
	"github.com/uzhavansanthai/marketplace/internal/middleware/metrics"
	"github.com/uzhavansanthai/marketplace/internal/mykafka"
	"github.com/uzhavansanthai/marketplace/internal/service/insight"
	"github.com/uzhavansanthai/marketplace/internal/service/token"
	httpserver "github.com/uzhavansanthai/marketplace/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}

	tokens := &token.Service{
		JWTSecret:     []byte(cfg.JWTSecret),
		RefreshSecret: []byte(cfg.RefreshSecret),
		AccessTTL:     time.Duration(cfg.JWTExpiryHours) * time.Hour,
		RefreshTTL:    time.Duration(cfg.RefreshHours) * time.Hour,
	}

	var producer *mykafka.Producer
	if cfg.KafkaAddress != "" {
		producer = mykafka.NewProducer([]string{cfg.KafkaAddress})
	}

	esClient, err := es.NewClient(cfg)
	if err != nil {
		logger.Warn("elasticsearch unavailable, search disabled", zap.Error(err))
		esClient = nil
	}

	rdb, err := cache.New(cfg)
	if err != nil {
		logger.Warn("redis unavailable, recommendation cache disabled", zap.Error(err))
		rdb = nil
	}

	gateway := &insight.Gateway{
		Fallback: &insight.Fallback{DB: db},
		OnFallback: func(err error) {
			logger.Warn("ml service unavailable, using fallback", zap.Error(err))
			metrics.RecordPredictionFallback()
		},
	}
	if cfg.MLAPIURL != "" {
		gateway.Primary = insight.NewClient(cfg.MLAPIURL, cfg.MLAPIKey)
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(logging.RequestLogger(logger))
	e.Use(metrics.Middleware())

	deps := httpserver.Deps{
		DB:             db,
		Auth:           &auth.Middleware{DB: db, Tokens: tokens},
		AuthHandler:    &handlers.AuthHandler{DB: db, Tokens: tokens, Producer: producer},
		UserHandler:    &handlers.UserHandler{DB: db, Producer: producer},
		ProductHandler: &handlers.ProductHandler{DB: db, Producer: producer, ES: esClient, Index: "products"},
		OrderHandler:   &handlers.OrderHandler{DB: db, Producer: producer, StrictPayments: cfg.PaymentPolicy == "strict"},
		ChatHandler:    &handlers.ChatHandler{DB: db, Producer: producer},
		MLHandler:      &handlers.MLHandler{DB: db, Gateway: gateway, Cache: rdb},
		AdminHandler:   &handlers.AdminHandler{DB: db, Producer: producer},
		SearchHandler:  &handlers.SearchHandler{ES: esClient, Index: "products"},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", zap.Error(err))
		}
	}

	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("redis close error", zap.Error(err))
		}
	}

	logger.Info("shutdown complete")
}
