package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ukydev/motormate/internal/analytics"
	"github.com/ukydev/motormate/internal/auth"
	"github.com/ukydev/motormate/internal/config"
	"github.com/ukydev/motormate/internal/db"
	"github.com/ukydev/motormate/internal/events"
	"github.com/ukydev/motormate/internal/handlers"
	"github.com/ukydev/motormate/internal/logging"
	"github.com/ukydev/motormate/internal/middleware"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

// loadConfig loads, validates and applies the logging settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

	store := db.NewStore(client.Database(cfg.MongoDB))
	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}

	publisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	router, err := newRouter(cfg, store, publisher, func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(log.Fields{
			"port":        cfg.Port,
			"environment": cfg.Environment,
		}).Info("MotorMate API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newPublisher returns the MQTT publisher, or a no-op one when no broker
// is configured.
func newPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.MQTTBroker == "" {
		return events.Nop{}, nil
	}
	p, err := events.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopicPrefix)
	if err != nil {
		return nil, err
	}
	log.WithField("broker", cfg.MQTTBroker).Info("Publishing events over MQTT")
	return p, nil
}

// newRouter wires the handlers over store.
func newRouter(cfg *config.Config, store *db.Store, publisher events.Publisher, health handlers.HealthCheck) (http.Handler, error) {
	authService, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is not set, using the development key")
	}

	var provider auth.IdentityProvider
	if cfg.GoogleClientID != "" {
		provider = auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	} else {
		log.Warn("Google sign-in is not configured")
	}

	rs := handlers.NewResponder(cfg.IsProduction())
	h := handlers.Handlers{
		Auth:      handlers.NewAuthHandler(rs, authService, provider, store.Users, cfg.FrontendURL, cfg.IsProduction()),
		Vehicles:  handlers.NewVehicleHandler(rs, store.Vehicles, store.Expenses, store.Trips, publisher),
		Expenses:  handlers.NewExpenseHandler(rs, store.Expenses, store.Vehicles, publisher),
		Trips:     handlers.NewTripHandler(rs, store.Trips, store.Vehicles, publisher),
		Analytics: handlers.NewAnalyticsHandler(rs, analytics.NewService(store.Expenses, store.Trips, store.Vehicles)),
		Posts:     handlers.NewPostHandler(rs, store.Posts, store.Users, publisher),
		Health:    health,
	}
	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}
	return handlers.NewRouter(h,
		middleware.NewAuthMiddleware(authService),
		middleware.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst, proxies...),
	), nil
}
