package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dias221467/Recovery_Tracker/internal/app"
	"github.com/Dias221467/Recovery_Tracker/internal/config"
	"github.com/Dias221467/Recovery_Tracker/internal/database"
	"github.com/Dias221467/Recovery_Tracker/internal/jobs"
	"github.com/Dias221467/Recovery_Tracker/internal/repository"
	"github.com/Dias221467/Recovery_Tracker/internal/repository/memory"
	"github.com/Dias221467/Recovery_Tracker/internal/scheduler"
	"github.com/Dias221467/Recovery_Tracker/internal/services"
	"github.com/Dias221467/Recovery_Tracker/pkg/email"
	"github.com/Dias221467/Recovery_Tracker/pkg/logger"
	"github.com/sirupsen/logrus"
)

const (
	sweepTimeout    = 5 * time.Minute
	shutdownTimeout = 15 * time.Second
)

func main() {
	// Load configuration from .env file and the environment
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Configuration error: %v", err)
	}

	logger.InitLogger(cfg.LogLevel)
	logger.Log.WithField("env", cfg.AppEnv).Info("Logger initialized")

	stores, err := openStores(cfg)
	if err != nil {
		logger.Log.Fatalf("Database connection error: %v", err)
	}

	var mailer services.Mailer
	if m := email.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPSender, cfg.SMTPPassword); m != nil {
		mailer = m
	}

	application := app.New(cfg, stores, mailer)

	sweeper := jobs.NewMilestoneSweeper(application.Milestones, sweepTimeout)
	sweepCron, err := scheduler.StartMilestoneCron(cfg.MilestoneSweepSpec, sweeper)
	if err != nil {
		logger.Log.Fatalf("Scheduler error: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           application.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.WithField("port", cfg.Port).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down")

	<-sweepCron.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Graceful shutdown failed")
	}
}

// openStores connects to MongoDB, or falls back to the in-memory store when
// running in development without MONGO_URI.
func openStores(cfg *config.Config) (app.Stores, error) {
	if cfg.MongoURI == "" && cfg.IsDevelopment() {
		logger.Log.Warn("MONGO_URI not set, using in-memory store")
		store := memory.New()
		return app.Stores{
			Users:         store,
			Milestones:    store,
			Friendships:   store,
			Notifications: store,
			Health:        store,
		}, nil
	}

	db, err := database.ConnectDB(cfg)
	if err != nil {
		return app.Stores{}, err
	}
	return app.Stores{
		Users:         repository.NewUserRepository(db),
		Milestones:    repository.NewMilestoneRepository(db),
		Friendships:   repository.NewFriendRepository(db),
		Notifications: repository.NewNotificationRepository(db),
		Health:        database.Pinger{DB: db},
	}, nil
}
