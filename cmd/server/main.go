package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/groundcrewhq/groundcrew/internal/api"
	"github.com/groundcrewhq/groundcrew/internal/automigrate"
	"github.com/groundcrewhq/groundcrew/internal/blob"
	"github.com/groundcrewhq/groundcrew/internal/config"
	"github.com/groundcrewhq/groundcrew/internal/identity"
	"github.com/groundcrewhq/groundcrew/internal/ingest"
	"github.com/groundcrewhq/groundcrew/internal/logger"
	"github.com/groundcrewhq/groundcrew/internal/notify"
	"github.com/groundcrewhq/groundcrew/internal/store"
	"github.com/groundcrewhq/groundcrew/internal/ws"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.IsProduction(), "groundcrew-server")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if err := automigrate.Run(db, "migrations", log); err != nil {
		log.Fatal("migrations failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := ws.NewHub()
	go hub.Run()

	// Events fan out through Redis so every server instance sees them.
	// Without Redis the hub still serves clients connected to this process.
	var publisher ws.Publisher
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, events stay local", zap.Error(err))
		publisher = ws.NewHubPublisher(hub)
	} else {
		publisher = ws.NewRedisPublisher(rdb, cfg.Redis.EventChannel)
		bridge := ws.NewBridge(rdb, cfg.Redis.EventChannel, hub, log)
		go func() {
			if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("event bridge stopped", zap.Error(err))
			}
		}()
	}

	staffStore := store.NewStaffStore(db)
	headcountStore := store.NewHeadcountStore(db)
	notificationStore := store.NewNotificationStore(db)

	if cfg.MQTT.Broker != "" {
		ingestor, err := ingest.New(cfg.MQTT, headcountStore, publisher, log)
		if err != nil {
			log.Fatal("mqtt connect failed", zap.Error(err))
		}
		if err := ingestor.Start(ctx); err != nil {
			log.Fatal("mqtt subscribe failed", zap.Error(err))
		}
		defer ingestor.Stop()
		log.Info("headcount ingest started", zap.String("topic", cfg.MQTT.Topic))
	}

	if cfg.Notify.ProviderURL != "" {
		sender := notify.NewProviderSender(cfg.Notify.ProviderURL, cfg.Notify.APIKey)
		worker := notify.NewWorker(notificationStore, sender,
			cfg.Notify.BatchSize, cfg.Notify.MaxAttempts, cfg.Notify.Interval, log)
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("notification worker stopped", zap.Error(err))
			}
		}()
	}

	idClient := identity.NewClient(cfg.Identity.BaseURL, cfg.Identity.APIKey)
	blobClient := blob.NewClient(cfg.Blob.BaseURL, cfg.Blob.APIKey)

	router := api.NewRouter(api.Deps{
		Staff:         staffStore,
		Audit:         store.NewAuditStore(db),
		Teams:         store.NewTeamStore(db),
		Facilities:    store.NewFacilityStore(db),
		Tasks:         store.NewTaskStore(db),
		Issues:        store.NewIssueStore(db),
		Shifts:        store.NewShiftStore(db),
		Headcounts:    headcountStore,
		Notifications: notificationStore,
		Ads:           store.NewAdStore(db),
		Uploads:       store.NewBulkUploadStore(db),
		Hub:           hub,
		Publisher:     publisher,
		Verifier:      idClient,
		Auth:          idClient,
		Blob:          blobClient,
		Log:           log,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("groundcrew server starting", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown incomplete", zap.Error(err))
	}
}
