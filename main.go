package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"food-marketplace-api/config"
	"food-marketplace-api/events"
	"food-marketplace-api/handlers"
	"food-marketplace-api/logger"
	"food-marketplace-api/notify"
	"food-marketplace-api/routes"
	"food-marketplace-api/services"
	"food-marketplace-api/storage"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logger.New("food-marketplace-api")
	if err := run(log); err != nil {
		log.Error("startup_failed", "", "server exited with error", err)
		os.Exit(1)
	}
}

func run(log *logger.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	gin.SetMode(cfg.Server.GinMode)
	decimal.MarshalJSONWithoutQuotes = true
	if err := handlers.RegisterValidators(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := config.OpenDB(cfg.Database)
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql handle: %w", err)
	}
	defer sqlDB.Close()
	log.Info("database_ready", "", "database connected and migrated",
		slog.String("driver", cfg.Database.Driver))

	// Integrations fall back to local implementations when unconfigured
	var sms notify.SMSSender = notify.LogSender{Log: log}
	if cfg.Twilio.AccountSID != "" {
		sms = notify.NewTwilioSender(cfg.Twilio.BaseURL, cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
	}

	var alerter notify.VendorAlerter = notify.NoopAlerter{}
	if cfg.Telegram.BotToken != "" {
		tg, err := notify.NewTelegramAlerter(cfg.Telegram.BotToken)
		if err != nil {
			return err
		}
		alerter = tg
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.AMQP.URL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return err
		}
		publisher = amqpPub
	}
	defer publisher.Close()

	var images storage.ImageStore
	if cfg.Storage.S3Bucket != "" {
		images, err = storage.NewS3Store(ctx, cfg.Storage.S3Bucket)
	} else {
		images, err = storage.NewDiskStore(cfg.Storage.ImageDir)
	}
	if err != nil {
		return err
	}

	deps := services.Deps{
		DB:           db,
		Locks:        services.NewKeyLock(),
		Publisher:    publisher,
		Log:          log,
		StoreTimeout: cfg.StoreTimeout(),
	}
	ledger := services.NewLedgerService(deps, cfg.Ledger.ClampPayableAtZero)
	dispatcher := services.NewDispatcher(deps, services.RankerFor(cfg.Dispatch.Strategy), cfg.Dispatch.MaxAttempts)
	svc := handlers.Services{
		Identity:   services.NewIdentityService(deps, sms, cfg.OTPTTL()),
		Cart:       services.NewCartService(deps),
		Ledger:     ledger,
		Orders:     services.NewOrderService(deps, ledger, dispatcher, alerter),
		Dispatcher: dispatcher,
		Catalog:    services.NewCatalogService(deps),
	}

	h := handlers.New(cfg, svc, images, log)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           routes.NewRouter(cfg, h, log, sqlDB),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server_started", "", "server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return dispatcher.Run(gctx, cfg.DispatchRetryInterval())
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("server_stopping", "", "shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
