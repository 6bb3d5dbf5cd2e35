package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/suisse-offerten/marketplace-api/api"
	"github.com/suisse-offerten/marketplace-api/config"
	"github.com/suisse-offerten/marketplace-api/notify"
	"github.com/suisse-offerten/marketplace-api/payment"
	"github.com/suisse-offerten/marketplace-api/ratelimit"
	"github.com/suisse-offerten/marketplace-api/service"
	"github.com/suisse-offerten/marketplace-api/store/mongostore"
	"github.com/suisse-offerten/marketplace-api/uploads"
	"github.com/suisse-offerten/marketplace-api/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger := utils.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize MongoDB
	mongoClient, err := utils.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Timeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(context.Background())

	db := mongostore.New(mongoClient.Database(cfg.Mongo.DBName), cfg.Mongo.Timeout)
	if err := db.EnsureIndexes(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create indexes")
	}
	repos := db.Repositories()

	sender, err := notify.NewSender(cfg.Mail, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to set up mail sender")
	}
	mailer := notify.NewMailer(sender, cfg.Mail, cfg.HTTP.CorsURL, logger)

	deps := api.Deps{
		Config:   cfg,
		Logger:   logger,
		Repos:    repos,
		Accounts: service.NewAccounts(repos, mailer, cfg, logger),
		Jobs:     service.NewJobs(repos, mailer, logger),
		Payments: service.NewPayments(repos, payment.NewStripeGateway(cfg.Stripe.SecretKey, nil), cfg, logger),
	}

	switch cfg.Upload.Driver {
	case config.UploadDriverS3:
		s3Store, err := uploads.NewS3Store(ctx, cfg.Upload.AWSRegion, cfg.Upload.BucketName)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to set up S3 uploads")
		}
		deps.Uploads = s3Store
		deps.Signer = s3Store
	default:
		local, err := uploads.NewLocalStore(cfg.Upload.Dir)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to set up local uploads")
		}
		deps.Uploads = local
		deps.Files = local.Handler()
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("Redis unreachable, rate limiting fails open")
		}
		deps.Limiter = ratelimit.New(rdb, logger, "", cfg.Redis.OTPRate, cfg.Redis.OTPBurst)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           api.NewServer(deps).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	logger.Info().
		Str("port", cfg.HTTP.Port).
		Str("env", cfg.AppEnv).
		Str("uploads", cfg.Upload.Driver).
		Bool("rate_limit", deps.Limiter != nil).
		Msg("Server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("Server failed to start")
	}
}
