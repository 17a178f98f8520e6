package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Zulfatok/mael/internal/api"
	"github.com/Zulfatok/mael/internal/core/credential"
	"github.com/Zulfatok/mael/internal/core/ports"
	"github.com/Zulfatok/mael/internal/core/service"
	"github.com/Zulfatok/mael/internal/infrastructure/blob"
	"github.com/Zulfatok/mael/internal/infrastructure/config"
	mongostore "github.com/Zulfatok/mael/internal/infrastructure/db/mongo"
	redisstore "github.com/Zulfatok/mael/internal/infrastructure/db/redis"
	"github.com/Zulfatok/mael/internal/infrastructure/notify"
	"github.com/Zulfatok/mael/internal/infrastructure/queue"
	"github.com/Zulfatok/mael/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// @title        Mael API
// @version      1.0
// @description  Multi-tenant email-alias portal.
// @BasePath     /
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fallback := logger.Init("info", false, nil)
		fallback.Fatal().Err(err).Msg("configuration load failed")
	}

	log := logger.Init(cfg.LogLevel, cfg.Env == "development", nil)

	// --- Stores ---
	mongoClient, db, err := mongostore.Connect(ctx, cfg.Mongo)
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := redisstore.Connect(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	blobs, err := blob.NewStore(ctx, blob.Config{
		Region:    cfg.S3.Region,
		Bucket:    cfg.S3.Bucket,
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("blob store init failed")
	}

	// --- Repositories ---
	users := mongostore.NewUserRepository(db)
	sessions := mongostore.NewSessionRepository(db)
	resets := mongostore.NewResetTokenRepository(db)
	aliases := mongostore.NewAliasRepository(db)
	messages := mongostore.NewMessageRepository(db)

	for _, idx := range []interface {
		EnsureIndexes(context.Context) error
	}{users, sessions, resets, aliases, messages} {
		if err := idx.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("index creation failed")
		}
	}

	caps, err := mongostore.ProbeCapabilities(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("schema capability probe failed")
	}
	log.Info().Bool("per_user_iterations", caps.PerUserIterations).Msg("schema capabilities probed")

	// --- Services ---
	hasher, err := credential.NewHasher(cfg.Auth.PBKDF2Iterations)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid key-derivation configuration")
	}

	var notifier ports.ResetNotifier
	if cfg.SMTP.Addr != "" {
		notifier = notify.NewSMTPSender(notify.SMTPConfig{
			Addr:      cfg.SMTP.Addr,
			From:      cfg.SMTP.From,
			ResetLink: cfg.SMTP.ResetLink,
		})
	} else {
		notifier = notify.NewLogSender(log)
	}

	accountSvc := service.NewAccountService(users, hasher, caps, cfg.Auth.DefaultAliasLimit, log)
	sessionSvc := service.NewSessionManager(sessions, users, log)
	resetSvc := service.NewResetManager(users, resets, hasher, notifier, caps, cfg.Auth.ResetTTL, log)
	aliasSvc := service.NewAliasManager(aliases, messages, users, blobs, log)
	inboxSvc := service.NewInboxManager(aliases, messages, users, blobs,
		redisstore.NewDedupChecker(rdb), cfg.MailDomain, log)

	// --- Ingestion pipeline ---
	dispatcher := queue.NewDispatcher(cfg.Ingest.Workers, inboxSvc, log)
	dispatcher.Start(ctx)

	// --- HTTP server ---
	e := api.NewRouter(api.Deps{
		Config:     cfg,
		Log:        log,
		Accounts:   accountSvc,
		Sessions:   sessionSvc,
		Resets:     resetSvc,
		Aliases:    aliasSvc,
		Inbox:      inboxSvc,
		Dispatcher: dispatcher,
		Mongo:      db,
		Redis:      rdb,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
