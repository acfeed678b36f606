// Command eventctl drives the event-booking API from a terminal, sharing
// the dashboard's session store.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/aura-events/dashboard/config"
	"github.com/aura-events/dashboard/internal/apiclient"
	"github.com/aura-events/dashboard/internal/auth"
	"github.com/aura-events/dashboard/internal/moderation"
	"github.com/aura-events/dashboard/internal/session"
	"github.com/aura-events/dashboard/pkg/redis"
	"github.com/aura-events/dashboard/pkg/storage"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := zap.NewNop()
	if os.Getenv("EVENTCTL_DEBUG") != "" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "eventctl:", err)
		return 2
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "eventctl:", err)
		return 1
	}
	defer closeStore()

	apiClient, err := apiclient.New(apiclient.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout(),
		Tokens:  apiclient.StoreTokens{Store: store},
		Logger:  logger,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "eventctl:", err)
		return 2
	}
	authClient := auth.NewClient(apiClient, store, logger)
	authClient.SetRedirectHandler(func(string) {
		fmt.Fprintln(os.Stderr, "session ended; run `eventctl login` again")
	})

	a := &app{
		api:        apiClient,
		auth:       authClient,
		organizers: moderation.NewOrganizerBoard(apiClient, authClient, nil, logger),
		events:     moderation.NewEventBoard(apiClient, authClient, nil, logger),
		out:        os.Stdout,
		in:         os.Stdin,
		password:   promptPassword,
	}
	if cfg.AWS.ExportBucket != "" {
		exp, err := storage.NewExporter(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			Endpoint:             cfg.AWS.Endpoint,
			ExportBucket:         cfg.AWS.ExportBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, "eventctl: export disabled:", err)
		} else {
			a.exporter = exp
		}
	}

	if err := a.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			return 2
		}
		fmt.Fprintln(os.Stderr, "eventctl:", describe(err))
		return 1
	}
	return 0
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (session.Store, func(), error) {
	if cfg.Session.Backend == config.SessionBackendRedis {
		rdb, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisStore(rdb.Client, cfg.Session.Namespace, logger), func() { _ = rdb.Close() }, nil
	}
	fs, err := session.NewFileStore(cfg.Session.Dir)
	if err != nil {
		return nil, nil, err
	}
	return fs, func() {}, nil
}
