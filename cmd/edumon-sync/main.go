package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edumon-sync/internal/application/auth"
	"github.com/edumon-sync/internal/application/device"
	"github.com/edumon-sync/internal/application/notification"
	"github.com/edumon-sync/internal/application/profile"
	"github.com/edumon-sync/internal/application/session"
	"github.com/edumon-sync/internal/config"
	"github.com/edumon-sync/internal/infrastructure/dynamo"
	"github.com/edumon-sync/internal/infrastructure/edumon"
	jwtinfra "github.com/edumon-sync/internal/infrastructure/jwt"
	"github.com/edumon-sync/internal/infrastructure/memory"
	redisinfra "github.com/edumon-sync/internal/infrastructure/redis"
	s3infra "github.com/edumon-sync/internal/infrastructure/s3"
	"github.com/edumon-sync/internal/infrastructure/sns"
	"github.com/edumon-sync/internal/pkg/logger"
	transporthttp "github.com/edumon-sync/internal/transport/http"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const usage = `usage: edumon-sync [command]

commands:
  serve           run the sync engine and the local API (default)
  poll            run a single poll cycle and exit
  token <client>  print a bearer token for the local API
`

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, reading from environment")
	}
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	switch cmd {
	case "serve":
		err = serve(cfg, log)
	case "poll":
		err = pollOnce(cfg, log)
	case "token":
		err = printToken(cfg, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("edumon-sync failed", zap.String("command", cmd), zap.Error(err))
	}
}

// app is the wired object graph shared by the commands.
type app struct {
	store   *session.Store
	api     *edumon.Client
	engine  *notification.Engine
	events  *notification.Events
	device  device.Service
	auth    auth.Service
	profile profile.Service
	notifs  notification.Service
	close   func()
}

func build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	backend, closeBackend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	store := session.NewStore(backend, session.WithRecentLimit(cfg.RecentIDsLimit))

	api, err := edumon.NewClient(cfg.APIBaseURL, cfg.APITimeout)
	if err != nil {
		closeBackend()
		return nil, err
	}

	display := notification.MultiDisplay{notification.NewLogDisplay(log.Named("display"))}
	if cfg.SNSTargetARN != "" {
		snsClient, err := sns.NewClient(ctx, cfg)
		if err != nil {
			closeBackend()
			return nil, fmt.Errorf("sns client: %w", err)
		}
		display = append(display, sns.NewDisplay(snsClient, cfg.SNSTargetARN))
		log.Info("sns display enabled", zap.String("target", cfg.SNSTargetARN))
	}

	s3Client, err := s3infra.NewClient(ctx, cfg)
	if err != nil {
		closeBackend()
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	events := notification.NewEvents()
	engine := notification.NewEngine(store, api, display, events, log.Named("sync"), notification.EngineConfig{
		Interval: cfg.PollInterval,
		PageSize: cfg.PollPageSize,
		Policy:   notification.ParseDedupPolicy(cfg.DedupPolicy),
		Metrics:  notification.NewMetrics(prometheus.DefaultRegisterer),
	})
	deviceSvc := device.NewService(store, api)

	return &app{
		store:   store,
		api:     api,
		engine:  engine,
		events:  events,
		device:  deviceSvc,
		auth:    auth.NewService(api, store, deviceSvc, log.Named("auth")),
		profile: profile.NewService(store, s3infra.NewStore(s3Client, cfg), log.Named("profile")),
		notifs:  notification.NewService(store, api),
		close:   closeBackend,
	}, nil
}

// openBackend selects the durable store of the session record.
func openBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (session.Backend, func(), error) {
	noop := func() {}
	switch cfg.StorageDriver {
	case "memory":
		log.Warn("session record kept in memory; it will not survive a restart")
		return memory.NewPrefsRepo(), noop, nil
	case "redis":
		rdb, err := redisinfra.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		log.Info("session record in redis", zap.String("addr", cfg.RedisAddr))
		return redisinfra.NewPrefsRepo(rdb, cfg.RecordID), func() { _ = rdb.Close() }, nil
	case "dynamo", "":
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables, log)
		log.Info("session record in dynamodb", zap.String("table", cfg.DynamoTables.SessionRecords))
		return dynamo.NewPrefsRepo(client, cfg.DynamoTables.SessionRecords, cfg.RecordID), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}

func serve(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	var jwtProvider *jwtinfra.Provider
	if cfg.APIJWTSecret != "" {
		if jwtProvider, err = jwtinfra.NewProvider(cfg); err != nil {
			return err
		}
	} else {
		log.Warn("API_JWT_SECRET not set; local API is unauthenticated")
	}

	router, stopRouter := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Auth:          a.auth,
		Device:        a.device,
		Profile:       a.profile,
		Notifications: a.notifs,
		Engine:        a.engine,
		Events:        a.events,
		Settings:      a.store,
		JWTProvider:   jwtProvider,
	})
	defer stopRouter()

	srv := newServer(ctx, fmt.Sprintf(":%s", cfg.AppPort), router)

	if err := a.engine.Start(ctx); err != nil {
		return err
	}
	defer a.engine.Stop()

	go func() {
		if err := a.device.Sync(ctx); err != nil {
			log.Warn("pending push token sync failed", zap.Error(err))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// newServer builds the HTTP server. Request contexts derive from ctx, so a
// shutdown signal also ends long-lived /v1/events streams.
func newServer(ctx context.Context, addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:        addr,
		Handler:     h,
		ReadTimeout: 15 * time.Second,
		// No write timeout: /v1/events holds its response open.
		IdleTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
}

func pollOnce(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	shown, err := a.engine.PollOnce(ctx)
	if err != nil {
		return err
	}
	log.Info("poll finished", zap.Int("displayed", shown))
	return nil
}

func printToken(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	p, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return err
	}
	tok, err := p.Sign(args[0])
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}
