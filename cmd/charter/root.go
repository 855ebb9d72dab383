package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/aretw0/charter/internal/config"
	"github.com/aretw0/charter/internal/logging"
	"github.com/aretw0/charter/pkg/adapters/memory"
	"github.com/aretw0/charter/pkg/adapters/opencorp"
	"github.com/aretw0/charter/pkg/adapters/redis"
	"github.com/aretw0/charter/pkg/formation"
	"github.com/aretw0/charter/pkg/persistence/middleware"
	"github.com/aretw0/charter/pkg/ports"
	"github.com/aretw0/charter/pkg/session"
)

var rootCmd = &cobra.Command{
	Use:   "charter",
	Short: "Charter is a conversational company-formation assistant",
	Long: `Charter walks you through forming a company (state, entity type, name,
registered agent, shareholders, certificate) as a resumable session, and
exposes the same flow to AI agents over MCP and to services over REST.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a charter YAML config file")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return logging.New(level)
}

// buildService assembles the formation service from configuration: store
// backend, persistence middleware, lock manager, and collaborators. The
// returned cleanup releases the store connection.
func buildService(cfg config.Config, logger *slog.Logger) (*formation.Service, func(), error) {
	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	var store ports.SessionStore
	lockOpts := []session.Option{session.WithLogger(logger)}

	if cfg.Redis.Addr != "" {
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		redisStore := redis.NewFromClient(client, redis.WithTTL(cfg.SessionTTL))
		store = redisStore
		cleanup = func() { _ = redisStore.Close() }

		lockOpts = append(lockOpts, session.WithLocker(redis.NewLocker(client, "charter:lock:")))
		if cfg.Redis.LockTTL > 0 {
			lockOpts = append(lockOpts, session.WithLockTTL(cfg.Redis.LockTTL))
		}
		logger.Info("using redis session store", "addr", cfg.Redis.Addr)
	} else {
		store = memory.NewStore(memory.WithTTL(cfg.SessionTTL))
		logger.Info("using in-memory session store")
	}

	activeKey, fallbackKeys, err := cfg.Encryption.Keys()
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var mws []middleware.Middleware
	if cfg.Encryption.ScrubPII {
		mws = append(mws, middleware.NewPIIMiddleware())
	}
	if activeKey != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    activeKey,
			FallbackKeys: fallbackKeys,
		}))
		logger.Info("session encryption at rest enabled", "fallback_keys", len(fallbackKeys))
	}
	store = middleware.Chain(store, mws...)

	svcOpts := []formation.Option{
		formation.WithCatalog(catalog),
		formation.WithLogger(logger),
		formation.WithConfig(formation.Config{
			RewindOnEdit:     cfg.RewindOnEdit,
			BlockOnNameCheck: cfg.BlockOnNameCheck,
		}),
	}

	if cfg.OpenCorp.BaseURL != "" {
		client := opencorp.NewClient(cfg.OpenCorp.BaseURL,
			opencorp.WithAPIKey(cfg.OpenCorp.APIKey),
			opencorp.WithRetries(cfg.OpenCorp.Retries),
			opencorp.WithBackoff(cfg.OpenCorp.Backoff),
			opencorp.WithLogger(logger),
		)
		svcOpts = append(svcOpts,
			formation.WithNameChecker(client),
			formation.WithCertificateGenerator(client),
		)
		logger.Info("filing collaborators configured", "base_url", cfg.OpenCorp.BaseURL)
	} else {
		logger.Warn("no filing collaborator configured; name checks degrade to advisory and certificates cannot be generated")
	}

	svc := formation.NewService(store, session.NewManager(lockOpts...), svcOpts...)
	return svc, cleanup, nil
}
