// Package main is the entry point for the Hermes Gateway credential store.
// It wires configuration, logging, the Redis-backed store, and the user and
// application services; the admin API and CLI consume the services from
// their own processes.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/prn-tf/hermes-gateway/internal/config"
	"github.com/prn-tf/hermes-gateway/internal/service"
	"github.com/prn-tf/hermes-gateway/internal/store"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	initLogger(cfg.Logging)

	log.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting hermes credential store")

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Redis.Addr(),
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		PoolSize:    cfg.Redis.PoolSize,
		DialTimeout: cfg.Redis.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), cfg.Redis.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Redis.Addr()).Msg("failed to connect to redis")
	}
	log.Info().Str("addr", cfg.Redis.Addr()).Msg("connected to redis")

	kv := store.NewRedisStore(client)
	apps := service.NewApplicationService(kv, service.CredentialParams{
		SecretLength: cfg.Credentials.SecretLength,
		DigestCost:   cfg.Credentials.DigestCost,
	}, log.Logger)
	users := service.NewUserService(kv, apps, log.Logger)

	// TODO: mount the admin API transport on users/apps once it lands.
	_, _ = users, apps

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Msg("credential store ready")
	<-ctx.Done()

	log.Info().Msg("shutting down")
	if err := client.Close(); err != nil {
		log.Error().Err(err).Msg("error closing redis client")
	}
}

// initLogger configures the global zerolog logger from config.
func initLogger(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: cfg.TimeFormat})
	}
}
