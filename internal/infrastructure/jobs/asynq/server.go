package asynq

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

const (
	// Purge tasks are single bulk DELETE statements; a handful of workers is
	// plenty and keeps pressure off the shared connection pool.
	defaultConcurrency = 4

	defaultShutdownTimeoutSec = 30
)

// ServerConfig holds configuration for the maintenance worker.
type ServerConfig struct {
	// RedisAddr is the broker address (host:port).
	RedisAddr string

	// RedisPassword is the broker password (optional).
	RedisPassword string

	// RedisDB is the broker database number.
	RedisDB int

	// Concurrency is the maximum number of tasks processed at once.
	// Default: 4.
	Concurrency int

	// ShutdownTimeout is how long in-flight purges may run during shutdown.
	// Default: 30 seconds.
	ShutdownTimeout time.Duration

	// Logger is the structured logger for worker operations.
	Logger zerolog.Logger
}

// DefaultServerConfig returns the worker defaults for the given broker.
func DefaultServerConfig(redisAddr string, logger zerolog.Logger) ServerConfig {
	return ServerConfig{
		RedisAddr:       redisAddr,
		Concurrency:     defaultConcurrency,
		ShutdownTimeout: defaultShutdownTimeoutSec * time.Second,
		Logger:          logger,
	}
}

// Server processes the auth maintenance queue: the periodic purge of expired
// sessions and refresh credentials. Everything runs on the single default
// queue — the purge is the only background work this service has, and
// skipping or delaying it never affects correctness (revocation stays
// authoritative in Postgres).
type Server struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger zerolog.Logger
}

// NewServer creates the worker over the given broker configuration.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeoutSec * time.Second
	}

	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		asynq.Config{
			Concurrency:     cfg.Concurrency,
			Queues:          map[string]int{"default": 1},
			ShutdownTimeout: cfg.ShutdownTimeout,
			Logger:          zlogAdapter{logger: cfg.Logger},
		},
	)

	return &Server{
		server: server,
		mux:    asynq.NewServeMux(),
		logger: cfg.Logger,
	}, nil
}

// Handle registers the handler for a task type.
func (s *Server) Handle(taskType string, handler asynq.Handler) {
	s.mux.Handle(taskType, handler)
	s.logger.Info().
		Str("task_type", taskType).
		Msg("registered task handler")
}

// Start runs the worker until Shutdown is called. Blocking; run in a
// goroutine for background operation.
func (s *Server) Start() error {
	s.logger.Info().Msg("starting maintenance worker")

	if err := s.server.Run(s.mux); err != nil {
		return fmt.Errorf("asynq server run: %w", err)
	}

	s.logger.Info().Msg("maintenance worker stopped")
	return nil
}

// Shutdown stops the worker, waiting up to ShutdownTimeout for in-flight
// purges to finish.
func (s *Server) Shutdown() {
	s.logger.Info().Msg("shutting down maintenance worker")
	s.server.Shutdown()
}

// zlogAdapter bridges zerolog to the asynq.Logger interface.
type zlogAdapter struct {
	logger zerolog.Logger
}

func (l zlogAdapter) Debug(args ...interface{}) { l.logger.Debug().Msg(fmt.Sprint(args...)) }
func (l zlogAdapter) Info(args ...interface{})  { l.logger.Info().Msg(fmt.Sprint(args...)) }
func (l zlogAdapter) Warn(args ...interface{})  { l.logger.Warn().Msg(fmt.Sprint(args...)) }
func (l zlogAdapter) Error(args ...interface{}) { l.logger.Error().Msg(fmt.Sprint(args...)) }
func (l zlogAdapter) Fatal(args ...interface{}) { l.logger.Fatal().Msg(fmt.Sprint(args...)) }
