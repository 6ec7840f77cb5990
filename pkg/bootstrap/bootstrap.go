package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/abgdnv/menusync/pkg/config"
	"github.com/abgdnv/menusync/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// NewLogger creates a new slog.Logger instance with the specified log level.
// Records carry request and trace ids from the context when present.
func NewLogger(level string) *slog.Logger {
	return newLogger(os.Stdout, level)
}

// NewStderrLogger is NewLogger for command line tools whose stdout is reserved for output.
func NewStderrLogger(level string) *slog.Logger {
	return newLogger(os.Stderr, level)
}

func newLogger(w io.Writer, level string) *slog.Logger {
	logLevel := toLevel(level)
	loggerOpts := &slog.HandlerOptions{
		AddSource: logLevel == slog.LevelDebug,
		Level:     logLevel,
	}
	logHandler := slog.NewJSONHandler(w, loggerOpts)
	return slog.New(logger.NewContextHandler(logHandler))
}

// NewRedisClient creates a redis client and pings it to fail early if the server is unreachable.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, connectTimeout time.Duration) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// toLevel converts a string representation of a log level to slog.Level.
func toLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
